package orchestrator

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"hls-session/internal/media"
	"hls-session/internal/platform/logger"
	"hls-session/internal/playlist"
)

type fakeTranscoder struct {
	mu       sync.Mutex
	requests []media.TranscodeRequest
	err      error

	// When gate is set, Transcode signals started and blocks until gate is closed.
	started chan struct{}
	gate    chan struct{}
}

func (f *fakeTranscoder) Transcode(ctx context.Context, req media.TranscodeRequest) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	started, gate, err := f.started, f.gate, f.err
	f.mu.Unlock()

	if gate != nil {
		started <- struct{}{}
		<-gate
	}
	return err
}

// block makes the next transcodes wait until the returned release is called.
func (f *fakeTranscoder) block() (started <-chan struct{}, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = make(chan struct{}, appendQueueSize)
	f.gate = make(chan struct{})
	gate := f.gate
	return f.started, func() { close(gate) }
}

func (f *fakeTranscoder) Requests() []media.TranscodeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]media.TranscodeRequest(nil), f.requests...)
}

type fakeProber struct {
	mu       sync.Mutex
	duration float64
	err      error
	paths    []string
}

func (f *fakeProber) Probe(ctx context.Context, path string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	return f.duration, f.err
}

type testEnv struct {
	kit        *Kit
	repo       *InMemoryRepository
	svc        *Service
	transcoder *fakeTranscoder
	prober     *fakeProber
	workDir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvIn(t, t.TempDir())
}

func newTestEnvIn(t *testing.T, workDir string, configure ...func(*Options)) *testEnv {
	t.Helper()
	kit := NewKit(KitConfig{Audio: media.AudioOptions{Bitrate: 40000}, WorkDirectory: workDir})
	require.NoError(t, kit.AddOutputVariant(playlist.OutputVariant{Name: "lo", Bitrate: 80000, FrameRate: 16, KeyframeInterval: 8, Resolution: "360x360"}))
	require.NoError(t, kit.AddOutputVariant(playlist.OutputVariant{Name: "audio", SkipVideo: true}))

	env := &testEnv{
		kit:        kit,
		repo:       NewInMemoryRepository(),
		transcoder: &fakeTranscoder{},
		prober:     &fakeProber{duration: 10},
		workDir:    workDir,
	}
	opts := Options{
		Transcoder: env.transcoder,
		Prober:     env.prober,
		Log:        logger.Discard(),
	}
	for _, fn := range configure {
		fn(&opts)
	}
	env.svc = NewService(kit, env.repo, opts)
	t.Cleanup(env.svc.Close)
	return env
}

func seqPtr(n int) *int { return &n }

// appendSeqs appends one segment per media sequence and returns the committed segments.
func (e *testEnv) appendSeqs(t *testing.T, id string, seqs ...int) []playlist.MediaSegment {
	t.Helper()
	out := make([]playlist.MediaSegment, 0, len(seqs))
	for _, seq := range seqs {
		seg, err := e.svc.Append(context.Background(), id, "/incoming/in.mp4", AppendOptions{MediaSequence: seqPtr(seq)})
		require.NoError(t, err)
		out = append(out, seg)
	}
	return out
}
