package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"hls-session/internal/media"
	"hls-session/internal/platform/metrics"
	"hls-session/internal/playlist"
)

// DefaultTranscodeWorkers is the size of the shared transcode pool when none is configured.
const DefaultTranscodeWorkers = 2

// Transcoder encodes a source file into one segment per output variant.
type Transcoder interface {
	Transcode(ctx context.Context, req media.TranscodeRequest) error
}

// Prober returns the duration in seconds of an encoded segment.
type Prober interface {
	Probe(ctx context.Context, path string) (float64, error)
}

// Options configures a Service. Metrics and Log may be nil.
type Options struct {
	Transcoder       Transcoder
	Prober           Prober
	Writer           *FileWriter
	Metrics          *metrics.Metrics
	Log              *slog.Logger
	TranscodeWorkers int
	Resolver         playlist.Resolver

	// WorkerIdleTimeout is how long an idle session worker is kept.
	WorkerIdleTimeout time.Duration
}

// Service is the session append controller. Appends and restores on one
// session run one at a time in submission order; transcoding across sessions
// shares a bounded pool.
type Service struct {
	kit        *Kit
	repo       Repository
	transcoder Transcoder
	prober     Prober
	writer     *FileWriter
	metrics    *metrics.Metrics
	log        *slog.Logger
	resolver   playlist.Resolver
	pool       *semaphore.Weighted

	idleTimeout time.Duration

	mu      sync.Mutex
	workers map[string]*sessionWorker
	closed  bool
	quit    chan struct{}
	wg      sync.WaitGroup
}

// NewService returns a Service for the sessions of kit stored in repo.
func NewService(kit *Kit, repo Repository, opts Options) *Service {
	if opts.TranscodeWorkers <= 0 {
		opts.TranscodeWorkers = DefaultTranscodeWorkers
	}
	if opts.Writer == nil {
		opts.Writer = NewFileWriter(kit.Config().WorkDirectory)
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.WorkerIdleTimeout <= 0 {
		opts.WorkerIdleTimeout = DefaultWorkerIdleTimeout
	}
	return &Service{
		kit:         kit,
		repo:        repo,
		transcoder:  opts.Transcoder,
		prober:      opts.Prober,
		writer:      opts.Writer,
		metrics:     opts.Metrics,
		log:         opts.Log,
		resolver:    opts.Resolver,
		pool:        semaphore.NewWeighted(int64(opts.TranscodeWorkers)),
		idleTimeout: opts.WorkerIdleTimeout,
		workers:     make(map[string]*sessionWorker),
		quit:        make(chan struct{}),
	}
}

// AppendOptions are the per-append parameters. A nil MediaSequence means
// "next in line", i.e. the current segment count.
type AppendOptions struct {
	MediaSequence *int
	ShouldFinish  bool
}

// CreateSession registers a new session under the kit.
func (s *Service) CreateSession(id string, overrides playlist.SessionConfig) (*playlist.Session, error) {
	sess, err := s.repo.Create(id, overrides)
	if err != nil {
		return nil, err
	}
	s.log.Info("session created",
		slog.String("session_id", id),
		slog.Int("target_duration", sess.Config().TargetDuration),
		slog.Int("window_length", sess.Config().WindowLength))
	return sess, nil
}

// Session returns the session registered under id.
func (s *Service) Session(id string) (*playlist.Session, error) {
	sess, ok := s.repo.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Append transcodes source into every variant, places the resulting segment
// on the session timeline and rewrites the session playlists. Transcode and
// probe failures leave the session untouched. A playlist write failure is
// returned as *IOError together with the committed segment.
func (s *Service) Append(ctx context.Context, sessionID, source string, opts AppendOptions) (playlist.MediaSegment, error) {
	if _, ok := s.repo.Get(sessionID); !ok {
		return playlist.MediaSegment{}, ErrSessionNotFound
	}
	if len(s.kit.Variants()) == 0 {
		return playlist.MediaSegment{}, ErrNoVariants
	}

	w, err := s.workerFor(sessionID)
	if err != nil {
		return playlist.MediaSegment{}, err
	}

	job := &sessionJob{
		ctx:       ctx,
		sessionID: sessionID,
		source:    source,
		opts:      opts,
		done:      make(chan jobResult, 1),
	}
	seg, err := s.submit(ctx, w, job)
	if err != nil && s.metrics != nil {
		s.metrics.IncAppendFailures(failureKind(err))
	}
	return seg, err
}

// process runs the append pipeline for job on the session's worker.
func (s *Service) process(job *sessionJob) (playlist.MediaSegment, error) {
	ctx := job.ctx
	if err := ctx.Err(); err != nil {
		return playlist.MediaSegment{}, err
	}

	sess, ok := s.repo.Get(job.sessionID)
	if !ok {
		return playlist.MediaSegment{}, ErrSessionNotFound
	}

	seq := sess.Len()
	if job.opts.MediaSequence != nil {
		seq = *job.opts.MediaSequence
	}

	placement := sess.Resolve(s.resolver, seq)
	log := s.log.With(
		slog.String("session_id", job.sessionID),
		slog.Int("media_sequence", placement.MediaSequence),
		slog.Int("discontinuity_sequence", placement.DiscontinuitySequence))
	log.Debug("segment placed", slog.Float64("itsoffset", placement.ITSOffset))

	variants := s.kit.Variants()
	duration, err := s.encode(ctx, job, placement, variants)
	if err != nil {
		log.Error("append failed", slog.String("error", err.Error()))
		return playlist.MediaSegment{}, err
	}
	if err := ctx.Err(); err != nil {
		return playlist.MediaSegment{}, err
	}

	seg := placement.Segment(duration)
	meta, becameAvailable := sess.Commit(seg)
	if job.opts.ShouldFinish {
		sess.SetShouldFinish(true)
	}
	log.Info("segment committed",
		slog.Float64("duration", seg.Duration),
		slog.Float64("time_elapsed", seg.TimeElapsed),
		slog.Int("segment_count", sess.Len()))
	if becameAvailable {
		log.Info("session should be available", slog.Bool("is_available", meta.IsAvailable))
	}
	if s.metrics != nil {
		s.metrics.IncSegmentsAppended()
	}

	// The segment is committed; rendering must not be cut short by the caller.
	renderCtx := context.WithoutCancel(ctx)
	if err := s.writer.WritePlaylists(renderCtx, sess.State(), variants, s.kit.Config().Audio.Bitrate); err != nil {
		log.Error("playlist write failed", slog.String("error", err.Error()))
		return seg, &IOError{SessionID: job.sessionID, Err: err}
	}
	return seg, nil
}

// encode runs transcode then probe while holding a slot of the shared pool.
func (s *Service) encode(ctx context.Context, job *sessionJob, p playlist.Placement, variants []playlist.OutputVariant) (float64, error) {
	if err := s.pool.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer s.pool.Release(1)

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveTranscode(time.Since(start))
		}
	}()

	workDir := s.kit.Config().WorkDirectory
	req := media.TranscodeRequest{
		SessionID:     job.sessionID,
		SourcePath:    job.source,
		TimeOffset:    p.ITSOffset,
		MediaSequence: p.MediaSequence,
		Variants:      variants,
		CoverImages:   s.kit.CoverImages(),
	}
	if err := s.transcoder.Transcode(ctx, req); err != nil {
		return 0, &TranscodeError{SessionID: job.sessionID, MediaSequence: p.MediaSequence, Err: err}
	}

	path := media.SegmentPath(workDir, job.sessionID, variants[0].Name, p.MediaSequence)
	duration, err := s.prober.Probe(ctx, path)
	if err != nil {
		return 0, &ProbeError{Path: path, Err: err}
	}
	return duration, nil
}

// ExportState returns the JSON state object of a session.
func (s *Service) ExportState(id string) ([]byte, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	return playlist.Marshal(sess)
}

// ImportState validates a JSON state object for session id and registers
// the session it describes, replacing any session with the same id. The
// swap waits for appends already queued on the session.
func (s *Service) ImportState(ctx context.Context, id string, data []byte) (*playlist.Session, error) {
	sess, err := playlist.Deserialize(data)
	if err != nil {
		return nil, err
	}
	if sess.ID() != id {
		return nil, &playlist.ValidationError{Field: "meta.id", Reason: fmt.Sprintf("%q does not match session %q", sess.ID(), id)}
	}
	if err := s.Restore(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Restore registers an already decoded session, replacing any session with
// the same id once the appends queued before it have finished. Later appends
// continue from its history.
func (s *Service) Restore(ctx context.Context, sess *playlist.Session) error {
	w, err := s.workerFor(sess.ID())
	if err != nil {
		return err
	}
	job := &sessionJob{
		ctx:       ctx,
		sessionID: sess.ID(),
		restore:   sess,
		done:      make(chan jobResult, 1),
	}
	_, err = s.submit(ctx, w, job)
	return err
}

// restore runs on the session's worker.
func (s *Service) restore(job *sessionJob) error {
	if err := job.ctx.Err(); err != nil {
		return err
	}
	s.repo.Put(job.restore)
	s.log.Info("session restored",
		slog.String("session_id", job.sessionID),
		slog.Int("segment_count", job.restore.Len()))
	return nil
}

// MarkAvailable records that the master playlists of a session were
// published. Masters are no longer rewritten afterwards.
func (s *Service) MarkAvailable(id string) error {
	sess, err := s.Session(id)
	if err != nil {
		return err
	}
	sess.SetAvailable(true)
	return nil
}

// RequestFinish sets the caller-controlled finish flags of a session.
// finished additionally marks it terminal so playlists carry #EXT-X-ENDLIST.
func (s *Service) RequestFinish(id string, finished bool) error {
	sess, err := s.Session(id)
	if err != nil {
		return err
	}
	sess.SetShouldFinish(true)
	if finished {
		sess.SetFinished(true)
	}
	return nil
}

// Playlist renders the live or replay media playlist of a session.
func (s *Service) Playlist(id string, kind playlist.Kind) (string, error) {
	sess, err := s.Session(id)
	if err != nil {
		return "", err
	}
	switch kind {
	case playlist.Live:
		return playlist.BuildLivePlaylist(sess.State()), nil
	case playlist.Replay:
		return playlist.BuildReplayPlaylist(sess.State()), nil
	default:
		return "", fmt.Errorf("unknown playlist kind %q", kind)
	}
}

// ActiveSessionCount reports sessions that are not finished.
func (s *Service) ActiveSessionCount() int {
	return s.repo.ActiveSessionCount()
}

// Close stops accepting appends, fails queued ones and waits for in-flight
// appends to finish.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.quit)
	s.mu.Unlock()

	s.wg.Wait()
}
