package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hls-session/internal/playlist"
)

func testState(t *testing.T, available bool) playlist.State {
	t.Helper()
	sess := newSession(t, "w1")
	for _, seq := range []int{0, 1} {
		sess.Commit(sess.Resolve(playlist.Resolver{}, seq).Segment(10))
	}
	sess.SetAvailable(available)
	return sess.State()
}

var writerVariants = []playlist.OutputVariant{
	{Name: "hi", Bitrate: 480000, FrameRate: 24, KeyframeInterval: 12, Resolution: "480x480"},
	{Name: "audio", SkipVideo: true},
}

func TestFileWriter_WritePlaylists(t *testing.T) {
	root := t.TempDir()
	w := NewFileWriter(root)

	require.NoError(t, w.WritePlaylists(context.Background(), testState(t, false), writerVariants, 64000))

	want := []string{
		"w1/w1_live.m3u8",
		"w1/w1_replay.m3u8",
		"w1/hi/w1_hi_live.m3u8",
		"w1/hi/w1_hi_replay.m3u8",
		"w1/audio/w1_audio_live.m3u8",
		"w1/audio/w1_audio_replay.m3u8",
	}
	for _, rel := range want {
		assert.FileExists(t, filepath.Join(root, rel))
	}

	info, err := os.Stat(filepath.Join(root, "w1/hi/w1_hi_live.m3u8"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Join(root, "w1", "hi"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFileWriter_WritePlaylists_availableSkipsMasters(t *testing.T) {
	root := t.TempDir()
	w := NewFileWriter(root)

	require.NoError(t, w.WritePlaylists(context.Background(), testState(t, true), writerVariants, 64000))
	assert.NoFileExists(t, filepath.Join(root, "w1", "w1_live.m3u8"))
	assert.FileExists(t, filepath.Join(root, "w1", "audio", "w1_audio_replay.m3u8"))
}

func TestFileWriter_WritePlaylists_replacesContent(t *testing.T) {
	root := t.TempDir()
	w := NewFileWriter(root)
	path := filepath.Join(root, "w1", "hi", "w1_hi_live.m3u8")

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	st := testState(t, true)
	require.NoError(t, w.WritePlaylists(context.Background(), st, writerVariants, 64000))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, playlist.BuildLivePlaylist(st), string(got))
}

func TestFileWriter_WritePlaylists_canceled(t *testing.T) {
	w := NewFileWriter(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.WritePlaylists(ctx, testState(t, false), writerVariants, 64000)
	assert.ErrorIs(t, err, context.Canceled)
}
