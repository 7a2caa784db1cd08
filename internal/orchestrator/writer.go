package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"hls-session/internal/media"
	"hls-session/internal/playlist"
)

// FileWriter renders session playlists into the work directory.
//
// Layout for session S with variant V:
//
//	<root>/S/S_live.m3u8, <root>/S/S_replay.m3u8    master playlists
//	<root>/S/V/S_V_live.m3u8, S_V_replay.m3u8       media playlists
//	<root>/S/V/fileSequence<N>.ts                   segments (written by the transcoder)
type FileWriter struct {
	root string
}

// NewFileWriter returns a writer rooted at workDir.
func NewFileWriter(workDir string) *FileWriter {
	return &FileWriter{root: workDir}
}

// WritePlaylists writes the live and replay media playlists of every variant
// and, while the session is not yet available, both master playlists. The
// three playlist kinds are written concurrently.
func (w *FileWriter) WritePlaylists(ctx context.Context, st playlist.State, variants []playlist.OutputVariant, audioBitrate int) error {
	id := st.Meta.ID
	g, ctx := errgroup.WithContext(ctx)

	if !st.Meta.IsAvailable {
		g.Go(func() error {
			for _, kind := range []playlist.Kind{playlist.Live, playlist.Replay} {
				body := playlist.BuildMasterPlaylist(id, kind, variants, audioBitrate)
				path := filepath.Join(media.SessionDir(w.root, id), playlist.MasterFileName(id, kind))
				if err := writeFileAtomic(ctx, path, body); err != nil {
					return err
				}
			}
			return nil
		})
	}

	bodies := map[playlist.Kind]string{
		playlist.Live:   playlist.BuildLivePlaylist(st),
		playlist.Replay: playlist.BuildReplayPlaylist(st),
	}
	for kind, body := range bodies {
		g.Go(func() error {
			for _, v := range variants {
				path := filepath.Join(media.VariantDir(w.root, id, v.Name), playlist.VariantFileName(id, v.Name, kind))
				if err := writeFileAtomic(ctx, path, body); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// writeFileAtomic replaces path so readers never observe a partial playlist.
func writeFileAtomic(ctx context.Context, path, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".playlist-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(body); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
