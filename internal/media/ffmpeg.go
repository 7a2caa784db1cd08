package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpegTranscoder encodes source files with an ffmpeg compatible binary.
type FFmpegTranscoder struct {
	Binary  string
	WorkDir string
	Audio   AudioOptions
	Log     *slog.Logger
}

// NewFFmpegTranscoder returns a transcoder writing below workDir. An empty
// binary defaults to "ffmpeg".
func NewFFmpegTranscoder(binary, workDir string, audio AudioOptions, log *slog.Logger) *FFmpegTranscoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegTranscoder{Binary: binary, WorkDir: workDir, Audio: audio, Log: log}
}

// Args builds the encoder command line for req: one MPEG-TS output per
// variant, plus one still frame per cover image on the first segment.
func (t *FFmpegTranscoder) Args(req TranscodeRequest) []string {
	args := []string{
		"-y", "-loglevel", "error",
		"-itsoffset", strconv.FormatFloat(req.TimeOffset, 'f', -1, 64),
		"-i", req.SourcePath,
	}

	for _, v := range req.Variants {
		args = append(args, "-strict", "experimental", "-f", "mpegts")
		if v.HasVideo() {
			args = append(args,
				"-vcodec", "libx264",
				"-bsf:v", "h264_mp4toannexb",
				"-b:v", strconv.Itoa(v.Bitrate),
				"-s", v.Resolution,
				"-r", strconv.Itoa(v.FrameRate),
				"-g", strconv.Itoa(v.KeyframeInterval),
			)
		} else {
			args = append(args, "-vn")
		}
		args = append(args,
			"-acodec", "aac",
			"-b:a", strconv.Itoa(t.Audio.Bitrate),
			"-ar", strconv.Itoa(t.Audio.SampleRate),
			SegmentPath(t.WorkDir, req.SessionID, v.Name, req.MediaSequence),
		)
	}

	if req.WantsCoverImages() {
		for _, c := range req.CoverImages {
			args = append(args,
				"-strict", "experimental", "-ss", "0", "-vframes", "1",
				"-s", c.Resolution,
				CoverImagePath(t.WorkDir, req.SessionID, c.Name),
			)
		}
	}

	return args
}

// Transcode runs the encoder for req and waits for it to exit.
func (t *FFmpegTranscoder) Transcode(ctx context.Context, req TranscodeRequest) error {
	if len(req.Variants) == 0 {
		return fmt.Errorf("transcode %s: no output variants", req.SourcePath)
	}
	for _, v := range req.Variants {
		if err := os.MkdirAll(VariantDir(t.WorkDir, req.SessionID, v.Name), 0o755); err != nil {
			return fmt.Errorf("create variant dir: %w", err)
		}
	}

	args := t.Args(req)
	t.Log.Debug("running encoder", slog.String("binary", t.Binary), slog.String("args", strings.Join(args, " ")))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w: %s", t.Binary, req.SourcePath, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
