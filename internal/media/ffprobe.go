package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNoDuration is returned when probe output carries no usable duration.
var ErrNoDuration = errors.New("no duration found")

// FFprobeProber reads segment durations with an ffprobe compatible binary.
type FFprobeProber struct {
	Binary string
}

// NewFFprobeProber returns a prober; an empty binary defaults to "ffprobe".
func NewFFprobeProber(binary string) *FFprobeProber {
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFprobeProber{Binary: binary}
}

// Probe returns the duration of the segment at path in seconds.
func (p *FFprobeProber) Probe(ctx context.Context, path string) (float64, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Binary,
		"-v", "error", "-of", "json", "-show_streams", "-show_format", path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("%s %s: %w: %s", p.Binary, path, err, strings.TrimSpace(stderr.String()))
	}
	return ParseProbeOutput(stdout.Bytes())
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ParseProbeOutput extracts the segment duration from ffprobe JSON output.
// The audio stream duration is preferred since every variant carries audio;
// the container duration is the fallback.
func ParseProbeOutput(data []byte) (float64, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("parse probe output: %w", err)
	}

	candidates := make([]string, 0, len(out.Streams)+1)
	for _, s := range out.Streams {
		if s.CodecType == "audio" {
			candidates = append(candidates, s.Duration)
		}
	}
	candidates = append(candidates, out.Format.Duration)

	for _, c := range candidates {
		if c == "" || c == "N/A" {
			continue
		}
		d, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return 0, fmt.Errorf("parse duration %q: %w", c, err)
		}
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return 0, fmt.Errorf("non-finite duration %q", c)
		}
		if d < 0 {
			return 0, fmt.Errorf("negative duration %v", d)
		}
		return d, nil
	}
	return 0, ErrNoDuration
}
