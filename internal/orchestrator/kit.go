package orchestrator

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"hls-session/internal/media"
	"hls-session/internal/playlist"
)

// KitConfig is the configuration shared by every session of a Kit.
type KitConfig struct {
	Audio         media.AudioOptions
	WorkDirectory string
}

// Kit holds the output variants and cover images every session is encoded to.
type Kit struct {
	mu          sync.RWMutex
	config      KitConfig
	variants    []playlist.OutputVariant
	coverImages []playlist.CoverImage
}

// NewKit returns a Kit; zero audio options and an empty work directory fall
// back to the encoder defaults and the current working directory.
func NewKit(cfg KitConfig) *Kit {
	def := media.DefaultAudioOptions()
	if cfg.Audio.Bitrate <= 0 {
		cfg.Audio.Bitrate = def.Bitrate
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = def.SampleRate
	}
	if cfg.WorkDirectory == "" {
		if wd, err := os.Getwd(); err == nil {
			cfg.WorkDirectory = wd
		} else {
			cfg.WorkDirectory = "."
		}
	}
	return &Kit{config: cfg}
}

// Config returns the kit configuration.
func (k *Kit) Config() KitConfig {
	return k.config
}

// AddOutputVariant registers a variant. Video variants need a bitrate, frame
// rate, keyframe interval and resolution.
func (k *Kit) AddOutputVariant(v playlist.OutputVariant) error {
	if v.Name == "" {
		return &playlist.ValidationError{Field: "variant.name", Reason: "must be a non-empty string"}
	}
	if !playlist.ValidName(v.Name) {
		return &playlist.ValidationError{Field: "variant.name", Reason: "must contain only letters, digits, '-' or '_'"}
	}
	if v.HasVideo() {
		switch {
		case v.Bitrate <= 0:
			return &playlist.ValidationError{Field: "variant.bitrate", Reason: "must be positive for video variants"}
		case v.FrameRate <= 0:
			return &playlist.ValidationError{Field: "variant.frameRate", Reason: "must be positive for video variants"}
		case v.KeyframeInterval <= 0:
			return &playlist.ValidationError{Field: "variant.keyframeInterval", Reason: "must be positive for video variants"}
		case !validResolution(v.Resolution):
			return &playlist.ValidationError{Field: "variant.resolution", Reason: "must be WIDTHxHEIGHT"}
		}
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	for _, existing := range k.variants {
		if existing.Name == v.Name {
			return &playlist.ValidationError{Field: "variant.name", Reason: fmt.Sprintf("%q already registered", v.Name)}
		}
	}
	k.variants = append(k.variants, v)
	return nil
}

// AddCoverImage registers a still image extracted from each session's first segment.
func (k *Kit) AddCoverImage(c playlist.CoverImage) error {
	if c.Name == "" {
		return &playlist.ValidationError{Field: "coverImage.name", Reason: "must be a non-empty string"}
	}
	if !playlist.ValidName(c.Name) {
		return &playlist.ValidationError{Field: "coverImage.name", Reason: "must contain only letters, digits, '-' or '_'"}
	}
	if !validResolution(c.Resolution) {
		return &playlist.ValidationError{Field: "coverImage.resolution", Reason: "must be WIDTHxHEIGHT"}
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	for _, existing := range k.coverImages {
		if existing.Name == c.Name {
			return &playlist.ValidationError{Field: "coverImage.name", Reason: fmt.Sprintf("%q already registered", c.Name)}
		}
	}
	k.coverImages = append(k.coverImages, c)
	return nil
}

// Variants returns a copy of the registered variants in registration order.
func (k *Kit) Variants() []playlist.OutputVariant {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return append([]playlist.OutputVariant(nil), k.variants...)
}

// CoverImages returns a copy of the registered cover images.
func (k *Kit) CoverImages() []playlist.CoverImage {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return append([]playlist.CoverImage(nil), k.coverImages...)
}

// ParseOutputVariant parses "name:bitrate:fps:keyframes:WxH" or "name:audio".
func ParseOutputVariant(s string) (playlist.OutputVariant, error) {
	parts := strings.Split(s, ":")
	if len(parts) == 2 && parts[1] == "audio" {
		return playlist.OutputVariant{Name: parts[0], SkipVideo: true}, nil
	}
	if len(parts) != 5 {
		return playlist.OutputVariant{}, &playlist.ValidationError{Field: "variant", Reason: fmt.Sprintf("%q: want name:bitrate:fps:keyframes:WxH or name:audio", s)}
	}

	nums := make([]int, 3)
	for i, p := range parts[1:4] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return playlist.OutputVariant{}, &playlist.ValidationError{Field: "variant", Reason: fmt.Sprintf("%q: %v", s, err)}
		}
		nums[i] = n
	}
	return playlist.OutputVariant{
		Name:             parts[0],
		Bitrate:          nums[0],
		FrameRate:        nums[1],
		KeyframeInterval: nums[2],
		Resolution:       parts[4],
	}, nil
}

// ParseCoverImage parses "name:WxH".
func ParseCoverImage(s string) (playlist.CoverImage, error) {
	name, res, ok := strings.Cut(s, ":")
	if !ok {
		return playlist.CoverImage{}, &playlist.ValidationError{Field: "coverImage", Reason: fmt.Sprintf("%q: want name:WxH", s)}
	}
	return playlist.CoverImage{Name: name, Resolution: res}, nil
}

func validResolution(s string) bool {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return false
	}
	wn, err1 := strconv.Atoi(w)
	hn, err2 := strconv.Atoi(h)
	return err1 == nil && err2 == nil && wn > 0 && hn > 0
}
