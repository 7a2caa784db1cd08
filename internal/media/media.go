// Package media runs the external encoder and probe tools that turn an
// appended source file into per-variant transport stream segments.
package media

import (
	"path/filepath"

	"hls-session/internal/playlist"
)

// AudioOptions are shared by every output variant.
type AudioOptions struct {
	Bitrate    int `json:"bitrate"`
	SampleRate int `json:"sampleRate"`
}

// DefaultAudioOptions matches the encoder defaults used when none are configured.
func DefaultAudioOptions() AudioOptions {
	return AudioOptions{Bitrate: 64000, SampleRate: 44050}
}

// TranscodeRequest describes one source file to encode into every variant.
type TranscodeRequest struct {
	SessionID     string
	SourcePath    string
	TimeOffset    float64
	MediaSequence int
	Variants      []playlist.OutputVariant
	CoverImages   []playlist.CoverImage
}

// WantsCoverImages reports whether cover images are extracted for this request.
func (r TranscodeRequest) WantsCoverImages() bool {
	return r.MediaSequence == 0 && len(r.CoverImages) > 0
}

// SessionDir is the directory holding everything produced for one session.
func SessionDir(workDir, sessionID string) string {
	return filepath.Join(workDir, sessionID)
}

// VariantDir holds one variant's segments and media playlists.
func VariantDir(workDir, sessionID, variant string) string {
	return filepath.Join(workDir, sessionID, variant)
}

// SegmentPath is where the segment for mediaSequence of variant is written.
func SegmentPath(workDir, sessionID, variant string, mediaSequence int) string {
	return filepath.Join(VariantDir(workDir, sessionID, variant), playlist.SegmentURI(mediaSequence))
}

// CoverImagePath is where the named cover image of a session is written.
func CoverImagePath(workDir, sessionID, coverImage string) string {
	return filepath.Join(SessionDir(workDir, sessionID), sessionID+"_"+coverImage+".png")
}
