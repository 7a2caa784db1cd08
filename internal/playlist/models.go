// Package playlist implements the HLS playlist session engine: placement of
// incoming segments on the session timeline, live/replay/master rendering and
// the session state codec.
package playlist

// Unresolved marks a segment whose discontinuity sequence could not be
// determined because it arrived behind segments that were already placed.
const Unresolved = -1

const (
	// DefaultTargetDuration is the #EXT-X-TARGETDURATION of a new session, in seconds.
	DefaultTargetDuration = 12

	// DefaultWindowLength is the number of segments advertised in the live window.
	DefaultWindowLength = 3
)

// MediaSegment describes one encoded chunk and its position in the session
// timeline. MediaSequence is assigned by the producer and is neither unique
// nor guaranteed to follow arrival order.
type MediaSegment struct {
	MediaSequence         int     `json:"mediaSequence"`
	DiscontinuitySequence int     `json:"discontinuitySequence"`
	TimeElapsed           float64 `json:"timeElapsed"`
	Duration              float64 `json:"duration"`
}

// Resolved reports whether the segment was placed on the timeline.
func (m MediaSegment) Resolved() bool {
	return m.DiscontinuitySequence != Unresolved
}

// SessionConfig is fixed when the session is created.
type SessionConfig struct {
	TargetDuration int `json:"targetDuration"`
	WindowLength   int `json:"windowLength"`
}

// DefaultSessionConfig returns the configuration used when no overrides are given.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		TargetDuration: DefaultTargetDuration,
		WindowLength:   DefaultWindowLength,
	}
}

// withOverrides applies non-zero fields of o on top of c.
func (c SessionConfig) withOverrides(o SessionConfig) SessionConfig {
	if o.TargetDuration > 0 {
		c.TargetDuration = o.TargetDuration
	}
	if o.WindowLength > 0 {
		c.WindowLength = o.WindowLength
	}
	return c
}

// SessionMeta holds the mutable session flags. IsAvailable, ShouldFinish and
// IsFinished are controlled by the caller; the engine only sets ShouldBeAvailable.
type SessionMeta struct {
	ID                string `json:"id"`
	ShouldBeAvailable bool   `json:"shouldBeAvailable"`
	IsAvailable       bool   `json:"isAvailable"`
	ShouldFinish      bool   `json:"shouldFinish"`
	IsFinished        bool   `json:"isFinished"`
}

// OutputVariant is one encoded rendition. Audio-only variants set SkipVideo
// and leave the video parameters empty.
type OutputVariant struct {
	Name             string `json:"name"`
	SkipVideo        bool   `json:"skipVideo,omitempty"`
	Bitrate          int    `json:"bitrate,omitempty"`
	FrameRate        int    `json:"frameRate,omitempty"`
	KeyframeInterval int    `json:"keyframeInterval,omitempty"`
	Resolution       string `json:"resolution,omitempty"`
}

// HasVideo reports whether the variant carries a video stream.
func (v OutputVariant) HasVideo() bool {
	return !v.SkipVideo
}

// CoverImage is a still frame extracted from the first segment of a session.
type CoverImage struct {
	Name       string `json:"name"`
	Resolution string `json:"resolution"`
}
