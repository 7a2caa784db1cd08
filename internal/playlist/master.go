package playlist

import (
	"fmt"
	"strings"
)

// AudioOnlyBandwidth is advertised for variants without a video stream.
const AudioOnlyBandwidth = 64000

// videoOverhead scales the nominal video bitrate to a peak bandwidth estimate.
const videoOverhead = 1.6

// Kind selects the live or the replay flavour of a playlist.
type Kind string

const (
	Live   Kind = "live"
	Replay Kind = "replay"
)

// Bandwidth estimates the peak bit rate of v given the shared audio bit rate.
func Bandwidth(v OutputVariant, audioBitrate int) int {
	if !v.HasVideo() {
		return AudioOnlyBandwidth
	}
	return audioBitrate + int(float64(v.Bitrate)*videoOverhead)
}

// MasterFileName is the master playlist file name for a session.
func MasterFileName(sessionID string, kind Kind) string {
	return fmt.Sprintf("%s_%s.m3u8", sessionID, kind)
}

// VariantFileName is the media playlist file name for one variant of a session.
func VariantFileName(sessionID, variant string, kind Kind) string {
	return fmt.Sprintf("%s_%s_%s.m3u8", sessionID, variant, kind)
}

// VariantPath is the media playlist location relative to the master playlist.
// Each variant lives in its own directory next to its segments.
func VariantPath(sessionID, variant string, kind Kind) string {
	return variant + "/" + VariantFileName(sessionID, variant, kind)
}

// BuildMasterPlaylist lists one stream per variant, pointing at the live or
// replay media playlist of that variant.
func BuildMasterPlaylist(sessionID string, kind Kind, variants []OutputVariant, audioBitrate int) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, v := range variants {
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d\n", Bandwidth(v, audioBitrate))
		b.WriteString(VariantPath(sessionID, v.Name, kind))
		b.WriteString("\n")
	}
	return b.String()
}
