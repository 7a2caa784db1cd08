package playlist

import (
	"fmt"
	"strconv"
	"strings"
)

const playlistVersion = 4

// SegmentURI returns the segment file name referenced from media playlists.
func SegmentURI(mediaSequence int) string {
	return "fileSequence" + strconv.Itoa(mediaSequence) + ".ts"
}

// mediaHeader is the common header of live and replay media playlists.
type mediaHeader struct {
	allowCache            bool
	targetDuration        int
	mediaSequence         int
	discontinuitySequence int
}

func writeMediaHeader(b *strings.Builder, h mediaHeader) {
	cache := "NO"
	if h.allowCache {
		cache = "YES"
	}
	b.WriteString("#EXTM3U\n")
	fmt.Fprintf(b, "#EXT-X-VERSION:%d\n", playlistVersion)
	fmt.Fprintf(b, "#EXT-X-ALLOW-CACHE:%s\n", cache)
	fmt.Fprintf(b, "#EXT-X-TARGETDURATION:%d\n", h.targetDuration)
	fmt.Fprintf(b, "#EXT-X-MEDIA-SEQUENCE:%d\n", h.mediaSequence)
	fmt.Fprintf(b, "#EXT-X-DISCONTINUITY-SEQUENCE:%d\n", h.discontinuitySequence)
}

// writeSegments emits #EXTINF and URI lines. A discontinuity tag follows a
// segment whenever the next one belongs to a different discontinuity run.
func writeSegments(b *strings.Builder, segments []MediaSegment) {
	for i, seg := range segments {
		fmt.Fprintf(b, "#EXTINF:%s,\n", formatDuration(seg.Duration))
		b.WriteString(SegmentURI(seg.MediaSequence))
		b.WriteString("\n")
		if i+1 < len(segments) && segments[i+1].DiscontinuitySequence != seg.DiscontinuitySequence {
			b.WriteString("#EXT-X-DISCONTINUITY\n")
		}
	}
}

func writeEndList(b *strings.Builder, meta SessionMeta) {
	if meta.IsFinished {
		b.WriteString("#EXT-X-ENDLIST\n")
	}
}

// formatDuration prints seconds with the shortest exact decimal form.
func formatDuration(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}
