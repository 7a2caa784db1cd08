package playlist

import (
	"sort"
	"strings"
)

// ReplaySegments returns every committed segment, including unresolved ones,
// ordered by media sequence with ties kept in arrival order.
func ReplaySegments(segments []MediaSegment) []MediaSegment {
	out := cloneSegments(segments)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MediaSequence < out[j].MediaSequence
	})
	return out
}

// BuildReplayPlaylist renders the full-history playlist for on-demand playback.
// The history always starts at media sequence 0 and discontinuity sequence 0.
func BuildReplayPlaylist(st State) string {
	segs := ReplaySegments(st.MediaSegments)

	var b strings.Builder
	writeMediaHeader(&b, mediaHeader{allowCache: true, targetDuration: st.Config.TargetDuration})
	writeSegments(&b, segs)
	writeEndList(&b, st.Meta)
	return b.String()
}
