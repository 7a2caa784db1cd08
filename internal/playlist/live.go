package playlist

import "strings"

// LiveWindow is the slice of recent resolved segments advertised to live players.
type LiveWindow struct {
	Segments              []MediaSegment
	MediaSequence         int
	DiscontinuitySequence int
}

// Empty reports whether no resolved segment has been committed yet.
func (w LiveWindow) Empty() bool {
	return len(w.Segments) == 0
}

// ComputeLiveWindow walks segments (arrival order) backwards and keeps up to
// windowLength resolved ones, restored to chronological order.
func ComputeLiveWindow(segments []MediaSegment, windowLength int) LiveWindow {
	var w LiveWindow
	if windowLength <= 0 {
		return w
	}

	first := len(segments)
	picked := make([]MediaSegment, 0, windowLength)
	for i := len(segments) - 1; i >= 0 && len(picked) < windowLength; i-- {
		if !segments[i].Resolved() {
			continue
		}
		picked = append(picked, segments[i])
		first = i
	}
	if len(picked) == 0 {
		return w
	}

	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}
	w.Segments = picked
	w.DiscontinuitySequence = picked[0].DiscontinuitySequence

	if len(segments) > windowLength {
		for _, s := range segments[:first] {
			if s.Resolved() {
				w.MediaSequence++
			}
		}
	}
	return w
}

// BuildLivePlaylist renders the sliding-window playlist for st. The same body
// is served for every output variant.
func BuildLivePlaylist(st State) string {
	w := ComputeLiveWindow(st.MediaSegments, st.Config.WindowLength)

	var b strings.Builder
	if w.Empty() {
		writeMediaHeader(&b, mediaHeader{targetDuration: st.Config.TargetDuration})
		writeEndList(&b, st.Meta)
		return b.String()
	}

	writeMediaHeader(&b, mediaHeader{
		targetDuration:        st.Config.TargetDuration,
		mediaSequence:         w.MediaSequence,
		discontinuitySequence: w.DiscontinuitySequence,
	})
	writeSegments(&b, w.Segments)
	writeEndList(&b, st.Meta)
	return b.String()
}
