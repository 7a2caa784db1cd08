package playlist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaySegments_stableSort(t *testing.T) {
	in := []MediaSegment{
		seg(2, 0, 30),
		seg(0, 0, 10),
		{MediaSequence: 1, DiscontinuitySequence: 0, Duration: 1},
		{MediaSequence: 1, DiscontinuitySequence: Unresolved, Duration: 2},
	}
	out := ReplaySegments(in)

	assert.Equal(t, []int{0, 1, 1, 2}, mediaSequences(out))
	assert.Equal(t, 1.0, out[1].Duration)
	assert.Equal(t, 2.0, out[2].Duration)
	// Input order is untouched.
	assert.Equal(t, 2, in[0].MediaSequence)
}

func TestBuildReplayPlaylist_includesUnresolved(t *testing.T) {
	s := newTestSession(t, 3)
	appendSeqs(t, s, 10, 0, 1, 2, 5, 3)

	want := strings.Join([]string{
		"#EXTM3U",
		"#EXT-X-VERSION:4",
		"#EXT-X-ALLOW-CACHE:YES",
		"#EXT-X-TARGETDURATION:12",
		"#EXT-X-MEDIA-SEQUENCE:0",
		"#EXT-X-DISCONTINUITY-SEQUENCE:0",
		"#EXTINF:10,",
		"fileSequence0.ts",
		"#EXTINF:10,",
		"fileSequence1.ts",
		"#EXTINF:10,",
		"fileSequence2.ts",
		"#EXT-X-DISCONTINUITY",
		"#EXTINF:10,",
		"fileSequence3.ts",
		"#EXT-X-DISCONTINUITY",
		"#EXTINF:10,",
		"fileSequence5.ts",
	}, "\n") + "\n"
	assert.Equal(t, want, BuildReplayPlaylist(s.State()))
}

func TestBuildReplayPlaylist_decodes(t *testing.T) {
	s := newTestSession(t, 3)
	appendSeqs(t, s, 9.984, 0, 1, 2, 5, 3, 6, 7)
	s.SetFinished(true)

	body := BuildReplayPlaylist(s.State())
	assert.True(t, strings.HasSuffix(body, "#EXT-X-ENDLIST\n"))

	p, segs := decodeMedia(t, body)
	assert.True(t, p.Closed)
	require.Len(t, segs, 7)
	for i, want := range []int{0, 1, 2, 3, 5, 6, 7} {
		assert.Equal(t, SegmentURI(want), segs[i].URI)
		assert.InDelta(t, 9.984, segs[i].Duration, 1e-9)
	}
}

func TestBuildReplayPlaylist_empty(t *testing.T) {
	s := newTestSession(t, 3)
	out := BuildReplayPlaylist(s.State())
	assert.Contains(t, out, "#EXT-X-ALLOW-CACHE:YES\n")
	assert.NotContains(t, out, "#EXTINF")
}
