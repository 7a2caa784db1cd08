package playlist

import (
	"strings"
	"testing"

	"github.com/grafov/m3u8"
	"github.com/stretchr/testify/require"
)

// appendSeqs places and commits one segment per media sequence, each lasting d seconds.
func appendSeqs(t *testing.T, s *Session, d float64, seqs ...int) []Placement {
	t.Helper()
	out := make([]Placement, 0, len(seqs))
	for _, seq := range seqs {
		p := s.Resolve(Resolver{}, seq)
		s.Commit(p.Segment(d))
		out = append(out, p)
	}
	return out
}

func newTestSession(t *testing.T, windowLength int) *Session {
	t.Helper()
	s, err := NewSession("12345", SessionConfig{WindowLength: windowLength})
	require.NoError(t, err)
	return s
}

// decodeMedia parses body with a real HLS decoder and returns its segments.
func decodeMedia(t *testing.T, body string) (*m3u8.MediaPlaylist, []*m3u8.MediaSegment) {
	t.Helper()
	p, listType, err := m3u8.DecodeFrom(strings.NewReader(body), true)
	require.NoError(t, err)
	require.Equal(t, m3u8.MEDIA, listType)
	media := p.(*m3u8.MediaPlaylist)
	var segs []*m3u8.MediaSegment
	for _, seg := range media.Segments {
		if seg == nil {
			break
		}
		segs = append(segs, seg)
	}
	return media, segs
}

func mediaSequences(segs []MediaSegment) []int {
	out := make([]int, len(segs))
	for i, s := range segs {
		out[i] = s.MediaSequence
	}
	return out
}
