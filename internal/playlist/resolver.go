package playlist

// DefaultLookback is how many of the most recently appended segments the
// resolver inspects when the incoming segment does not continue the last one.
const DefaultLookback = 6

// Placement is the resolver's decision for an incoming segment.
// ITSOffset is the encoder time offset in seconds; the committed segment's
// TimeElapsed is ITSOffset plus its probed duration.
type Placement struct {
	MediaSequence         int
	DiscontinuitySequence int
	ITSOffset             float64
}

// Segment builds the committed segment once the duration is known.
func (p Placement) Segment(duration float64) MediaSegment {
	return MediaSegment{
		MediaSequence:         p.MediaSequence,
		DiscontinuitySequence: p.DiscontinuitySequence,
		TimeElapsed:           p.ITSOffset + duration,
		Duration:              duration,
	}
}

// Resolver places incoming segments relative to the session history.
type Resolver struct {
	// Lookback bounds the backward scan; zero or negative means DefaultLookback.
	Lookback int
}

func (r Resolver) lookback() int {
	if r.Lookback <= 0 {
		return DefaultLookback
	}
	return r.Lookback
}

// Resolve computes the discontinuity sequence and time offset for a segment
// with the given media sequence. history is in arrival order.
func (r Resolver) Resolve(history []MediaSegment, mediaSequence int) Placement {
	p := Placement{MediaSequence: mediaSequence, DiscontinuitySequence: Unresolved}

	if len(history) == 0 {
		p.DiscontinuitySequence = 0
		return p
	}

	last := history[len(history)-1]
	if last.MediaSequence == mediaSequence-1 && last.Resolved() {
		p.DiscontinuitySequence = last.DiscontinuitySequence
		p.ITSOffset = last.TimeElapsed
		return p
	}

	stop := len(history) - r.lookback()
	if stop < 0 {
		stop = 0
	}
	for i := len(history) - 1; i >= stop; i-- {
		s := history[i]
		if !s.Resolved() {
			continue
		}
		if mediaSequence-s.MediaSequence >= 1 {
			// Forward jump over a gap starts a new run at offset zero.
			p.DiscontinuitySequence = s.DiscontinuitySequence + 1
		}
		return p
	}

	return p
}
