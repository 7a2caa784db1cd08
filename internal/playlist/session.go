package playlist

import "sync"

// Session is the ordered, append-only segment log of one broadcast together
// with its configuration and flags. It is safe for concurrent use; callers
// that need resolve-then-commit atomicity must serialize appends themselves.
type Session struct {
	mu       sync.RWMutex
	config   SessionConfig
	meta     SessionMeta
	segments []MediaSegment
}

const nameReason = "must contain only letters, digits, '-' or '_'"

// ValidName reports whether s is usable as a session, variant or cover image
// name. Names become path elements on disk, so only [A-Za-z0-9_-] is allowed.
func ValidName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// NewSession creates an empty session. Zero fields in overrides keep the defaults.
func NewSession(id string, overrides SessionConfig) (*Session, error) {
	if id == "" {
		return nil, &ValidationError{Field: "id", Reason: "must be a non-empty string"}
	}
	if !ValidName(id) {
		return nil, &ValidationError{Field: "id", Reason: nameReason}
	}
	if overrides.TargetDuration < 0 {
		return nil, &ValidationError{Field: "config.targetDuration", Reason: "must not be negative"}
	}
	if overrides.WindowLength < 0 {
		return nil, &ValidationError{Field: "config.windowLength", Reason: "must not be negative"}
	}
	return &Session{
		config: DefaultSessionConfig().withOverrides(overrides),
		meta:   SessionMeta{ID: id},
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta.ID
}

// Config returns the session configuration.
func (s *Session) Config() SessionConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Meta returns a copy of the session flags.
func (s *Session) Meta() SessionMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// Len returns the number of committed segments.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.segments)
}

// Segments returns a copy of the segments in arrival order.
func (s *Session) Segments() []MediaSegment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSegments(s.segments)
}

// Resolve places a segment with the given media sequence against the
// currently committed history.
func (s *Session) Resolve(r Resolver, mediaSequence int) Placement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return r.Resolve(s.segments, mediaSequence)
}

// Commit appends seg and returns the updated flags. becameAvailable is true
// only for the commit that first brings the segment count to the window length.
func (s *Session) Commit(seg MediaSegment) (meta SessionMeta, becameAvailable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.segments = append(s.segments, seg)
	if !s.meta.ShouldBeAvailable && len(s.segments) >= s.config.WindowLength {
		s.meta.ShouldBeAvailable = true
		becameAvailable = true
	}
	return s.meta, becameAvailable
}

// SetAvailable records that the master playlists were published.
func (s *Session) SetAvailable(v bool) {
	s.mu.Lock()
	s.meta.IsAvailable = v
	s.mu.Unlock()
}

// SetShouldFinish records the caller's request to close the session.
func (s *Session) SetShouldFinish(v bool) {
	s.mu.Lock()
	s.meta.ShouldFinish = v
	s.mu.Unlock()
}

// SetFinished marks the session terminal. Finished sessions render #EXT-X-ENDLIST.
func (s *Session) SetFinished(v bool) {
	s.mu.Lock()
	s.meta.IsFinished = v
	s.mu.Unlock()
}

// State returns a detached snapshot of the session.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		MediaSegments: cloneSegments(s.segments),
		Config:        s.config,
		Meta:          s.meta,
	}
}

func cloneSegments(in []MediaSegment) []MediaSegment {
	out := make([]MediaSegment, len(in))
	copy(out, in)
	return out
}
