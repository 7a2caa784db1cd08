package orchestrator

import "hls-session/internal/playlist"

// CreateSessionRequest is the body of POST /sessions. An empty ID is replaced
// by a generated one; zero overrides keep the session defaults.
type CreateSessionRequest struct {
	ID             string `json:"id"`
	TargetDuration int    `json:"targetDuration"`
	WindowLength   int    `json:"windowLength"`
}

// AppendSegmentRequest is the body of POST /sessions/{session_id}/segments.
type AppendSegmentRequest struct {
	Source        string `json:"source"`
	MediaSequence *int   `json:"mediaSequence,omitempty"`
	ShouldFinish  bool   `json:"shouldFinish,omitempty"`
}

// FinishRequest is the optional body of POST /sessions/{session_id}/finish.
type FinishRequest struct {
	Finished bool `json:"finished"`
}

// errorResponse is the JSON body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// segmentResponse reports a committed segment.
type segmentResponse struct {
	Segment playlist.MediaSegment `json:"segment"`
	Meta    playlist.SessionMeta  `json:"meta"`
}
