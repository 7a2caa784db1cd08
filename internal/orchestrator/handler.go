package orchestrator

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"hls-session/internal/playlist"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	playlistContentType = "application/vnd.apple.mpegurl"
	jsonContentType     = "application/json"

	// maxStateBody bounds PUT /sessions/{session_id}/state bodies.
	maxStateBody = 16 << 20
)

// Handler exposes session HTTP endpoints using go-chi.
type Handler struct {
	svc *Service
	log *slog.Logger
}

// NewHandler returns a Handler that uses the given Service and Logger.
// Append metrics are recorded by the Service.
func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes registers the session endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{session_id}", func(r chi.Router) {
		r.Post("/segments", h.AppendSegment)
		r.Get("/state", h.GetState)
		r.Put("/state", h.PutState)
		r.Post("/available", h.MarkAvailable)
		r.Post("/finish", h.Finish)
		r.Get("/live.m3u8", h.GetPlaylist(playlist.Live))
		r.Get("/replay.m3u8", h.GetPlaylist(playlist.Replay))
	})
}

// CreateSession handles POST /sessions.
// Body: { "id": "12345", "targetDuration": 12, "windowLength": 3 }, all optional.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeOptionalJSON(r.Body, &req); err != nil {
		h.log.Debug("invalid create session body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	sess, err := h.svc.CreateSession(req.ID, playlist.SessionConfig{
		TargetDuration: req.TargetDuration,
		WindowLength:   req.WindowLength,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, playlist.Serialize(sess))
}

// AppendSegment handles POST /sessions/{session_id}/segments.
// Body: { "source": "/incoming/in.mp4", "mediaSequence": 4, "shouldFinish": false }.
func (h *Handler) AppendSegment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session_id")

	var req AppendSegmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid segment body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.Source == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "source is required", Field: "source"})
		return
	}

	seg, err := h.svc.Append(r.Context(), id, req.Source, AppendOptions{
		MediaSequence: req.MediaSequence,
		ShouldFinish:  req.ShouldFinish,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Debug("segment appended",
		slog.String("session_id", id),
		slog.Int("media_sequence", seg.MediaSequence),
		slog.Int("discontinuity_sequence", seg.DiscontinuitySequence))
	sess, err := h.svc.Session(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, segmentResponse{Segment: seg, Meta: sess.Meta()})
}

// GetState handles GET /sessions/{session_id}/state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.ExportState(chi.URLParam(r, "session_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// PutState handles PUT /sessions/{session_id}/state. The body is a state
// object whose meta.id must match the path.
func (h *Handler) PutState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session_id")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxStateBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	sess, err := h.svc.ImportState(r.Context(), id, body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist.Serialize(sess))
}

// MarkAvailable handles POST /sessions/{session_id}/available.
func (h *Handler) MarkAvailable(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session_id")
	if err := h.svc.MarkAvailable(id); err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Info("session marked available", slog.String("session_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// Finish handles POST /sessions/{session_id}/finish.
// Body (optional): { "finished": true } also marks the session terminal.
func (h *Handler) Finish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session_id")

	var req FinishRequest
	if err := decodeOptionalJSON(r.Body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := h.svc.RequestFinish(id, req.Finished); err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("session finish requested", slog.String("session_id", id), slog.Bool("finished", req.Finished))
	w.WriteHeader(http.StatusNoContent)
}

// GetPlaylist returns a handler for GET /sessions/{session_id}/{kind}.m3u8.
func (h *Handler) GetPlaylist(kind playlist.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m3u8, err := h.svc.Playlist(chi.URLParam(r, "session_id"), kind)
		if err != nil {
			h.writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", playlistContentType)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(m3u8))
	}
}

// writeError maps service errors to HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		ve *playlist.ValidationError
		te *TranscodeError
		pe *ProbeError
		ie *IOError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: ve.Field})
	case errors.Is(err, ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrSessionExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrNoVariants):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &te), errors.As(err, &pe):
		h.log.Warn("append rejected", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrServiceClosed):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case errors.As(err, &ie):
		h.log.Error("playlist write failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	default:
		h.log.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeOptionalJSON decodes body into v, treating an empty body as {}.
func decodeOptionalJSON(body io.Reader, v any) error {
	err := json.NewDecoder(body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
