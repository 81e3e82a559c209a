package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/mdast/internal/session"
)

// chunkRequest appends streamed text to a session.
type chunkRequest struct {
	Text string `json:"text"`
	// Reset clears the buffer before appending.
	Reset bool `json:"reset"`
	// Highlight is the caller's cursor into the buffer.
	Highlight *int `json:"highlight,omitempty" validate:"omitempty,gte=0"`
	// Timestamps maps word indexes to their start time in milliseconds.
	Timestamps map[int]int64 `json:"timestamps,omitempty" validate:"omitempty,dive,keys,gte=0,endkeys,gte=0"`
	// PlaybackMS moves the highlight past the words spoken by that time.
	PlaybackMS *int64 `json:"playback_ms,omitempty" validate:"omitempty,gte=0"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	s.log.Info("session created", "session_id", sess.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": sess.ID,
		"created_at": sess.CreatedAt,
	})
}

func (s *Server) handleAppendChunk(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024)
	var req chunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		jsonError(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Reset {
		sess.Clear()
	}
	if int64(sess.Len()+len(req.Text)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("session exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if req.Text != "" {
		sess.Append(req.Text)
	}
	if len(req.Timestamps) > 0 {
		stamps := make(map[int]time.Duration, len(req.Timestamps))
		for word, ms := range req.Timestamps {
			stamps[word] = time.Duration(ms) * time.Millisecond
		}
		sess.AddTimestamps(stamps)
	}
	if req.PlaybackMS != nil {
		sess.Seek(time.Duration(*req.PlaybackMS) * time.Millisecond)
	}
	if req.Highlight != nil {
		sess.SetHighlight(*req.Highlight)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"size":       sess.Len(),
		"highlight":  sess.Highlight(),
	})
}

func (s *Server) handleSessionTree(w http.ResponseWriter, r *http.Request) {
	flags, err := s.parseFlags(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	res, cached, err := s.parse(r.Context(), []byte(sess.Text()), flags.opts, "session")
	if err != nil {
		jsonError(w, "parse failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	resp, err := finish(res, cached, flags)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"highlight":  sess.Highlight(),
		"result":     resp,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.sessions.Delete(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			jsonError(w, "session not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}
