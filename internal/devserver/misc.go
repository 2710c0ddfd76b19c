package devserver

import (
	"errors"
	"net/http"

	"github.com/heartofacheron/site/internal/api"
	"github.com/heartofacheron/site/internal/models"
	"github.com/heartofacheron/site/internal/respond"
	"github.com/heartofacheron/site/internal/store"
)

// KeyContactMessages holds the messages sent through the contact form.
const KeyContactMessages = "devContactMessages"

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) DevMode(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, http.StatusOK, map[string]any{"enabled": s.flag.IsEnabled(r.Context())})
}

func (s *Server) SetDevMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if !respond.Decode(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		respond.Error(w, http.StatusBadRequest, "enabled is required")
		return
	}
	if err := s.flag.Set(r.Context(), *req.Enabled); err != nil {
		s.log.Error(r.Context(), "set dev mode", "err", err)
		respond.Error(w, http.StatusInternalServerError, "failed to save dev mode")
		return
	}
	respond.OK(w, http.StatusOK, map[string]any{"enabled": *req.Enabled})
}

// Contact keeps the message in the store instead of mailing it.
func (s *Server) Contact(w http.ResponseWriter, r *http.Request) {
	var req models.ContactRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	req, err := api.NormalizeContact(req)
	if errors.Is(err, api.ErrContactIncomplete) {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	s.contactMu.Lock()
	defer s.contactMu.Unlock()

	var msgs []models.ContactRequest
	if _, err := store.LoadJSON(r.Context(), s.store, KeyContactMessages, &msgs); err != nil {
		s.log.Error(r.Context(), "load contact messages", "err", err)
		respond.Error(w, http.StatusInternalServerError, "failed to send message")
		return
	}
	msgs = append(msgs, req)
	if err := store.SaveJSON(r.Context(), s.store, KeyContactMessages, msgs); err != nil {
		s.log.Error(r.Context(), "save contact messages", "err", err)
		respond.Error(w, http.StatusInternalServerError, "failed to send message")
		return
	}
	s.log.Info(r.Context(), "contact message received", "email", req.Email, "subject", req.Subject)
	respond.OK(w, http.StatusOK, map[string]any{"message": "Message sent successfully"})
}
