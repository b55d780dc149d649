// internal/api/agents.go
package api

import (
	"net"
	"net/http"
	"strings"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/models"
)

func (s *Server) submitApplication(w http.ResponseWriter, r *http.Request) {
	var in models.ApplicationInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if in.AgentIPAddress == "" {
		in.AgentIPAddress = clientIP(r)
	}
	app, err := s.deps.Agents.Submit(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, app)
}

func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token string `json:"token"`
	}
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	app, err := s.deps.Agents.VerifyEmail(r.Context(), in.Token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, app)
}

func (s *Server) resendVerification(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(in.Email) == "" {
		s.writeError(w, r, apperrors.NewInvalidInputError("email is required"))
		return
	}
	if err := s.deps.Agents.ResendVerification(r.Context(), in.Email); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) pendingApplications(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Agents.Pending(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, items)
}

func (s *Server) getApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.deps.Agents.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, app)
}

func (s *Server) approveApplication(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AdminID string `json:"adminId"`
	}
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	approval, err := s.deps.Agents.Approve(r.Context(), r.PathValue("id"), in.AdminID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, approval)
}

func (s *Server) rejectApplication(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AdminID string `json:"adminId"`
		Reason  string `json:"reason"`
	}
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(in.Reason) == "" {
		s.writeError(w, r, apperrors.NewInvalidInputError("reason is required"))
		return
	}
	app, err := s.deps.Agents.Reject(r.Context(), r.PathValue("id"), in.AdminID, in.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, app)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
