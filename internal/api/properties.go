// internal/api/properties.go
package api

import (
	"net/http"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/common/validation"
	"usahud-crm/internal/matching"
	"usahud-crm/internal/models"
)

func (s *Server) matchProperties(w http.ResponseWriter, r *http.Request) {
	var prefs models.Preferences
	if err := decode(r, &prefs); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validate(validation.SchemaPreferences, prefs); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.deps.Matcher.FindMatchingProperties(r.Context(), prefs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (s *Server) shareProperties(w http.ResponseWriter, r *http.Request) {
	var req matching.ShareRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.deps.Matcher.ShareProperties(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}

func (s *Server) leadShares(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Matcher.ShareHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, items)
}

func (s *Server) createShareLink(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PropertyIDs []string `json:"propertyIds"`
		BrokerID    string   `json:"brokerId"`
	}
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(in.PropertyIDs) == 0 {
		s.writeError(w, r, apperrors.NewInvalidInputError("propertyIds is required"))
		return
	}
	link, err := s.deps.Matcher.CreateShareableLink(r.Context(), in.PropertyIDs, in.BrokerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, link)
}

func (s *Server) getShareLink(w http.ResponseWriter, r *http.Request) {
	shared, err := s.deps.Matcher.GetSharedProperties(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, shared)
}
