// internal/api/workflows.go
package api

import (
	"context"
	"net/http"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/models"
)

func (s *Server) workflowPresets(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, s.deps.Workflows.Presets())
}

func (s *Server) startWorkflow(w http.ResponseWriter, r *http.Request) {
	var in struct {
		WorkflowID string       `json:"workflowId"`
		LeadID     string       `json:"leadId"`
		BrokerID   string       `json:"brokerId"`
		Lead       *models.Lead `json:"lead,omitempty"`
	}
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if in.WorkflowID == "" {
		s.writeError(w, r, apperrors.NewInvalidInputError("workflowId is required"))
		return
	}

	lead, err := s.resolveLead(r.Context(), in.LeadID, in.Lead)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	inst, err := s.deps.Workflows.Start(r.Context(), in.WorkflowID, lead, in.BrokerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, inst)
}

// resolveLead prefers the stored lead and falls back to an inline one.
func (s *Server) resolveLead(ctx context.Context, id string, inline *models.Lead) (models.Lead, error) {
	if id != "" && s.deps.CRM != nil {
		l, err := s.deps.CRM.GetLead(ctx, id)
		if err == nil {
			return *l, nil
		}
		if inline == nil {
			return models.Lead{}, err
		}
	}
	if inline != nil {
		if inline.ID == "" {
			inline.ID = id
		}
		return *inline, nil
	}
	if id == "" {
		return models.Lead{}, apperrors.NewInvalidInputError("leadId is required")
	}
	return models.Lead{ID: id}, nil
}

func (s *Server) processWorkflows(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Workflows.ProcessScheduled(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (s *Server) getWorkflow(w http.ResponseWriter, r *http.Request) {
	inst, err := s.deps.Workflows.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, inst)
}

func (s *Server) pauseWorkflow(w http.ResponseWriter, r *http.Request) {
	s.transitionWorkflow(w, r, s.deps.Workflows.Pause)
}

func (s *Server) resumeWorkflow(w http.ResponseWriter, r *http.Request) {
	s.transitionWorkflow(w, r, s.deps.Workflows.Resume)
}

func (s *Server) cancelWorkflow(w http.ResponseWriter, r *http.Request) {
	s.transitionWorkflow(w, r, s.deps.Workflows.Cancel)
}

func (s *Server) transitionWorkflow(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (*models.WorkflowInstance, error)) {
	inst, err := fn(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, inst)
}

func (s *Server) leadWorkflows(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Workflows.LeadWorkflows(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, items)
}
