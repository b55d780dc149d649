// internal/api/crm.go
package api

import (
	"net/http"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/common/validation"
	"usahud-crm/internal/models"
)

// validate runs a form schema and reports failures as INVALID_INPUT.
func validate(schema string, doc interface{}) error {
	res, err := validation.Validate(schema, doc)
	if err != nil {
		return err
	}
	if !res.Valid {
		return apperrors.NewInvalidInputError(res.Summary())
	}
	return nil
}

func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	var in models.CustomerInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validate(validation.SchemaCustomer, in); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.deps.CRM.AddCustomer(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, c)
}

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.CRM.GetAllCustomers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, items)
}

func (s *Server) searchCustomers(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.CRM.SearchCustomers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, items)
}

func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, err := s.deps.CRM.GetCustomer(r.Context(), id)
	if err == nil && c == nil {
		err = apperrors.NewCustomerNotFoundError(id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

func (s *Server) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var patch models.CustomerPatch
	if err := decode(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.deps.CRM.UpdateCustomer(r.Context(), id, patch)
	if err == nil && c == nil {
		err = apperrors.NewCustomerNotFoundError(id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

func (s *Server) addCustomerNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var in struct {
		Text      string `json:"text"`
		CreatedBy string `json:"createdBy"`
	}
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if in.Text == "" {
		s.writeError(w, r, apperrors.NewInvalidInputError("text is required"))
		return
	}
	c, err := s.deps.CRM.AddCustomerNote(r.Context(), id, in.Text, in.CreatedBy)
	if err == nil && c == nil {
		err = apperrors.NewCustomerNotFoundError(id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, c)
}

func (s *Server) createConsultation(w http.ResponseWriter, r *http.Request) {
	var in models.ConsultationInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validate(validation.SchemaConsultation, in); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.deps.CRM.AddConsultation(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, c)
}

func (s *Server) listConsultations(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.CRM.GetAllConsultations(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, items)
}

func (s *Server) createLead(w http.ResponseWriter, r *http.Request) {
	var in models.LeadInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validate(validation.SchemaLead, in); err != nil {
		s.writeError(w, r, err)
		return
	}
	l, err := s.deps.CRM.AddLead(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, l)
}

func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.CRM.GetAllLeads(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, items)
}

func (s *Server) overdueLeads(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.CRM.GetOverdueLeads(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, items)
}

func (s *Server) highPriorityLeads(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.CRM.GetHighPriorityLeads(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, items)
}

func (s *Server) getLead(w http.ResponseWriter, r *http.Request) {
	l, err := s.deps.CRM.GetLead(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, l)
}

func (s *Server) updateLeadStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var in struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if in.Status == "" {
		s.writeError(w, r, apperrors.NewInvalidInputError("status is required"))
		return
	}
	l, err := s.deps.CRM.UpdateLeadStatus(r.Context(), id, in.Status, in.Note)
	if err == nil && l == nil {
		err = apperrors.NewLeadNotFoundError(id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, l)
}

func (s *Server) deleteLead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed, err := s.deps.CRM.DeleteLead(r.Context(), id)
	if err == nil && !removed {
		err = apperrors.NewLeadNotFoundError(id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) dashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.CRM.GetDashboardStats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Channel string         `json:"channel"`
		Message models.Message `json:"message"`
	}
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if in.Message.To == "" || in.Message.Content == "" {
		s.writeError(w, r, apperrors.NewInvalidInputError("message.to and message.content are required"))
		return
	}
	res, err := s.deps.Communicator.Send(r.Context(), in.Channel, in.Message)
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

func (s *Server) leadCommunications(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Communicator.History(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, items)
}
