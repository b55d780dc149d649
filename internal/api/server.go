// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"usahud-crm/internal/agent"
	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/common/metrics"
	"usahud-crm/internal/crm"
	"usahud-crm/internal/matching"
	"usahud-crm/internal/notification"
	"usahud-crm/internal/workflow"
)

const maxBodyBytes = 1 << 20

// Check reports whether a dependency is ready to serve.
type Check func(ctx context.Context) error

// Deps are the services behind the API. Nil services leave their routes
// unregistered.
type Deps struct {
	CRM          *crm.Store
	Matcher      *matching.Matcher
	Workflows    *workflow.Engine
	Agents       *agent.Service
	Communicator *notification.Communicator

	// Relay sends the raw email endpoints. Nil answers "Email service not configured".
	Relay        notification.EmailSender
	GatewayEmail string
	DashboardURL string

	ReadyChecks map[string]Check
	Logger      logger.Logger
}

// Server is the HTTP surface of the CRM.
type Server struct {
	mux    *http.ServeMux
	deps   Deps
	logger logger.Logger
	now    func() time.Time
}

func NewServer(deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &Server{
		mux:    http.NewServeMux(),
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
		now:    time.Now,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.handle("GET /health", s.health)
	s.handle("GET /ready", s.ready)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	s.handle("POST /api/send-email", s.sendEmail)
	s.handle("POST /api/send-agent-email", s.sendAgentEmail)
	s.handle("POST /api/send-notification", s.sendNotification)

	if s.deps.CRM != nil {
		s.handle("POST /api/v1/customers", s.createCustomer)
		s.handle("GET /api/v1/customers", s.listCustomers)
		s.handle("GET /api/v1/customers/search", s.searchCustomers)
		s.handle("GET /api/v1/customers/{id}", s.getCustomer)
		s.handle("PATCH /api/v1/customers/{id}", s.updateCustomer)
		s.handle("POST /api/v1/customers/{id}/notes", s.addCustomerNote)

		s.handle("POST /api/v1/consultations", s.createConsultation)
		s.handle("GET /api/v1/consultations", s.listConsultations)

		s.handle("POST /api/v1/leads", s.createLead)
		s.handle("GET /api/v1/leads", s.listLeads)
		s.handle("GET /api/v1/leads/overdue", s.overdueLeads)
		s.handle("GET /api/v1/leads/high-priority", s.highPriorityLeads)
		s.handle("GET /api/v1/leads/{id}", s.getLead)
		s.handle("PATCH /api/v1/leads/{id}/status", s.updateLeadStatus)
		s.handle("DELETE /api/v1/leads/{id}", s.deleteLead)

		s.handle("GET /api/v1/dashboard/stats", s.dashboardStats)
	}

	if s.deps.Communicator != nil {
		s.handle("POST /api/v1/messages", s.sendMessage)
		s.handle("GET /api/v1/leads/{id}/communications", s.leadCommunications)
	}

	if s.deps.Matcher != nil {
		s.handle("POST /api/v1/properties/match", s.matchProperties)
		s.handle("POST /api/v1/properties/share", s.shareProperties)
		s.handle("GET /api/v1/leads/{id}/shares", s.leadShares)
		s.handle("POST /api/v1/share-links", s.createShareLink)
		s.handle("GET /api/v1/share-links/{id}", s.getShareLink)
	}

	if s.deps.Workflows != nil {
		s.handle("GET /api/v1/workflows/presets", s.workflowPresets)
		s.handle("POST /api/v1/workflows", s.startWorkflow)
		s.handle("POST /api/v1/workflows/process", s.processWorkflows)
		s.handle("GET /api/v1/workflows/{id}", s.getWorkflow)
		s.handle("POST /api/v1/workflows/{id}/pause", s.pauseWorkflow)
		s.handle("POST /api/v1/workflows/{id}/resume", s.resumeWorkflow)
		s.handle("POST /api/v1/workflows/{id}/cancel", s.cancelWorkflow)
		s.handle("GET /api/v1/leads/{id}/workflows", s.leadWorkflows)
	}

	if s.deps.Agents != nil {
		s.handle("POST /api/v1/agents/applications", s.submitApplication)
		s.handle("GET /api/v1/agents/applications/pending", s.pendingApplications)
		s.handle("GET /api/v1/agents/applications/{id}", s.getApplication)
		s.handle("POST /api/v1/agents/applications/{id}/approve", s.approveApplication)
		s.handle("POST /api/v1/agents/applications/{id}/reject", s.rejectApplication)
		s.handle("POST /api/v1/agents/verify", s.verifyEmail)
		s.handle("POST /api/v1/agents/verify/resend", s.resendVerification)
	}
}

// handle registers fn and counts requests per route pattern.
func (s *Server) handle(pattern string, fn http.HandlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(rec, r)
		metrics.HTTPRequests.WithLabelValues(r.Method, pattern, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   s.now().Format(time.RFC3339),
	})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	failures := map[string]string{}
	for name, check := range s.deps.ReadyChecks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "not_ready",
			"failures": failures,
			"time":     s.now().Format(time.RFC3339),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   s.now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, map[string]interface{}{"success": true, "data": data})
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": msg})
}

// writeError maps domain errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := apperrors.Normalize(err)
	status := apperrors.HTTPStatus(stdErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", map[string]interface{}{
			"method":    r.Method,
			"path":      r.URL.Path,
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
	}
	body := map[string]interface{}{
		"success": false,
		"error":   stdErr.Message,
		"code":    string(stdErr.Code),
	}
	if stdErr.Details != "" {
		body["details"] = stdErr.Details
	}
	writeJSON(w, status, body)
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.NewInvalidInputError("invalid JSON body: " + err.Error())
	}
	return nil
}
