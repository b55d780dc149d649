// Package errors provides the structured error taxonomy shared by the HTTP API and the job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Storage
	ErrCodeStorageReadFailed        ErrorCode = "STORAGE_READ_FAILED"
	ErrCodeStorageWriteFailed       ErrorCode = "STORAGE_WRITE_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"

	// CRM
	ErrCodeCustomerNotFound ErrorCode = "CUSTOMER_NOT_FOUND"
	ErrCodeLeadNotFound     ErrorCode = "LEAD_NOT_FOUND"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"

	// Notification / communication
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeChannelNotConfigured   ErrorCode = "CHANNEL_NOT_CONFIGURED"
	ErrCodeUnsupportedChannel     ErrorCode = "UNSUPPORTED_CHANNEL"
	ErrCodeMessageNotFound        ErrorCode = "MESSAGE_NOT_FOUND"

	// Matching
	ErrCodePropertyQueryFailed ErrorCode = "PROPERTY_QUERY_FAILED"
	ErrCodeSearchQueryFailed   ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeNoMatchingProperty  ErrorCode = "NO_MATCHING_PROPERTIES"
	ErrCodeShareLinkNotFound   ErrorCode = "SHARE_LINK_NOT_FOUND"
	ErrCodeShareLinkExpired    ErrorCode = "SHARE_LINK_EXPIRED"

	// Workflow
	ErrCodeWorkflowNotFound         ErrorCode = "WORKFLOW_NOT_FOUND"
	ErrCodeWorkflowInstanceNotFound ErrorCode = "WORKFLOW_INSTANCE_NOT_FOUND"
	ErrCodeStepNotFound             ErrorCode = "STEP_NOT_FOUND"
	ErrCodeInvalidWorkflowState     ErrorCode = "INVALID_WORKFLOW_STATE"

	// Agent applications
	ErrCodeApplicationValidationFailed ErrorCode = "APPLICATION_VALIDATION_FAILED"
	ErrCodeApplicationNotFound         ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeInvalidToken                ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired                ErrorCode = "TOKEN_EXPIRED"

	// AI / import
	ErrCodeLLMTimeout         ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMSynthesisFailed ErrorCode = "LLM_SYNTHESIS_FAILED"
	ErrCodeScrapeFailed       ErrorCode = "SCRAPE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// As extracts a *StandardError anywhere in err's chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := As(err)
	return ok && stdErr.Code == code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func NewStorageReadFailedError(collection string, err error) *StandardError {
	return newError(ErrCodeStorageReadFailed, fmt.Sprintf("Failed to read %s", collection), errDetails(err), true, err)
}

func NewStorageWriteFailedError(collection string, err error) *StandardError {
	return newError(ErrCodeStorageWriteFailed, fmt.Sprintf("Failed to write %s", collection), errDetails(err), true, err)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection failed", errDetails(err), true, err)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Failed to insert record", errDetails(err), true, err)
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, fmt.Sprintf("Query '%s' failed", queryType), errDetails(err), true, err)
}

func NewCustomerNotFoundError(id string) *StandardError {
	return newError(ErrCodeCustomerNotFound, "Customer not found", id, false, nil)
}

func NewLeadNotFoundError(id string) *StandardError {
	return newError(ErrCodeLeadNotFound, "Lead not found", id, false, nil)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, false, nil)
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, fmt.Sprintf("Failed to send %s notification", notificationType), errDetails(err), true, err)
}

func NewChannelNotConfiguredError(channel string) *StandardError {
	return newError(ErrCodeChannelNotConfigured, fmt.Sprintf("Channel %s is not configured", channel), "", false, nil)
}

func NewUnsupportedChannelError(channel string) *StandardError {
	return newError(ErrCodeUnsupportedChannel, "Unsupported channel", channel, false, nil)
}

func NewMessageNotFoundError(id string) *StandardError {
	return newError(ErrCodeMessageNotFound, "Scheduled message not found", id, false, nil)
}

func NewPropertyQueryFailedError(err error) *StandardError {
	return newError(ErrCodePropertyQueryFailed, "Property query failed", errDetails(err), true, err)
}

func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, fmt.Sprintf("Search '%s' failed", queryType), errDetails(err), true, err)
}

func NewNoMatchingPropertiesError() *StandardError {
	return newError(ErrCodeNoMatchingProperty, "No matching properties found", "", false, nil)
}

func NewShareLinkNotFoundError(id string) *StandardError {
	return newError(ErrCodeShareLinkNotFound, "Link not found", id, false, nil)
}

func NewShareLinkExpiredError(id string) *StandardError {
	return newError(ErrCodeShareLinkExpired, "Link has expired", id, false, nil)
}

func NewWorkflowNotFoundError(workflowID string) *StandardError {
	return newError(ErrCodeWorkflowNotFound, "Workflow not found", workflowID, false, nil)
}

func NewWorkflowInstanceNotFoundError(instanceID string) *StandardError {
	return newError(ErrCodeWorkflowInstanceNotFound, "Workflow instance not found", instanceID, false, nil)
}

func NewStepNotFoundError(index int) *StandardError {
	return newError(ErrCodeStepNotFound, "Step not found", fmt.Sprintf("index %d", index), false, nil)
}

func NewInvalidWorkflowStateError(details string) *StandardError {
	return newError(ErrCodeInvalidWorkflowState, "Invalid workflow state", details, false, nil)
}

func NewApplicationValidationFailedError(details string) *StandardError {
	return newError(ErrCodeApplicationValidationFailed, "Application validation failed", details, false, nil)
}

func NewApplicationNotFoundError(id string) *StandardError {
	return newError(ErrCodeApplicationNotFound, "Application not found", id, false, nil)
}

func NewInvalidTokenError() *StandardError {
	return newError(ErrCodeInvalidToken, "Invalid or expired verification token", "", false, nil)
}

func NewTokenExpiredError() *StandardError {
	return newError(ErrCodeTokenExpired, "Verification link has expired. Please request a new one.", "", false, nil)
}

func NewLLMTimeoutError() *StandardError {
	return newError(ErrCodeLLMTimeout, "LLM request timed out", "", true, nil)
}

func NewLLMSynthesisFailedError(err error) *StandardError {
	return newError(ErrCodeLLMSynthesisFailed, "LLM request failed", errDetails(err), true, err)
}

func NewScrapeFailedError(state string, err error) *StandardError {
	return newError(ErrCodeScrapeFailed, fmt.Sprintf("Scrape of %s failed", state), errDetails(err), true, err)
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return newError("BUSINESS_RULE_VIOLATION", message, details, false, nil)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), errDetails(err), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), errDetails(err), true, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStorageReadFailed,
		ErrCodeStorageWriteFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodePropertyQueryFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeLLMSynthesisFailed,
		ErrCodeScrapeFailed:
		return 3

	case ErrCodeLLMTimeout, "TIMEOUT_ERROR":
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
// BPMN codes are the internal codes verbatim.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "STORAGE") || strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY_EXECUTION"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "CHANNEL") || strings.Contains(codeStr, "MESSAGE"):
		return "COMMUNICATION"
	case strings.Contains(codeStr, "PROPERTY") || strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "SHARE"):
		return "MATCHING"
	case strings.Contains(codeStr, "WORKFLOW") || strings.Contains(codeStr, "STEP"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "TOKEN") || strings.Contains(codeStr, "APPLICATION"):
		return "AGENT"
	case strings.Contains(codeStr, "LLM") || strings.Contains(codeStr, "SCRAPE"):
		return "IMPORT"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps an error code to the status the API responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeCustomerNotFound, ErrCodeLeadNotFound, ErrCodeWorkflowNotFound,
		ErrCodeWorkflowInstanceNotFound, ErrCodeStepNotFound, ErrCodeApplicationNotFound,
		ErrCodeShareLinkNotFound, ErrCodeMessageNotFound:
		return http.StatusNotFound
	case ErrCodeShareLinkExpired, ErrCodeTokenExpired:
		return http.StatusGone
	case ErrCodeInvalidInput, ErrCodeApplicationValidationFailed, ErrCodeInvalidToken,
		ErrCodeUnsupportedChannel, ErrCodeChannelNotConfigured, ErrCodeNoMatchingProperty:
		return http.StatusBadRequest
	case ErrCodeInvalidWorkflowState, "BUSINESS_RULE_VIOLATION":
		return http.StatusConflict
	case ErrCodeLLMTimeout, "TIMEOUT_ERROR":
		return http.StatusGatewayTimeout
	case ErrCodeNotificationSendFailed, "EXTERNAL_SERVICE_ERROR", ErrCodeLLMSynthesisFailed, ErrCodeScrapeFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
