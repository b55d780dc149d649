// internal/common/errors/errors_test.go
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_UnwrapAndAs(t *testing.T) {
	cause := stderrors.New("connection refused")
	stdErr := NewStorageReadFailedError("usahud_customers", cause)
	wrapped := fmt.Errorf("load customers: %w", stdErr)

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeStorageReadFailed, got.Code)
	assert.True(t, stderrors.Is(wrapped, cause))
	assert.True(t, HasCode(wrapped, ErrCodeStorageReadFailed))
	assert.False(t, HasCode(cause, ErrCodeStorageReadFailed))
	assert.Equal(t, "StandardError[STORAGE_READ_FAILED]: Failed to read usahud_customers", stdErr.Error())
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantRetries int
	}{
		{"retryable storage error", NewStorageWriteFailedError("leads", stderrors.New("x")), 3},
		{"llm timeout", NewLLMTimeoutError(), 1},
		{"business error", NewWorkflowNotFoundError("nope"), 0},
		{"token expired", NewTokenExpiredError(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err.WithMetadata("leadId", "lead_1"))
			assert.Equal(t, string(tt.err.Code), bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["errorCode"])
			assert.Equal(t, "lead_1", vars["leadId"])
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := map[ErrorCode]int{
		ErrCodeCustomerNotFound:       http.StatusNotFound,
		ErrCodeTokenExpired:           http.StatusGone,
		ErrCodeInvalidToken:           http.StatusBadRequest,
		ErrCodeUnsupportedChannel:     http.StatusBadRequest,
		ErrCodeNotificationSendFailed: http.StatusBadGateway,
		ErrCodeStorageReadFailed:      http.StatusInternalServerError,
		ErrCodeInvalidWorkflowState:   http.StatusConflict,
	}
	for code, want := range tests {
		assert.Equal(t, want, HTTPStatus(code), string(code))
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeStorageWriteFailed))
	assert.Equal(t, "COMMUNICATION", GetErrorCategory(ErrCodeUnsupportedChannel))
	assert.Equal(t, "MATCHING", GetErrorCategory(ErrCodeShareLinkExpired))
	assert.Equal(t, "WORKFLOW", GetErrorCategory(ErrCodeStepNotFound))
	assert.Equal(t, "AGENT", GetErrorCategory(ErrCodeTokenExpired))
	assert.Equal(t, "IMPORT", GetErrorCategory(ErrCodeScrapeFailed))
	assert.Equal(t, "OTHER", GetErrorCategory("SOMETHING_ELSE"))
}

func TestNormalize(t *testing.T) {
	plain := stderrors.New("boom")
	n := Normalize(plain)
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), n.Code)
	assert.Equal(t, "boom", n.Details)
	assert.False(t, IsRetryableErrorCode(n.Code))

	known := NewInvalidInputError("email required")
	assert.Same(t, known, Normalize(fmt.Errorf("wrap: %w", known)))
}
