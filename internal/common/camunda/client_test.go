// internal/common/camunda/client_test.go
package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usahud-crm/internal/common/errors"
)

func testClient() *Client {
	return &Client{config: &ClientConfig{
		ConnectionTimeout: time.Second,
		RetryConfig: &RetryConfig{
			MaxRetries: 2,
			BaseDelay:  time.Millisecond,
			MaxDelay:   2 * time.Millisecond,
		},
	}}
}

func TestExecuteWithRetry_RetriesTransientErrors(t *testing.T) {
	calls := 0
	result, err := testClient().ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, stderrors.New("rpc error: code = Unavailable")
		}
		return "ok", nil
	}, "topology")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := testClient().ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("process already exists")
	}, "deploy")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, errors.HasCode(err, "BUSINESS_RULE_VIOLATION"))
}

func TestExecuteWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	_, err := testClient().ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("context deadline exceeded")
	}, "topology")

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, errors.HasCode(err, "TIMEOUT_ERROR"))
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"dial tcp: connection refused", true},
		{"rpc error: code = Unavailable desc = unavailable", true},
		{"context deadline exceeded", true},
		{"NOT_FOUND: no such job", false},
		{"invalid argument", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isRetryableZeebeError(stderrors.New(tt.msg)), tt.msg)
	}
}
