// internal/workers/hud/generate-property-description/handler_test.go
package generatepropertydescription

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "usahud-crm/internal/common/errors"
	httpclient "usahud-crm/internal/common/http"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/hud"
	"usahud-crm/internal/models"
)

type fakeDescriber struct {
	text string
	err  error
}

func (f *fakeDescriber) GenerateDescription(ctx context.Context, p models.Property) (string, error) {
	return f.text, f.err
}

func testProperty() models.Property {
	return models.Property{
		CaseNumber: "381-123456",
		Address:    "12 Oak St",
		City:       "Charlotte",
		State:      "NC",
		ListPrice:  125000,
		Bedrooms:   4,
		Bathrooms:  2,
		Sqft:       2400,
	}
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name         string
		describer    Describer
		aiEnabled    bool
		wantSource   string
		wantReason   string
		wantDescText string
	}{
		{
			name:         "ai description",
			describer:    &fakeDescriber{text: "  Charming four bedroom home.  "},
			aiEnabled:    true,
			wantSource:   SourceAI,
			wantDescText: "Charming four bedroom home.",
		},
		{
			name:       "ai timeout falls back",
			describer:  &fakeDescriber{err: apperrors.NewLLMTimeoutError()},
			aiEnabled:  true,
			wantSource: SourceTemplate,
			wantReason: "LLM_TIMEOUT",
		},
		{
			name:       "empty ai response falls back",
			describer:  &fakeDescriber{text: "   "},
			aiEnabled:  true,
			wantSource: SourceTemplate,
			wantReason: "empty ai response",
		},
		{
			name:       "ai disabled",
			describer:  &fakeDescriber{text: "unused"},
			aiEnabled:  false,
			wantSource: SourceTemplate,
			wantReason: "ai disabled",
		},
		{
			name:       "no describer",
			aiEnabled:  true,
			wantSource: SourceTemplate,
			wantReason: "ai disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			cfg.AIEnabled = tt.aiEnabled
			h := NewHandler(cfg, tt.describer, logger.NewTestLogger(t))

			out, err := h.Execute(context.Background(), &Input{Property: testProperty()})

			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, out.Source)
			assert.Equal(t, tt.wantReason, out.FallbackReason)
			assert.Equal(t, "Beautiful 4-Bedroom HUD Home in Charlotte", out.Headline)
			assert.Contains(t, out.Highlights, "Spacious family home")
			if tt.wantDescText != "" {
				assert.Equal(t, tt.wantDescText, out.Description)
			} else {
				assert.Contains(t, out.Description, "Located in Charlotte, NC.")
			}
		})
	}
}

func TestHandler_Execute_UnexpectedErrorFallsBack(t *testing.T) {
	h := NewHandler(LoadConfig(), &fakeDescriber{err: errors.New("boom")}, logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{Property: testProperty()})

	require.NoError(t, err)
	assert.Equal(t, SourceTemplate, out.Source)
	assert.Equal(t, "INTERNAL_ERROR", out.FallbackReason)
}

func TestHandler_Execute_RequiresLocation(t *testing.T) {
	h := NewHandler(LoadConfig(), &fakeDescriber{text: "x"}, logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{Property: models.Property{CaseNumber: "381-1"}})

	assert.Nil(t, out)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestHandler_Execute_WithEnhancer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"A roomy Charlotte home priced to sell."}}]}`))
	}))
	t.Cleanup(srv.Close)

	enhancer := hud.NewEnhancer(httpclient.NewClient(5*time.Second), srv.URL, "test-key", "", logger.NewNoOpLogger())
	h := NewHandler(LoadConfig(), enhancer, logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{Property: testProperty()})

	require.NoError(t, err)
	assert.Equal(t, SourceAI, out.Source)
	assert.Equal(t, "A roomy Charlotte home priced to sell.", out.Description)
}
