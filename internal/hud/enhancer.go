// internal/hud/enhancer.go
package hud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	apperrors "usahud-crm/internal/common/errors"
	httpclient "usahud-crm/internal/common/http"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/models"
)

const (
	DefaultModel      = "gpt-4.1-mini"
	DefaultOpenAIURL  = "https://api.openai.com/v1"
	defaultMaxRetries = 2
)

var (
	jsonFenceRe = regexp.MustCompile("```json\\n?")
	fenceRe     = regexp.MustCompile("```\\n?")
)

// ListingData is the structured listing exchanged with the model.
type ListingData struct {
	CaseNumber      string   `json:"case_number"`
	Address         string   `json:"address"`
	City            string   `json:"city"`
	State           string   `json:"state"`
	ZipCode         string   `json:"zip_code,omitempty"`
	Price           float64  `json:"price"`
	Bedrooms        int      `json:"bedrooms"`
	Bathrooms       float64  `json:"bathrooms"`
	SquareFeet      int      `json:"square_feet,omitempty"`
	YearBuilt       int      `json:"year_built,omitempty"`
	PropertyType    string   `json:"property_type,omitempty"`
	Status          string   `json:"status,omitempty"`
	Description     string   `json:"description,omitempty"`
	FHAInsurable    bool     `json:"fha_insurable,omitempty"`
	BidOpenDate     string   `json:"bid_open_date,omitempty"`
	BidCloseDate    string   `json:"bid_close_date,omitempty"`
	ImageURLs       []string `json:"image_urls,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	ValidationNotes string   `json:"validation_notes,omitempty"`
}

// Property converts listing data into a property row.
func (d ListingData) Property() models.Property {
	return models.Property{
		ID:            d.CaseNumber,
		CaseNumber:    d.CaseNumber,
		Address:       d.Address,
		City:          d.City,
		State:         d.State,
		ZipCode:       d.ZipCode,
		ListPrice:     d.Price,
		Bedrooms:      d.Bedrooms,
		Bathrooms:     d.Bathrooms,
		Sqft:          d.SquareFeet,
		YearBuilt:     d.YearBuilt,
		PropertyType:  d.PropertyType,
		Status:        d.Status,
		Description:   d.Description,
		FHAInsurable:  d.FHAInsurable,
		Images:        d.ImageURLs,
		ListingSource: listingSource,
	}
}

// ValidationReport separates blocking issues from warnings.
type ValidationReport struct {
	IsValid  bool     `json:"isValid"`
	Issues   []string `json:"issues"`
	Warnings []string `json:"warnings"`
}

// ValidateProperty checks listing data before import.
func ValidateProperty(d ListingData, now time.Time) ValidationReport {
	issues := []string{}
	warnings := []string{}

	if strings.TrimSpace(d.CaseNumber) == "" {
		issues = append(issues, "Case number is required")
	}
	if strings.TrimSpace(d.Address) == "" {
		issues = append(issues, "Address is required")
	}
	if strings.TrimSpace(d.City) == "" {
		issues = append(issues, "City is required")
	}
	if strings.TrimSpace(d.State) == "" {
		issues = append(issues, "State is required")
	}
	if d.Price <= 0 {
		issues = append(issues, "Valid price is required")
	}

	if d.Bedrooms == 0 {
		warnings = append(warnings, "Bedrooms not specified")
	}
	if d.Bathrooms == 0 {
		warnings = append(warnings, "Bathrooms not specified")
	}
	if d.SquareFeet == 0 {
		warnings = append(warnings, "Square feet not specified")
	}
	if strings.TrimSpace(d.Description) == "" {
		warnings = append(warnings, "Description is missing")
	}
	if strings.TrimSpace(d.PropertyType) == "" {
		warnings = append(warnings, "Property type not specified")
	}

	if d.Bedrooms < 0 || d.Bedrooms > 20 {
		issues = append(issues, "Bedrooms value seems invalid")
	}
	if d.Bathrooms < 0 || d.Bathrooms > 20 {
		issues = append(issues, "Bathrooms value seems invalid")
	}
	if d.SquareFeet != 0 && (d.SquareFeet < 100 || d.SquareFeet > 50000) {
		warnings = append(warnings, "Square feet value seems unusual")
	}
	if d.YearBuilt != 0 && (d.YearBuilt < 1800 || d.YearBuilt > now.Year()) {
		warnings = append(warnings, "Year built seems invalid")
	}

	return ValidationReport{IsValid: len(issues) == 0, Issues: issues, Warnings: warnings}
}

// StripCodeFences removes markdown code fences around a model reply.
func StripCodeFences(s string) string {
	s = jsonFenceRe.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.TrimSpace(fenceRe.ReplaceAllString(s, ""))
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Enhancer cleans up and describes listings with an OpenAI chat model.
type Enhancer struct {
	client     *httpclient.Client
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	logger     logger.Logger
}

func NewEnhancer(client *httpclient.Client, baseURL, apiKey, model string, log logger.Logger) *Enhancer {
	if baseURL == "" {
		baseURL = DefaultOpenAIURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Enhancer{
		client:     client,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		maxRetries: defaultMaxRetries,
		logger:     log.WithFields(map[string]interface{}{"component": "hud-enhancer"}),
	}
}

// WithMaxRetries sets how many times a failed completion is retried.
func (e *Enhancer) WithMaxRetries(n int) *Enhancer {
	if n >= 0 {
		e.maxRetries = n
	}
	return e
}

// EnhanceProperty standardizes raw listing data and fills gaps.
func (e *Enhancer) EnhanceProperty(ctx context.Context, raw ListingData) (*ListingData, error) {
	rawJSON, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	prompt := fmt.Sprintf(`You are a property data specialist. Analyze this property information and enhance it.

Property Data:
%s

Tasks:
1. Standardize the address format
2. Validate and format the price (remove $ and commas, return as number)
3. Ensure bedrooms, bathrooms, square_feet are numbers
4. Standardize the state name (full name, not abbreviation)
5. Generate a professional property description if missing
6. Suggest appropriate property_type if not provided (Single Family, Condo, Townhouse, Multi-Family)
7. Validate the case_number format
8. Set appropriate status (Available, Pending, Sold)
9. Determine if FHA insurable based on property condition

Return ONLY a JSON object with these fields: case_number, address, city, state, zip_code,
price, bedrooms, bathrooms, square_feet, year_built, property_type, status, description,
fha_insurable, bid_open_date, bid_close_date, validation_notes.`, rawJSON)

	content, err := e.complete(ctx, "You are a property data specialist. Return only valid JSON, no markdown formatting.", prompt, 0.3, 1000)
	if err != nil {
		return nil, err
	}
	return decodeListing(content)
}

// ExtractFromText pulls listing fields out of pasted free-form text.
func (e *Enhancer) ExtractFromText(ctx context.Context, text string) (*ListingData, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewInvalidInputError("text is required")
	}

	prompt := fmt.Sprintf(`Extract property information from this text and return structured data.

Text:
%s

Extract all available information and return ONLY a JSON object with these fields:
case_number, address, city, state, zip_code, price, bedrooms, bathrooms, square_feet,
year_built, property_type, status, description, image_urls (array), notes.`, text)

	content, err := e.complete(ctx, "You are a property data extraction specialist. Return only valid JSON, no markdown formatting.", prompt, 0.2, 800)
	if err != nil {
		return nil, err
	}
	return decodeListing(content)
}

// GenerateDescription writes marketing copy for a property.
func (e *Enhancer) GenerateDescription(ctx context.Context, p models.Property) (string, error) {
	fha := "No"
	if p.FHAInsurable {
		fha = "Yes"
	}
	prompt := fmt.Sprintf(`Write a professional, engaging property description for this HUD home.

Property Details:
- Address: %s, %s, %s
- Price: $%s
- Bedrooms: %s
- Bathrooms: %s
- Square Feet: %s
- Year Built: %s
- Property Type: %s
- FHA Insurable: %s

Write a compelling 150-200 word description that highlights key features, mentions FHA
financing availability, emphasizes value and opportunity, uses professional real estate
language and ends with a call-to-action.

Return only the description text, no additional formatting.`,
		p.Address, p.City, p.State,
		humanize.Comma(int64(p.ListPrice)),
		orNA(p.Bedrooms != 0, fmt.Sprint(p.Bedrooms)),
		orNA(p.Bathrooms != 0, fmt.Sprint(p.Bathrooms)),
		orNA(p.Sqft != 0, humanize.Comma(int64(p.Sqft))),
		orNA(p.YearBuilt != 0, fmt.Sprint(p.YearBuilt)),
		orNA(p.PropertyType != "", p.PropertyType),
		fha,
	)

	content, err := e.complete(ctx, "You are a professional real estate copywriter specializing in HUD homes.", prompt, 0.7, 300)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func orNA(ok bool, v string) string {
	if !ok {
		return "N/A"
	}
	return v
}

func decodeListing(content string) (*ListingData, error) {
	var out ListingData
	if err := json.Unmarshal([]byte(StripCodeFences(content)), &out); err != nil {
		return nil, apperrors.NewLLMSynthesisFailedError(fmt.Errorf("decode model output: %w", err))
	}
	return &out, nil
}

// complete sends one chat completion, retrying with exponential backoff.
func (e *Enhancer) complete(ctx context.Context, system, prompt string, temperature float64, maxTokens int) (string, error) {
	req := chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	headers := map[string]string{"Authorization": "Bearer " + e.apiKey}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", apperrors.NewLLMTimeoutError()
			}
		}

		var resp chatResponse
		lastErr = e.client.PostJSON(ctx, e.baseURL+"/chat/completions", headers, req, &resp)
		if lastErr == nil {
			if len(resp.Choices) == 0 {
				return "", apperrors.NewLLMSynthesisFailedError(errors.New("empty choices"))
			}
			return strings.TrimSpace(resp.Choices[0].Message.Content), nil
		}

		if ctx.Err() != nil {
			return "", apperrors.NewLLMTimeoutError()
		}
		if !retryable(lastErr) {
			break
		}
		e.logger.Warn("Chat completion failed, retrying", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   lastErr.Error(),
		})
	}
	return "", apperrors.NewLLMSynthesisFailedError(lastErr)
}

func retryable(err error) bool {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	return true
}
