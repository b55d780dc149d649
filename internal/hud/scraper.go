// internal/hud/scraper.go
package hud

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	apperrors "usahud-crm/internal/common/errors"
	httpclient "usahud-crm/internal/common/http"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/models"
)

const (
	DefaultBaseURL     = "https://www.hudhomestore.gov"
	defaultConcurrency = 3
	userAgent          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	StatusAvailable     = "Available"
	StatusUnderContract = "Under Contract"
	listingSource       = "HUD"
	missingAddress      = "Address not available"
)

// DefaultStates are scraped when no states are configured.
var DefaultStates = []string{"NC", "SC", "GA", "FL", "TX", "CA", "OH", "MI", "PA", "NY"}

var (
	caseNumberRe = regexp.MustCompile(`Case #?:?\s*(\d{3}-\d{6})`)
	locationRe   = regexp.MustCompile(`^(.+),\s*([A-Z]{2})\s*(\d{5})?`)
	digitsRe     = regexp.MustCompile(`\d+`)
	decimalRe    = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Scraper reads HUD Home Store search results.
type Scraper struct {
	client      *httpclient.Client
	baseURL     string
	concurrency int
	logger      logger.Logger
	now         func() time.Time
}

func NewScraper(client *httpclient.Client, baseURL string, concurrency int, log logger.Logger) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Scraper{
		client:      client,
		baseURL:     strings.TrimRight(baseURL, "/"),
		concurrency: concurrency,
		logger:      log.WithFields(map[string]interface{}{"component": "hud-scraper"}),
		now:         time.Now,
	}
}

// StateProperties fetches and parses the listing page for one state.
func (s *Scraper) StateProperties(ctx context.Context, state string) ([]models.Property, error) {
	state = strings.ToUpper(strings.TrimSpace(state))
	pageURL := fmt.Sprintf("%s/searchresult?citystate=%s", s.baseURL, url.QueryEscape(state))

	s.logger.Info("Scraping state", map[string]interface{}{"state": state, "url": pageURL})

	body, err := s.client.GetBody(ctx, pageURL, map[string]string{
		"User-Agent": userAgent,
		"Accept":     "text/html,application/xhtml+xml",
	})
	if err != nil {
		return nil, apperrors.NewScrapeFailedError(state, err)
	}

	props, err := ParseListings(body, s.now())
	if err != nil {
		return nil, apperrors.NewScrapeFailedError(state, err)
	}

	s.logger.Info("State scraped", map[string]interface{}{"state": state, "properties": len(props)})
	return props, nil
}

// StateResult is the outcome of scraping one state.
type StateResult struct {
	State      string            `json:"state"`
	Properties []models.Property `json:"properties"`
	Error      string            `json:"error,omitempty"`
}

// ScrapeStates scrapes states concurrently. A failing state is reported in
// its result and does not stop the others.
func (s *Scraper) ScrapeStates(ctx context.Context, states []string) ([]StateResult, error) {
	if len(states) == 0 {
		states = DefaultStates
	}

	results := make([]StateResult, len(states))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, state := range states {
		i, state := i, state
		g.Go(func() error {
			props, err := s.StateProperties(gctx, state)
			res := StateResult{State: strings.ToUpper(state), Properties: props}
			if err != nil {
				s.logger.Warn("State scrape failed", map[string]interface{}{"state": state, "error": err.Error()})
				res.Error = err.Error()
				res.Properties = []models.Property{}
			}
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// ParseListings extracts property cards from a search result page.
func ParseListings(page []byte, scrapedAt time.Time) ([]models.Property, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	cards := doc.Find("div.property-card")
	if cards.Length() == 0 {
		cards = doc.Find("article")
	}
	if cards.Length() == 0 {
		cards = doc.Find("[data-case-number]")
	}

	props := []models.Property{}
	cards.Each(func(_ int, card *goquery.Selection) {
		if p, ok := parseCard(card, scrapedAt); ok {
			props = append(props, p)
		}
	})
	return props, nil
}

func parseCard(card *goquery.Selection, scrapedAt time.Time) (models.Property, bool) {
	caseNumber := extract(card, "data-case-number", "case-number")
	if caseNumber == "" {
		if m := caseNumberRe.FindStringSubmatch(card.Text()); m != nil {
			caseNumber = m[1]
		}
	}
	if caseNumber == "" {
		return models.Property{}, false
	}

	p := models.Property{
		ID:            caseNumber,
		CaseNumber:    caseNumber,
		Address:       extract(card, "address", "property-address"),
		County:        extract(card, "county"),
		ListPrice:     parsePrice(extract(card, "price", "property-price")),
		Bedrooms:      parseInt(extract(card, "beds", "bedrooms")),
		Bathrooms:     parseDecimal(extract(card, "baths", "bathrooms")),
		Status:        extract(card, "status", "listing-status"),
		ListingPeriod: extract(card, "listing-period"),
		ListingSource: listingSource,
		CreatedAt:     models.Timestamp(scrapedAt),
	}
	if p.Address == "" {
		p.Address = missingAddress
	}
	if p.Status == "" {
		p.Status = StatusAvailable
	}
	p.City, p.State, p.ZipCode = parseLocation(extract(card, "location", "city-state"))
	return p, true
}

// extract returns the first non-empty value among attributes on the card
// and text of descendants carrying the same name as a class.
func extract(card *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v, ok := card.Attr(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		if v := strings.TrimSpace(card.Find("." + name).First().Text()); v != "" {
			return v
		}
	}
	return ""
}

func parseLocation(s string) (city, state, zip string) {
	m := locationRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", "", ""
	}
	return strings.TrimSpace(m[1]), m[2], m[3]
}

func parsePrice(s string) float64 {
	m := digitsRe.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return 0
	}
	v, _ := strconv.ParseFloat(m, 64)
	return v
}

func parseInt(s string) int {
	m := digitsRe.FindString(s)
	if m == "" {
		return 0
	}
	v, _ := strconv.Atoi(m)
	return v
}

func parseDecimal(s string) float64 {
	m := decimalRe.FindString(s)
	if m == "" {
		return 0
	}
	v, _ := strconv.ParseFloat(m, 64)
	return v
}
