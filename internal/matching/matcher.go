// internal/matching/matcher.go
package matching

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/common/metrics"
	"usahud-crm/internal/models"
	"usahud-crm/internal/store"
)

const (
	searchLimit = 20
	topMatches  = 10
	linkTTL     = 30 * 24 * time.Hour
)

// MessageSender delivers a broker message on a channel.
type MessageSender interface {
	Send(ctx context.Context, channel string, msg models.Message) (models.SendResult, error)
}

// ShareRequest asks to send a set of properties to a client.
type ShareRequest struct {
	LeadID        string            `json:"leadId"`
	BrokerID      string            `json:"brokerId"`
	Properties    []models.Property `json:"properties"`
	Channel       string            `json:"channel"`
	CustomMessage string            `json:"customMessage,omitempty"`
	ClientName    string            `json:"clientName"`
	ClientEmail   string            `json:"clientEmail,omitempty"`
	ClientPhone   string            `json:"clientPhone,omitempty"`
}

// SharedProperties is what a shareable link resolves to.
type SharedProperties struct {
	Properties []models.Property    `json:"properties"`
	Link       models.ShareableLink `json:"shareData"`
}

// Matcher finds, scores and shares properties.
type Matcher struct {
	source  PropertySource
	sender  MessageSender
	shares  *store.Collection[models.PropertyShare]
	links   *store.Collection[models.ShareableLink]
	baseURL string
	logger  logger.Logger
	now     func() time.Time
	newID   store.IDFunc
}

func NewMatcher(
	source PropertySource,
	sender MessageSender,
	shares *store.Collection[models.PropertyShare],
	links *store.Collection[models.ShareableLink],
	baseURL string,
	log logger.Logger,
) *Matcher {
	return &Matcher{
		source:  source,
		sender:  sender,
		shares:  shares,
		links:   links,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  log.WithFields(map[string]interface{}{"component": "matching"}),
		now:     time.Now,
		newID:   store.NewID,
	}
}

// WithClock overrides time and id sources.
func (m *Matcher) WithClock(now func() time.Time, newID store.IDFunc) *Matcher {
	m.now = now
	m.newID = newID
	return m
}

// FindMatchingProperties filters the source, scores every candidate and
// returns the ten best. TotalFound counts the filtered candidates.
func (m *Matcher) FindMatchingProperties(ctx context.Context, prefs models.Preferences) (*models.MatchResult, error) {
	candidates, err := m.source.Search(ctx, prefs, searchLimit)
	if err != nil {
		return nil, err
	}
	metrics.PropertyMatchResults.Observe(float64(len(candidates)))

	scored := ScoreAll(candidates, prefs)
	if len(scored) > topMatches {
		scored = scored[:topMatches]
	}

	m.logger.Debug("Properties matched", map[string]interface{}{
		"candidates": len(candidates),
		"returned":   len(scored),
	})
	return &models.MatchResult{Properties: scored, TotalFound: len(candidates)}, nil
}

// ScoreAll scores properties and sorts them by descending score. Ties keep
// the input order.
func ScoreAll(props []models.Property, prefs models.Preferences) []models.ScoredProperty {
	scored := make([]models.ScoredProperty, 0, len(props))
	for _, p := range props {
		b := ScoreBreakdownFor(p, prefs)
		scored = append(scored, models.ScoredProperty{
			Property:   p,
			MatchScore: CalculateMatchScore(p, prefs),
			Breakdown:  b,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].MatchScore > scored[j].MatchScore })
	return scored
}

// ShareProperties sends the properties to the client by email or SMS and
// records the share when delivery succeeds.
func (m *Matcher) ShareProperties(ctx context.Context, req ShareRequest) (models.SendResult, error) {
	if len(req.Properties) == 0 {
		return models.SendResult{}, apperrors.NewInvalidInputError("at least one property is required")
	}
	if req.Channel == "" {
		req.Channel = models.ChannelEmail
	}

	var msg models.Message
	switch req.Channel {
	case models.ChannelEmail:
		msg = models.Message{
			To:      req.ClientEmail,
			Subject: ShareEmailSubject(len(req.Properties)),
			Content: ShareEmailBody(req.ClientName, req.Properties, req.CustomMessage),
		}
	case models.ChannelSMS:
		msg = models.Message{
			To:      req.ClientPhone,
			Content: ShareSMSBody(req.ClientName, req.Properties),
		}
	default:
		return models.SendResult{}, apperrors.NewUnsupportedChannelError(req.Channel)
	}
	msg.LeadID = req.LeadID
	msg.BrokerID = req.BrokerID

	result, err := m.sender.Send(ctx, req.Channel, msg)
	if err != nil || !result.Success {
		return result, err
	}

	ids := make([]string, 0, len(req.Properties))
	for _, p := range req.Properties {
		ids = append(ids, p.ID)
	}
	share := models.PropertyShare{
		ID:          m.newID("share"),
		LeadID:      req.LeadID,
		BrokerID:    req.BrokerID,
		PropertyIDs: ids,
		Channel:     req.Channel,
		SharedAt:    models.Timestamp(m.now()),
	}
	if err := m.shares.Append(ctx, share); err != nil {
		m.logger.Warn("Failed to record property share", map[string]interface{}{"leadId": req.LeadID, "error": err.Error()})
	}
	return result, nil
}

// ShareHistory lists shares sent to a lead, newest first.
func (m *Matcher) ShareHistory(ctx context.Context, leadID string) ([]models.PropertyShare, error) {
	shares, err := m.shares.Filter(ctx, func(s models.PropertyShare) bool { return s.LeadID == leadID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].SharedAt > shares[j].SharedAt })
	return shares, nil
}

// CreateShareableLink stores a 30-day public link to a set of properties.
func (m *Matcher) CreateShareableLink(ctx context.Context, propertyIDs []string, brokerID string) (*models.ShareableLink, error) {
	if len(propertyIDs) == 0 {
		return nil, apperrors.NewInvalidInputError("at least one property is required")
	}

	now := m.now()
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
	link := models.ShareableLink{
		ID:          id,
		PropertyIDs: propertyIDs,
		BrokerID:    brokerID,
		CreatedAt:   models.Timestamp(now),
		ExpiresAt:   models.Timestamp(now.Add(linkTTL)),
		Views:       0,
		Link:        m.baseURL + "/shared/" + id,
	}
	if err := m.links.Append(ctx, link); err != nil {
		return nil, err
	}
	return &link, nil
}

// GetSharedProperties resolves a link, counting the view.
func (m *Matcher) GetSharedProperties(ctx context.Context, id string) (*SharedProperties, error) {
	var link models.ShareableLink
	err := m.links.Update(ctx, func(items []models.ShareableLink) ([]models.ShareableLink, error) {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			expires, err := models.ParseTimestamp(items[i].ExpiresAt)
			if err != nil || expires.Before(m.now()) {
				return nil, apperrors.NewShareLinkExpiredError(id)
			}
			items[i].Views++
			link = items[i]
			return items, nil
		}
		return nil, apperrors.NewShareLinkNotFoundError(id)
	})
	if err != nil {
		return nil, err
	}

	props, err := m.source.GetByIDs(ctx, link.PropertyIDs)
	if err != nil {
		return nil, err
	}
	return &SharedProperties{Properties: props, Link: link}, nil
}
