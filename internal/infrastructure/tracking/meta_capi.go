// Package tracking sends conversion events to the Meta Conversions API.
package tracking

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/japabox/storefront/internal/domain/store"
	"github.com/japabox/storefront/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Standard event names
const (
	EventPageView         = "PageView"
	EventInitiateCheckout = "InitiateCheckout"
	EventPurchase         = "Purchase"
)

// IsKnownEvent reports whether name is an event the storefront may post
func IsKnownEvent(name string) bool {
	switch name {
	case EventPageView, EventInitiateCheckout, EventPurchase:
		return true
	}
	return false
}

// Event is one conversion event. Email and Phone are hashed before sending.
type Event struct {
	Name        string
	Time        time.Time
	SourceURL   string
	UserAgent   string
	Email       string
	Phone       string
	Value       decimal.Decimal
	ContentName string
}

type capiRequest struct {
	Data []capiEvent `json:"data"`
}

type capiEvent struct {
	EventName      string         `json:"event_name"`
	EventTime      int64          `json:"event_time"`
	ActionSource   string         `json:"action_source"`
	EventSourceURL string         `json:"event_source_url,omitempty"`
	UserData       capiUserData   `json:"user_data"`
	CustomData     capiCustomData `json:"custom_data"`
}

type capiUserData struct {
	ClientUserAgent string   `json:"client_user_agent,omitempty"`
	Email           []string `json:"em,omitempty"`
	Phone           []string `json:"ph,omitempty"`
}

type capiCustomData struct {
	Currency    string      `json:"currency"`
	Value       json.Number `json:"value"`
	ContentName string      `json:"content_name,omitempty"`
	ContentType string      `json:"content_type"`
}

// Client posts events to the Graph API
type Client struct {
	httpClient *http.Client
	graphURL   string
	apiVersion string
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a Conversions API client
func NewClient(cfg config.MetaConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		graphURL:   strings.TrimRight(cfg.GraphURL, "/"),
		apiVersion: cfg.APIVersion,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	if c.graphURL == "" {
		c.graphURL = "https://graph.facebook.com"
	}
	if c.apiVersion == "" {
		c.apiVersion = "v17.0"
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Hash returns the SHA-256 hex digest of the trimmed, lower-cased value.
// Empty input stays empty.
func Hash(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}

// hashList wraps the hash of value in the one-element array the API expects,
// or returns nil for an empty value
func hashList(value string) []string {
	if h := Hash(value); h != "" {
		return []string{h}
	}
	return nil
}

// Send posts ev to the pixel. It returns an error on transport failure or
// a non-2xx answer.
func (c *Client) Send(ctx context.Context, pixelID, token string, ev Event) error {
	at := ev.Time
	if at.IsZero() {
		at = c.now()
	}
	body := capiRequest{Data: []capiEvent{{
		EventName:      ev.Name,
		EventTime:      at.Unix(),
		ActionSource:   "website",
		EventSourceURL: ev.SourceURL,
		UserData: capiUserData{
			ClientUserAgent: ev.UserAgent,
			Email:           hashList(ev.Email),
			Phone:           hashList(ev.Phone),
		},
		CustomData: capiCustomData{
			Currency:    "BRL",
			Value:       json.Number(ev.Value.StringFixed(2)),
			ContentName: ev.ContentName,
			ContentType: "product",
		},
	}}}

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("meta capi: failed to marshal event: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/events?access_token=%s",
		c.graphURL, c.apiVersion, url.PathEscape(pixelID), url.QueryEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("meta capi: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("meta capi: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("meta capi: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Track sends ev for st. Stores without a pixel or token are skipped and
// failures are only logged.
func (c *Client) Track(ctx context.Context, st *store.Store, ev Event) {
	if st == nil || !st.HasTracking() {
		return
	}
	if err := c.Send(ctx, st.MetaPixelID, st.MetaCAPIToken, ev); err != nil {
		c.logger.Warn("Failed to send conversion event",
			zap.String("store_id", st.ID),
			zap.String("event", ev.Name),
			zap.Error(err))
		return
	}
	c.logger.Debug("Conversion event sent",
		zap.String("store_id", st.ID),
		zap.String("event", ev.Name))
}
