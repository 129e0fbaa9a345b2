// Package ai rewrites menu descriptions with the Gemini generateContent API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/japabox/storefront/internal/infrastructure/config"
	"go.uber.org/zap"
)

const promptTemplate = "Melhore a descrição deste item de cardápio japonês para torná-lo mais apetitoso e profissional. " +
	"Nome: %s. Descrição atual: %s. Mantenha curto (máximo %d caracteres). Responda apenas com a nova descrição."

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GeminiEnhancer calls Gemini over REST
type GeminiEnhancer struct {
	apiKey     string
	model      string
	baseURL    string
	maxChars   int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGeminiEnhancer creates an enhancer from config
func NewGeminiEnhancer(cfg config.GeminiConfig, logger *zap.Logger) *GeminiEnhancer {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = 150
	}
	return &GeminiEnhancer{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxChars:   maxChars,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Enabled reports whether an API key is configured
func (g *GeminiEnhancer) Enabled() bool {
	return g.apiKey != ""
}

// Enhance returns an improved description. Any failure yields current.
func (g *GeminiEnhancer) Enhance(ctx context.Context, name, current string) string {
	if !g.Enabled() {
		return current
	}
	text, err := g.generate(ctx, fmt.Sprintf(promptTemplate, name, current, g.maxChars))
	if err != nil {
		g.logger.Warn("Description enhancer failed", zap.String("product", name), zap.Error(err))
		return current
	}
	text = Truncate(strings.Trim(strings.TrimSpace(text), `"`), g.maxChars)
	if text == "" {
		return current
	}
	return text
}

func (g *GeminiEnhancer) generate(ctx context.Context, prompt string) (string, error) {
	raw, err := json.Marshal(generateRequest{Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("gemini: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("gemini: failed to read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("gemini: HTTP %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("gemini: failed to parse response: %w", err)
	}
	var b strings.Builder
	for _, c := range out.Candidates {
		for _, p := range c.Content.Parts {
			b.WriteString(p.Text)
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String(), nil
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
