package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/japabox/storefront/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnhancer(t *testing.T, h http.HandlerFunc) *GeminiEnhancer {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewGeminiEnhancer(config.GeminiConfig{
		APIKey:  "key",
		Model:   "gemini-1.5-flash",
		BaseURL: srv.URL,
	}, nil)
}

func TestEnhance(t *testing.T) {
	var prompt string
	g := newEnhancer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("key"))
		body, _ := io.ReadAll(r.Body)
		var req generateRequest
		require.NoError(t, json.Unmarshal(body, &req))
		prompt = req.Contents[0].Parts[0].Text
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  \"Salmão fresco enrolado com cream cheese.\"\n"}]}}]}`))
	})

	got := g.Enhance(context.Background(), "Hot Roll", "rolinho de salmão")
	assert.Equal(t, "Salmão fresco enrolado com cream cheese.", got)
	assert.Contains(t, prompt, "Nome: Hot Roll")
	assert.Contains(t, prompt, "Descrição atual: rolinho de salmão")
}

func TestEnhance_CapsLength(t *testing.T) {
	long := strings.Repeat("ã", 400)
	g := newEnhancer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"` + long + `"}]}}]}`))
	})
	got := g.Enhance(context.Background(), "x", "y")
	assert.Equal(t, 150, len([]rune(got)))
}

func TestEnhance_FallsBack(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		g := newEnhancer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		assert.Equal(t, "atual", g.Enhance(context.Background(), "x", "atual"))
	})

	t.Run("empty candidates", func(t *testing.T) {
		g := newEnhancer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		})
		assert.Equal(t, "atual", g.Enhance(context.Background(), "x", "atual"))
	})

	t.Run("no api key", func(t *testing.T) {
		g := NewGeminiEnhancer(config.GeminiConfig{}, nil)
		assert.False(t, g.Enabled())
		assert.Equal(t, "atual", g.Enhance(context.Background(), "x", "atual"))
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "çã", Truncate("çãõ", 2))
}
