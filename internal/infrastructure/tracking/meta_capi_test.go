package tracking

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/japabox/storefront/internal/domain/order"
	"github.com/japabox/storefront/internal/domain/store"
	"github.com/japabox/storefront/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHash(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", Hash(" ABC"))
	assert.Equal(t, Hash("Cliente@Example.com "), Hash("cliente@example.com"))
	assert.Len(t, Hash("11999990000"), 64)
	assert.Empty(t, Hash("   "))
}

func TestClient_Send(t *testing.T) {
	var gotPath, gotToken string
	var got capiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("access_token")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"events_received":1}`))
	}))
	defer srv.Close()

	c := NewClient(config.MetaConfig{GraphURL: srv.URL, APIVersion: "v17.0"})
	at := time.Unix(1700000000, 0)
	err := c.Send(context.Background(), "12345", "tok&en", Event{
		Name:        EventPurchase,
		Time:        at,
		SourceURL:   "https://loja.example/checkout",
		UserAgent:   "Mozilla/5.0",
		Email:       "A@B.com",
		Phone:       "11999990000",
		Value:       decimal.RequireFromString("57.9"),
		ContentName: "Combo",
	})
	require.NoError(t, err)

	assert.Equal(t, "/v17.0/12345/events", gotPath)
	assert.Equal(t, "tok&en", gotToken)
	require.Len(t, got.Data, 1)
	ev := got.Data[0]
	assert.Equal(t, "Purchase", ev.EventName)
	assert.Equal(t, int64(1700000000), ev.EventTime)
	assert.Equal(t, "website", ev.ActionSource)
	assert.Equal(t, []string{Hash("a@b.com")}, ev.UserData.Email)
	assert.Equal(t, []string{Hash("11999990000")}, ev.UserData.Phone)
	assert.Equal(t, "BRL", ev.CustomData.Currency)
	assert.Equal(t, json.Number("57.90"), ev.CustomData.Value)
	assert.Equal(t, "product", ev.CustomData.ContentType)
}

func TestClient_SendOmitsMissingUserData(t *testing.T) {
	var raw map[string][]map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &raw)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(config.MetaConfig{GraphURL: srv.URL})
	err := c.Send(context.Background(), "1", "tok", Event{Name: EventPageView, UserAgent: "Mozilla/5.0", Phone: "11999990000"})
	require.NoError(t, err)

	require.Len(t, raw["data"], 1)
	var userData map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["data"][0]["user_data"], &userData))
	assert.NotContains(t, userData, "em")
	assert.JSONEq(t, `["`+Hash("11999990000")+`"]`, string(userData["ph"]))
}

func TestClient_SendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token"}}`))
	}))
	defer srv.Close()

	c := NewClient(config.MetaConfig{GraphURL: srv.URL})
	err := c.Send(context.Background(), "1", "bad", Event{Name: EventPageView})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400")
}

func TestClient_TrackSkipsStoresWithoutPixel(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := NewClient(config.MetaConfig{GraphURL: srv.URL})
	c.Track(context.Background(), &store.Store{ID: "1", MetaPixelID: "123"}, Event{Name: EventPageView})
	c.Track(context.Background(), nil, Event{Name: EventPageView})
	assert.Zero(t, calls)
}

type fakeStores struct {
	st *store.Store
}

func (f *fakeStores) FindByID(context.Context, string) (*store.Store, error) { return f.st, nil }
func (f *fakeStores) FindAll(context.Context) ([]store.Store, error)        { return nil, nil }
func (f *fakeStores) Count(context.Context) (int64, error)                  { return 1, nil }
func (f *fakeStores) Save(context.Context, *store.Store) error              { return nil }

type recordingTracker struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingTracker) Track(_ context.Context, _ *store.Store, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func TestPurchaseHandler(t *testing.T) {
	st := &store.Store{ID: "1", MetaPixelID: "123", MetaCAPIToken: "tok"}
	tracker := &recordingTracker{}
	h := NewPurchaseHandler(&fakeStores{st: st}, tracker, zap.NewNop())

	assert.True(t, h.Async())
	assert.Equal(t, []string{order.EventTypeOrderPlaced}, h.EventTypes())

	o := &order.Order{
		ID:            "300123",
		StoreID:       "1",
		CustomerPhone: "11999990000",
		CustomerEmail: "a@b.com",
		Total:         decimal.RequireFromString("42.5"),
	}
	ev := order.NewOrderPlacedEvent(o, order.Tracking{EventSourceURL: "https://loja", ClientUserAgent: "UA"})
	ev.ItemNames = []string{"Temaki", "Guioza"}

	require.NoError(t, h.Handle(context.Background(), ev))
	require.Len(t, tracker.events, 1)
	got := tracker.events[0]
	assert.Equal(t, EventPurchase, got.Name)
	assert.True(t, decimal.RequireFromString("42.5").Equal(got.Value))
	assert.Equal(t, "Temaki, Guioza", got.ContentName)
	assert.Equal(t, "11999990000", got.Phone)
	assert.Equal(t, "UA", got.UserAgent)
}

func TestPurchaseHandler_StoreWithoutTracking(t *testing.T) {
	tracker := &recordingTracker{}
	h := NewPurchaseHandler(&fakeStores{st: &store.Store{ID: "1"}}, tracker, zap.NewNop())
	ev := order.NewOrderPlacedEvent(&order.Order{ID: "300000", StoreID: "1"}, order.Tracking{})
	require.NoError(t, h.Handle(context.Background(), ev))
	assert.Empty(t, tracker.events)
}
