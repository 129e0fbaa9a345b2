package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/store"
	infratracking "github.com/japabox/storefront/internal/infrastructure/tracking"
	"github.com/shopspring/decimal"
)

// ErrUnknownEvent is returned for event names the storefront may not post
var ErrUnknownEvent = shared.NewDomainError("UNKNOWN_EVENT", "Event must be PageView or InitiateCheckout")

// TrackEventRequest is a browser event forwarded to the Conversions API
type TrackEventRequest struct {
	EventName   string          `json:"eventName" binding:"required,max=50"`
	SourceURL   string          `json:"eventSourceUrl" binding:"max=2000"`
	Value       decimal.Decimal `json:"value"`
	ContentName string          `json:"contentName" binding:"max=500"`
	Email       string          `json:"email" binding:"omitempty,max=200"`
	Phone       string          `json:"phone" binding:"omitempty,max=20"`

	// UserAgent is filled from the request headers
	UserAgent string `json:"-"`
}

// Service forwards storefront events. Sends happen in the background so a
// slow Graph API never delays the page.
type Service struct {
	storeRepo store.StoreRepository
	tracker   infratracking.Tracker
	timeout   time.Duration
	now       func() time.Time
	wg        sync.WaitGroup
}

// NewService creates a new tracking Service
func NewService(storeRepo store.StoreRepository, tracker infratracking.Tracker, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{storeRepo: storeRepo, tracker: tracker, timeout: timeout, now: time.Now}
}

// TrackEvent validates the event and queues it. Purchase is reserved for
// placed orders and rejected here.
func (s *Service) TrackEvent(ctx context.Context, storeID string, req TrackEventRequest) error {
	if req.EventName != infratracking.EventPageView && req.EventName != infratracking.EventInitiateCheckout {
		return ErrUnknownEvent
	}
	st, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return err
	}
	if !st.HasTracking() {
		return nil
	}

	ev := infratracking.Event{
		Name:        req.EventName,
		Time:        s.now(),
		SourceURL:   req.SourceURL,
		UserAgent:   req.UserAgent,
		Email:       req.Email,
		Phone:       req.Phone,
		Value:       req.Value,
		ContentName: req.ContentName,
	}
	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sendCtx, cancel := context.WithTimeout(bg, s.timeout)
		defer cancel()
		s.tracker.Track(sendCtx, st, ev)
	}()
	return nil
}

// Wait blocks until queued events are sent
func (s *Service) Wait() {
	s.wg.Wait()
}
