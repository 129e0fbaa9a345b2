package order

import (
	"context"
	"errors"
	"time"

	"github.com/japabox/storefront/internal/domain/order"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/shared/valueobject"
	"github.com/japabox/storefront/internal/domain/store"
	"github.com/japabox/storefront/internal/infrastructure/logger"
	"github.com/japabox/storefront/internal/infrastructure/printing"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// maxSaveAttempts bounds the reload-and-retry loop on version conflicts
	maxSaveAttempts = 3
)

// ErrPrintingDisabled is returned when no PDF renderer is configured
var ErrPrintingDisabled = shared.NewDomainError("PRINTING_DISABLED", "Kitchen ticket printing is not enabled")

// Service handles order queries and back-office order management
type Service struct {
	orderRepo      order.OrderRepository
	storeRepo      store.StoreRepository
	renderer       printing.PDFRenderer
	eventPublisher shared.EventPublisher
	loc            *time.Location
	now            func() time.Time
	logger         *zap.Logger
}

// NewService creates a new order Service. A nil renderer disables kitchen
// tickets.
func NewService(
	orderRepo order.OrderRepository,
	storeRepo store.StoreRepository,
	renderer printing.PDFRenderer,
	eventPublisher shared.EventPublisher,
	loc *time.Location,
	logger *zap.Logger,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orderRepo:      orderRepo,
		storeRepo:      storeRepo,
		renderer:       renderer,
		eventPublisher: eventPublisher,
		loc:            loc,
		now:            time.Now,
		logger:         logger,
	}
}

// SetClock overrides time.Now
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ListByPhone returns a customer's orders newest first. An empty storeID
// searches every store.
func (s *Service) ListByPhone(ctx context.Context, storeID, phone string) ([]OrderResponse, error) {
	digits, err := order.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.FindByPhone(ctx, storeID, digits)
	if err != nil {
		return nil, err
	}
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, ToOrderResponse(&orders[i], s.loc))
	}
	return out, nil
}

// Get returns one order
func (s *Service) Get(ctx context.Context, id string) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o, s.loc)
	return &resp, nil
}

// AdminList returns one page of a store's orders newest first. Cancelled
// orders are hidden unless req.Status asks for them.
func (s *Service) AdminList(ctx context.Context, storeID string, req AdminListRequest) (*shared.Paginated[OrderResponse], error) {
	filter := order.ListFilter{
		Filter: shared.DefaultFilter(),
		Status: order.Status(req.Status),
		Phone:  order.DigitsOnly(req.Phone),
	}
	if req.SortBy != "" {
		filter.OrderBy = req.SortBy
	}
	if req.SortDir != "" {
		filter.OrderDir = req.SortDir
	}
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = min(req.PageSize, maxPageSize)
	} else {
		filter.PageSize = defaultPageSize
	}

	orders, total, err := s.orderRepo.List(ctx, storeID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, ToOrderResponse(&orders[i], s.loc))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// UpdateStatus moves a store's order to a new status
func (s *Service) UpdateStatus(ctx context.Context, storeID, id string, req UpdateStatusRequest) (*OrderResponse, error) {
	next := order.Status(req.Status)
	return s.update(ctx, storeID, id, func(o *order.Order) error {
		if next == order.StatusCancelled {
			return o.Cancel("")
		}
		return o.ChangeStatus(next)
	})
}

// Cancel cancels a store's order
func (s *Service) Cancel(ctx context.Context, storeID, id string, req CancelOrderRequest) (*OrderResponse, error) {
	return s.update(ctx, storeID, id, func(o *order.Order) error {
		return o.Cancel(req.Reason)
	})
}

// Dashboard aggregates a store's orders. The three queries run concurrently.
func (s *Service) Dashboard(ctx context.Context, storeID string) (*DashboardResponse, error) {
	now := s.now().In(s.loc)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	var (
		counts []order.StatusCount
		today  order.Revenue
		total  order.Revenue
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.orderRepo.CountByStatus(gctx, storeID)
		return err
	})
	g.Go(func() error {
		var err error
		today, err = s.orderRepo.SumRevenue(gctx, storeID, &startOfDay)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.orderRepo.SumRevenue(gctx, storeID, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &DashboardResponse{
		StatusCounts:          make(map[string]int64, len(order.AllStatuses)),
		RevenueToday:          today.Total,
		RevenueTodayFormatted: valueobject.FormatBRL(today.Total),
		OrdersToday:           today.Count,
		RevenueTotal:          total.Total,
		OrdersTotal:           total.Count,
		AverageTicket:         decimal.Zero,
		GeneratedAt:           now,
	}
	for _, st := range order.AllStatuses {
		resp.StatusCounts[string(st)] = 0
	}
	for _, c := range counts {
		resp.StatusCounts[string(c.Status)] = c.Count
	}
	if total.Count > 0 {
		resp.AverageTicket = total.Total.Div(decimal.NewFromInt(total.Count)).Round(2)
	}
	return resp, nil
}

// KitchenTicket renders the order as an 80mm PDF ticket
func (s *Service) KitchenTicket(ctx context.Context, storeID, id string) ([]byte, error) {
	if s.renderer == nil {
		return nil, ErrPrintingDisabled
	}
	o, err := s.findForStore(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	st, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}

	html, err := printing.RenderTicket(printing.NewTicket(st.Name, o, s.loc))
	if err != nil {
		return nil, err
	}
	result, err := s.renderer.Render(ctx, &printing.RenderRequest{
		HTML:    html,
		Title:   "Pedido #" + o.ID,
		WidthMM: printing.ReceiptWidthMM,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Kitchen ticket rendered",
		zap.String("order_id", o.ID),
		zap.Duration("duration", result.RenderDuration),
	)
	return result.PDFData, nil
}

func (s *Service) findForStore(ctx context.Context, storeID, id string) (*order.Order, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.StoreID != storeID {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

// update loads the order, applies change and saves it. When a concurrent
// writer (a payment webhook, another admin) saved first, the order is
// reloaded and change applied again on the fresh copy.
func (s *Service) update(ctx context.Context, storeID, id string, change func(*order.Order) error) (*OrderResponse, error) {
	for attempt := 1; ; attempt++ {
		o, err := s.findForStore(ctx, storeID, id)
		if err != nil {
			return nil, err
		}
		if err := change(o); err != nil {
			return nil, err
		}
		err = s.orderRepo.Save(ctx, o)
		if err == nil {
			s.publishDomainEvents(ctx, o)
			resp := ToOrderResponse(o, s.loc)
			return &resp, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) || attempt == maxSaveAttempts {
			return nil, err
		}
		logger.L(ctx).Debug("Order changed concurrently, retrying",
			zap.String("order_id", id),
			zap.Int("attempt", attempt),
		)
	}
}

func (s *Service) publishDomainEvents(ctx context.Context, o *order.Order) {
	if s.eventPublisher == nil {
		return
	}
	events := o.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("Failed to publish order events",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}
	o.ClearDomainEvents()
}
