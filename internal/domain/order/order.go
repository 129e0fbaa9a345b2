package order

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/japabox/storefront/internal/domain/cart"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Order IDs are six-digit numbers drawn from [IDFloor, IDFloor+IDSpan)
const (
	IDFloor = 300000
	IDSpan  = 90000
)

// AnonymousUser is the user ID of orders placed without a phone number
const AnonymousUser = "anonymous"

// Status is the lifecycle state of an order
type Status string

const (
	StatusPending    Status = "pending"
	StatusPreparing  Status = "preparing"
	StatusDelivering Status = "delivering"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []Status{StatusPending, StatusPreparing, StatusDelivering, StatusCompleted, StatusCancelled}

var transitions = map[Status][]Status{
	StatusPending:    {StatusPreparing, StatusCancelled},
	StatusPreparing:  {StatusDelivering, StatusCompleted, StatusCancelled},
	StatusDelivering: {StatusCompleted, StatusCancelled},
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok || s == StatusCompleted || s == StatusCancelled
}

// IsFinal reports whether no further transitions are allowed
func (s Status) IsFinal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether s may move to next
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentMethod is how the customer pays
type PaymentMethod string

const (
	PaymentPix  PaymentMethod = "pix"
	PaymentCard PaymentMethod = "card"
)

// IsValid reports whether m is a known payment method
func (m PaymentMethod) IsValid() bool {
	return m == PaymentPix || m == PaymentCard
}

// Address is where the order goes. Pickup orders carry the store address.
type Address struct {
	City         string          `json:"city"`
	Neighborhood string          `json:"neighborhood"`
	Street       string          `json:"street"`
	Number       string          `json:"number"`
	Complement   string          `json:"complement,omitempty"`
	ZipCode      string          `json:"zipCode,omitempty"`
	Type         cart.Fulfilment `json:"type"`
}

// Validate checks the fields required for delivery
func (a Address) Validate() error {
	if !a.Type.IsValid() {
		return shared.NewDomainError("INVALID_FULFILMENT", "Address type must be delivery or pickup")
	}
	if a.Type == cart.FulfilmentPickup {
		return nil
	}
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"cidade", a.City},
		{"bairro", a.Neighborhood},
		{"rua", a.Street},
		{"número", a.Number},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return shared.NewDomainError("INVALID_ADDRESS", "Preencha o endereço de entrega: "+strings.Join(missing, ", "))
	}
	return nil
}

// OneLine renders the address on a single line
func (a Address) OneLine() string {
	s := strings.TrimSpace(a.Street)
	if a.Number != "" {
		s += ", " + a.Number
	}
	if a.Complement != "" {
		s += " - " + a.Complement
	}
	if a.Neighborhood != "" {
		s += " - " + a.Neighborhood
	}
	if a.City != "" {
		s += " - " + a.City
	}
	return s
}

// Customer identifies who placed the order
type Customer struct {
	Name  string
	Phone string
	CPF   string
	Email string
}

// Payment holds what the gateway returned for the order
type Payment struct {
	Gateway           string
	GatewayCustomerID string
	GatewayPaymentID  string
	PixPayload        string
	PixQRCodeImage    string
	InvoiceURL        string
}

// Order is a placed order with a snapshot of its priced lines. Its Version is
// advanced by the repository on every save.
type Order struct {
	shared.EventRecorder
	ID                string                          `gorm:"type:varchar(10);primaryKey"`
	StoreID           string                          `gorm:"type:varchar(20);not null;index:idx_order_store_created,priority:1"`
	UserID            string                          `gorm:"type:varchar(20);not null;index"`
	CustomerName      string                          `gorm:"type:varchar(200);not null"`
	CustomerPhone     string                          `gorm:"type:varchar(20);not null;index"`
	CustomerCPF       string                          `gorm:"type:varchar(11);not null"`
	CustomerEmail     string                          `gorm:"type:varchar(200)"`
	Items             datatypes.JSONSlice[cart.Line] `gorm:"type:json;not null"`
	Subtotal          decimal.Decimal                 `gorm:"type:decimal(18,2);not null"`
	DeliveryFee       decimal.Decimal                 `gorm:"type:decimal(18,2);not null;default:0"`
	Discount          decimal.Decimal                 `gorm:"type:decimal(18,2);not null;default:0"`
	CouponCode        string                          `gorm:"type:varchar(30)"`
	Total             decimal.Decimal                 `gorm:"type:decimal(18,2);not null"`
	Status            Status                          `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentMethod     PaymentMethod                   `gorm:"type:varchar(10);not null"`
	IsPaid            bool                            `gorm:"not null;default:false"`
	PaidAt            *time.Time                      `gorm:""`
	Fulfilment        cart.Fulfilment                 `gorm:"type:varchar(10);not null"`
	Address           datatypes.JSONType[Address]     `gorm:"type:json"`
	Gateway           string                          `gorm:"type:varchar(20);not null"`
	GatewayCustomerID string                          `gorm:"type:varchar(100)"`
	GatewayPaymentID  string                          `gorm:"type:varchar(100);index"`
	PixPayload        string                          `gorm:"type:text"`
	PixQRCodeImage    string                          `gorm:"column:pix_qr_code_image;type:text"`
	InvoiceURL        string                          `gorm:"type:varchar(1000)"`
	CancelReason      string                          `gorm:"type:varchar(500)"`
	CreatedAt         time.Time                       `gorm:"not null;index:idx_order_store_created,priority:2"`
	UpdatedAt         time.Time                       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewID draws a random order ID
func NewID() string {
	return strconv.Itoa(IDFloor + rand.IntN(IDSpan))
}

// Draft is everything needed to place an order
type Draft struct {
	ID            string
	StoreID       string
	Customer      Customer
	Lines         []cart.Line
	Totals        cart.Totals
	PaymentMethod PaymentMethod
	Address       Address
	Gateway       string
}

// Place validates the draft and creates a pending order
func Place(d Draft) (*Order, error) {
	if d.ID == "" || d.StoreID == "" {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order and store IDs are required")
	}
	customer, err := NormalizeCustomer(d.Customer)
	if err != nil {
		return nil, err
	}
	if len(d.Lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_CART", "Seu carrinho está vazio")
	}
	if !d.PaymentMethod.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method must be pix or card")
	}
	if err := d.Address.Validate(); err != nil {
		return nil, err
	}

	userID := customer.Phone
	if userID == "" {
		userID = AnonymousUser
	}
	now := time.Now()
	o := &Order{
		EventRecorder: shared.EventRecorder{Version: 1},
		ID:            d.ID,
		StoreID:       d.StoreID,
		UserID:        userID,
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		CustomerCPF:   customer.CPF,
		CustomerEmail: customer.Email,
		Items:         d.Lines,
		Subtotal:      d.Totals.Subtotal,
		DeliveryFee:   d.Totals.DeliveryFee,
		Discount:      d.Totals.Discount,
		CouponCode:    d.Totals.CouponCode,
		Total:         d.Totals.Total,
		Status:        StatusPending,
		PaymentMethod: d.PaymentMethod,
		Fulfilment:    d.Address.Type,
		Address:       datatypes.NewJSONType(d.Address),
		Gateway:       d.Gateway,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return o, nil
}

// AttachPayment stores the gateway references and payment instructions
func (o *Order) AttachPayment(p Payment) {
	o.Gateway = p.Gateway
	o.GatewayCustomerID = p.GatewayCustomerID
	o.GatewayPaymentID = p.GatewayPaymentID
	o.PixPayload = p.PixPayload
	o.PixQRCodeImage = p.PixQRCodeImage
	o.InvoiceURL = p.InvoiceURL
	o.UpdatedAt = time.Now()
}

// RecordPlaced adds the OrderPlaced event; tracking data travels with it
func (o *Order) RecordPlaced(t Tracking) {
	o.AddDomainEvent(NewOrderPlacedEvent(o, t))
}

// ChangeStatus moves the order along its lifecycle
func (o *Order) ChangeStatus(next Status) error {
	if !next.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown status %q", next))
	}
	if !o.Status.CanTransitionTo(next) {
		return shared.NewDomainError(shared.ErrInvalidState.Code,
			fmt.Sprintf("Cannot change order from %s to %s", o.Status, next))
	}
	old := o.Status
	o.Status = next
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, old))
	return nil
}

// Cancel cancels the order with a reason
func (o *Order) Cancel(reason string) error {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > 500 {
		return shared.NewDomainError("INVALID_REASON", "Reason cannot exceed 500 characters")
	}
	if err := o.ChangeStatus(StatusCancelled); err != nil {
		return err
	}
	o.CancelReason = reason
	return nil
}

// MarkPaid flags the order as paid. It reports false when the order was
// already paid. Cancelled orders cannot be paid.
func (o *Order) MarkPaid(at time.Time) (bool, error) {
	if o.Status == StatusCancelled {
		return false, shared.NewDomainError(shared.ErrInvalidState.Code, "Cannot mark a cancelled order as paid")
	}
	if o.IsPaid {
		return false, nil
	}
	o.IsPaid = true
	o.PaidAt = &at
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewOrderPaidEvent(o))
	return true, nil
}

// ArrivalWindow is the estimated delivery window, 60 to 90 minutes after the
// order was placed, rendered in loc as "HH:MM - HH:MM".
func (o *Order) ArrivalWindow(loc *time.Location) string {
	created := o.CreatedAt
	if loc != nil {
		created = created.In(loc)
	}
	from := created.Add(60 * time.Minute)
	to := created.Add(90 * time.Minute)
	return from.Format("15:04") + " - " + to.Format("15:04")
}

// DeliveryAddress returns the address snapshot
func (o *Order) DeliveryAddress() Address {
	return o.Address.Data()
}
