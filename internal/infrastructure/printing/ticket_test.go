package printing

import (
	"testing"
	"time"

	"github.com/japabox/storefront/internal/domain/cart"
	"github.com/japabox/storefront/internal/domain/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func sampleOrder() *order.Order {
	return &order.Order{
		ID:            "300456",
		StoreID:       "1",
		CustomerName:  "maria DA silva",
		CustomerPhone: "11999990000",
		Items: datatypes.JSONSlice[cart.Line]{{
			Name:      "Combo Salmão",
			Quantity:  2,
			LineTotal: decimal.RequireFromString("99.80"),
			SelectedOptions: []cart.SelectedOption{{
				Title: "Molhos",
				Items: []cart.SelectedItem{
					{Name: "Tarê", Count: 1, Price: decimal.Zero},
					{Name: "Cream cheese extra", Count: 2, Price: decimal.RequireFromString("3")},
				},
			}},
			Observation: "sem <cebolinha>",
		}},
		Subtotal:      decimal.RequireFromString("99.80"),
		DeliveryFee:   decimal.RequireFromString("7"),
		Discount:      decimal.RequireFromString("9.98"),
		CouponCode:    "BEMVINDO",
		Total:         decimal.RequireFromString("96.82"),
		PaymentMethod: order.PaymentPix,
		IsPaid:        true,
		Fulfilment:    cart.FulfilmentDelivery,
		Address: datatypes.NewJSONType(order.Address{
			Street: "Rua A", Number: "10", Neighborhood: "Centro", City: "Santos", Type: cart.FulfilmentDelivery,
		}),
		CreatedAt: time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC),
	}
}

func TestNewTicket(t *testing.T) {
	tk := NewTicket("Japa Box", sampleOrder(), time.UTC)

	assert.Equal(t, "300456", tk.OrderID)
	assert.Equal(t, "Maria Da Silva", tk.CustomerName)
	assert.Equal(t, "(11) 99999-0000", tk.Phone)
	assert.Equal(t, "01/05/2024 20:00", tk.PlacedAt)
	assert.Equal(t, "21:00 - 21:30", tk.Arrival)
	assert.Equal(t, "Rua A, 10 - Centro - Santos", tk.Address)
	assert.Equal(t, "PIX", tk.PaymentMethod)
	require.Len(t, tk.Lines, 1)
	require.Len(t, tk.Lines[0].Options, 2)
	assert.Empty(t, tk.Lines[0].Options[0].Price)
	assert.NotEmpty(t, tk.Lines[0].Options[1].Price)
	assert.NotEmpty(t, tk.Discount)
}

func TestRenderTicket(t *testing.T) {
	html, err := RenderTicket(NewTicket("Japa Box", sampleOrder(), time.UTC))
	require.NoError(t, err)

	assert.Contains(t, html, "#300456")
	assert.Contains(t, html, "2x Combo Salmão")
	assert.Contains(t, html, "+ 2x Cream cheese extra")
	assert.Contains(t, html, "Cupom BEMVINDO")
	assert.Contains(t, html, "(PAGO)")
	assert.Contains(t, html, "sem &lt;cebolinha&gt;")
	assert.NotContains(t, html, "RETIRADA")
}

func TestRenderTicket_Pickup(t *testing.T) {
	o := sampleOrder()
	o.Fulfilment = cart.FulfilmentPickup
	o.IsPaid = false
	html, err := RenderTicket(NewTicket("Japa Box", o, nil))
	require.NoError(t, err)
	assert.Contains(t, html, "RETIRADA NO LOCAL")
	assert.Contains(t, html, "(PENDENTE)")
	assert.NotContains(t, html, "Entrega")
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "(11) 3333-4444", formatPhone("1133334444"))
	assert.Equal(t, "123", formatPhone("123"))
}

func TestBuildPrintParams(t *testing.T) {
	p := buildPrintParams(&RenderRequest{HTML: "<p>x</p>"})
	assert.InDelta(t, mmToInches(ReceiptWidthMM), p.paperWidth, 0.001)
	assert.InDelta(t, mmToInches(receiptHeightMM), p.paperHeight, 0.001)
	assert.Zero(t, p.margin)

	p = buildPrintParams(&RenderRequest{HTML: "<p>x</p>", WidthMM: 58, MarginMM: 2})
	assert.InDelta(t, mmToInches(58), p.paperWidth, 0.001)
	assert.InDelta(t, mmToInches(2), p.margin, 0.001)
}

func TestWrapDocument(t *testing.T) {
	assert.Equal(t, "<html><body>x</body></html>", wrapDocument(&RenderRequest{HTML: "<html><body>x</body></html>"}))
	doc := wrapDocument(&RenderRequest{HTML: "<p>x</p>", Title: "T"})
	assert.Contains(t, doc, "<title>T</title>")
	assert.Contains(t, doc, "<body><p>x</p></body>")
}

func TestRender_EmptyHTML(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{}}
	_, err := r.Render(t.Context(), &RenderRequest{})
	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeInvalidHTML, rerr.Code)
}
