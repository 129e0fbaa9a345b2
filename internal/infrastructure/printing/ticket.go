package printing

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/japabox/storefront/internal/domain/cart"
	"github.com/japabox/storefront/internal/domain/order"
	"github.com/japabox/storefront/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCase = cases.Title(language.BrazilianPortuguese)

// TicketOption is one chosen add-on line
type TicketOption struct {
	Count int
	Name  string
	Price string
}

// TicketLine is one product on the ticket
type TicketLine struct {
	Quantity    int
	Name        string
	Options     []TicketOption
	Observation string
	Total       string
}

// Ticket is the data printed for the kitchen
type Ticket struct {
	StoreName     string
	OrderID       string
	PlacedAt      string
	Arrival       string
	CustomerName  string
	Phone         string
	Pickup        bool
	Address       string
	PaymentMethod string
	Paid          bool
	Lines         []TicketLine
	Subtotal      string
	DeliveryFee   string
	Discount      string
	CouponCode    string
	Total         string
}

// NewTicket builds ticket data from an order. Times are shown in loc.
func NewTicket(storeName string, o *order.Order, loc *time.Location) Ticket {
	placed := o.CreatedAt
	if loc != nil {
		placed = placed.In(loc)
	}
	addr := o.DeliveryAddress()

	t := Ticket{
		StoreName:     storeName,
		OrderID:       o.ID,
		PlacedAt:      placed.Format("02/01/2006 15:04"),
		Arrival:       o.ArrivalWindow(loc),
		CustomerName:  titleCase.String(strings.ToLower(o.CustomerName)),
		Phone:         formatPhone(o.CustomerPhone),
		Pickup:        o.Fulfilment == cart.FulfilmentPickup,
		Address:       addr.OneLine(),
		PaymentMethod: paymentLabel(o.PaymentMethod),
		Paid:          o.IsPaid,
		Subtotal:      valueobject.FormatBRL(o.Subtotal),
		DeliveryFee:   valueobject.FormatBRL(o.DeliveryFee),
		CouponCode:    o.CouponCode,
		Total:         valueobject.FormatBRL(o.Total),
	}
	if !o.Discount.IsZero() {
		t.Discount = valueobject.FormatBRL(o.Discount.Neg())
	}

	for _, l := range o.Items {
		tl := TicketLine{
			Quantity:    l.Quantity,
			Name:        l.Name,
			Observation: l.Observation,
			Total:       valueobject.FormatBRL(l.LineTotal),
		}
		for _, opt := range l.SelectedOptions {
			for _, it := range opt.Items {
				to := TicketOption{Count: it.Count, Name: it.Name}
				if it.Price.GreaterThan(decimal.Zero) {
					to.Price = valueobject.FormatBRL(it.Price)
				}
				tl.Options = append(tl.Options, to)
			}
		}
		t.Lines = append(t.Lines, tl)
	}
	return t
}

func paymentLabel(m order.PaymentMethod) string {
	switch m {
	case order.PaymentPix:
		return "PIX"
	case order.PaymentCard:
		return "Cartão"
	}
	return string(m)
}

// formatPhone renders 11999990000 as (11) 99999-0000
func formatPhone(p string) string {
	switch len(p) {
	case 11:
		return fmt.Sprintf("(%s) %s-%s", p[:2], p[2:7], p[7:])
	case 10:
		return fmt.Sprintf("(%s) %s-%s", p[:2], p[2:6], p[6:])
	}
	return p
}

var ticketTemplate = template.Must(template.New("ticket").Parse(`<!DOCTYPE html>
<html><head><meta charset="UTF-8"><title>Pedido #{{.OrderID}}</title>
<style>
body{font-family:monospace;font-size:12px;margin:0;width:72mm}
h1{font-size:16px;text-align:center;margin:0 0 4px}
h2{font-size:22px;text-align:center;margin:4px 0}
hr{border:0;border-top:1px dashed #000}
.row{display:flex;justify-content:space-between}
.opt{padding-left:12px}
.obs{padding-left:12px;font-weight:bold}
.total{font-size:14px;font-weight:bold}
</style></head>
<body>
<h1>{{.StoreName}}</h1>
<h2>#{{.OrderID}}</h2>
<div>{{.PlacedAt}} · Previsão {{.Arrival}}</div>
<hr>
<div><b>{{.CustomerName}}</b> {{.Phone}}</div>
{{if .Pickup}}<div><b>RETIRADA NO LOCAL</b></div>{{else}}<div>{{.Address}}</div>{{end}}
<hr>
{{range .Lines}}<div class="row"><span>{{.Quantity}}x {{.Name}}</span><span>{{.Total}}</span></div>
{{range .Options}}<div class="opt">+ {{.Count}}x {{.Name}}{{if .Price}} ({{.Price}}){{end}}</div>
{{end}}{{if .Observation}}<div class="obs">Obs: {{.Observation}}</div>
{{end}}{{end}}<hr>
<div class="row"><span>Subtotal</span><span>{{.Subtotal}}</span></div>
{{if not .Pickup}}<div class="row"><span>Entrega</span><span>{{.DeliveryFee}}</span></div>
{{end}}{{if .Discount}}<div class="row"><span>Cupom {{.CouponCode}}</span><span>{{.Discount}}</span></div>
{{end}}<div class="row total"><span>Total</span><span>{{.Total}}</span></div>
<div>Pagamento: {{.PaymentMethod}} {{if .Paid}}(PAGO){{else}}(PENDENTE){{end}}</div>
</body></html>
`))

// RenderTicket renders the kitchen ticket HTML
func RenderTicket(t Ticket) (string, error) {
	var buf bytes.Buffer
	if err := ticketTemplate.Execute(&buf, t); err != nil {
		return "", fmt.Errorf("failed to render ticket: %w", err)
	}
	return buf.String(), nil
}
