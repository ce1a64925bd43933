// Package cart holds the in-memory cart model: line items, derived totals
// and the pure transition function that is the only way to change them.
package cart

// RentalPeriodType is the billing unit of a service rental.
type RentalPeriodType string

const (
	Hourly RentalPeriodType = "HOURLY"
	Daily  RentalPeriodType = "DAILY"
)

// LineItem is one entry in the cart: either a product purchase or a service
// rental. The interface is sealed; ProductLine and ServiceLine are the only
// implementations.
type LineItem interface {
	// Subtotal is the line's contribution to the cart total.
	Subtotal() float64
	// Units is the line's contribution to the cart item count. A service
	// rental counts as one item regardless of its duration.
	Units() int

	sealed()
}

// ProductLine is a product purchase with a quantity.
type ProductLine struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"productName"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

func (p ProductLine) Subtotal() float64 { return p.UnitPrice * float64(p.Quantity) }
func (p ProductLine) Units() int        { return p.Quantity }
func (ProductLine) sealed()             {}

// ServiceLine is a service rental priced for a whole period.
type ServiceLine struct {
	ServiceID        int64            `json:"serviceId"`
	Name             string           `json:"serviceName"`
	RentalPeriod     int              `json:"rentalPeriod"`
	RentalPeriodType RentalPeriodType `json:"rentalPeriodType"`
	UnitPrice        float64          `json:"unitPrice"`
	TotalPrice       float64          `json:"totalPrice"`
}

func (s ServiceLine) Subtotal() float64 { return s.TotalPrice }
func (ServiceLine) Units() int          { return 1 }
func (ServiceLine) sealed()             {}

// State is the cart at one point in time. Total and ItemCount are derived
// from Items on every transition and must never be set independently.
type State struct {
	Items     Items
	Total     float64
	ItemCount int
}

// Empty returns the initial cart state.
func Empty() State {
	return State{Items: Items{}}
}
