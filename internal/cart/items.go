package cart

import (
	"encoding/json"
	"fmt"
)

// Items is an ordered list of line items. It marshals each line with an
// itemType discriminator ("PRODUCT" or "SERVICE") so persisted carts survive
// the round trip through JSON.
type Items []LineItem

const (
	itemTypeProduct = "PRODUCT"
	itemTypeService = "SERVICE"
)

type lineEnvelope struct {
	ItemType string `json:"itemType"`

	ProductID int64  `json:"productId,omitempty"`
	Product   string `json:"productName,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`

	ServiceID        int64            `json:"serviceId,omitempty"`
	Service          string           `json:"serviceName,omitempty"`
	RentalPeriod     int              `json:"rentalPeriod,omitempty"`
	RentalPeriodType RentalPeriodType `json:"rentalPeriodType,omitempty"`
	TotalPrice       float64          `json:"totalPrice,omitempty"`

	UnitPrice float64 `json:"unitPrice"`
}

func (it Items) MarshalJSON() ([]byte, error) {
	envs := make([]lineEnvelope, 0, len(it))
	for _, line := range it {
		switch l := line.(type) {
		case ProductLine:
			envs = append(envs, lineEnvelope{
				ItemType:  itemTypeProduct,
				ProductID: l.ProductID,
				Product:   l.Name,
				UnitPrice: l.UnitPrice,
				Quantity:  l.Quantity,
			})
		case ServiceLine:
			envs = append(envs, lineEnvelope{
				ItemType:         itemTypeService,
				ServiceID:        l.ServiceID,
				Service:          l.Name,
				RentalPeriod:     l.RentalPeriod,
				RentalPeriodType: l.RentalPeriodType,
				UnitPrice:        l.UnitPrice,
				TotalPrice:       l.TotalPrice,
			})
		}
	}
	return json.Marshal(envs)
}

func (it *Items) UnmarshalJSON(data []byte) error {
	var envs []lineEnvelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return err
	}

	items := make(Items, 0, len(envs))
	for _, env := range envs {
		switch env.ItemType {
		case itemTypeProduct:
			items = append(items, ProductLine{
				ProductID: env.ProductID,
				Name:      env.Product,
				UnitPrice: env.UnitPrice,
				Quantity:  env.Quantity,
			})
		case itemTypeService:
			items = append(items, ServiceLine{
				ServiceID:        env.ServiceID,
				Name:             env.Service,
				RentalPeriod:     env.RentalPeriod,
				RentalPeriodType: env.RentalPeriodType,
				UnitPrice:        env.UnitPrice,
				TotalPrice:       env.TotalPrice,
			})
		default:
			return fmt.Errorf("unknown line item type %q", env.ItemType)
		}
	}

	*it = items
	return nil
}
