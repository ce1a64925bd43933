package cart

// Action is a cart state transition. The set is closed: AddItem, RemoveItem,
// UpdateQuantity, AddService, RemoveService, Clear and Load.
type Action interface{ action() }

// AddItem appends a product line, or increments the quantity of the existing
// line with the same product id.
type AddItem struct{ Line ProductLine }

// RemoveItem drops the product line with the given id, if present.
type RemoveItem struct{ ProductID int64 }

// UpdateQuantity sets the quantity of an existing product line. A quantity
// of zero or less removes the line.
type UpdateQuantity struct {
	ProductID int64
	Quantity  int
}

// AddService appends a service line, or replaces the existing line with the
// same service id.
type AddService struct{ Line ServiceLine }

// RemoveService drops the service line with the given id, if present.
type RemoveService struct{ ServiceID int64 }

// Clear empties the cart.
type Clear struct{}

// Load replaces the items wholesale. Totals are recomputed from the supplied
// list, never taken from the caller.
type Load struct{ Items Items }

func (AddItem) action()        {}
func (RemoveItem) action()     {}
func (UpdateQuantity) action() {}
func (AddService) action()     {}
func (RemoveService) action()  {}
func (Clear) action()          {}
func (Load) action()           {}

// Reduce applies one action to a state and returns the next state. It is
// pure: the input state is not mutated, and the same state and action always
// produce the same result.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case AddItem:
		items := make(Items, 0, len(state.Items)+1)
		merged := false
		for _, it := range state.Items {
			if p, ok := it.(ProductLine); ok && p.ProductID == a.Line.ProductID {
				p.Quantity += a.Line.Quantity
				items = append(items, p)
				merged = true
				continue
			}
			items = append(items, it)
		}
		if !merged {
			items = append(items, a.Line)
		}
		return recompute(items)

	case RemoveItem:
		items := make(Items, 0, len(state.Items))
		for _, it := range state.Items {
			if p, ok := it.(ProductLine); ok && p.ProductID == a.ProductID {
				continue
			}
			items = append(items, it)
		}
		return recompute(items)

	case UpdateQuantity:
		if a.Quantity <= 0 {
			return Reduce(state, RemoveItem{ProductID: a.ProductID})
		}
		items := make(Items, 0, len(state.Items))
		for _, it := range state.Items {
			if p, ok := it.(ProductLine); ok && p.ProductID == a.ProductID {
				p.Quantity = a.Quantity
				items = append(items, p)
				continue
			}
			items = append(items, it)
		}
		return recompute(items)

	case AddService:
		items := make(Items, 0, len(state.Items)+1)
		replaced := false
		for _, it := range state.Items {
			if s, ok := it.(ServiceLine); ok && s.ServiceID == a.Line.ServiceID {
				items = append(items, a.Line)
				replaced = true
				continue
			}
			items = append(items, it)
		}
		if !replaced {
			items = append(items, a.Line)
		}
		return recompute(items)

	case RemoveService:
		items := make(Items, 0, len(state.Items))
		for _, it := range state.Items {
			if s, ok := it.(ServiceLine); ok && s.ServiceID == a.ServiceID {
				continue
			}
			items = append(items, it)
		}
		return recompute(items)

	case Clear:
		return Empty()

	case Load:
		items := make(Items, len(a.Items))
		copy(items, a.Items)
		return recompute(items)
	}

	return state
}

func recompute(items Items) State {
	st := State{Items: items}
	for _, it := range items {
		st.Total += it.Subtotal()
		st.ItemCount += it.Units()
	}
	return st
}
