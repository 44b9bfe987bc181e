package domain

// Entity names double as output file stems and warehouse table names.
const (
	EntityCustomers   = "customers"
	EntityOrders      = "orders"
	EntityOrderItems  = "order_items"
	EntityClickstream = "clickstream_events"
)

// Entities lists the datasets in generation order.
var Entities = []string{EntityCustomers, EntityOrders, EntityOrderItems, EntityClickstream}

// Dataset holds one generation run fully in memory.
type Dataset struct {
	Customers  []Customer
	Orders     []Order
	OrderItems []OrderItem
	Events     []ClickstreamEvent
}

// Counts returns row counts keyed by entity name.
func (d *Dataset) Counts() map[string]int {
	if d == nil {
		return map[string]int{}
	}
	return map[string]int{
		EntityCustomers:   len(d.Customers),
		EntityOrders:      len(d.Orders),
		EntityOrderItems:  len(d.OrderItems),
		EntityClickstream: len(d.Events),
	}
}

// CustomerByEmail indexes customers by their natural key.
func (d *Dataset) CustomerByEmail() map[string]*Customer {
	idx := make(map[string]*Customer, len(d.Customers))
	for i := range d.Customers {
		idx[d.Customers[i].Email] = &d.Customers[i]
	}
	return idx
}

// ItemsByOrder groups order items by order id.
func (d *Dataset) ItemsByOrder() map[int][]OrderItem {
	out := make(map[int][]OrderItem, len(d.Orders))
	for _, item := range d.OrderItems {
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	return out
}
