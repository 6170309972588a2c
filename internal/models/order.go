package models

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// orderTransitions lists the allowed status moves.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderCompleted},
}

// CanTransitionTo reports whether the order may move to the target status.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Valid reports whether the value is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Order is a customer purchase; items are stored separately.
type Order struct {
	ID              int64       `db:"id,pk,auto" json:"id"`
	CustomerID      int64       `db:"customer_id" json:"customer_id"`
	Status          OrderStatus `db:"status,omitzero" json:"status"`
	Total           float64     `db:"total" json:"total"`
	ShippingAddress string      `db:"shipping_address" json:"shipping_address"`
	Phone           string      `db:"phone,omitzero" json:"phone,omitempty"`
	CreatedAt       time.Time   `db:"created_at,omitzero" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at,omitzero" json:"updated_at"`

	Items []OrderItem `db:"-" json:"items,omitempty"`
}

func (Order) TableName() string { return "orders" }

// OrderItem is one product line within an order. UnitPrice and Subtotal are
// captured at purchase time so later price edits don't rewrite history.
type OrderItem struct {
	ID        int64   `db:"id,pk,auto" json:"id"`
	OrderID   int64   `db:"order_id" json:"order_id"`
	ProductID int64   `db:"product_id" json:"product_id"`
	Quantity  int     `db:"quantity" json:"quantity"`
	UnitPrice float64 `db:"unit_price" json:"unit_price"`
	Subtotal  float64 `db:"subtotal" json:"subtotal"`
}

func (OrderItem) TableName() string { return "order_items" }
