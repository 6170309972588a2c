package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/models"
	"github.com/agrilink/agrilink/pkg/qb"
)

// OrderItemInput is one requested line of a new order.
type OrderItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	CustomerID *int64
	Status     *models.OrderStatus
	Limit      int
	Offset     int
}

// OrderRepo persists orders and their items.
type OrderRepo struct {
	pool *pgxpool.Pool
	db   *qb.DB
}

// Create places an order in one transaction: each product row is locked,
// availability and stock are checked, stock is decremented and the total is
// computed from current prices. Any failure rolls the whole order back.
func (r *OrderRepo) Create(ctx context.Context, customerID int64, items []OrderItemInput, shippingAddress, phone string) (*models.Order, error) {
	var order *models.Order
	items = sortItemsForLocking(items)

	err := qb.WithinTx(ctx, r.pool, func(db *qb.DB) error {
		var total float64
		lines := make([]models.OrderItem, 0, len(items))

		for _, item := range items {
			product, err := qb.Select[models.Product](db).
				Where(qb.Eq("id", item.ProductID)).
				ForUpdate().
				First(ctx)
			if err != nil {
				if errors.Is(err, qb.ErrNotFound) {
					return apperr.NotFound(fmt.Sprintf("product %d not found", item.ProductID))
				}
				return apperr.Internal(err, "failed to lock product")
			}
			if !product.IsAvailable {
				return apperr.Validation("product unavailable", map[string]string{
					"items": fmt.Sprintf("product %d is not available", product.ID),
				})
			}
			if product.Quantity < item.Quantity {
				return apperr.Validation("insufficient stock", map[string]string{
					"items": fmt.Sprintf("product %d has only %d %s left", product.ID, product.Quantity, product.Unit),
				})
			}

			_, err = qb.Update[models.Product](db).
				Set("quantity", product.Quantity-item.Quantity).
				SetRaw("updated_at", "NOW()").
				Where(qb.Eq("id", product.ID)).
				Exec(ctx)
			if err != nil {
				return apperr.Internal(err, "failed to decrement stock")
			}

			subtotal := product.Price * float64(item.Quantity)
			total += subtotal
			lines = append(lines, models.OrderItem{
				ProductID: product.ID,
				Quantity:  item.Quantity,
				UnitPrice: product.Price,
				Subtotal:  subtotal,
			})
		}

		created, err := qb.Insert[models.Order](db).Values(models.Order{
			CustomerID:      customerID,
			Status:          models.OrderPending,
			Total:           total,
			ShippingAddress: shippingAddress,
			Phone:           phone,
		}).One(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to create order")
		}

		for i := range lines {
			lines[i].OrderID = created.ID
		}
		inserted, err := qb.Insert[models.OrderItem](db).Values(lines...).ExecReturning(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to create order items")
		}

		created.Items = inserted
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// sortItemsForLocking copies the requested items sorted by product id, so
// concurrent orders that share products always lock rows in the same order
// and cannot deadlock each other.
func sortItemsForLocking(items []OrderItemInput) []OrderItemInput {
	sorted := make([]OrderItemInput, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })
	return sorted
}

// List returns orders matching the filter, newest first, without items.
func (r *OrderRepo) List(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	q := qb.Select[models.Order](r.db)
	if f.CustomerID != nil {
		q.Where(qb.Eq("customer_id", *f.CustomerID))
	}
	if f.Status != nil {
		q.Where(qb.Eq("status", *f.Status))
	}
	if f.Limit > 0 {
		q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q.Offset(f.Offset)
	}

	orders, err := q.OrderByDesc("created_at").All(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list orders")
	}
	return orders, nil
}

// Get fetches one order with its items.
func (r *OrderRepo) Get(ctx context.Context, id int64) (*models.Order, error) {
	order, err := qb.Select[models.Order](r.db).Where(qb.Eq("id", id)).First(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, apperr.Internal(err, "failed to load order")
	}

	items, err := qb.Select[models.OrderItem](r.db).
		Where(qb.Eq("order_id", id)).
		OrderByAsc("id").
		All(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load order items")
	}
	order.Items = items
	return order, nil
}

// UpdateStatus moves an order along its lifecycle under a row lock.
// Cancelling restores the reserved stock.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id int64, target models.OrderStatus) (*models.Order, error) {
	var order *models.Order

	err := qb.WithinTx(ctx, r.pool, func(db *qb.DB) error {
		current, err := qb.Select[models.Order](db).
			Where(qb.Eq("id", id)).
			ForUpdate().
			First(ctx)
		if err != nil {
			if errors.Is(err, qb.ErrNotFound) {
				return apperr.NotFound("order not found")
			}
			return apperr.Internal(err, "failed to lock order")
		}

		if !current.Status.CanTransitionTo(target) {
			return apperr.Validation("invalid status transition", map[string]string{
				"status": fmt.Sprintf("cannot move order from %s to %s", current.Status, target),
			})
		}

		if target == models.OrderCancelled {
			items, err := qb.Select[models.OrderItem](db).
				Where(qb.Eq("order_id", id)).
				All(ctx)
			if err != nil {
				return apperr.Internal(err, "failed to load order items")
			}
			for _, item := range items {
				_, err := db.Exec(ctx,
					"UPDATE products SET quantity = quantity + $1, updated_at = NOW() WHERE id = $2",
					item.Quantity, item.ProductID)
				if err != nil {
					return apperr.Internal(err, "failed to restore stock")
				}
			}
		}

		updated, err := qb.Update[models.Order](db).
			Set("status", target).
			SetRaw("updated_at", "NOW()").
			Where(qb.Eq("id", id)).
			One(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to update order status")
		}
		order = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
