package httpapi

import (
	"net/http"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/models"
	"github.com/agrilink/agrilink/internal/store"
)

type createOrderRequest struct {
	Items           []store.OrderItemInput `json:"items"`
	ShippingAddress string                 `json:"shipping_address"`
	Phone           string                 `json:"phone"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	fe := fieldErrors{}
	if len(req.Items) == 0 {
		fe.add("items", "at least one item is required")
	}
	for _, item := range req.Items {
		if item.ProductID <= 0 || item.Quantity <= 0 {
			fe.add("items", "every item needs a product_id and a positive quantity")
			break
		}
	}
	if req.ShippingAddress == "" {
		fe.add("shipping_address", "shipping address is required")
	}
	if err := fe.err(); err != nil {
		respondError(w, r, err)
		return
	}

	order, err := s.store.Orders.Create(r.Context(), user.ID, req.Items, req.ShippingAddress, req.Phone)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, order)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	filter := store.OrderFilter{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if user.Role == models.RoleAdmin {
		if raw := r.URL.Query().Get("status"); raw != "" {
			status := models.OrderStatus(raw)
			if !status.Valid() {
				respondError(w, r, fieldErrors{"status": "unknown order status"}.err())
				return
			}
			filter.Status = &status
		}
	} else {
		filter.CustomerID = &user.ID
	}

	orders, err := s.store.Orders.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, orders)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	order, err := s.store.Orders.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !canManage(userFrom(r.Context()), order.CustomerID) {
		respondError(w, r, apperr.Forbidden("not your order"))
		return
	}
	respond(w, http.StatusOK, order)
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if !req.Status.Valid() {
		respondError(w, r, fieldErrors{"status": "unknown order status"}.err())
		return
	}

	order, err := s.store.Orders.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	// Admins drive fulfillment; the customer may only cancel their own
	// pending order.
	if user.Role != models.RoleAdmin {
		if order.CustomerID != user.ID {
			respondError(w, r, apperr.Forbidden("not your order"))
			return
		}
		if req.Status != models.OrderCancelled {
			respondError(w, r, apperr.Forbidden("only cancellation is allowed"))
			return
		}
	}

	updated, err := s.store.Orders.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, updated)
}
