package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-warehouse-orders.git/internal/redisx"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/warehouse"
)

// Handler translates the REST surface into Engine calls. Redis is optional:
// when present it serves a short-TTL product-list cache.
type Handler struct {
	Engine *warehouse.Engine
	Redis  *redis.Client
	Log    *zap.Logger
}

type orderReq struct {
	CustomerName string         `json:"customer_name"`
	OrderDate    warehouse.Date `json:"order_date"`
}

type createItemReq struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type updateItemReq struct {
	Quantity int `json:"quantity"`
}

type moveItemReq struct {
	NewOrderID string `json:"new_order_id"`
}

type nextDayResp struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	NewDate warehouse.Date `json:"newDate"`
}

func (h *Handler) Register(r *chi.Mux) {
	r.Get("/current-date", h.currentDate)
	r.Post("/next-day", h.nextDay)
	r.Get("/products", h.listProducts)
	r.Get("/orders", h.listOrders)
	r.Post("/orders", h.createOrder)
	r.Put("/orders/{id}", h.updateOrder)
	r.Delete("/orders/{id}", h.deleteOrder)
	r.Post("/orders/{orderID}/items", h.createItem)
	r.Put("/orders/{orderID}/items/{itemID}", h.updateItem)
	r.Delete("/orders/{orderID}/items/{itemID}", h.deleteItem)
	r.Post("/items/{itemID}/move", h.moveItem)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// decodeJSON rejects unknown fields so malformed payloads fail loudly instead
// of being coerced.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var stock *warehouse.InsufficientStockError
	switch {
	case errors.As(err, &stock):
		writeErrorMsg(w, http.StatusBadRequest, fmt.Sprintf("Insufficient stock. Available: %d", stock.Available))
	case errors.Is(err, warehouse.ErrNotFound):
		writeErrorMsg(w, http.StatusNotFound, "not found")
	case errors.Is(err, warehouse.ErrInvalidDate) || errors.Is(err, warehouse.ErrInvalidQuantity):
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
	default:
		h.log().Error("request failed", zap.Error(err))
		writeErrorMsg(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) currentDate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]warehouse.Date{"currentDate": h.Engine.Calendar.Current()})
}

func (h *Handler) nextDay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, next, err := h.Engine.AdvanceDay(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nextDayResp{
		Success: true,
		Message: fmt.Sprintf("Shipped %d orders", count),
		NewDate: next,
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, redisx.KeyProductList).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	ps, err := h.Engine.ListProducts(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if ps == nil {
		ps = []warehouse.Product{}
	}
	b, _ := json.Marshal(ps)
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, redisx.KeyProductList, b, redisx.TTLProductList).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	orders, err := h.Engine.ListOrders(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if orders == nil {
		orders = []warehouse.OrderWithItems{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orderReq
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CustomerName == "" || req.OrderDate.IsZero() {
		writeErrorMsg(w, http.StatusBadRequest, "customer_name and order_date are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Engine.CreateOrder(ctx, req.CustomerName, req.OrderDate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderReq
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CustomerName == "" || req.OrderDate.IsZero() {
		writeErrorMsg(w, http.StatusBadRequest, "customer_name and order_date are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Engine.UpdateOrder(ctx, chi.URLParam(r, "id"), req.CustomerName, req.OrderDate); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Engine.DeleteOrder(ctx, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.invalidateProducts(ctx)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req createItemReq
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	it, err := h.Engine.CreateItem(ctx, chi.URLParam(r, "orderID"), req.ProductID, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.invalidateProducts(ctx)
	writeJSON(w, http.StatusCreated, it)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemReq
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Engine.UpdateItemQuantity(ctx, chi.URLParam(r, "itemID"), req.Quantity); err != nil {
		h.writeError(w, err)
		return
	}
	h.invalidateProducts(ctx)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Engine.DeleteItem(ctx, chi.URLParam(r, "itemID")); err != nil {
		h.writeError(w, err)
		return
	}
	h.invalidateProducts(ctx)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) moveItem(w http.ResponseWriter, r *http.Request) {
	var req moveItemReq
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NewOrderID == "" {
		writeErrorMsg(w, http.StatusBadRequest, "new_order_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Engine.MoveItem(ctx, chi.URLParam(r, "itemID"), req.NewOrderID); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) invalidateProducts(ctx context.Context) {
	if h.Redis != nil {
		_ = h.Redis.Del(ctx, redisx.KeyProductList).Err()
	}
}

func (h *Handler) log() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}
