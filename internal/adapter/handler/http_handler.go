package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/beanhouse/commerce/internal/core/domain"
	"github.com/beanhouse/commerce/internal/core/service"
)

type HTTPHandler struct {
	orders    *service.OrderService
	batch     *service.BatchService
	customers *service.CustomerService
	cart      *service.CartService
	inventory *service.InventoryService
}

func NewHTTPHandler(orders *service.OrderService, batch *service.BatchService, customers *service.CustomerService, cart *service.CartService, inventory *service.InventoryService) *HTTPHandler {
	return &HTTPHandler{
		orders:    orders,
		batch:     batch,
		customers: customers,
		cart:      cart,
		inventory: inventory,
	}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/api/orders", h.Orders)
	mux.HandleFunc("/api/orders/modify", h.ModifyOrder)
	mux.HandleFunc("/api/orders/cancel", h.CancelOrder)
	mux.HandleFunc("/api/orders/cancel-all", h.CancelAllOrders)
	mux.HandleFunc("/api/settlement/run", h.RunSettlement)
	mux.HandleFunc("/api/settlement/pending", h.PendingCount)
	mux.HandleFunc("/api/customers/delete", h.MarkCustomerDeleted)
	mux.HandleFunc("/api/customers/purge", h.PurgeCustomers)
	mux.HandleFunc("/api/cart", h.Cart)
	mux.HandleFunc("/api/cart/remove", h.RemoveCartItem)
	mux.HandleFunc("/api/products", h.Products)
}

type CreateOrderRequest struct {
	CustomerEmail string `json:"customer_email"`
	ProductID     string `json:"product_id"`
	Quantity      int    `json:"quantity"`
}

type OrderResponse struct {
	OrderID         string    `json:"order_id,omitempty"`
	OrderDate       time.Time `json:"order_date,omitempty"`
	State           string    `json:"state,omitempty"`
	DispatchMessage string    `json:"dispatch_message,omitempty"`
	Message         string    `json:"message,omitempty"`
}

// Orders creates an order on POST and lists a customer's orders on GET.
func (h *HTTPHandler) Orders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, OrderResponse{Message: "invalid request body"})
			return
		}
		if req.CustomerEmail == "" || req.ProductID == "" {
			writeJSON(w, http.StatusBadRequest, OrderResponse{Message: "missing required fields"})
			return
		}

		order, err := h.orders.Create(r.Context(), req.CustomerEmail, req.ProductID, req.Quantity)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, OrderResponse{
			OrderID:         order.ID,
			OrderDate:       order.OrderDate,
			State:           string(order.State),
			DispatchMessage: h.orders.DispatchMessage(order.OrderDate),
		})

	case http.MethodGet:
		email := r.URL.Query().Get("customer_email")
		if email == "" {
			writeJSON(w, http.StatusBadRequest, OrderResponse{Message: "customer_email required"})
			return
		}
		orders, err := h.orders.ListByCustomer(r.Context(), email)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, orders)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type ModifyOrderRequest struct {
	OrderID  string  `json:"order_id"`
	Quantity *int    `json:"quantity,omitempty"`
	State    *string `json:"state,omitempty"`
}

func (h *HTTPHandler) ModifyOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ModifyOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, OrderResponse{Message: "invalid request body"})
		return
	}
	if req.OrderID == "" {
		writeJSON(w, http.StatusBadRequest, OrderResponse{Message: "order_id required"})
		return
	}

	var state *domain.OrderState
	if req.State != nil {
		s := domain.OrderState(*req.State)
		state = &s
	}

	order, err := h.orders.Modify(r.Context(), req.OrderID, req.Quantity, state)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OrderResponse{
		OrderID:         order.ID,
		OrderDate:       order.OrderDate,
		State:           string(order.State),
		DispatchMessage: h.orders.DispatchMessage(order.OrderDate),
	})
}

type CancelOrderRequest struct {
	OrderID string `json:"order_id"`
}

func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		writeJSON(w, http.StatusBadRequest, OrderResponse{Message: "order_id required"})
		return
	}

	if err := h.orders.Cancel(r.Context(), req.OrderID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OrderResponse{Message: "order cancelled"})
}

type CancelAllRequest struct {
	CustomerEmail string `json:"customer_email"`
}

type CountResponse struct {
	Count   int64  `json:"count"`
	Message string `json:"message,omitempty"`
}

func (h *HTTPHandler) CancelAllOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CancelAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CustomerEmail == "" {
		writeJSON(w, http.StatusBadRequest, OrderResponse{Message: "customer_email required"})
		return
	}

	n, err := h.orders.CancelAllForCustomer(r.Context(), req.CustomerEmail)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: int64(n), Message: "orders cancelled"})
}

type RunSettlementRequest struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// RunSettlement triggers a sweep. With an explicit range it reprocesses that
// range; without one it sweeps the current scheduled window.
func (h *HTTPHandler) RunSettlement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RunSettlementRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, OrderResponse{Message: "invalid request body"})
			return
		}
	}

	var (
		count int64
		err   error
	)
	if req.Start != nil && req.End != nil {
		count, err = h.batch.RunRange(r.Context(), *req.Start, *req.End)
	} else {
		count, err = h.batch.RunScheduled(r.Context(), time.Now())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: count, Message: "settlement complete"})
}

func (h *HTTPHandler) PendingCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count, err := h.batch.PendingCount(r.Context(), time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: count})
}

type CustomerRequest struct {
	Email string `json:"email"`
}

func (h *HTTPHandler) MarkCustomerDeleted(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, OrderResponse{Message: "email required"})
		return
	}

	if err := h.customers.MarkDeleted(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OrderResponse{Message: "customer marked deleted"})
}

func (h *HTTPHandler) PurgeCustomers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	n, err := h.customers.PurgeDeletedCustomers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: int64(n), Message: "purge complete"})
}

type CartAddRequest struct {
	CustomerEmail string `json:"customer_email"`
	ProductID     string `json:"product_id"`
	Quantity      int    `json:"quantity"`
}

// Cart adds an item on POST and lists the cart on GET.
func (h *HTTPHandler) Cart(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req CartAddRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, OrderResponse{Message: "invalid request body"})
			return
		}
		if req.CustomerEmail == "" || req.ProductID == "" {
			writeJSON(w, http.StatusBadRequest, OrderResponse{Message: "missing required fields"})
			return
		}
		if err := h.cart.Add(r.Context(), req.CustomerEmail, req.ProductID, req.Quantity); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, OrderResponse{Message: "added to cart"})

	case http.MethodGet:
		email := r.URL.Query().Get("customer_email")
		if email == "" {
			writeJSON(w, http.StatusBadRequest, OrderResponse{Message: "customer_email required"})
			return
		}
		items, err := h.cart.Get(r.Context(), email)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type CartRemoveRequest struct {
	CustomerEmail string `json:"customer_email"`
	ProductID     string `json:"product_id"`
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CartRemoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CustomerEmail == "" || req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, OrderResponse{Message: "missing required fields"})
		return
	}

	if err := h.cart.Remove(r.Context(), req.CustomerEmail, req.ProductID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OrderResponse{Message: "removed from cart"})
}

type ProductRequest struct {
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Stock    int    `json:"stock"`
	ImageURL string `json:"image_url"`
}

// Products creates a product on POST and lists the catalog on GET.
func (h *HTTPHandler) Products(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req ProductRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			writeJSON(w, http.StatusBadRequest, OrderResponse{Message: "invalid request body"})
			return
		}
		p, err := h.inventory.Create(r.Context(), req.Name, req.Price, req.Stock, req.ImageURL)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)

	case http.MethodGet:
		products, err := h.inventory.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, products)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		status, message = http.StatusBadRequest, "invalid quantity"
	case errors.Is(err, service.ErrInvalidState):
		status, message = http.StatusBadRequest, "invalid order state"
	case errors.Is(err, service.ErrOrderNotFound):
		status, message = http.StatusNotFound, "order not found"
	case errors.Is(err, service.ErrProductNotFound):
		status, message = http.StatusNotFound, "product not found"
	case errors.Is(err, service.ErrCustomerNotFound):
		status, message = http.StatusNotFound, "customer not found"
	case errors.Is(err, service.ErrInsufficientStock):
		status, message = http.StatusConflict, "insufficient stock"
	}

	writeJSON(w, status, OrderResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
