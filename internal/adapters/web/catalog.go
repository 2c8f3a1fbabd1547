package web

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"cylinder-backoffice/internal/core"
)

type customerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type productRequest struct {
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	CylinderSize   string          `json:"cylinderSize"`
	CostPrice      decimal.Decimal `json:"costPrice"`
	LeastPrice     decimal.Decimal `json:"leastPrice"`
	CurrentStock   int64           `json:"currentStock"`
	AvailableEmpty int64           `json:"availableEmpty"`
	AvailableFull  int64           `json:"availableFull"`
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.ListCustomers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, customers, "")
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, r, "invalid request body: "+err.Error())
		return
	}
	customer, err := h.svc.CreateCustomer(r.Context(), core.CustomerInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, customer, "Customer created successfully")
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, products, "")
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, r, "invalid request body: "+err.Error())
		return
	}
	product, err := h.svc.CreateProduct(r.Context(), core.ProductInput{
		Name:           req.Name,
		Category:       req.Category,
		CylinderSize:   req.CylinderSize,
		CostPrice:      req.CostPrice,
		LeastPrice:     req.LeastPrice,
		CurrentStock:   req.CurrentStock,
		AvailableEmpty: req.AvailableEmpty,
		AvailableFull:  req.AvailableFull,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, product, "Product created successfully")
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.svc.ListEmployees(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, employees, "")
}

func (h *Handler) getStockLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.svc.GetStockLevels(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, levels, "")
}
