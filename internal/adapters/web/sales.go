package web

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"cylinder-backoffice/internal/core"
)

// saleItemRequest mirrors the cart line shape posted by the front office.
// Monetary fields arrive as JSON numbers; decimal handles both integer
// and fractional representations without float drift.
type saleItemRequest struct {
	Product           int             `json:"product"`
	Quantity          int64           `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	Total             decimal.Decimal `json:"total"`
	Category          string          `json:"category"`
	CylinderSize      string          `json:"cylinderSize"`
	CylinderStatus    string          `json:"cylinderStatus"`
	CylinderProductID *int            `json:"cylinderProductId"`
	CylinderName      string          `json:"cylinderName"`
	GasProductID      *int            `json:"gasProductId"`
}

type saleRequest struct {
	Customer       int               `json:"customer"`
	Items          []saleItemRequest `json:"items"`
	TotalAmount    decimal.Decimal   `json:"totalAmount"`
	PaymentMethod  string            `json:"paymentMethod"`
	PaymentStatus  string            `json:"paymentStatus"`
	ReceivedAmount decimal.Decimal   `json:"receivedAmount"`
	Notes          string            `json:"notes"`
}

func (req saleRequest) toInput() core.SaleInput {
	items := make([]core.SaleItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = core.SaleItemInput{
			ProductID:         it.Product,
			Quantity:          it.Quantity,
			UnitPrice:         it.Price,
			LineTotal:         it.Total,
			Category:          it.Category,
			CylinderSize:      it.CylinderSize,
			CylinderStatus:    it.CylinderStatus,
			CylinderProductID: it.CylinderProductID,
			CylinderName:      it.CylinderName,
			GasProductID:      it.GasProductID,
		}
	}
	return core.SaleInput{
		CustomerID:     req.Customer,
		Items:          items,
		TotalAmount:    req.TotalAmount,
		PaymentMethod:  req.PaymentMethod,
		PaymentStatus:  req.PaymentStatus,
		ReceivedAmount: req.ReceivedAmount,
		Notes:          req.Notes,
	}
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.svc.ListSales(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, sales, "")
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, r, "invalid request body: "+err.Error())
		return
	}
	sale, err := h.svc.CreateSale(r.Context(), req.toInput())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, sale, "Sale created successfully")
}
