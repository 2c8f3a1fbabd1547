package web

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"cylinder-backoffice/internal/app"
)

const maxRequestBody = 1 << 20 // 1 MiB

// Handler owns the HTTP surface of the back office.
type Handler struct {
	svc        app.ApplicationService
	production bool
}

// NewHandler builds the HTTP handler. Stack traces and error details
// are included in 500 responses unless APP_ENV=production.
func NewHandler(svc app.ApplicationService) *Handler {
	return &Handler{
		svc:        svc,
		production: os.Getenv("APP_ENV") == "production",
	}
}

// Router assembles the chi router with the standard middleware chain.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger)
	r.Use(h.Recoverer)
	r.Use(CORS(os.Getenv("ALLOWED_ORIGINS")))
	r.Use(RequestBodyLimit(maxRequestBody))

	r.Get("/api/health", h.health)

	r.Route("/api/sales", func(r chi.Router) {
		r.Get("/", h.listSales)
		r.Post("/", h.createSale)
	})

	r.Route("/api/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
	})

	r.Get("/api/employees", h.listEmployees)
	r.Get("/api/inventory", h.getStockLevels)

	r.Route("/api/stock-assignments", func(r chi.Router) {
		r.Get("/", h.listAssignments)
		r.Post("/", h.createAssignment)
		r.Put("/{id}/receive", h.receiveAssignment)
		r.Put("/{id}/reject", h.rejectAssignment)
	})

	r.Get("/api/notifications", h.listNotifications)

	r.Get("/api/reports/daily", h.dailyStockReport)
	r.Get("/api/reports/profit-loss", h.profitLoss)

	r.Post("/api/admin/side-effects/retry", h.retrySideEffects)

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Health(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, map[string]string{"status": "ok"}, "")
}

func (h *Handler) retrySideEffects(w http.ResponseWriter, r *http.Request) {
	retried, dead, err := h.svc.RetrySideEffects(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, map[string]int{"retried": retried, "dead": dead}, "side effect replay complete")
}
