package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cylinder-backoffice/internal/core"

	"github.com/shopspring/decimal"
)

// stubService lets each test plant a canned result or error behind the
// facade without a database.
type stubService struct {
	sale          *core.Sale
	assignment    *core.StockAssignment
	levels        []core.StockLevel
	notifications []core.Notification
	err           error
	rejectedIDs   []int
}

func (s *stubService) Health(ctx context.Context) error { return s.err }

func (s *stubService) ListSales(ctx context.Context) ([]core.Sale, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.sale == nil {
		return []core.Sale{}, nil
	}
	return []core.Sale{*s.sale}, nil
}

func (s *stubService) CreateSale(ctx context.Context, input core.SaleInput) (*core.Sale, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.sale, nil
}

func (s *stubService) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	return nil, s.err
}

func (s *stubService) CreateCustomer(ctx context.Context, input core.CustomerInput) (*core.Customer, error) {
	return nil, s.err
}

func (s *stubService) ListProducts(ctx context.Context) ([]core.Product, error) {
	return nil, s.err
}

func (s *stubService) CreateProduct(ctx context.Context, input core.ProductInput) (*core.Product, error) {
	return nil, s.err
}

func (s *stubService) ListEmployees(ctx context.Context) ([]core.Employee, error) {
	return nil, s.err
}

func (s *stubService) GetStockLevels(ctx context.Context) ([]core.StockLevel, error) {
	return s.levels, s.err
}

func (s *stubService) ListAssignments(ctx context.Context) ([]core.StockAssignment, error) {
	return nil, s.err
}

func (s *stubService) CreateAssignment(ctx context.Context, employeeID, productID int, quantity int64, assignedBy int) (*core.StockAssignment, error) {
	return s.assignment, s.err
}

func (s *stubService) ReceiveAssignment(ctx context.Context, assignmentID int) (*core.StockAssignment, error) {
	return s.assignment, s.err
}

func (s *stubService) RejectAssignment(ctx context.Context, assignmentID int) (*core.StockAssignment, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.rejectedIDs = append(s.rejectedIDs, assignmentID)
	return s.assignment, nil
}

func (s *stubService) ListNotifications(ctx context.Context, recipientID int) ([]core.Notification, error) {
	return s.notifications, s.err
}

func (s *stubService) GetDailyStockReport(ctx context.Context, date string) (*core.DSReport, error) {
	return nil, s.err
}

func (s *stubService) GetProfitLoss(ctx context.Context, from, to string) (*core.PLReport, error) {
	return nil, s.err
}

func (s *stubService) RetrySideEffects(ctx context.Context) (int, int, error) {
	return 0, 0, s.err
}

func doRequest(t *testing.T, h *Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestCreateSale_SuccessEnvelope(t *testing.T) {
	stub := &stubService{sale: &core.Sale{
		ID:            1,
		InvoiceNumber: "INV-000001",
		TotalAmount:   decimal.NewFromInt(100),
	}}
	h := NewHandler(stub)

	rec := doRequest(t, h, http.MethodPost, "/api/sales",
		`{"customer":1,"totalAmount":100,"items":[{"product":1,"quantity":2,"price":50}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["message"] != "Sale created successfully" {
		t.Errorf("Unexpected message %v", body["message"])
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("Expected data object, got %v", body["data"])
	}
	if data["invoice_number"] != "INV-000001" {
		t.Errorf("Expected invoice number in data, got %v", data["invoice_number"])
	}
}

func TestCreateSale_ValidationErrorIs400(t *testing.T) {
	stub := &stubService{err: &core.ValidationError{Msg: "customer is required"}}
	h := NewHandler(stub)

	rec := doRequest(t, h, http.MethodPost, "/api/sales", `{"items":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["message"] != "customer is required" {
		t.Errorf("Unexpected message %v", body["message"])
	}
}

func TestCreateSale_InsufficientStockIs400(t *testing.T) {
	stub := &stubService{err: &core.InsufficientStockError{
		ProductName: "Bharat Gas", StockType: "gas stock", Available: 3, Required: 5,
	}}
	h := NewHandler(stub)

	rec := doRequest(t, h, http.MethodPost, "/api/sales",
		`{"customer":1,"totalAmount":100,"items":[{"product":1,"quantity":5,"price":20}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestCreateSale_NotFoundIs404(t *testing.T) {
	stub := &stubService{err: &core.NotFoundError{Entity: "customer", Ref: "42"}}
	h := NewHandler(stub)

	rec := doRequest(t, h, http.MethodPost, "/api/sales",
		`{"customer":42,"totalAmount":100,"items":[{"product":1,"quantity":1,"price":100}]}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

func TestCreateSale_MalformedBodyIs400(t *testing.T) {
	h := NewHandler(&stubService{})
	rec := doRequest(t, h, http.MethodPost, "/api/sales", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestInternalError_DetailsSuppressedInProduction(t *testing.T) {
	stub := &stubService{err: errors.New("pg: connection refused")}

	dev := NewHandler(stub)
	rec := doRequest(t, dev, http.MethodGet, "/api/sales", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["details"] != "pg: connection refused" {
		t.Errorf("Expected details outside production, got %v", body["details"])
	}
	if _, ok := body["stack"]; !ok {
		t.Error("Expected stack outside production")
	}

	prod := NewHandler(stub)
	prod.production = true
	rec = doRequest(t, prod, http.MethodGet, "/api/sales", "")
	body = decodeBody(t, rec)
	if _, ok := body["details"]; ok {
		t.Error("details must be suppressed in production")
	}
	if _, ok := body["stack"]; ok {
		t.Error("stack must be suppressed in production")
	}
	if body["message"] != "internal server error" {
		t.Errorf("Unexpected message %v", body["message"])
	}
}

func TestRejectAssignment(t *testing.T) {
	stub := &stubService{assignment: &core.StockAssignment{ID: 7, Status: core.AssignmentRejected}}
	h := NewHandler(stub)

	rec := doRequest(t, h, http.MethodPut, "/api/stock-assignments/7/reject", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(stub.rejectedIDs) != 1 || stub.rejectedIDs[0] != 7 {
		t.Errorf("Expected reject call for id 7, got %v", stub.rejectedIDs)
	}

	rec = doRequest(t, h, http.MethodPut, "/api/stock-assignments/abc/reject", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for non-numeric id, got %d", rec.Code)
	}
}

func TestListNotifications(t *testing.T) {
	stub := &stubService{notifications: []core.Notification{
		{ID: 1, RecipientID: 3, Kind: "assignment_rejected", Message: "Driver One rejected the assignment of 2 × Bharat Cylinder"},
	}}
	h := NewHandler(stub)

	rec := doRequest(t, h, http.MethodGet, "/api/notifications?recipient=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	data, ok := body["data"].([]any)
	if !ok || len(data) != 1 {
		t.Fatalf("Expected 1 notification in data, got %v", body["data"])
	}

	rec = doRequest(t, h, http.MethodGet, "/api/notifications", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 without recipient, got %d", rec.Code)
	}
}

func TestRequestIDHeaderSet(t *testing.T) {
	h := NewHandler(&stubService{})
	rec := doRequest(t, h, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}
}
