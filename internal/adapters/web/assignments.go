package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type assignmentRequest struct {
	Employee   int   `json:"employee"`
	Product    int   `json:"product"`
	Quantity   int64 `json:"quantity"`
	AssignedBy int   `json:"assignedBy"`
}

func (h *Handler) listAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.svc.ListAssignments(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, assignments, "")
}

func (h *Handler) createAssignment(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, r, "invalid request body: "+err.Error())
		return
	}
	assignment, err := h.svc.CreateAssignment(r.Context(), req.Employee, req.Product, req.Quantity, req.AssignedBy)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, assignment, "Stock assignment created successfully")
}

func (h *Handler) receiveAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.assignmentID(w, r)
	if !ok {
		return
	}
	assignment, err := h.svc.ReceiveAssignment(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, assignment, "Stock assignment received successfully")
}

func (h *Handler) rejectAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.assignmentID(w, r)
	if !ok {
		return
	}
	assignment, err := h.svc.RejectAssignment(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, assignment, "Stock assignment rejected successfully")
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	recipient, err := strconv.Atoi(r.URL.Query().Get("recipient"))
	if err != nil || recipient <= 0 {
		h.badRequest(w, r, "recipient query parameter is required")
		return
	}
	notifications, err := h.svc.ListNotifications(r.Context(), recipient)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, notifications, "")
}

func (h *Handler) assignmentID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.badRequest(w, r, "invalid assignment id")
		return 0, false
	}
	return id, true
}
