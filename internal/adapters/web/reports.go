package web

import (
	"net/http"
	"time"
)

const dateLayout = "2006-01-02"

func (h *Handler) dailyStockReport(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format(dateLayout)
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		h.badRequest(w, r, "invalid date, expected YYYY-MM-DD")
		return
	}
	report, err := h.svc.GetDailyStockReport(r.Context(), date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, report, "")
}

func (h *Handler) profitLoss(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if to == "" {
		to = time.Now().Format(dateLayout)
	}
	if from == "" {
		from = time.Now().AddDate(0, -1, 0).Format(dateLayout)
	}
	for _, d := range []string{from, to} {
		if _, err := time.Parse(dateLayout, d); err != nil {
			h.badRequest(w, r, "invalid date range, expected YYYY-MM-DD")
			return
		}
	}
	report, err := h.svc.GetProfitLoss(r.Context(), from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, report, "")
}
