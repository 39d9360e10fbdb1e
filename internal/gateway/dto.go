package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"orderdesk/internal/model"
	"orderdesk/internal/monitor"
)

// ordersResponse is the REST snapshot of the monitor's order book.
type ordersResponse struct {
	Book        *model.OrderBook `json:"book"`
	LastUpdated string           `json:"last_updated,omitempty"`
	Total       int              `json:"total"`
}

func newOrdersResponse(book *model.OrderBook, lastUpdated time.Time) ordersResponse {
	resp := ordersResponse{Book: book}
	if book != nil {
		resp.Total = book.Total()
	}
	if !lastUpdated.IsZero() {
		resp.LastUpdated = lastUpdated.Format(time.RFC3339Nano)
	}
	return resp
}

// selectRequest toggles one order row's selection.
type selectRequest struct {
	RowID string `json:"row_id"`
}

// modifyRequest carries the edited modify-draft fields.
type modifyRequest struct {
	Quantity     string `json:"quantity"`
	Price        string `json:"price"`
	TriggerPrice string `json:"trigger_price"`
	OrderType    string `json:"order_type"`
}

// visibilityRequest mirrors the browser tab's visibility state.
type visibilityRequest struct {
	Visible bool `json:"visible"`
}

// searchResponse groups filtered rows by bucket.
type searchResponse struct {
	Query   string                     `json:"query"`
	Buckets map[string][]monitor.Match `json:"buckets"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeMessage(w http.ResponseWriter, msg model.Message) {
	writeJSON(w, http.StatusOK, map[string]any{"message": msg})
}
