package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"orderdesk/internal/composer"
	"orderdesk/internal/markethours"
	"orderdesk/internal/model"
	"orderdesk/internal/monitor"
	"orderdesk/internal/portfolio"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Composer  *composer.Composer
	Symbols   *composer.SymbolSearcher
	Monitor   *monitor.Monitor
	Broker    model.Broker
	Portfolio *portfolio.Service
	Journal   model.ActionJournal // may be nil
	Hub       *Hub
	Start     time.Time

	// StoreState reports the form store's circuit breaker state for
	// health checks. May be nil.
	StoreState func() string
}

// handle wraps a handler with CORS and OPTIONS preflight.
func handle(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		fn(w, r)
	})
}

// writeActionErr maps domain errors to HTTP statuses: user-facing
// validation failures are 400, broker failures are 502.
func writeActionErr(w http.ResponseWriter, err error) {
	var ve *composer.ValidationError
	var ae *monitor.ActionError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Msg)
	case errors.As(err, &ae):
		writeError(w, http.StatusBadRequest, ae.Msg)
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

// RegisterRoutes registers all HTTP routes on the provided mux.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	// WebSocket endpoint. last_seq resumes a dropped session.
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		lastSeq, _ := strconv.ParseInt(r.URL.Query().Get("last_seq"), 10, 64)
		d.Hub.Register(conn, lastSeq)
	})

	// Order monitor
	handle(mux, "/api/orders", func(w http.ResponseWriter, r *http.Request) {
		book, lastUpdated := d.Monitor.Snapshot()
		writeJSON(w, http.StatusOK, newOrdersResponse(book, lastUpdated))
	})

	handle(mux, "/api/orders/select", func(w http.ResponseWriter, r *http.Request) {
		var req selectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RowID == "" {
			writeError(w, http.StatusBadRequest, "row_id is required")
			return
		}
		selected := d.Monitor.ToggleSelection(req.RowID)
		writeJSON(w, http.StatusOK, map[string]bool{"selected": selected})
	})

	handle(mux, "/api/orders/cancel", func(w http.ResponseWriter, r *http.Request) {
		msg, err := d.Monitor.CancelSelected(r.Context())
		if err != nil {
			writeActionErr(w, err)
			return
		}
		writeMessage(w, msg)
	})

	handle(mux, "/api/orders/modify/open", func(w http.ResponseWriter, r *http.Request) {
		draft, err := d.Monitor.OpenModify(r.Context())
		if err != nil {
			writeActionErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, draft)
	})

	handle(mux, "/api/orders/modify", func(w http.ResponseWriter, r *http.Request) {
		var req modifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		if err := d.Monitor.UpdateDraft(req.Quantity, req.Price, req.TriggerPrice, req.OrderType); err != nil {
			writeActionErr(w, err)
			return
		}
		msg, err := d.Monitor.SubmitModify(r.Context())
		if err != nil {
			writeActionErr(w, err)
			return
		}
		writeMessage(w, msg)
	})

	handle(mux, "/api/orders/search", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		tokens := monitor.Tokens(query)
		book, _ := d.Monitor.Snapshot()
		resp := searchResponse{Query: query, Buckets: make(map[string][]monitor.Match)}
		if book != nil {
			for _, name := range model.BucketNames {
				resp.Buckets[name] = monitor.FilterBucket(book.Bucket(name), tokens)
			}
		}
		writeJSON(w, http.StatusOK, resp)
	})

	// Order composer
	handle(mux, "/api/form", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Composer.Intent())
	})

	handle(mux, "/api/form/field", func(w http.ResponseWriter, r *http.Request) {
		patch, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
		if err != nil || len(patch) == 0 {
			writeError(w, http.StatusBadRequest, "empty patch")
			return
		}
		writeJSON(w, http.StatusOK, d.Composer.Apply(r.Context(), patch))
	})

	handle(mux, "/api/form/submit", func(w http.ResponseWriter, r *http.Request) {
		ack, err := d.Composer.Submit(r.Context())
		if err != nil {
			writeActionErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ack)
	})

	handle(mux, "/api/form/reset", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Composer.Reset(r.Context()))
	})

	handle(mux, "/api/symbols/search", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		exchange := model.Exchange(strings.ToUpper(r.URL.Query().Get("exchange")))
		if exchange == "" {
			exchange = model.ExchangeNSE
		}
		results, err := d.Symbols.Search(r.Context(), query, exchange)
		if errors.Is(err, composer.ErrSuperseded) {
			writeError(w, http.StatusConflict, "superseded")
			return
		}
		if err != nil {
			writeActionErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	})

	handle(mux, "/api/clients", func(w http.ResponseWriter, r *http.Request) {
		clients, err := d.Broker.GetClients(r.Context())
		if err != nil {
			writeActionErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, clients)
	})

	handle(mux, "/api/groups", func(w http.ResponseWriter, r *http.Request) {
		groups, err := d.Broker.GetGroups(r.Context())
		if err != nil {
			writeActionErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, groups)
	})

	// Portfolio
	handle(mux, "/api/positions", func(w http.ResponseWriter, r *http.Request) {
		positions, err := d.Portfolio.Positions(r.Context())
		if err != nil {
			writeActionErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, positions)
	})

	handle(mux, "/api/positions/close", func(w http.ResponseWriter, r *http.Request) {
		msg, err := d.Portfolio.CloseAll(r.Context())
		if err != nil {
			writeActionErr(w, err)
			return
		}
		writeMessage(w, msg)
	})

	handle(mux, "/api/holdings", func(w http.ResponseWriter, r *http.Request) {
		holdings, err := d.Portfolio.Holdings(r.Context())
		if err != nil {
			writeActionErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, holdings)
	})

	handle(mux, "/api/portfolio/summary", func(w http.ResponseWriter, r *http.Request) {
		summary, err := d.Portfolio.Summary(r.Context())
		if err != nil {
			writeActionErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	})

	// Audit trail
	handle(mux, "/api/actions", func(w http.ResponseWriter, r *http.Request) {
		if d.Journal == nil {
			writeJSON(w, http.StatusOK, []model.AuditAction{})
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		actions, err := d.Journal.Recent(r.Context(), limit)
		if err != nil {
			writeActionErr(w, err)
			return
		}
		if actions == nil {
			actions = []model.AuditAction{}
		}
		writeJSON(w, http.StatusOK, actions)
	})

	// Tab visibility gates the poll loop.
	handle(mux, "/api/visibility", func(w http.ResponseWriter, r *http.Request) {
		var req visibilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		d.Monitor.SetVisible(req.Visible)
		writeJSON(w, http.StatusOK, map[string]bool{"visible": req.Visible})
	})

	handle(mux, "/api/session", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, markethours.Now(time.Now()))
	})

	handle(mux, "/health", func(w http.ResponseWriter, r *http.Request) {
		_, lastUpdated := d.Monitor.Snapshot()
		resp := map[string]any{
			"status":     "ok",
			"ws_clients": d.Hub.ClientCount(),
			"uptime_sec": int64(time.Since(d.Start).Seconds()),
			"ts":         time.Now().UTC().Format(time.RFC3339Nano),
		}
		if !lastUpdated.IsZero() {
			resp["last_updated"] = lastUpdated.Format(time.RFC3339Nano)
		}
		if d.StoreState != nil {
			resp["form_store"] = d.StoreState()
		}
		writeJSON(w, http.StatusOK, resp)
	})

	mux.Handle("/metrics", promhttp.Handler())
}
