package broker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"orderdesk/internal/model"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestGetOrders_MissingBucketsComeBackEmpty(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get_orders" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"pending":[{"name":"A","symbol":"RELIANCE","order_id":"1"}]}`))
	}))

	book, err := c.GetOrders(context.Background())
	if err != nil {
		t.Fatalf("get orders: %v", err)
	}
	if len(book.Pending) != 1 {
		t.Errorf("expected 1 pending, got %d", len(book.Pending))
	}
	for _, name := range []string{"traded", "rejected", "cancelled", "others"} {
		if book.Bucket(name) == nil {
			t.Errorf("bucket %s must be empty, not nil", name)
		}
	}
}

func TestDo_BackendMessageSurvivesVerbatim(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":["Margin shortfall","Order rejected"]}`))
	}))

	_, err := c.GetOrders(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "Margin shortfall\nOrder rejected" {
		t.Errorf("backend message mangled: %q", got)
	}
}

func TestDo_ScalarMessageDecodes(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"Exchange closed"}`))
	}))

	_, err := c.GetOrders(context.Background())
	if err == nil || err.Error() != "Exchange closed" {
		t.Errorf("expected scalar message, got %v", err)
	}
}

func TestDo_UnauthorizedFiresSessionHook(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"session expired"}`))
	}))

	fired := false
	c.SessionExpiryHook = func() { fired = true }

	if _, err := c.GetOrders(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !fired {
		t.Error("401 must fire the session expiry hook")
	}
}

func TestPlaceOrder_AckAndPayloadShape(t *testing.T) {
	var got map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/place_order" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"message":["Order queued for C001"]}`))
	}))

	payload := model.PlaceOrderPayload{
		Action:        "BUY",
		OrderType:     "LIMIT",
		Symbol:        "RELIANCE-EQ",
		QuantityInLot: 5,
		AMOOrder:      "N",
		Clients:       []string{"C001"},
		Groups:        []string{},
		PerClientQty:  map[string]int64{},
		PerGroupQty:   map[string]int64{},
	}
	ack, err := c.PlaceOrder(context.Background(), payload)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if ack.Message.String() != "Order queued for C001" {
		t.Errorf("unexpected ack %q", ack.Message.String())
	}

	if got["quantityinlot"] != float64(5) {
		t.Errorf("expected quantityinlot 5, got %v", got["quantityinlot"])
	}
	if got["amoorder"] != "N" {
		t.Errorf("expected amoorder N, got %v", got["amoorder"])
	}
	if _, ok := got["groupacc"]; !ok {
		t.Error("payload must carry groupacc")
	}
}

func TestCancelOrders_BatchBody(t *testing.T) {
	var got struct {
		Orders []model.CancelOrderItem `json:"orders"`
	}
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"message":"2 orders cancelled"}`))
	}))

	items := []model.CancelOrderItem{
		{Name: "A", Symbol: "RELIANCE", OrderID: "1"},
		{Name: "B", Symbol: "TCS", OrderID: "2"},
	}
	msg, err := c.CancelOrders(context.Background(), items)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if msg.String() != "2 orders cancelled" {
		t.Errorf("unexpected message %q", msg.String())
	}
	if len(got.Orders) != 2 || got.Orders[1].OrderID != "2" {
		t.Errorf("unexpected batch body %+v", got.Orders)
	}
}

func TestModifyOrder_SparseBody(t *testing.T) {
	var raw map[string]map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		w.Write([]byte(`{"message":"modified"}`))
	}))

	qty := int64(10)
	patch := model.ModifyPatch{Name: "A", Symbol: "RELIANCE", OrderID: "1", Quantity: &qty}
	if _, err := c.ModifyOrder(context.Background(), patch); err != nil {
		t.Fatalf("modify: %v", err)
	}

	order := raw["order"]
	if order["quantity"] != float64(10) {
		t.Errorf("expected quantity 10, got %v", order["quantity"])
	}
	for _, absent := range []string{"price", "triggerprice", "ordertype"} {
		if _, ok := order[absent]; ok {
			t.Errorf("untouched field %q must be omitted, got %v", absent, order[absent])
		}
	}
}

func TestSearchSymbols_QueryParams(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "RELI" || r.URL.Query().Get("exchange") != "NSE" {
			t.Errorf("unexpected query %v", r.URL.Query())
		}
		w.Write([]byte(`{"results":[{"id":"RELIANCE-EQ","text":"RELIANCE"}]}`))
	}))

	refs, err := c.SearchSymbols(context.Background(), "RELI", "NSE")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(refs) != 1 || refs[0].Value != "RELIANCE-EQ" || refs[0].Label != "RELIANCE" {
		t.Errorf("unexpected refs %v", refs)
	}
}
