package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fishball-groupbuy/internal/config"
	"fishball-groupbuy/internal/groupbuy"
	"fishball-groupbuy/internal/store"
	"fishball-groupbuy/internal/ws"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (http.Handler, *groupbuy.Service, *store.MemStore) {
	t.Helper()
	mem := store.NewMemStore()
	svc := groupbuy.NewService(mem, zap.NewNop(), nil, 0)
	cfg := config.Config{Env: "test", NotesDebounceDelay: 10 * time.Millisecond}
	wsServer := ws.New(mem, svc, zap.NewNop(), cfg)
	return NewRouter(svc, zap.NewNop(), cfg, wsServer), svc, mem
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: bad envelope %q: %v", method, target, rec.Body.String(), err)
	}
	return rec.Code, env
}

func createGroupHTTP(t *testing.T, router http.Handler) groupbuy.CreatedGroup {
	t.Helper()
	status, env := doJSON(t, router, http.MethodPost, "/api/groups", map[string]any{
		"name":     "週五魚丸團",
		"location": "社區中庭",
	})
	if status != http.StatusCreated || !env.Success {
		t.Fatalf("create group: status %d, envelope %+v", status, env)
	}
	var created groupbuy.CreatedGroup
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode created group: %v", err)
	}
	return created
}

func TestHealth(t *testing.T) {
	router, _, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}

func TestCatalogEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)
	status, env := doJSON(t, router, http.MethodGet, "/api/catalog", nil)
	if status != http.StatusOK || !env.Success {
		t.Fatalf("catalog: status %d, envelope %+v", status, env)
	}

	var products []struct {
		ID    string  `json:"id"`
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	if err := json.Unmarshal(env.Data, &products); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(products) != 8 {
		t.Fatalf("expected 8 products, got %d", len(products))
	}
	if products[0].ID != "1" || products[0].Price != 160 {
		t.Fatalf("unexpected first product %+v", products[0])
	}
}

func TestGroupGetRedactsLeaderToken(t *testing.T) {
	router, _, _ := newTestRouter(t)
	created := createGroupHTTP(t, router)
	if created.LeaderToken == "" {
		t.Fatalf("create response must carry the token once")
	}

	status, env := doJSON(t, router, http.MethodGet, "/api/groups/"+created.GroupID, nil)
	if status != http.StatusOK {
		t.Fatalf("get group: status %d", status)
	}
	if strings.Contains(string(env.Data), created.LeaderToken) {
		t.Fatalf("leader token leaked in group payload")
	}
	var group struct {
		Info struct {
			Name        string `json:"name"`
			LeaderToken string `json:"leaderToken"`
		} `json:"info"`
	}
	if err := json.Unmarshal(env.Data, &group); err != nil {
		t.Fatalf("decode group: %v", err)
	}
	if group.Info.Name != "週五魚丸團" || group.Info.LeaderToken != "" {
		t.Fatalf("unexpected info %+v", group.Info)
	}
}

func TestGroupGetNotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)
	status, env := doJSON(t, router, http.MethodGet, "/api/groups/nosuchgrp1", nil)
	if status != http.StatusNotFound || env.Error != string(groupbuy.ErrGroupNotFound) {
		t.Fatalf("expected 404 GROUP_NOT_FOUND, got %d %+v", status, env)
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	router, _, _ := newTestRouter(t)
	created := createGroupHTTP(t, router)
	base := "/api/groups/" + created.GroupID

	// Submitting an empty group is rejected up front.
	status, env := doJSON(t, router, http.MethodPost, base+"/submit", nil)
	if status != http.StatusBadRequest || env.Error != string(groupbuy.ErrNoOrders) {
		t.Fatalf("expected 400 NO_ORDERS, got %d %+v", status, env)
	}

	status, env = doJSON(t, router, http.MethodPost, base+"/orders", map[string]any{
		"memberName": "阿明",
		"items":      map[string]int{"1": 2},
	})
	if status != http.StatusCreated {
		t.Fatalf("create order: status %d %+v", status, env)
	}
	var orderResp struct {
		OrderID string `json:"orderId"`
	}
	if err := json.Unmarshal(env.Data, &orderResp); err != nil {
		t.Fatalf("decode order response: %v", err)
	}

	// Updating a nonexistent order id must not create one.
	status, env = doJSON(t, router, http.MethodPut, base+"/orders/bogus", map[string]any{
		"memberName": "阿明",
		"items":      map[string]int{"1": 1},
	})
	if status != http.StatusNotFound || env.Error != string(groupbuy.ErrOrderNotFound) {
		t.Fatalf("expected 404 ORDER_NOT_FOUND, got %d %+v", status, env)
	}

	if status, env = doJSON(t, router, http.MethodPost, base+"/submit", nil); status != http.StatusOK {
		t.Fatalf("submit: status %d %+v", status, env)
	}
	if status, env = doJSON(t, router, http.MethodPost, base+"/confirm", nil); status != http.StatusOK {
		t.Fatalf("confirm: status %d %+v", status, env)
	}

	// Confirming twice is a conflict.
	status, env = doJSON(t, router, http.MethodPost, base+"/confirm", nil)
	if status != http.StatusConflict || env.Error != string(groupbuy.ErrInvalidTransition) {
		t.Fatalf("expected 409 INVALID_TRANSITION, got %d %+v", status, env)
	}

	// Deleting the sole order resets it under a fresh id.
	status, env = doJSON(t, router, http.MethodDelete, base+"/orders/"+orderResp.OrderID, nil)
	if status != http.StatusOK {
		t.Fatalf("delete order: status %d %+v", status, env)
	}
	var deleteResp struct {
		ResetOrderID string `json:"resetOrderId"`
	}
	if err := json.Unmarshal(env.Data, &deleteResp); err != nil {
		t.Fatalf("decode delete response: %v", err)
	}
	if deleteResp.ResetOrderID == "" || deleteResp.ResetOrderID == orderResp.OrderID {
		t.Fatalf("expected a fresh reset order id, got %q", deleteResp.ResetOrderID)
	}
}

func TestAggregateEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)
	created := createGroupHTTP(t, router)
	base := "/api/groups/" + created.GroupID

	if status, env := doJSON(t, router, http.MethodPost, base+"/orders", map[string]any{
		"memberName": "阿明",
		"items":      map[string]int{"1": 2},
	}); status != http.StatusCreated {
		t.Fatalf("create order: status %d %+v", status, env)
	}
	if status, env := doJSON(t, router, http.MethodPut, base+"/price-adjustments/1", map[string]any{
		"price": 150,
	}); status != http.StatusOK {
		t.Fatalf("adjust price: status %d %+v", status, env)
	}

	status, env := doJSON(t, router, http.MethodGet, base+"/aggregate", nil)
	if status != http.StatusOK {
		t.Fatalf("aggregate: status %d %+v", status, env)
	}
	var result struct {
		PerProduct map[string]struct {
			Quantity int     `json:"quantity"`
			Amount   float64 `json:"amount"`
		} `json:"perProduct"`
		GrandTotal float64 `json:"grandTotal"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode aggregate: %v", err)
	}
	if result.PerProduct["1"].Amount != 300 {
		t.Fatalf("expected live amount 300, got %v", result.PerProduct["1"].Amount)
	}
	if result.GrandTotal != 320 {
		t.Fatalf("expected cached grand total 320, got %v", result.GrandTotal)
	}
}

func TestVerifyTokenEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)
	created := createGroupHTTP(t, router)
	target := "/api/groups/" + created.GroupID + "/verify-token"

	status, env := doJSON(t, router, http.MethodPost, target, map[string]any{"token": created.LeaderToken})
	if status != http.StatusOK || !env.Success {
		t.Fatalf("expected verification, got %d %+v", status, env)
	}

	status, env = doJSON(t, router, http.MethodPost, target, map[string]any{"token": "wrong"})
	if status != http.StatusForbidden || env.Error != string(groupbuy.ErrAccessDenied) {
		t.Fatalf("expected 403 ACCESS_DENIED, got %d %+v", status, env)
	}
}

func TestShippingStatusEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)
	created := createGroupHTTP(t, router)
	target := "/api/groups/" + created.GroupID + "/shipping-status"

	status, env := doJSON(t, router, http.MethodPut, target, map[string]any{"status": "shipped"})
	if status != http.StatusOK {
		t.Fatalf("update shipping: status %d %+v", status, env)
	}
	status, env = doJSON(t, router, http.MethodPut, target, map[string]any{"status": "teleported"})
	if status != http.StatusBadRequest || env.Error != string(groupbuy.ErrInvalidShippingStatus) {
		t.Fatalf("expected 400 INVALID_SHIPPING_STATUS, got %d %+v", status, env)
	}
}

func TestGroupWSStreamsSnapshots(t *testing.T) {
	router, svc, mem := newTestRouter(t)
	created := createGroupHTTP(t, router)

	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/group/" + created.GroupID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The three initial snapshots arrive in subscription order.
	labels := make(map[string]json.RawMessage)
	for i := 0; i < 3; i++ {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read snapshot %d: %v", i, err)
		}
		labels[msg.Type] = msg.Data
	}
	for _, label := range []string{"info", "orders", "vendorNotes"} {
		if _, ok := labels[label]; !ok {
			t.Fatalf("missing %s snapshot, got %v", label, labels)
		}
	}
	if strings.Contains(string(labels["info"]), created.LeaderToken) {
		t.Fatalf("leader token leaked over the socket")
	}

	// A store write pushes a fresh orders snapshot.
	if _, serr := svc.SaveOrder(context.Background(), created.GroupID, "", "阿明", map[string]int{"1": 1}); serr != nil {
		t.Fatalf("save order: %v", serr)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var update struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if update.Type != "orders" || !strings.Contains(string(update.Data), "阿明") {
		t.Fatalf("unexpected update %s %s", update.Type, update.Data)
	}

	// A debounced note edit lands in the store.
	if err := conn.WriteJSON(map[string]string{"action": "leaderNotes", "notes": "週五下午取貨"}); err != nil {
		t.Fatalf("write note: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		value, rerr := mem.ReadOnce(context.Background(), groupbuy.LeaderNotesPath(created.GroupID))
		if rerr != nil {
			t.Fatalf("read notes: %v", rerr)
		}
		if text, _ := value.(string); text == "週五下午取貨" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("debounced note never reached the store, got %#v", value)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
