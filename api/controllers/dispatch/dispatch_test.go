package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mealdash/mealdash-backend/api/middleware"
	internalorders "github.com/mealdash/mealdash-backend/internal/orders"
	"github.com/mealdash/mealdash-backend/pkg/enums"
	"github.com/mealdash/mealdash-backend/pkg/pagination"
)

type stubOrdersService struct {
	assign func(ctx context.Context, input internalorders.AssignRiderInput) (*internalorders.OrderView, error)
	update func(ctx context.Context, input internalorders.UpdateStatusInput) (*internalorders.OrderView, error)
	abort  func(ctx context.Context, orderID uuid.UUID, reason *string) error
	get    func(ctx context.Context, orderID uuid.UUID) (*internalorders.OrderView, error)
}

func (s *stubOrdersService) PlaceOrder(ctx context.Context, input internalorders.PlaceOrderInput) (*internalorders.OrderView, error) {
	return nil, nil
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, input internalorders.UpdateStatusInput) (*internalorders.OrderView, error) {
	return s.update(ctx, input)
}

func (s *stubOrdersService) AssignRider(ctx context.Context, input internalorders.AssignRiderInput) (*internalorders.OrderView, error) {
	return s.assign(ctx, input)
}

func (s *stubOrdersService) CancelOrder(ctx context.Context, orderID, userID uuid.UUID, reason *string) error {
	return nil
}

func (s *stubOrdersService) AbortOrder(ctx context.Context, orderID uuid.UUID, reason *string) error {
	return s.abort(ctx, orderID, reason)
}

func (s *stubOrdersService) SetRinged(ctx context.Context, orderID uuid.UUID, ringed bool) error {
	return nil
}

func (s *stubOrdersService) GetOrder(ctx context.Context, orderID uuid.UUID) (*internalorders.OrderView, error) {
	return s.get(ctx, orderID)
}

func (s *stubOrdersService) ListRestaurantOrders(ctx context.Context, restaurantID uuid.UUID, params pagination.Params, filters internalorders.OrderFilters) (*internalorders.OrderList, error) {
	return nil, nil
}

func (s *stubOrdersService) ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params, filters internalorders.OrderFilters) (*internalorders.OrderList, error) {
	return nil, nil
}

func (s *stubOrdersService) ListRiderOrders(ctx context.Context, riderID uuid.UUID, params pagination.Params, filters internalorders.OrderFilters) (*internalorders.OrderList, error) {
	return nil, nil
}

func dispatchRequest(t *testing.T, method, target string, body any, orderID uuid.UUID, adminID uuid.UUID) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", orderID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithActor(ctx, adminID.String(), enums.ActorRoleAdmin)
	return req.WithContext(ctx)
}

func TestAssignForwardsRider(t *testing.T) {
	orderID := uuid.New()
	riderID := uuid.New()

	var got internalorders.AssignRiderInput
	svc := &stubOrdersService{
		assign: func(ctx context.Context, input internalorders.AssignRiderInput) (*internalorders.OrderView, error) {
			got = input
			return &internalorders.OrderView{ID: input.OrderID}, nil
		},
	}

	req := dispatchRequest(t, http.MethodPost, "/api/v1/dispatch/orders/"+orderID.String()+"/assign",
		map[string]string{"rider_id": riderID.String()}, orderID, uuid.New())
	resp := httptest.NewRecorder()
	Assign(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if got.OrderID != orderID || got.RiderID != riderID {
		t.Fatalf("unexpected assign input: %+v", got)
	}
}

func TestAssignRejectsMalformedRiderID(t *testing.T) {
	svc := &stubOrdersService{
		assign: func(ctx context.Context, input internalorders.AssignRiderInput) (*internalorders.OrderView, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := dispatchRequest(t, http.MethodPost, "/api/v1/dispatch/orders/x/assign",
		map[string]string{"rider_id": "not-a-uuid"}, uuid.New(), uuid.New())
	resp := httptest.NewRecorder()
	Assign(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOverrideStatusCancelAborts(t *testing.T) {
	orderID := uuid.New()
	reason := "restaurant closed early"

	var aborted bool
	var gotReason *string
	svc := &stubOrdersService{
		abort: func(ctx context.Context, id uuid.UUID, r *string) error {
			aborted = true
			gotReason = r
			if id != orderID {
				t.Fatalf("unexpected order id %s", id)
			}
			return nil
		},
		get: func(ctx context.Context, id uuid.UUID) (*internalorders.OrderView, error) {
			return &internalorders.OrderView{ID: id, Status: enums.OrderStatusCancelled}, nil
		},
		update: func(ctx context.Context, input internalorders.UpdateStatusInput) (*internalorders.OrderView, error) {
			t.Fatal("cancel must go through abort, not update")
			return nil, nil
		},
	}

	req := dispatchRequest(t, http.MethodPost, "/api/v1/dispatch/orders/"+orderID.String()+"/status",
		map[string]any{"status": "CANCELLED", "reason": reason}, orderID, uuid.New())
	resp := httptest.NewRecorder()
	OverrideStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !aborted {
		t.Fatal("expected abort to be invoked")
	}
	if gotReason == nil || *gotReason != reason {
		t.Fatalf("expected reason %q, got %v", reason, gotReason)
	}
}

func TestOverrideStatusActsAsAdmin(t *testing.T) {
	orderID := uuid.New()
	adminID := uuid.New()

	var got internalorders.UpdateStatusInput
	svc := &stubOrdersService{
		update: func(ctx context.Context, input internalorders.UpdateStatusInput) (*internalorders.OrderView, error) {
			got = input
			return &internalorders.OrderView{ID: input.OrderID, Status: input.Status}, nil
		},
	}

	req := dispatchRequest(t, http.MethodPost, "/api/v1/dispatch/orders/"+orderID.String()+"/status",
		map[string]string{"status": "PICKED"}, orderID, adminID)
	resp := httptest.NewRecorder()
	OverrideStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if got.ActorRole != enums.ActorRoleAdmin {
		t.Fatalf("expected admin actor role, got %s", got.ActorRole)
	}
	if got.ActorID != adminID || got.Status != enums.OrderStatusPicked {
		t.Fatalf("unexpected update input: %+v", got)
	}
}

func TestOverrideStatusRejectsUnknownStatus(t *testing.T) {
	svc := &stubOrdersService{}

	req := dispatchRequest(t, http.MethodPost, "/api/v1/dispatch/orders/x/status",
		map[string]string{"status": "TELEPORTED"}, uuid.New(), uuid.New())
	resp := httptest.NewRecorder()
	OverrideStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
