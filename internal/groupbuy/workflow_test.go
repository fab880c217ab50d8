package groupbuy

import "testing"

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusActive, StatusClosed, true},
		{StatusActive, StatusCompleted, true},
		{StatusClosed, StatusCompleted, true},
		{StatusClosed, StatusActive, false},
		{StatusCompleted, StatusActive, false},
		{StatusCompleted, StatusClosed, false},
		{StatusActive, StatusActive, false},
	}

	for _, tc := range cases {
		if got := CanTransitionStatus(tc.from, tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusDraft, OrderStatusSubmitted, true},
		{OrderStatusDraft, OrderStatusConfirmed, false},
		{OrderStatusSubmitted, OrderStatusDraft, true},
		{OrderStatusSubmitted, OrderStatusConfirmed, true},
		{OrderStatusConfirmed, OrderStatusSubmitted, true},
		{OrderStatusConfirmed, OrderStatusDraft, false},
		{OrderStatusDraft, OrderStatusDraft, false},
	}

	for _, tc := range cases {
		if got := CanTransitionOrderStatus(tc.from, tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestCanEditOrders(t *testing.T) {
	if !CanEditOrders(GroupInfo{Status: StatusActive, OrderStatus: OrderStatusSubmitted}) {
		t.Fatalf("active groups are editable regardless of order status")
	}
	if CanEditOrders(GroupInfo{Status: StatusClosed}) {
		t.Fatalf("closed groups are not editable")
	}
	if CanEditOrders(GroupInfo{Status: StatusCompleted}) {
		t.Fatalf("completed groups are not editable")
	}
}
