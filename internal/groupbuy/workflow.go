package groupbuy

// The group lifecycle is a composite of two mostly independent axes.
//
// status gates editing:
//
//	active -> closed     (leader, manual, no reopen)
//	active -> completed  (vendor)
//	closed -> completed  (vendor)
//	completed is terminal
//
// orderStatus is the negotiation with the vendor:
//
//	draft -> submitted     (leader, needs at least one order)
//	submitted -> draft     (leader cancels submission)
//	submitted -> confirmed (vendor confirms receipt)
//	confirmed -> submitted (vendor cancels confirmation)
//
// Nothing enters completed automatically; every transition is an explicit
// actor action.

var statusTransitions = map[Status][]Status{
	StatusActive:    {StatusClosed, StatusCompleted},
	StatusClosed:    {StatusCompleted},
	StatusCompleted: {},
}

var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:     {OrderStatusSubmitted},
	OrderStatusSubmitted: {OrderStatusDraft, OrderStatusConfirmed},
	OrderStatusConfirmed: {OrderStatusSubmitted},
}

// CanTransitionStatus reports whether the active/closed/completed axis allows
// moving from one state to the other.
func CanTransitionStatus(from, to Status) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionOrderStatus reports whether the draft/submitted/confirmed axis
// allows moving from one state to the other.
func CanTransitionOrderStatus(from, to OrderStatus) bool {
	for _, next := range orderStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanEditOrders is the single advisory predicate gating order mutation. The
// store enforces no per-path permissions, so callers honoring this predicate
// is the entire write-protection model.
func CanEditOrders(info GroupInfo) bool {
	return info.Status == StatusActive
}
