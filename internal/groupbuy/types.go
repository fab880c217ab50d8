package groupbuy

import "encoding/json"

type Status string

const (
	StatusActive    Status = "active"
	StatusClosed    Status = "closed"
	StatusCompleted Status = "completed"
)

type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusSubmitted OrderStatus = "submitted"
	OrderStatusConfirmed OrderStatus = "confirmed"
)

type ShippingStatus string

const (
	ShippingPending   ShippingStatus = "pending"
	ShippingPreparing ShippingStatus = "preparing"
	ShippingShipped   ShippingStatus = "shipped"
	ShippingDelivered ShippingStatus = "delivered"
)

func ValidShippingStatus(s ShippingStatus) bool {
	switch s {
	case ShippingPending, ShippingPreparing, ShippingShipped, ShippingDelivered:
		return true
	}
	return false
}

// GroupInfo is the `info` subtree of a group document. Timestamps are epoch
// milliseconds; the nullable ones are set and cleared only by workflow
// transitions.
type GroupInfo struct {
	Name        string      `json:"name"`
	Phone       string      `json:"phone"`
	Location    string      `json:"location"`
	Date        string      `json:"date"`
	LeaderToken string      `json:"leaderToken,omitempty"`
	LeaderNotes string      `json:"leaderNotes"`
	CreatedAt   int64       `json:"createdAt"`
	Status      Status      `json:"status"`
	OrderStatus OrderStatus `json:"orderStatus"`
	SubmittedAt *int64      `json:"submittedAt,omitempty"`
	ConfirmedAt *int64      `json:"confirmedAt,omitempty"`
	CompletedAt *int64      `json:"completedAt,omitempty"`
}

// Order is one member's quantities plus the cached total. An item key with
// quantity 0 is meaningful: the member touched the product and put it back.
// Total is a projection of items at the prices in effect when the order was
// last saved; it goes stale on purpose when the vendor adjusts prices later.
type Order struct {
	MemberName string         `json:"memberName"`
	Items      map[string]int `json:"items"`
	Total      float64        `json:"total"`
	UpdatedAt  int64          `json:"updatedAt"`
}

// VendorNotes is the vendor-owned subtree: fulfillment state, free-text notes
// and per-product price overrides.
type VendorNotes struct {
	ShippingStatus   ShippingStatus     `json:"shippingStatus"`
	Notes            string             `json:"notes"`
	PriceAdjustments map[string]float64 `json:"priceAdjustments"`
}

// Group is the full document rooted at groups/{id}.
type Group struct {
	ID          string           `json:"id"`
	Info        GroupInfo        `json:"info"`
	Orders      map[string]Order `json:"orders"`
	VendorNotes VendorNotes      `json:"vendorNotes"`
}

// decodeValue converts a store snapshot (JSON-shaped maps) into a typed value.
func decodeValue(value any, out any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// encodeValue converts a typed value into the map form the store persists.
func encodeValue(in any) (map[string]any, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
