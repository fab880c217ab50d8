package groupbuy

import "fishball-groupbuy/internal/store"

// Store layout, unchanged from the document shape the views subscribe to:
//
//	groups/{groupId}/info
//	groups/{groupId}/orders/{orderId}
//	groups/{groupId}/vendorNotes
const GroupsPath = "groups"

func GroupPath(groupID string) string {
	return store.Join(GroupsPath, groupID)
}

func InfoPath(groupID string) string {
	return store.Join(GroupsPath, groupID, "info")
}

func LeaderTokenPath(groupID string) string {
	return store.Join(GroupsPath, groupID, "info", "leaderToken")
}

func LeaderNotesPath(groupID string) string {
	return store.Join(GroupsPath, groupID, "info", "leaderNotes")
}

func OrdersPath(groupID string) string {
	return store.Join(GroupsPath, groupID, "orders")
}

func OrderPath(groupID, orderID string) string {
	return store.Join(GroupsPath, groupID, "orders", orderID)
}

func VendorNotesPath(groupID string) string {
	return store.Join(GroupsPath, groupID, "vendorNotes")
}

func VendorNotesTextPath(groupID string) string {
	return store.Join(GroupsPath, groupID, "vendorNotes", "notes")
}

func ShippingStatusPath(groupID string) string {
	return store.Join(GroupsPath, groupID, "vendorNotes", "shippingStatus")
}

func PriceAdjustmentsPath(groupID string) string {
	return store.Join(GroupsPath, groupID, "vendorNotes", "priceAdjustments")
}

func PriceAdjustmentPath(groupID, productID string) string {
	return store.Join(GroupsPath, groupID, "vendorNotes", "priceAdjustments", productID)
}
