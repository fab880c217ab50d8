package pricing

import "fishball-groupbuy/internal/catalog"

// EffectivePrice resolves the unit price for a product inside one group.
// Presence of the key in overrides is the override signal, so a vendor price of
// 0 would win over the catalog; the write surface clears overrides by removing
// the key instead of storing 0. Unknown products resolve to 0.
//
// Every price calculation in the service routes through here so leader, member
// and vendor views cannot drift.
func EffectivePrice(productID string, overrides map[string]float64) float64 {
	if price, ok := overrides[productID]; ok {
		return price
	}
	if product, ok := catalog.Lookup(productID); ok {
		return product.Price
	}
	return 0
}

// OrderTotal computes one member's total from quantities and the group's
// overrides. Zero quantities and unknown products contribute nothing.
func OrderTotal(items map[string]int, overrides map[string]float64) float64 {
	var total float64
	for productID, quantity := range items {
		if quantity <= 0 {
			continue
		}
		total += EffectivePrice(productID, overrides) * float64(quantity)
	}
	return total
}
