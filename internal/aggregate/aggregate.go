package aggregate

import (
	"fishball-groupbuy/internal/catalog"
	"fishball-groupbuy/internal/groupbuy"
	"fishball-groupbuy/internal/pricing"
)

// ProductTotal is the demand for one catalog product across all orders.
type ProductTotal struct {
	Quantity int     `json:"quantity"`
	Amount   float64 `json:"amount"`
}

// Result holds both sums the views display. They are computed independently
// and may legitimately disagree: PerProduct amounts use the prices in effect
// right now, GrandTotal adds up the cached per-order totals, which only catch
// up with a vendor price change when each order is resaved.
type Result struct {
	PerProduct map[string]ProductTotal `json:"perProduct"`
	GrandTotal float64                 `json:"grandTotal"`
}

// Compute derives the aggregation for a set of orders under the given price
// overrides. Pure and idempotent; safe to rerun on every redundant
// subscription notification. Unknown product ids inside orders are skipped.
func Compute(orders map[string]groupbuy.Order, overrides map[string]float64) Result {
	perProduct := make(map[string]ProductTotal, len(catalog.Products()))
	for _, product := range catalog.Products() {
		perProduct[product.ID] = ProductTotal{}
	}

	var grandTotal float64
	for _, order := range orders {
		grandTotal += order.Total
		for productID, quantity := range order.Items {
			totals, known := perProduct[productID]
			if !known || quantity <= 0 {
				continue
			}
			totals.Quantity += quantity
			totals.Amount += pricing.EffectivePrice(productID, overrides) * float64(quantity)
			perProduct[productID] = totals
		}
	}

	return Result{PerProduct: perProduct, GrandTotal: grandTotal}
}
