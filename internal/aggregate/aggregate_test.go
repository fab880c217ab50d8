package aggregate

import (
	"reflect"
	"testing"

	"fishball-groupbuy/internal/catalog"
	"fishball-groupbuy/internal/groupbuy"
)

func TestComputeEmptyOrders(t *testing.T) {
	result := Compute(map[string]groupbuy.Order{}, nil)

	if result.GrandTotal != 0 {
		t.Fatalf("expected zero grand total, got %v", result.GrandTotal)
	}
	if len(result.PerProduct) != len(catalog.Products()) {
		t.Fatalf("expected %d catalog entries, got %d", len(catalog.Products()), len(result.PerProduct))
	}
	for productID, totals := range result.PerProduct {
		if totals.Quantity != 0 || totals.Amount != 0 {
			t.Fatalf("expected zero totals for %s, got %+v", productID, totals)
		}
	}
}

func TestComputeSumsQuantities(t *testing.T) {
	orders := map[string]groupbuy.Order{
		"a": {MemberName: "阿明", Items: map[string]int{"1": 2, "3": 1}, Total: 540},
		"b": {MemberName: "小華", Items: map[string]int{"1": 1, "99": 4}, Total: 160},
		"c": {MemberName: "阿珠", Items: map[string]int{"2": 0}, Total: 0},
	}

	result := Compute(orders, nil)

	if got := result.PerProduct["1"].Quantity; got != 3 {
		t.Fatalf("expected quantity 3 for product 1, got %d", got)
	}
	if got := result.PerProduct["1"].Amount; got != 480 {
		t.Fatalf("expected amount 480 for product 1, got %v", got)
	}
	if got := result.PerProduct["2"].Quantity; got != 0 {
		t.Fatalf("zero quantity must not count, got %d", got)
	}
	if _, ok := result.PerProduct["99"]; ok {
		t.Fatalf("unknown product must not appear in aggregation")
	}
	if result.GrandTotal != 700 {
		t.Fatalf("expected grand total 700, got %v", result.GrandTotal)
	}
}

// Vendor price changes after an order is saved make the two sums diverge on
// purpose: the per-product amounts follow live prices, the grand total follows
// the cached order totals until each order is resaved.
func TestComputeDivergesAfterPriceOverride(t *testing.T) {
	orders := map[string]groupbuy.Order{
		"a": {MemberName: "A", Items: map[string]int{"1": 2}, Total: 320},
	}
	overrides := map[string]float64{"1": 150}

	result := Compute(orders, overrides)

	if got := result.PerProduct["1"].Amount; got != 300 {
		t.Fatalf("expected live amount 300, got %v", got)
	}
	if result.GrandTotal != 320 {
		t.Fatalf("expected cached grand total 320, got %v", result.GrandTotal)
	}

	// Resaving the order at the new price reconciles them.
	orders["a"] = groupbuy.Order{MemberName: "A", Items: map[string]int{"1": 2}, Total: 300}
	result = Compute(orders, overrides)
	if result.GrandTotal != 300 {
		t.Fatalf("expected grand total 300 after resave, got %v", result.GrandTotal)
	}
}

func TestComputeIdempotent(t *testing.T) {
	orders := map[string]groupbuy.Order{
		"a": {MemberName: "A", Items: map[string]int{"1": 2, "5": 3}, Total: 620},
		"b": {MemberName: "B", Items: map[string]int{"8": 1}, Total: 180},
	}
	overrides := map[string]float64{"5": 90}

	first := Compute(orders, overrides)
	second := Compute(orders, overrides)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("aggregation is not idempotent: %+v vs %+v", first, second)
	}
}
