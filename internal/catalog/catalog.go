package catalog

// Product is one fixed catalog entry. IDs are strings because they double as
// document keys in the store.
type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Unit  string  `json:"unit"`
}

var products = []Product{
	{ID: "1", Name: "牛蒡魚餅", Price: 160, Unit: "斤"},
	{ID: "2", Name: "花枝排", Price: 180, Unit: "斤"},
	{ID: "3", Name: "蝦丸", Price: 220, Unit: "斤"},
	{ID: "4", Name: "花枝丸", Price: 220, Unit: "斤"},
	{ID: "5", Name: "蝦卷", Price: 100, Unit: "4條"},
	{ID: "6", Name: "脆丸", Price: 180, Unit: "斤"},
	{ID: "7", Name: "香菇丸", Price: 180, Unit: "斤"},
	{ID: "8", Name: "豬肉貢丸", Price: 180, Unit: "斤"},
}

// Products returns the catalog in display order.
func Products() []Product {
	out := make([]Product, len(products))
	copy(out, products)
	return out
}

// Lookup returns the product for id, or false for ids outside the catalog.
func Lookup(id string) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
