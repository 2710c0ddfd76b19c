package payment

import "strings"

// Catalog is the store's product list in display order.
func Catalog() []Product {
	return []Product{
		{ID: "supporter", Title: "Supporter Package", Price: "$10.00"},
		{ID: "hero", Title: "Hero Package", Price: "$25.00"},
		{ID: "legend", Title: "Legend Package", Price: "$50.00"},
		{ID: "weapon", Title: "Legendary Weapon", Price: "$5.00"},
		{ID: "armor", Title: "Elite Armor Set", Price: "$8.00"},
		{ID: "resources", Title: "Resource Pack", Price: "$3.00"},
		{ID: "vip", Title: "VIP Status (1 Month)", Price: "$15.00"},
		{ID: "boost", Title: "Experience Boost (7 Days)", Price: "$4.00"},
		{ID: "custom", Title: "Custom Name Color", Price: "$2.00"},
	}
}

// FindProduct looks a product up by id or by title, ignoring case.
func FindProduct(key string) (*Product, bool) {
	key = strings.TrimSpace(key)
	for _, p := range Catalog() {
		if strings.EqualFold(p.ID, key) || strings.EqualFold(p.Title, key) {
			return &p, true
		}
	}
	return nil, false
}
