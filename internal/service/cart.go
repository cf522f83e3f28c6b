package service

import (
	"pulse-service/internal/identity"
	"pulse-service/internal/models"
)

// CollectProductQuantities walks a cart's full line-item tree and returns the
// total quantity per product. Only product-type items with a valid product id
// count; duplicate references to the same product are summed, including ones
// nested inside bundles or grouped items.
func CollectProductQuantities(items []models.LineItem) map[string]int {
	quantities := make(map[string]int)
	collectQuantities(items, quantities)
	return quantities
}

func collectQuantities(items []models.LineItem, quantities map[string]int) {
	for _, item := range items {
		if item.Type == models.LineItemTypeProduct && identity.IsValidProductID(item.ReferencedID) {
			qty := item.Quantity
			if qty < 0 {
				qty = 0
			}
			quantities[item.ReferencedID] += qty
		}

		if len(item.Children) > 0 {
			collectQuantities(item.Children, quantities)
		}
	}
}
