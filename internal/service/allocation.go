package service

import "pulse-service/internal/models"

// ReservedQuantity sums the quantity held across active ledger rows,
// optionally leaving out one cart's own row. The sum is deliberately not
// capped by stock: competing carts can over-claim, and callers compare the
// raw sum against stock themselves.
func ReservedQuantity(rows []models.Reservation, excludingCartID string) int {
	total := 0
	for _, row := range rows {
		if excludingCartID != "" && row.CartID == excludingCartID {
			continue
		}
		if row.Quantity > 0 {
			total += row.Quantity
		}
	}
	return total
}

// AllocatedQuantity answers how many units the target cart would be
// guaranteed if stock were handed out strictly in reservation order. Each row
// claims the half-open range [cursor, cursor+qty); the part of that range
// falling inside [0, stock) belongs to the row's cart. The walk visits every
// row: a row past the stock boundary still advances the cursor and simply
// contributes zero.
func AllocatedQuantity(rows []models.Reservation, cartID string, stock int) int {
	if stock < 1 || cartID == "" {
		return 0
	}

	cursor := 0
	allocated := 0
	for _, row := range rows {
		qty := row.Quantity
		if qty < 1 {
			continue
		}

		end := cursor + qty
		overlap := min(end, stock) - cursor
		if overlap > 0 && row.CartID == cartID {
			allocated += overlap
		}

		cursor = end
	}

	return allocated
}
