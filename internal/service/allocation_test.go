package service

import (
	"testing"
	"time"

	"pulse-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func rows(specs ...models.Reservation) []models.Reservation {
	return specs
}

func TestReservedQuantity(t *testing.T) {
	active := rows(
		models.Reservation{CartID: "a", Quantity: 3},
		models.Reservation{CartID: "b", Quantity: 4},
	)

	assert.Equal(t, 7, ReservedQuantity(active, ""))
	assert.Equal(t, 4, ReservedQuantity(active, "a"))
	assert.Equal(t, 3, ReservedQuantity(active, "b"))
	assert.Equal(t, 0, ReservedQuantity(nil, ""))
}

func TestReservedQuantityNotCappedByStock(t *testing.T) {
	active := rows(
		models.Reservation{CartID: "a", Quantity: 50},
		models.Reservation{CartID: "b", Quantity: 60},
	)

	// The sum can exceed any plausible stock; callers compare it themselves.
	assert.Equal(t, 110, ReservedQuantity(active, ""))
}

func TestAllocatedQuantityFIFO(t *testing.T) {
	active := rows(
		models.Reservation{CartID: "a", Quantity: 3},
		models.Reservation{CartID: "b", Quantity: 4},
	)

	assert.Equal(t, 3, AllocatedQuantity(active, "a", 5))
	assert.Equal(t, 2, AllocatedQuantity(active, "b", 5))
}

func TestAllocatedQuantityLaterRowGetsZero(t *testing.T) {
	active := rows(
		models.Reservation{CartID: "a", Quantity: 5},
		models.Reservation{CartID: "b", Quantity: 2},
		models.Reservation{CartID: "c", Quantity: 1},
	)

	// Stock is exhausted by the first row; later rows are still visited and
	// attributed zero.
	assert.Equal(t, 5, AllocatedQuantity(active, "a", 5))
	assert.Equal(t, 0, AllocatedQuantity(active, "b", 5))
	assert.Equal(t, 0, AllocatedQuantity(active, "c", 5))
}

func TestAllocatedQuantityMultipleRowsSameCart(t *testing.T) {
	active := rows(
		models.Reservation{CartID: "a", Quantity: 2},
		models.Reservation{CartID: "b", Quantity: 2},
		models.Reservation{CartID: "a", Quantity: 3},
	)

	// Cart a claims [0,2) fully and [4,7) clipped to [4,6).
	assert.Equal(t, 4, AllocatedQuantity(active, "a", 6))
	assert.Equal(t, 2, AllocatedQuantity(active, "b", 6))
}

func TestAllocatedQuantityEdgeCases(t *testing.T) {
	active := rows(models.Reservation{CartID: "a", Quantity: 3})

	assert.Equal(t, 0, AllocatedQuantity(active, "a", 0))
	assert.Equal(t, 0, AllocatedQuantity(active, "a", -1))
	assert.Equal(t, 0, AllocatedQuantity(nil, "a", 5))
	assert.Equal(t, 0, AllocatedQuantity(active, "", 5))
	assert.Equal(t, 0, AllocatedQuantity(active, "unknown", 5))
}

func TestSortReservationsDeterministic(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	active := rows(
		models.Reservation{CartID: "z", CreatedAt: t2, Quantity: 1},
		models.Reservation{CartID: "b", CreatedAt: t1, Quantity: 1},
		models.Reservation{CartID: "a", CreatedAt: t1, Quantity: 1},
	)

	models.SortReservations(active)

	// Creation time first, then identity on ties.
	assert.Equal(t, "a", active[0].CartID)
	assert.Equal(t, "b", active[1].CartID)
	assert.Equal(t, "z", active[2].CartID)
}
