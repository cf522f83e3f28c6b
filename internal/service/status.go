package service

import (
	"time"

	"pulse-service/internal/models"
)

// StatusFacts are the inputs to the status decision table.
type StatusFacts struct {
	Active            bool
	Stock             int
	EffectiveStock    int
	ReservedQuantity  int
	AllocatedQuantity int
	MinPurchase       float64
	IsCloseout        bool
	RestockTime       int
	HasDeliveryTime   bool
	ReleaseDate       *time.Time
}

// ResolveStatus maps product facts and allocation results to a display
// status. The rules are ordered and the first match wins. A cart whose FIFO
// allocation already covers its minimum purchase is told "available" even
// when other carts make the effective stock look insufficient; "reserved" is
// kept for the carts that would lose the race.
func ResolveStatus(f StatusFacts) string {
	if !f.Active {
		return models.StatusNotAvailable
	}

	if f.ReleaseDate != nil && f.ReleaseDate.After(time.Now()) {
		return models.StatusPreorder
	}

	if float64(f.EffectiveStock) >= f.MinPurchase {
		return models.StatusAvailable
	}

	if float64(f.Stock) >= f.MinPurchase && float64(f.AllocatedQuantity) >= f.MinPurchase {
		return models.StatusAvailable
	}

	if float64(f.Stock) >= f.MinPurchase && f.ReservedQuantity > 0 && float64(f.AllocatedQuantity) < f.MinPurchase {
		return models.StatusReserved
	}

	if f.IsCloseout {
		return models.StatusSoldout
	}

	if f.RestockTime > 0 && f.HasDeliveryTime {
		return models.StatusRestock
	}

	return models.StatusNotAvailable
}
