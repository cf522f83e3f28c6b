package service

import (
	"testing"

	"pulse-service/internal/models"

	"github.com/stretchr/testify/assert"
)

const (
	productA = "0190b2c3d4e5f60718293a4b5c6d7e8f"
	productB = "11112222333344445555666677778888"
)

func TestCollectProductQuantitiesFlat(t *testing.T) {
	items := []models.LineItem{
		{Type: models.LineItemTypeProduct, ReferencedID: productA, Quantity: 2},
		{Type: models.LineItemTypeProduct, ReferencedID: productB, Quantity: 1},
	}

	got := CollectProductQuantities(items)

	assert.Equal(t, map[string]int{productA: 2, productB: 1}, got)
}

func TestCollectProductQuantitiesSumsDuplicates(t *testing.T) {
	items := []models.LineItem{
		{Type: models.LineItemTypeProduct, ReferencedID: productA, Quantity: 2},
		{Type: models.LineItemTypeProduct, ReferencedID: productA, Quantity: 3},
	}

	got := CollectProductQuantities(items)

	assert.Equal(t, 5, got[productA])
}

func TestCollectProductQuantitiesNested(t *testing.T) {
	items := []models.LineItem{
		{
			Type:     "bundle",
			Quantity: 1,
			Children: []models.LineItem{
				{Type: models.LineItemTypeProduct, ReferencedID: productA, Quantity: 2},
				{
					Type: "group",
					Children: []models.LineItem{
						{Type: models.LineItemTypeProduct, ReferencedID: productB, Quantity: 4},
					},
				},
			},
		},
		{Type: models.LineItemTypeProduct, ReferencedID: productA, Quantity: 1},
	}

	got := CollectProductQuantities(items)

	assert.Equal(t, map[string]int{productA: 3, productB: 4}, got)
}

func TestCollectProductQuantitiesSkipsNonProducts(t *testing.T) {
	items := []models.LineItem{
		{Type: "promotion", ReferencedID: productA, Quantity: 1},
		{Type: models.LineItemTypeProduct, ReferencedID: "not-a-product-id", Quantity: 1},
		{Type: models.LineItemTypeProduct, ReferencedID: "", Quantity: 1},
	}

	got := CollectProductQuantities(items)

	assert.Empty(t, got)
}

func TestCollectProductQuantitiesNegativeClampedToZero(t *testing.T) {
	items := []models.LineItem{
		{Type: models.LineItemTypeProduct, ReferencedID: productA, Quantity: -2},
	}

	got := CollectProductQuantities(items)

	assert.Equal(t, 0, got[productA])
}
