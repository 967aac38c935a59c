package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ikiraha/backend/internal/model"
)

func TestBuildRestaurantSetSkipsNilFields(t *testing.T) {
	open := true
	fee := 2.5
	set, args := buildRestaurantSet(model.UpdateRestaurantRequest{
		Name:        strPtr("Bistro"),
		IsOpen:      &open,
		DeliveryFee: &fee,
	})

	assert.Equal(t, []string{
		"name = $1",
		"delivery_fee = $2",
		"is_open = $3",
	}, set)
	assert.Equal(t, []any{"Bistro", 2.5, true}, args)
}

func TestBuildRestaurantSetEmptyRequest(t *testing.T) {
	set, args := buildRestaurantSet(model.UpdateRestaurantRequest{})
	assert.Empty(t, set)
	assert.Empty(t, args)

	// Categories are handled by a child-table rewrite, not the SET clause.
	set, _ = buildRestaurantSet(model.UpdateRestaurantRequest{Categories: []string{"pizza"}})
	assert.Empty(t, set)
}
