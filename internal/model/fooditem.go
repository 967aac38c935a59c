package model

import "time"

type FoodItem struct {
	ID                     int64     `json:"id"`
	RestaurantID           int64     `json:"restaurantId"`
	Name                   string    `json:"name"`
	Description            *string   `json:"description"`
	Price                  float64   `json:"price"`
	DiscountPrice          *float64  `json:"discountPrice"`
	ImageURL               *string   `json:"imageUrl"`
	Category               string    `json:"category"`
	Rating                 float64   `json:"rating"`
	ReviewCount            int       `json:"reviewCount"`
	IsVegetarian           bool      `json:"isVegetarian"`
	IsVegan                bool      `json:"isVegan"`
	IsSpicy                bool      `json:"isSpicy"`
	PreparationTimeMinutes int       `json:"preparationTimeMinutes"`
	IsAvailable            bool      `json:"isAvailable"`
	Allergens              *string   `json:"allergens"`
	Ingredients            []string  `json:"ingredients"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

type CreateFoodItemRequest struct {
	Name                   string   `json:"name" binding:"required,min=2,max=255"`
	Description            *string  `json:"description" binding:"omitempty,max=1000"`
	Price                  float64  `json:"price" binding:"required,gt=0"`
	DiscountPrice          *float64 `json:"discountPrice" binding:"omitempty,min=0"`
	ImageURL               *string  `json:"imageUrl" binding:"omitempty,url"`
	Category               string   `json:"category" binding:"required"`
	IsVegetarian           bool     `json:"isVegetarian"`
	IsVegan                bool     `json:"isVegan"`
	IsSpicy                bool     `json:"isSpicy"`
	PreparationTimeMinutes int      `json:"preparationTimeMinutes" binding:"omitempty,min=1,max=180"`
	Allergens              *string  `json:"allergens"`
	Ingredients            []string `json:"ingredients"`
}

type UpdateFoodItemRequest struct {
	Name                   *string  `json:"name" binding:"omitempty,min=2,max=255"`
	Description            *string  `json:"description" binding:"omitempty,max=1000"`
	Price                  *float64 `json:"price" binding:"omitempty,gt=0"`
	DiscountPrice          *float64 `json:"discountPrice" binding:"omitempty,min=0"`
	ImageURL               *string  `json:"imageUrl" binding:"omitempty,url"`
	Category               *string  `json:"category"`
	IsVegetarian           *bool    `json:"isVegetarian"`
	IsVegan                *bool    `json:"isVegan"`
	IsSpicy                *bool    `json:"isSpicy"`
	PreparationTimeMinutes *int     `json:"preparationTimeMinutes" binding:"omitempty,min=1,max=180"`
	IsAvailable            *bool    `json:"isAvailable"`
	Allergens              *string  `json:"allergens"`
	Ingredients            []string `json:"ingredients"`
}

// FoodItemFilter narrows a restaurant's item listing.
type FoodItemFilter struct {
	Category      string
	AvailableOnly bool
	Vegetarian    bool
}
