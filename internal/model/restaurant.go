package model

import "time"

type Restaurant struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	Description         *string   `json:"description"`
	ImageURL            *string   `json:"imageUrl"`
	LogoURL             *string   `json:"logoUrl"`
	Address             string    `json:"address"`
	Latitude            *float64  `json:"latitude"`
	Longitude           *float64  `json:"longitude"`
	PhoneNumber         *string   `json:"phoneNumber"`
	Email               *string   `json:"email"`
	Rating              float64   `json:"rating"`
	ReviewCount         int       `json:"reviewCount"`
	DeliveryTimeMinutes int       `json:"deliveryTimeMinutes"`
	DeliveryFee         float64   `json:"deliveryFee"`
	MinimumOrder        float64   `json:"minimumOrder"`
	IsOpen              bool      `json:"isOpen"`
	OpeningHours        string    `json:"openingHours"`
	ClosingHours        string    `json:"closingHours"`
	IsPopular           bool      `json:"isPopular"`
	IsFeatured          bool      `json:"isFeatured"`
	Categories          []string  `json:"categories"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

type CreateRestaurantRequest struct {
	Name                string   `json:"name" binding:"required,min=2,max=255"`
	Description         *string  `json:"description" binding:"omitempty,max=1000"`
	ImageURL            *string  `json:"imageUrl" binding:"omitempty,url"`
	LogoURL             *string  `json:"logoUrl" binding:"omitempty,url"`
	Address             string   `json:"address" binding:"required"`
	Latitude            *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude           *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
	PhoneNumber         *string  `json:"phoneNumber" binding:"omitempty,e164"`
	Email               *string  `json:"email" binding:"omitempty,email"`
	DeliveryTimeMinutes int      `json:"deliveryTimeMinutes" binding:"omitempty,min=1,max=120"`
	DeliveryFee         float64  `json:"deliveryFee" binding:"omitempty,min=0"`
	MinimumOrder        float64  `json:"minimumOrder" binding:"omitempty,min=0"`
	OpeningHours        string   `json:"openingHours"`
	ClosingHours        string   `json:"closingHours"`
	Categories          []string `json:"categories"`
}

type UpdateRestaurantRequest struct {
	Name                *string  `json:"name" binding:"omitempty,min=2,max=255"`
	Description         *string  `json:"description" binding:"omitempty,max=1000"`
	ImageURL            *string  `json:"imageUrl" binding:"omitempty,url"`
	LogoURL             *string  `json:"logoUrl" binding:"omitempty,url"`
	Address             *string  `json:"address"`
	Latitude            *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude           *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
	PhoneNumber         *string  `json:"phoneNumber" binding:"omitempty,e164"`
	Email               *string  `json:"email" binding:"omitempty,email"`
	DeliveryTimeMinutes *int     `json:"deliveryTimeMinutes" binding:"omitempty,min=1,max=120"`
	DeliveryFee         *float64 `json:"deliveryFee" binding:"omitempty,min=0"`
	MinimumOrder        *float64 `json:"minimumOrder" binding:"omitempty,min=0"`
	IsOpen              *bool    `json:"isOpen"`
	OpeningHours        *string  `json:"openingHours"`
	ClosingHours        *string  `json:"closingHours"`
	IsPopular           *bool    `json:"isPopular"`
	IsFeatured          *bool    `json:"isFeatured"`
	Categories          []string `json:"categories"`
}

// RestaurantFilter narrows the public restaurant listing.
type RestaurantFilter struct {
	Category string
	Popular  bool
	Featured bool
	OpenOnly bool
}
