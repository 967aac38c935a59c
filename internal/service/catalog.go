package service

import (
	"context"

	"github.com/ikiraha/backend/internal/db"
	"github.com/ikiraha/backend/internal/model"
)

// CatalogStore is the persistence surface for restaurants and food items.
type CatalogStore interface {
	CreateRestaurant(ctx context.Context, req model.CreateRestaurantRequest) (*model.Restaurant, error)
	ListRestaurants(ctx context.Context, filter model.RestaurantFilter) ([]model.Restaurant, error)
	GetRestaurantByID(ctx context.Context, id int64) (*model.Restaurant, error)
	UpdateRestaurant(ctx context.Context, id int64, req model.UpdateRestaurantRequest) (*model.Restaurant, error)
	DeleteRestaurant(ctx context.Context, id int64) error

	CreateFoodItem(ctx context.Context, restaurantID int64, req model.CreateFoodItemRequest) (*model.FoodItem, error)
	ListFoodItems(ctx context.Context, restaurantID int64, filter model.FoodItemFilter) ([]model.FoodItem, error)
	GetFoodItemByID(ctx context.Context, id int64) (*model.FoodItem, error)
	UpdateFoodItem(ctx context.Context, id int64, req model.UpdateFoodItemRequest) (*model.FoodItem, error)
	DeleteFoodItem(ctx context.Context, id int64) error
}

type CatalogService struct {
	store CatalogStore
}

func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) CreateRestaurant(ctx context.Context, req model.CreateRestaurantRequest) (*model.Restaurant, error) {
	return s.store.CreateRestaurant(ctx, req)
}

func (s *CatalogService) ListRestaurants(ctx context.Context, filter model.RestaurantFilter) ([]model.Restaurant, error) {
	return s.store.ListRestaurants(ctx, filter)
}

func (s *CatalogService) GetRestaurant(ctx context.Context, id int64) (*model.Restaurant, error) {
	restaurant, err := s.store.GetRestaurantByID(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return restaurant, nil
}

func (s *CatalogService) UpdateRestaurant(ctx context.Context, id int64, req model.UpdateRestaurantRequest) (*model.Restaurant, error) {
	if isEmptyRestaurantUpdate(req) {
		return nil, ErrNoFields
	}

	restaurant, err := s.store.UpdateRestaurant(ctx, id, req)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return restaurant, nil
}

func (s *CatalogService) DeleteRestaurant(ctx context.Context, id int64) error {
	if err := s.store.DeleteRestaurant(ctx, id); err != nil {
		if db.IsNoRows(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// CreateFoodItem verifies the owning restaurant exists so a bad restaurant id
// reads as 404 rather than a foreign-key failure.
func (s *CatalogService) CreateFoodItem(ctx context.Context, restaurantID int64, req model.CreateFoodItemRequest) (*model.FoodItem, error) {
	if _, err := s.store.GetRestaurantByID(ctx, restaurantID); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.store.CreateFoodItem(ctx, restaurantID, req)
}

func (s *CatalogService) ListFoodItems(ctx context.Context, restaurantID int64, filter model.FoodItemFilter) ([]model.FoodItem, error) {
	if _, err := s.store.GetRestaurantByID(ctx, restaurantID); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.store.ListFoodItems(ctx, restaurantID, filter)
}

func (s *CatalogService) GetFoodItem(ctx context.Context, id int64) (*model.FoodItem, error) {
	item, err := s.store.GetFoodItemByID(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *CatalogService) UpdateFoodItem(ctx context.Context, id int64, req model.UpdateFoodItemRequest) (*model.FoodItem, error) {
	if isEmptyFoodItemUpdate(req) {
		return nil, ErrNoFields
	}

	item, err := s.store.UpdateFoodItem(ctx, id, req)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *CatalogService) DeleteFoodItem(ctx context.Context, id int64) error {
	if err := s.store.DeleteFoodItem(ctx, id); err != nil {
		if db.IsNoRows(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func isEmptyRestaurantUpdate(req model.UpdateRestaurantRequest) bool {
	return req.Name == nil && req.Description == nil && req.ImageURL == nil &&
		req.LogoURL == nil && req.Address == nil && req.Latitude == nil &&
		req.Longitude == nil && req.PhoneNumber == nil && req.Email == nil &&
		req.DeliveryTimeMinutes == nil && req.DeliveryFee == nil &&
		req.MinimumOrder == nil && req.IsOpen == nil && req.OpeningHours == nil &&
		req.ClosingHours == nil && req.IsPopular == nil && req.IsFeatured == nil &&
		req.Categories == nil
}

func isEmptyFoodItemUpdate(req model.UpdateFoodItemRequest) bool {
	return req.Name == nil && req.Description == nil && req.Price == nil &&
		req.DiscountPrice == nil && req.ImageURL == nil && req.Category == nil &&
		req.IsVegetarian == nil && req.IsVegan == nil && req.IsSpicy == nil &&
		req.PreparationTimeMinutes == nil && req.IsAvailable == nil &&
		req.Allergens == nil && req.Ingredients == nil
}
