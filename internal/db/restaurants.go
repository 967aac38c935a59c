package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ikiraha/backend/internal/model"
)

const restaurantColumns = `
	id, name, description, image_url, logo_url, address, latitude, longitude,
	phone_number, email, rating, review_count, delivery_time_minutes,
	delivery_fee, minimum_order, is_open, opening_hours, closing_hours,
	is_popular, is_featured, created_at, updated_at
`

func scanRestaurant(row pgx.Row) (*model.Restaurant, error) {
	var r model.Restaurant
	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Description,
		&r.ImageURL,
		&r.LogoURL,
		&r.Address,
		&r.Latitude,
		&r.Longitude,
		&r.PhoneNumber,
		&r.Email,
		&r.Rating,
		&r.ReviewCount,
		&r.DeliveryTimeMinutes,
		&r.DeliveryFee,
		&r.MinimumOrder,
		&r.IsOpen,
		&r.OpeningHours,
		&r.ClosingHours,
		&r.IsPopular,
		&r.IsFeatured,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (db *Postgres) CreateRestaurant(ctx context.Context, req model.CreateRestaurantRequest) (*model.Restaurant, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	deliveryTime := req.DeliveryTimeMinutes
	if deliveryTime == 0 {
		deliveryTime = 30
	}
	opening := req.OpeningHours
	if opening == "" {
		opening = "09:00"
	}
	closing := req.ClosingHours
	if closing == "" {
		closing = "22:00"
	}

	restaurant, err := scanRestaurant(tx.QueryRow(ctx, `
		INSERT INTO restaurants (
			name, description, image_url, logo_url, address, latitude, longitude,
			phone_number, email, delivery_time_minutes, delivery_fee, minimum_order,
			opening_hours, closing_hours
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING`+restaurantColumns,
		req.Name, req.Description, req.ImageURL, req.LogoURL, req.Address,
		req.Latitude, req.Longitude, req.PhoneNumber, req.Email,
		deliveryTime, req.DeliveryFee, req.MinimumOrder, opening, closing,
	))
	if err != nil {
		return nil, err
	}

	for _, category := range req.Categories {
		if _, err = tx.Exec(ctx, `
			INSERT INTO restaurant_categories (restaurant_id, category) VALUES ($1, $2)
		`, restaurant.ID, category); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	restaurant.Categories = append([]string{}, req.Categories...)
	return restaurant, nil
}

func (db *Postgres) ListRestaurants(ctx context.Context, filter model.RestaurantFilter) ([]model.Restaurant, error) {
	var where []string
	var args []any

	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf(
			"id IN (SELECT restaurant_id FROM restaurant_categories WHERE category = $%d)", len(args)))
	}
	if filter.Popular {
		where = append(where, "is_popular = TRUE")
	}
	if filter.Featured {
		where = append(where, "is_featured = TRUE")
	}
	if filter.OpenOnly {
		where = append(where, "is_open = TRUE")
	}

	query := `SELECT` + restaurantColumns + `FROM restaurants`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rating DESC, created_at DESC"

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *r)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	if list == nil {
		list = []model.Restaurant{}
	}

	if err := db.attachCategories(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (db *Postgres) GetRestaurantByID(ctx context.Context, id int64) (*model.Restaurant, error) {
	restaurant, err := scanRestaurant(db.Pool.QueryRow(ctx,
		`SELECT`+restaurantColumns+`FROM restaurants WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	categories, err := db.restaurantCategories(ctx, restaurant.ID)
	if err != nil {
		return nil, err
	}
	restaurant.Categories = categories
	return restaurant, nil
}

func (db *Postgres) UpdateRestaurant(ctx context.Context, id int64, req model.UpdateRestaurantRequest) (*model.Restaurant, error) {
	set, args := buildRestaurantSet(req)
	if len(set) == 0 && req.Categories == nil {
		return nil, fmt.Errorf("no fields to update")
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var restaurant *model.Restaurant
	if len(set) > 0 {
		args = append(args, id)
		query := fmt.Sprintf(
			`UPDATE restaurants SET %s, updated_at = NOW() WHERE id = $%d RETURNING`+restaurantColumns,
			strings.Join(set, ", "), len(args),
		)
		restaurant, err = scanRestaurant(tx.QueryRow(ctx, query, args...))
	} else {
		restaurant, err = scanRestaurant(tx.QueryRow(ctx,
			`SELECT`+restaurantColumns+`FROM restaurants WHERE id = $1`, id))
	}
	if err != nil {
		return nil, err
	}

	if req.Categories != nil {
		if _, err = tx.Exec(ctx, `DELETE FROM restaurant_categories WHERE restaurant_id = $1`, id); err != nil {
			return nil, err
		}
		for _, category := range req.Categories {
			if _, err = tx.Exec(ctx, `
				INSERT INTO restaurant_categories (restaurant_id, category) VALUES ($1, $2)
			`, id, category); err != nil {
				return nil, err
			}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	categories, err := db.restaurantCategories(ctx, id)
	if err != nil {
		return nil, err
	}
	restaurant.Categories = categories
	return restaurant, nil
}

// DeleteRestaurant removes the row; categories and food items cascade.
func (db *Postgres) DeleteRestaurant(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM restaurants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (db *Postgres) restaurantCategories(ctx context.Context, restaurantID int64) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT category FROM restaurant_categories WHERE restaurant_id = $1 ORDER BY category
	`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (db *Postgres) attachCategories(ctx context.Context, restaurants []model.Restaurant) error {
	if len(restaurants) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(restaurants))
	index := make(map[int64]int, len(restaurants))
	for i := range restaurants {
		restaurants[i].Categories = []string{}
		ids = append(ids, restaurants[i].ID)
		index[restaurants[i].ID] = i
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT restaurant_id, category
		FROM restaurant_categories
		WHERE restaurant_id = ANY($1)
		ORDER BY category
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var restaurantID int64
		var category string
		if err := rows.Scan(&restaurantID, &category); err != nil {
			return err
		}
		i := index[restaurantID]
		restaurants[i].Categories = append(restaurants[i].Categories, category)
	}
	return rows.Err()
}

func buildRestaurantSet(req model.UpdateRestaurantRequest) ([]string, []any) {
	var set []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Name != nil {
		add("name", *req.Name)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.ImageURL != nil {
		add("image_url", *req.ImageURL)
	}
	if req.LogoURL != nil {
		add("logo_url", *req.LogoURL)
	}
	if req.Address != nil {
		add("address", *req.Address)
	}
	if req.Latitude != nil {
		add("latitude", *req.Latitude)
	}
	if req.Longitude != nil {
		add("longitude", *req.Longitude)
	}
	if req.PhoneNumber != nil {
		add("phone_number", *req.PhoneNumber)
	}
	if req.Email != nil {
		add("email", *req.Email)
	}
	if req.DeliveryTimeMinutes != nil {
		add("delivery_time_minutes", *req.DeliveryTimeMinutes)
	}
	if req.DeliveryFee != nil {
		add("delivery_fee", *req.DeliveryFee)
	}
	if req.MinimumOrder != nil {
		add("minimum_order", *req.MinimumOrder)
	}
	if req.IsOpen != nil {
		add("is_open", *req.IsOpen)
	}
	if req.OpeningHours != nil {
		add("opening_hours", *req.OpeningHours)
	}
	if req.ClosingHours != nil {
		add("closing_hours", *req.ClosingHours)
	}
	if req.IsPopular != nil {
		add("is_popular", *req.IsPopular)
	}
	if req.IsFeatured != nil {
		add("is_featured", *req.IsFeatured)
	}
	return set, args
}
