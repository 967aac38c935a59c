package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ikiraha/backend/internal/model"
)

const foodItemColumns = `
	id, restaurant_id, name, description, price, discount_price, image_url,
	category, rating, review_count, is_vegetarian, is_vegan, is_spicy,
	preparation_time_minutes, is_available, allergens, created_at, updated_at
`

func scanFoodItem(row pgx.Row) (*model.FoodItem, error) {
	var f model.FoodItem
	err := row.Scan(
		&f.ID,
		&f.RestaurantID,
		&f.Name,
		&f.Description,
		&f.Price,
		&f.DiscountPrice,
		&f.ImageURL,
		&f.Category,
		&f.Rating,
		&f.ReviewCount,
		&f.IsVegetarian,
		&f.IsVegan,
		&f.IsSpicy,
		&f.PreparationTimeMinutes,
		&f.IsAvailable,
		&f.Allergens,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (db *Postgres) CreateFoodItem(ctx context.Context, restaurantID int64, req model.CreateFoodItemRequest) (*model.FoodItem, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	prepTime := req.PreparationTimeMinutes
	if prepTime == 0 {
		prepTime = 30
	}

	item, err := scanFoodItem(tx.QueryRow(ctx, `
		INSERT INTO food_items (
			restaurant_id, name, description, price, discount_price, image_url,
			category, is_vegetarian, is_vegan, is_spicy, preparation_time_minutes, allergens
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING`+foodItemColumns,
		restaurantID, req.Name, req.Description, req.Price, req.DiscountPrice,
		req.ImageURL, req.Category, req.IsVegetarian, req.IsVegan, req.IsSpicy,
		prepTime, req.Allergens,
	))
	if err != nil {
		return nil, err
	}

	for _, ingredient := range req.Ingredients {
		if _, err = tx.Exec(ctx, `
			INSERT INTO food_item_ingredients (food_item_id, ingredient) VALUES ($1, $2)
		`, item.ID, ingredient); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	item.Ingredients = append([]string{}, req.Ingredients...)
	return item, nil
}

func (db *Postgres) ListFoodItems(ctx context.Context, restaurantID int64, filter model.FoodItemFilter) ([]model.FoodItem, error) {
	where := []string{"restaurant_id = $1"}
	args := []any{restaurantID}

	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.AvailableOnly {
		where = append(where, "is_available = TRUE")
	}
	if filter.Vegetarian {
		where = append(where, "is_vegetarian = TRUE")
	}

	query := `SELECT` + foodItemColumns + `FROM food_items WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY category, name`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.FoodItem
	for rows.Next() {
		item, err := scanFoodItem(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	if list == nil {
		list = []model.FoodItem{}
	}

	if err := db.attachIngredients(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (db *Postgres) GetFoodItemByID(ctx context.Context, id int64) (*model.FoodItem, error) {
	item, err := scanFoodItem(db.Pool.QueryRow(ctx,
		`SELECT`+foodItemColumns+`FROM food_items WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	ingredients, err := db.foodItemIngredients(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	item.Ingredients = ingredients
	return item, nil
}

func (db *Postgres) UpdateFoodItem(ctx context.Context, id int64, req model.UpdateFoodItemRequest) (*model.FoodItem, error) {
	set, args := buildFoodItemSet(req)
	if len(set) == 0 && req.Ingredients == nil {
		return nil, fmt.Errorf("no fields to update")
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var item *model.FoodItem
	if len(set) > 0 {
		args = append(args, id)
		query := fmt.Sprintf(
			`UPDATE food_items SET %s, updated_at = NOW() WHERE id = $%d RETURNING`+foodItemColumns,
			strings.Join(set, ", "), len(args),
		)
		item, err = scanFoodItem(tx.QueryRow(ctx, query, args...))
	} else {
		item, err = scanFoodItem(tx.QueryRow(ctx,
			`SELECT`+foodItemColumns+`FROM food_items WHERE id = $1`, id))
	}
	if err != nil {
		return nil, err
	}

	if req.Ingredients != nil {
		if _, err = tx.Exec(ctx, `DELETE FROM food_item_ingredients WHERE food_item_id = $1`, id); err != nil {
			return nil, err
		}
		for _, ingredient := range req.Ingredients {
			if _, err = tx.Exec(ctx, `
				INSERT INTO food_item_ingredients (food_item_id, ingredient) VALUES ($1, $2)
			`, id, ingredient); err != nil {
				return nil, err
			}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	ingredients, err := db.foodItemIngredients(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Ingredients = ingredients
	return item, nil
}

func (db *Postgres) DeleteFoodItem(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM food_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (db *Postgres) foodItemIngredients(ctx context.Context, foodItemID int64) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT ingredient FROM food_item_ingredients WHERE food_item_id = $1 ORDER BY ingredient
	`, foodItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ingredients := []string{}
	for rows.Next() {
		var ingredient string
		if err := rows.Scan(&ingredient); err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ingredient)
	}
	return ingredients, rows.Err()
}

func (db *Postgres) attachIngredients(ctx context.Context, items []model.FoodItem) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(items))
	index := make(map[int64]int, len(items))
	for i := range items {
		items[i].Ingredients = []string{}
		ids = append(ids, items[i].ID)
		index[items[i].ID] = i
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT food_item_id, ingredient
		FROM food_item_ingredients
		WHERE food_item_id = ANY($1)
		ORDER BY ingredient
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var itemID int64
		var ingredient string
		if err := rows.Scan(&itemID, &ingredient); err != nil {
			return err
		}
		i := index[itemID]
		items[i].Ingredients = append(items[i].Ingredients, ingredient)
	}
	return rows.Err()
}

func buildFoodItemSet(req model.UpdateFoodItemRequest) ([]string, []any) {
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
	if req.Price != nil {
		add("price", *req.Price)
	}
	if req.DiscountPrice != nil {
		add("discount_price", *req.DiscountPrice)
	}
	if req.ImageURL != nil {
		add("image_url", *req.ImageURL)
	}
	if req.Category != nil {
		add("category", *req.Category)
	}
	if req.IsVegetarian != nil {
		add("is_vegetarian", *req.IsVegetarian)
	}
	if req.IsVegan != nil {
		add("is_vegan", *req.IsVegan)
	}
	if req.IsSpicy != nil {
		add("is_spicy", *req.IsSpicy)
	}
	if req.PreparationTimeMinutes != nil {
		add("preparation_time_minutes", *req.PreparationTimeMinutes)
	}
	if req.IsAvailable != nil {
		add("is_available", *req.IsAvailable)
	}
	if req.Allergens != nil {
		add("allergens", *req.Allergens)
	}
	return set, args
}
