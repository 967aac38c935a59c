package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ikiraha/backend/internal/model"
	"github.com/ikiraha/backend/internal/service"
)

type CatalogHandler struct {
	svc *service.CatalogService
}

func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// ListRestaurants godoc
// @Summary List restaurants
// @Tags catalog
// @Produce json
// @Param category query string false "Filter by category"
// @Param popular query bool false "Only popular restaurants"
// @Param featured query bool false "Only featured restaurants"
// @Param open query bool false "Only currently open restaurants"
// @Success 200 {object} model.Response
// @Router /api/restaurants [get]
func (h *CatalogHandler) ListRestaurants(c *gin.Context) {
	filter := model.RestaurantFilter{
		Category: c.Query("category"),
		Popular:  c.Query("popular") == "true",
		Featured: c.Query("featured") == "true",
		OpenOnly: c.Query("open") == "true",
	}

	restaurants, err := h.svc.ListRestaurants(c.Request.Context(), filter)
	if err != nil {
		writeCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.OK("Restaurants retrieved", gin.H{"restaurants": restaurants}))
}

// GetRestaurant godoc
// @Summary Get a restaurant by id
// @Tags catalog
// @Produce json
// @Param id path int true "Restaurant ID"
// @Success 200 {object} model.Response
// @Failure 404 {object} model.Response
// @Router /api/restaurants/{id} [get]
func (h *CatalogHandler) GetRestaurant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	restaurant, err := h.svc.GetRestaurant(c.Request.Context(), id)
	if err != nil {
		writeCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.OK("Restaurant retrieved", gin.H{"restaurant": restaurant}))
}

// CreateRestaurant godoc
// @Summary Create a restaurant
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.CreateRestaurantRequest true "Restaurant fields"
// @Success 201 {object} model.Response
// @Failure 400 {object} model.Response
// @Failure 403 {object} model.Response
// @Router /api/restaurants [post]
func (h *CatalogHandler) CreateRestaurant(c *gin.Context) {
	var req model.CreateRestaurantRequest
	if !bindJSON(c, &req) {
		return
	}

	restaurant, err := h.svc.CreateRestaurant(c.Request.Context(), req)
	if err != nil {
		writeCatalogError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.OK("Restaurant created successfully", gin.H{"restaurant": restaurant}))
}

// UpdateRestaurant godoc
// @Summary Update a restaurant
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Restaurant ID"
// @Param request body model.UpdateRestaurantRequest true "Fields to update"
// @Success 200 {object} model.Response
// @Failure 400 {object} model.Response
// @Failure 404 {object} model.Response
// @Router /api/restaurants/{id} [put]
func (h *CatalogHandler) UpdateRestaurant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateRestaurantRequest
	if !bindJSON(c, &req) {
		return
	}

	restaurant, err := h.svc.UpdateRestaurant(c.Request.Context(), id, req)
	if err != nil {
		writeCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.OK("Restaurant updated successfully", gin.H{"restaurant": restaurant}))
}

// DeleteRestaurant godoc
// @Summary Delete a restaurant and its food items
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param id path int true "Restaurant ID"
// @Success 200 {object} model.Response
// @Failure 404 {object} model.Response
// @Router /api/restaurants/{id} [delete]
func (h *CatalogHandler) DeleteRestaurant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteRestaurant(c.Request.Context(), id); err != nil {
		writeCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.OK("Restaurant deleted successfully", nil))
}

// ListFoodItems godoc
// @Summary List a restaurant's food items
// @Tags catalog
// @Produce json
// @Param id path int true "Restaurant ID"
// @Param category query string false "Filter by category"
// @Param available query bool false "Only available items"
// @Param vegetarian query bool false "Only vegetarian items"
// @Success 200 {object} model.Response
// @Failure 404 {object} model.Response
// @Router /api/restaurants/{id}/items [get]
func (h *CatalogHandler) ListFoodItems(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	filter := model.FoodItemFilter{
		Category:      c.Query("category"),
		AvailableOnly: c.Query("available") == "true",
		Vegetarian:    c.Query("vegetarian") == "true",
	}

	items, err := h.svc.ListFoodItems(c.Request.Context(), id, filter)
	if err != nil {
		writeCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.OK("Food items retrieved", gin.H{"items": items}))
}

// GetFoodItem godoc
// @Summary Get a food item by id
// @Tags catalog
// @Produce json
// @Param id path int true "Food item ID"
// @Success 200 {object} model.Response
// @Failure 404 {object} model.Response
// @Router /api/items/{id} [get]
func (h *CatalogHandler) GetFoodItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	item, err := h.svc.GetFoodItem(c.Request.Context(), id)
	if err != nil {
		writeCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.OK("Food item retrieved", gin.H{"item": item}))
}

// CreateFoodItem godoc
// @Summary Add a food item to a restaurant
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Restaurant ID"
// @Param request body model.CreateFoodItemRequest true "Food item fields"
// @Success 201 {object} model.Response
// @Failure 400 {object} model.Response
// @Failure 404 {object} model.Response
// @Router /api/restaurants/{id}/items [post]
func (h *CatalogHandler) CreateFoodItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.CreateFoodItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.svc.CreateFoodItem(c.Request.Context(), id, req)
	if err != nil {
		writeCatalogError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.OK("Food item created successfully", gin.H{"item": item}))
}

// UpdateFoodItem godoc
// @Summary Update a food item
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Food item ID"
// @Param request body model.UpdateFoodItemRequest true "Fields to update"
// @Success 200 {object} model.Response
// @Failure 400 {object} model.Response
// @Failure 404 {object} model.Response
// @Router /api/items/{id} [put]
func (h *CatalogHandler) UpdateFoodItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateFoodItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.svc.UpdateFoodItem(c.Request.Context(), id, req)
	if err != nil {
		writeCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.OK("Food item updated successfully", gin.H{"item": item}))
}

// DeleteFoodItem godoc
// @Summary Delete a food item
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param id path int true "Food item ID"
// @Success 200 {object} model.Response
// @Failure 404 {object} model.Response
// @Router /api/items/{id} [delete]
func (h *CatalogHandler) DeleteFoodItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteFoodItem(c.Request.Context(), id); err != nil {
		writeCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.OK("Food item deleted successfully", nil))
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, model.Fail("Invalid id"))
		return 0, false
	}
	return id, true
}

func writeCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, model.Fail("Not found"))
	case errors.Is(err, service.ErrNoFields):
		c.JSON(http.StatusBadRequest, model.Fail("No fields to update"))
	default:
		writeServerError(c, err)
	}
}
