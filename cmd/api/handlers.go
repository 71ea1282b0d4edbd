package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/samiro/storefront/internal/apperr"
	"github.com/samiro/storefront/internal/catalogcache"
	"github.com/samiro/storefront/internal/checkout"
	"github.com/samiro/storefront/internal/database"
	"github.com/samiro/storefront/internal/messaging"
	"github.com/samiro/storefront/internal/models"
	"github.com/samiro/storefront/internal/pricing"
	"github.com/samiro/storefront/internal/store"
	"github.com/shopspring/decimal"
)

type server struct {
	db       *sql.DB
	cache    *catalogcache.Cache
	checkout *checkout.Service
	producer *messaging.Producer
	logger   *slog.Logger
}

func (s *server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /categories", s.handleListCategories)
	mux.HandleFunc("POST /categories", s.handleCreateCategory)
	mux.HandleFunc("GET /categories/{id}", s.handleGetCategory)
	mux.HandleFunc("PUT /categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /categories/{id}", s.handleDeleteCategory)
	mux.HandleFunc("GET /categories/{id}/brands", s.handleListBrands)
	mux.HandleFunc("GET /categories/{id}/models", s.handleListModelsByCategory)

	mux.HandleFunc("POST /brands", s.handleCreateBrand)
	mux.HandleFunc("GET /brands/{id}", s.handleGetBrand)
	mux.HandleFunc("PUT /brands/{id}", s.handleUpdateBrand)
	mux.HandleFunc("DELETE /brands/{id}", s.handleDeleteBrand)
	mux.HandleFunc("GET /brands/{id}/models", s.handleListModelsByBrand)

	mux.HandleFunc("POST /models", s.handleCreateModel)
	mux.HandleFunc("GET /models/{id}", s.handleGetModel)
	mux.HandleFunc("PUT /models/{id}", s.handleUpdateModel)
	mux.HandleFunc("DELETE /models/{id}", s.handleDeleteModel)
	mux.HandleFunc("GET /models/{id}/variants", s.handleListVariants)
	mux.HandleFunc("GET /models/{id}/reviews", s.handleListModelReviews)

	mux.HandleFunc("POST /variants", s.handleCreateVariant)
	mux.HandleFunc("GET /variants/{id}", s.handleGetVariant)
	mux.HandleFunc("PUT /variants/{id}", s.handleUpdateVariant)
	mux.HandleFunc("DELETE /variants/{id}", s.handleDeleteVariant)
	mux.HandleFunc("GET /variants/{id}/reviews", s.handleListVariantReviews)

	mux.HandleFunc("GET /search", s.handleSearch)

	mux.HandleFunc("POST /users", s.handleCreateUser)
	mux.HandleFunc("GET /users", s.handleListUsers)
	mux.HandleFunc("GET /users/{id}", s.handleGetUser)
	mux.HandleFunc("GET /users/{id}/orders", s.handleListUserOrders)
	mux.HandleFunc("GET /users/{id}/order-history", s.handleOrderHistory)

	mux.HandleFunc("GET /users/{id}/cart", s.handleGetCart)
	mux.HandleFunc("POST /users/{id}/cart/items", s.handleAddCartItem)
	mux.HandleFunc("DELETE /users/{id}/cart/items/{variantID}", s.handleRemoveCartItem)
	mux.HandleFunc("DELETE /users/{id}/cart", s.handleClearCart)
	mux.HandleFunc("POST /users/{id}/cart/checkout", s.handleCheckoutCart)

	mux.HandleFunc("GET /users/{id}/wishlist", s.handleListWishlist)
	mux.HandleFunc("POST /users/{id}/wishlist", s.handleAddToWishlist)
	mux.HandleFunc("DELETE /users/{id}/wishlist/{variantID}", s.handleRemoveFromWishlist)

	mux.HandleFunc("POST /reviews", s.handleAddReview)
	mux.HandleFunc("DELETE /reviews/{id}", s.handleDeleteReview)

	mux.HandleFunc("POST /orders", s.handleCreateOrder)
	mux.HandleFunc("GET /orders/{id}", s.handleGetOrder)
	mux.HandleFunc("PATCH /orders/{id}/status", s.handleUpdateOrderStatus)

	mux.HandleFunc("POST /payment/intent", s.handlePaymentIntent)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- catalog: categories ---

func (s *server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("minimal") == "true" {
		minimal, err := s.cache.ListCategoriesMinimal(r.Context(), s.db)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, minimal)
		return
	}

	categories, err := s.cache.ListCategories(r.Context(), s.db)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, categories)
}

type categoryRequest struct {
	Name        string `json:"name"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
}

func (s *server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	category, err := store.CreateCategory(r.Context(), s.db, req.Name, req.ImageURL, req.Description)
	if err != nil {
		if database.IsUniqueViolation(err) {
			s.writeError(w, http.StatusConflict, "category already exists")
			return
		}
		s.writeDomainError(w, err)
		return
	}

	s.cache.Invalidate(r.Context())
	s.writeJSON(w, http.StatusCreated, category)
}

func (s *server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	category, err := store.GetCategory(r.Context(), s.db, id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, category)
}

func (s *server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := store.UpdateCategory(r.Context(), s.db, id, req.Name, req.ImageURL, req.Description)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.cache.Invalidate(r.Context())
	s.writeJSON(w, http.StatusOK, category)
}

func (s *server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := store.DeleteCategory(r.Context(), s.db, id); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.cache.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// --- catalog: brands ---

func (s *server) handleListBrands(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	brands, err := store.ListBrandsByCategory(r.Context(), s.db, categoryID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, brands)
}

type brandRequest struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
}

func (s *server) handleCreateBrand(w http.ResponseWriter, r *http.Request) {
	var req brandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.CategoryID == 0 {
		s.writeError(w, http.StatusBadRequest, "name and category_id are required")
		return
	}

	brand, err := store.CreateBrand(r.Context(), s.db, req.CategoryID, req.Name)
	if err != nil {
		if database.IsUniqueViolation(err) {
			s.writeError(w, http.StatusConflict, "brand already exists in category")
			return
		}
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, brand)
}

func (s *server) handleGetBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	brand, err := store.GetBrand(r.Context(), s.db, id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, brand)
}

func (s *server) handleUpdateBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var req brandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	brand, err := store.UpdateBrand(r.Context(), s.db, id, req.Name)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, brand)
}

func (s *server) handleDeleteBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := store.DeleteBrand(r.Context(), s.db, id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- catalog: models ---

func (s *server) handleListModelsByBrand(w http.ResponseWriter, r *http.Request) {
	brandID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	result, err := store.ListModelsWithStartPrice(r.Context(), s.db, brandID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *server) handleListModelsByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	result, err := store.ListModelsByCategory(r.Context(), s.db, categoryID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type modelRequest struct {
	BrandID    int64    `json:"brand_id"`
	CategoryID int64    `json:"category_id"`
	Name       string   `json:"name"`
	ImageURL   string   `json:"image_url"`
	Features   []string `json:"features"`
}

func (s *server) handleCreateModel(w http.ResponseWriter, r *http.Request) {
	var req modelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.BrandID == 0 || req.CategoryID == 0 {
		s.writeError(w, http.StatusBadRequest, "name, brand_id and category_id are required")
		return
	}

	model, err := store.CreateModel(r.Context(), s.db, &models.Model{
		BrandID:    req.BrandID,
		CategoryID: req.CategoryID,
		Name:       req.Name,
		ImageURL:   req.ImageURL,
		Features:   req.Features,
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			s.writeError(w, http.StatusConflict, "model already exists for brand")
			return
		}
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, model)
}

func (s *server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	model, err := store.GetModel(r.Context(), s.db, id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, model)
}

func (s *server) handleUpdateModel(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var req modelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	model, err := store.UpdateModel(r.Context(), s.db, &models.Model{
		ID:       id,
		Name:     req.Name,
		ImageURL: req.ImageURL,
		Features: req.Features,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, model)
}

func (s *server) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := store.DeleteModel(r.Context(), s.db, id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- catalog: variants ---

func (s *server) handleListVariants(w http.ResponseWriter, r *http.Request) {
	modelID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	variants, err := store.ListVariantsByModel(r.Context(), s.db, modelID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, variants)
}

type variantRequest struct {
	ModelID   int64           `json:"model_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Color     string          `json:"color"`
	Storage   string          `json:"storage"`
	ImageURLs []string        `json:"image_urls"`
}

func (s *server) handleCreateVariant(w http.ResponseWriter, r *http.Request) {
	var req variantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ModelID == 0 || req.SKU == "" || req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "model_id, sku and name are required")
		return
	}
	if req.Price.LessThanOrEqual(decimal.Zero) {
		s.writeError(w, http.StatusBadRequest, "price must be a positive number")
		return
	}

	variant, err := store.CreateVariant(r.Context(), s.db, &models.Variant{
		ModelID:   req.ModelID,
		SKU:       req.SKU,
		Name:      req.Name,
		Price:     req.Price,
		Stock:     req.Stock,
		Color:     req.Color,
		Storage:   req.Storage,
		ImageURLs: req.ImageURLs,
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			s.writeError(w, http.StatusConflict, "sku already exists")
			return
		}
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, variant)
}

func (s *server) handleGetVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	variant, err := store.GetVariant(r.Context(), s.db, id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, variant)
}

func (s *server) handleUpdateVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var req variantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	variant, err := store.UpdateVariant(r.Context(), s.db, &models.Variant{
		ID:        id,
		Name:      req.Name,
		Price:     req.Price,
		Stock:     req.Stock,
		Color:     req.Color,
		Storage:   req.Storage,
		ImageURLs: req.ImageURLs,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, variant)
}

func (s *server) handleDeleteVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := store.DeleteVariant(r.Context(), s.db, id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- search ---

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	result, err := store.SearchModels(r.Context(), s.db, query)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// --- users ---

type userRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

func (s *server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Username == "" {
		s.writeError(w, http.StatusBadRequest, "email and username are required")
		return
	}

	user, err := store.CreateUser(r.Context(), s.db, req.Email, req.Username)
	if err != nil {
		if database.IsUniqueViolation(err) {
			s.writeError(w, http.StatusConflict, "email or username already taken")
			return
		}
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, user)
}

func (s *server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)
	if page < 1 || pageSize < 1 || pageSize > 100 {
		s.writeError(w, http.StatusBadRequest, "invalid pagination parameters")
		return
	}

	result, err := store.ListUsers(r.Context(), s.db, page, pageSize)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	user, err := store.GetUser(r.Context(), s.db, id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *server) handleListUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 20)
	if limit < 1 || limit > 100 {
		s.writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	page, err := store.ListOrdersCursor(r.Context(), s.db, userID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *server) handleOrderHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	ids, err := store.OrderHistoryIDs(r.Context(), s.db, userID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]int64{"order_ids": ids})
}

// --- cart ---

func (s *server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	cart, err := store.GetCartWithItems(r.Context(), s.db, userID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cart)
}

type addCartItemRequest struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

func (s *server) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VariantID == 0 {
		s.writeError(w, http.StatusBadRequest, "variant_id is required")
		return
	}
	if req.Quantity < 1 {
		s.writeError(w, http.StatusBadRequest, "quantity must be a positive integer")
		return
	}

	cart, err := store.AddCartItem(r.Context(), s.db, userID, req.VariantID, req.Quantity)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cart)
}

func (s *server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	variantID, ok := s.pathID(w, r, "variantID")
	if !ok {
		return
	}

	cart, err := store.RemoveCartItem(r.Context(), s.db, userID, variantID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cart)
}

func (s *server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := store.ClearCart(r.Context(), s.db, userID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleCheckoutCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := s.checkout.CreateOrderFromCart(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.publishOrderCreated(r, order)
	s.logger.Info("cart checked out", "order_id", order.ID, "user_id", userID)
	s.writeJSON(w, http.StatusCreated, order)
}

// --- wishlist ---

func (s *server) handleListWishlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	variants, err := store.ListWishlist(r.Context(), s.db, userID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if variants == nil {
		variants = []models.Variant{}
	}
	s.writeJSON(w, http.StatusOK, variants)
}

type wishlistRequest struct {
	VariantID int64 `json:"variant_id"`
}

func (s *server) handleAddToWishlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var req wishlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VariantID == 0 {
		s.writeError(w, http.StatusBadRequest, "variant_id is required")
		return
	}

	if _, err := store.GetVariant(r.Context(), s.db, req.VariantID); err != nil {
		s.writeDomainError(w, err)
		return
	}

	added, err := store.AddToWishlist(r.Context(), s.db, userID, req.VariantID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"added": added})
}

func (s *server) handleRemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	variantID, ok := s.pathID(w, r, "variantID")
	if !ok {
		return
	}

	if err := store.RemoveFromWishlist(r.Context(), s.db, userID, variantID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- reviews ---

type reviewRequest struct {
	ModelID   *int64 `json:"model_id"`
	VariantID *int64 `json:"variant_id"`
	UserID    int64  `json:"user_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (s *server) handleAddReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ModelID == nil && req.VariantID == nil {
		s.writeError(w, http.StatusBadRequest, "model_id or variant_id is required")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		s.writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	if req.Comment == "" {
		s.writeError(w, http.StatusBadRequest, "comment is required")
		return
	}

	review, err := store.AddReview(r.Context(), s.db, &models.Review{
		ModelID:   req.ModelID,
		VariantID: req.VariantID,
		UserID:    req.UserID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, review)
}

func (s *server) handleListModelReviews(w http.ResponseWriter, r *http.Request) {
	modelID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	reviews, err := store.ListReviewsByModel(r.Context(), s.db, modelID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	s.writeJSON(w, http.StatusOK, reviews)
}

func (s *server) handleListVariantReviews(w http.ResponseWriter, r *http.Request) {
	variantID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	reviews, err := store.ListReviewsByVariant(r.Context(), s.db, variantID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	s.writeJSON(w, http.StatusOK, reviews)
}

func (s *server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := store.DeleteReview(r.Context(), s.db, id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- orders and payment ---

// orderItemPayload is the line shape used by order creation; payment intent
// requests carry the same data under an "id" key instead of "variant".
type orderItemPayload struct {
	Variant  int64 `json:"variant"`
	Quantity int   `json:"quantity"`
}

type intentItemPayload struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

type createOrderRequest struct {
	UserID          int64                  `json:"user_id"`
	Items           []orderItemPayload     `json:"items"`
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
	TotalAmount     decimal.Decimal        `json:"total_amount"`
	DeliveryMethod  string                 `json:"delivery_method"`
	PaymentIntentID string                 `json:"payment_intent_id"`
}

func (s *server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]pricing.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, pricing.LineItem{VariantID: item.Variant, Quantity: item.Quantity})
	}

	order, err := s.checkout.CreateOrder(r.Context(), checkout.CreateOrderRequest{
		UserID:          req.UserID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		TotalAmount:     req.TotalAmount,
		DeliveryMethod:  req.DeliveryMethod,
		PaymentIntentID: req.PaymentIntentID,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.publishOrderCreated(r, order)
	s.logger.Info("order created", "order_id", order.ID, "user_id", order.UserID)
	s.writeJSON(w, http.StatusCreated, order)
}

func (s *server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := store.GetOrder(r.Context(), s.db, id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, order)
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func (s *server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !models.ValidOrderStatus(req.Status) {
		s.writeError(w, http.StatusBadRequest, "invalid order status")
		return
	}

	order, err := store.UpdateOrderStatus(r.Context(), s.db, id, req.Status)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)
	s.writeJSON(w, http.StatusOK, order)
}

type paymentIntentRequest struct {
	Items           []intentItemPayload    `json:"items"`
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
	TotalAmount     decimal.Decimal        `json:"total_amount"`
	DeliveryMethod  string                 `json:"delivery_method"`
}

func (s *server) handlePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req paymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]pricing.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, pricing.LineItem{VariantID: item.ID, Quantity: item.Quantity})
	}

	intent, err := s.checkout.FetchPaymentIntent(r.Context(), checkout.PaymentIntentRequest{
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		TotalAmount:     req.TotalAmount,
		DeliveryMethod:  req.DeliveryMethod,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, intent)
}

// publishOrderCreated is best-effort; a broker failure is logged and the
// request still succeeds.
func (s *server) publishOrderCreated(r *http.Request, order *models.Order) {
	if s.producer == nil {
		return
	}

	event := messaging.NewOrderCreatedEvent(order)
	if err := s.producer.Publish(r.Context(), order.OrderNumber, event); err != nil {
		s.logger.Error("publish order created event", "order_id", order.ID, "error", err)
	}
}

// --- helpers ---

func (s *server) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		s.writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func (s *server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps domain and storage failures onto HTTP statuses.
func (s *server) writeDomainError(w http.ResponseWriter, err error) {
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		s.writeError(w, http.StatusBadRequest, verr.Reason)
		return
	}

	var nferr *apperr.NotFoundError
	if errors.As(err, &nferr) {
		s.writeError(w, http.StatusNotFound, nferr.Error())
		return
	}

	switch {
	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrCategoryNotFound),
		errors.Is(err, database.ErrBrandNotFound),
		errors.Is(err, database.ErrModelNotFound),
		errors.Is(err, database.ErrVariantNotFound),
		errors.Is(err, database.ErrCartNotFound),
		errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrReviewNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, database.ErrInsufficientStock):
		s.writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, database.ErrInvalidCursor):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var eserr *apperr.ExternalServiceError
	if errors.As(err, &eserr) {
		s.logger.Error("external service failure", "service", eserr.Service, "error", eserr.Err)
		s.writeError(w, http.StatusBadGateway, "payment service unavailable")
		return
	}

	s.logger.Error("request failed", "error", err)
	s.writeError(w, http.StatusInternalServerError, "internal server error")
}
