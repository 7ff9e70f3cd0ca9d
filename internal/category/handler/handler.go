package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-inventory-service/internal/category"
	"github.com/fekuna/omnipos-inventory-service/internal/category/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/response"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/validation"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type CreateCategoryRequest struct {
	Name      string `json:"name" validate:"required"`
	SKUPrefix string `json:"sku_prefix" validate:"required"`
}

type UpdateCategoryRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1"`
	SKUPrefix *string `json:"sku_prefix" validate:"omitempty,min=1"`
}

type ListCategoriesResponse struct {
	Categories []model.Category `json:"categories"`
	Total      int              `json:"total"`
}

type CategoryMessageResponse struct {
	Message  string          `json:"message"`
	Category *model.Category `json:"category"`
}

type NextSKUResponse struct {
	CategoryID string `json:"category_id"`
	SKU        string `json:"sku"`
}

type CategoryHandler struct {
	uc       category.UseCase
	validate *validator.Validate
	resp     *response.Responder
	logger   logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, validate *validator.Validate, resp *response.Responder, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:       uc,
		validate: validate,
		resp:     resp,
		logger:   log,
	}
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if fields := validation.Bind(h.validate, r, &req); fields != nil {
		h.resp.Invalid(w, "invalid category", fields)
		return
	}

	cat, err := h.uc.CreateCategory(r.Context(), &dto.CreateCategoryInput{
		Name:      req.Name,
		SKUPrefix: req.SKUPrefix,
	})
	if err != nil {
		h.resp.Error(w, err)
		return
	}

	h.resp.JSON(w, http.StatusCreated, cat)
}

func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	page, pageSize, fields := validation.Pagination(r.URL.Query())
	if fields != nil {
		h.resp.Invalid(w, "invalid query", fields)
		return
	}

	categories, total, err := h.uc.ListCategories(r.Context(), &dto.CategoryFilters{Page: page, PageSize: pageSize})
	if err != nil {
		h.resp.Error(w, err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}

	h.resp.JSON(w, http.StatusOK, ListCategoriesResponse{Categories: categories, Total: total})
}

func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := h.uc.GetCategory(r.Context(), mux.Vars(r)["categoryId"])
	if err != nil {
		h.resp.Error(w, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, cat)
}

func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req UpdateCategoryRequest
	if fields := validation.Bind(h.validate, r, &req); fields != nil {
		h.resp.Invalid(w, "invalid category", fields)
		return
	}

	id := mux.Vars(r)["categoryId"]
	cat, err := h.uc.UpdateCategory(r.Context(), &dto.UpdateCategoryInput{
		ID:        id,
		Name:      req.Name,
		SKUPrefix: req.SKUPrefix,
	})
	if err != nil {
		h.logger.Warn("failed to update category", zap.String("category_id", id), zap.Error(err))
		h.resp.Error(w, err)
		return
	}

	h.resp.JSON(w, http.StatusOK, CategoryMessageResponse{Message: "Category updated successfully", Category: cat})
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteCategory(r.Context(), mux.Vars(r)["categoryId"]); err != nil {
		h.resp.Error(w, err)
		return
	}
	h.resp.Message(w, http.StatusOK, "Category deleted successfully")
}

func (h *CategoryHandler) NextSKU(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["categoryId"]
	next, err := h.uc.NextSKU(r.Context(), id)
	if err != nil {
		h.resp.Error(w, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, NextSKUResponse{CategoryID: id, SKU: next})
}
