package handler

import (
	"net/http"
	"strings"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/response"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/validation"
	"github.com/fekuna/omnipos-inventory-service/internal/product"
	"github.com/fekuna/omnipos-inventory-service/internal/product/dto"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CreateProductRequest struct {
	Name       string          `json:"name" validate:"required"`
	Price      decimal.Decimal `json:"price" validate:"gt=0"`
	Stock      *int64          `json:"stock" validate:"required,gte=0"`
	CategoryID string          `json:"category_id" validate:"required"`
}

type UpdateProductRequest struct {
	Name       *string          `json:"name" validate:"omitempty,min=1"`
	Price      *decimal.Decimal `json:"price" validate:"omitempty,gt=0"`
	Stock      *int64           `json:"stock" validate:"omitempty,gte=0"`
	CategoryID *string          `json:"category_id" validate:"omitempty,min=1"`
}

type ChangeCategoryRequest struct {
	CategoryID string `json:"category_id" validate:"required"`
}

type PriceUpdateRequest struct {
	ProductID string          `json:"product_id"`
	NewPrice  decimal.Decimal `json:"new_price"`
}

type ListProductsResponse struct {
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

type ProductMessageResponse struct {
	Message string         `json:"message"`
	Product *model.Product `json:"product"`
}

type BulkPriceResponse struct {
	Message      string `json:"message"`
	UpdatedCount int64  `json:"updated_count"`
}

type ProductHandler struct {
	uc       product.UseCase
	validate *validator.Validate
	resp     *response.Responder
	logger   logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, validate *validator.Validate, resp *response.Responder, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:       uc,
		validate: validate,
		resp:     resp,
		logger:   log,
	}
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if fields := validation.Bind(h.validate, r, &req); fields != nil {
		h.resp.Invalid(w, "invalid product", fields)
		return
	}

	p, err := h.uc.CreateProduct(r.Context(), &dto.CreateProductInput{
		Name:       req.Name,
		Price:      req.Price,
		Stock:      *req.Stock,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		h.logger.Debug("failed to create product", zap.Error(err))
		h.resp.Error(w, err)
		return
	}

	h.resp.JSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, pageSize, fields := validation.Pagination(q)
	if fields != nil {
		h.resp.Invalid(w, "invalid query", fields)
		return
	}

	h.list(w, r, &dto.ProductFilters{
		CategoryID: q.Get("category"),
		Page:       page,
		PageSize:   pageSize,
	})
}

func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	keyword := strings.TrimSpace(q.Get("keyword"))
	if keyword == "" {
		h.resp.Invalid(w, "keyword is required", nil)
		return
	}
	page, pageSize, fields := validation.Pagination(q)
	if fields != nil {
		h.resp.Invalid(w, "invalid query", fields)
		return
	}

	h.list(w, r, &dto.ProductFilters{
		CategoryID:  q.Get("category"),
		SearchQuery: keyword,
		Page:        page,
		PageSize:    pageSize,
	})
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request, filters *dto.ProductFilters) {
	products, total, err := h.uc.ListProducts(r.Context(), filters)
	if err != nil {
		h.resp.Error(w, err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}

	h.resp.JSON(w, http.StatusOK, ListProductsResponse{
		Products: products,
		Total:    total,
		Page:     filters.Page,
		PageSize: filters.PageSize,
	})
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.uc.GetProduct(r.Context(), mux.Vars(r)["productId"])
	if err != nil {
		h.resp.Error(w, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if fields := validation.Bind(h.validate, r, &req); fields != nil {
		h.resp.Invalid(w, "invalid product", fields)
		return
	}

	p, err := h.uc.UpdateProduct(r.Context(), &dto.UpdateProductInput{
		ID:         mux.Vars(r)["productId"],
		Name:       req.Name,
		Price:      req.Price,
		Stock:      req.Stock,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		h.resp.Error(w, err)
		return
	}

	h.resp.JSON(w, http.StatusOK, ProductMessageResponse{Message: "Product updated successfully", Product: p})
}

func (h *ProductHandler) ChangeCategory(w http.ResponseWriter, r *http.Request) {
	var req ChangeCategoryRequest
	if fields := validation.Bind(h.validate, r, &req); fields != nil {
		h.resp.Invalid(w, "invalid category change", fields)
		return
	}

	p, err := h.uc.ChangeCategory(r.Context(), mux.Vars(r)["productId"], req.CategoryID)
	if err != nil {
		h.resp.Error(w, err)
		return
	}

	h.resp.JSON(w, http.StatusOK, ProductMessageResponse{Message: "Product category changed successfully", Product: p})
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteProduct(r.Context(), mux.Vars(r)["productId"]); err != nil {
		h.resp.Error(w, err)
		return
	}
	h.resp.Message(w, http.StatusOK, "Product deleted successfully")
}

// BulkUpdatePrices takes a JSON array. Entries the use case cannot apply are
// skipped rather than failing the batch.
func (h *ProductHandler) BulkUpdatePrices(w http.ResponseWriter, r *http.Request) {
	var req []PriceUpdateRequest
	if fields := validation.Bind(h.validate, r, &req); fields != nil {
		h.resp.Invalid(w, "request body must be an array of price updates", fields)
		return
	}
	if len(req) == 0 {
		h.resp.Invalid(w, "request body must be a non-empty array", nil)
		return
	}

	updates := make([]dto.PriceUpdate, len(req))
	for i, u := range req {
		updates[i] = dto.PriceUpdate{ProductID: u.ProductID, NewPrice: u.NewPrice}
	}

	n, err := h.uc.BulkUpdatePrices(r.Context(), updates)
	if err != nil {
		h.resp.Error(w, err)
		return
	}

	h.resp.JSON(w, http.StatusOK, BulkPriceResponse{Message: "Bulk price update completed", UpdatedCount: n})
}
