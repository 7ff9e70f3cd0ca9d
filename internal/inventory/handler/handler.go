package handler

import (
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/response"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/validation"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Quantity is left to the use case so that a missing or non positive value
// is reported as an invalid quantity.
type SellRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity"`
}

type RestockRequest struct {
	Quantity int64 `json:"quantity"`
}

type StockResponse struct {
	Message string         `json:"message"`
	Product *model.Product `json:"product"`
}

type InventoryHandler struct {
	uc       inventory.UseCase
	validate *validator.Validate
	resp     *response.Responder
	logger   logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, validate *validator.Validate, resp *response.Responder, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:       uc,
		validate: validate,
		resp:     resp,
		logger:   log,
	}
}

func (h *InventoryHandler) Sell(w http.ResponseWriter, r *http.Request) {
	var req SellRequest
	if fields := validation.Bind(h.validate, r, &req); fields != nil {
		h.resp.Invalid(w, "invalid sell request", fields)
		return
	}

	p, err := h.uc.Sell(r.Context(), &dto.SellInput{ProductID: req.ProductID, Quantity: req.Quantity})
	if err != nil {
		if errors.Is(err, model.ErrSellRejected) {
			h.logger.Info("sell rejected",
				zap.String("product_id", req.ProductID),
				zap.Int64("quantity", req.Quantity),
				zap.Error(err),
			)
		}
		h.resp.Error(w, err)
		return
	}

	h.resp.JSON(w, http.StatusOK, StockResponse{Message: "Product sold successfully", Product: p})
}

func (h *InventoryHandler) Restock(w http.ResponseWriter, r *http.Request) {
	var req RestockRequest
	if fields := validation.Bind(h.validate, r, &req); fields != nil {
		h.resp.Invalid(w, "invalid restock request", fields)
		return
	}

	p, err := h.uc.Restock(r.Context(), &dto.RestockInput{ProductID: mux.Vars(r)["productId"], Quantity: req.Quantity})
	if err != nil {
		h.resp.Error(w, err)
		return
	}

	h.resp.JSON(w, http.StatusOK, StockResponse{Message: "Product restocked successfully", Product: p})
}
