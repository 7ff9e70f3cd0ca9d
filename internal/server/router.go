package server

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	catH "github.com/fekuna/omnipos-inventory-service/internal/category/handler"
	invH "github.com/fekuna/omnipos-inventory-service/internal/inventory/handler"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/response"
	prodH "github.com/fekuna/omnipos-inventory-service/internal/product/handler"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Handlers struct {
	Product   *prodH.ProductHandler
	Category  *catH.CategoryHandler
	Inventory *invH.InventoryHandler
}

// NewRouter registers the REST API. Fixed paths under /api/products are
// registered before /{productId} so they are not captured by it.
func NewRouter(h Handlers, resp *response.Responder, log logger.ZapLogger, requestTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(recoverer(resp, log), requestLogger(log), timeout(requestTimeout))

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		resp.Message(w, http.StatusOK, "Product API is working")
	}).Methods(http.MethodGet)

	products := router.PathPrefix("/api/products").Subrouter()
	products.HandleFunc("", h.Product.CreateProduct).Methods(http.MethodPost)
	products.HandleFunc("", h.Product.ListProducts).Methods(http.MethodGet)
	products.HandleFunc("/search", h.Product.SearchProducts).Methods(http.MethodGet)
	products.HandleFunc("/sell", h.Inventory.Sell).Methods(http.MethodPost)
	products.HandleFunc("/bulk-price", h.Product.BulkUpdatePrices).Methods(http.MethodPatch)
	products.HandleFunc("/{productId}", h.Product.GetProduct).Methods(http.MethodGet)
	products.HandleFunc("/{productId}", h.Product.UpdateProduct).Methods(http.MethodPut)
	products.HandleFunc("/{productId}", h.Product.DeleteProduct).Methods(http.MethodDelete)
	products.HandleFunc("/{productId}/category", h.Product.ChangeCategory).Methods(http.MethodPut)
	products.HandleFunc("/{productId}/restock", h.Inventory.Restock).Methods(http.MethodPost)

	categories := router.PathPrefix("/api/categories").Subrouter()
	categories.HandleFunc("", h.Category.CreateCategory).Methods(http.MethodPost)
	categories.HandleFunc("", h.Category.ListCategories).Methods(http.MethodGet)
	categories.HandleFunc("/{categoryId}", h.Category.GetCategory).Methods(http.MethodGet)
	categories.HandleFunc("/{categoryId}", h.Category.UpdateCategory).Methods(http.MethodPut)
	categories.HandleFunc("/{categoryId}", h.Category.DeleteCategory).Methods(http.MethodDelete)
	categories.HandleFunc("/{categoryId}/next-sku", h.Category.NextSKU).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp.JSON(w, http.StatusNotFound, response.ErrorBody{Message: "Route not found", Outcome: response.OutcomeNone})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp.JSON(w, http.StatusMethodNotAllowed, response.ErrorBody{Message: "Method not allowed", Outcome: response.OutcomeNone})
	})

	return router
}

// timeout bounds every store round-trip a request makes. A request that runs
// out of time is answered as unavailable with an unknown outcome.
func timeout(d time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(log logger.ZapLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func recoverer(resp *response.Responder, log logger.ZapLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic while serving request",
						zap.Any("panic", rec),
						zap.ByteString("stack", debug.Stack()),
					)
					resp.JSON(w, http.StatusInternalServerError, response.ErrorBody{
						Message: "Internal server error",
						Outcome: response.OutcomeUnknown,
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
