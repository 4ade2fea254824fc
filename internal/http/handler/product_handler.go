package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/product-catalog-service/internal/domain"
	"github.com/sandeepkv93/product-catalog-service/internal/http/response"
	"github.com/sandeepkv93/product-catalog-service/internal/repository"
	"github.com/sandeepkv93/product-catalog-service/internal/service"
)

const listCacheControl = "max-age=300"

type ProductHandler struct {
	svc service.ProductService
}

func NewProductHandler(svc service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// List serves GET /products. A query parameter that is present but empty is
// rejected with a bare 400; other values are passed through untouched.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category, hasCategory, okCategory := queryParam(q, "category")
	term, hasTerm, okTerm := queryParam(q, "searchTerm")
	sortOrder, hasSort, okSort := queryParam(q, "sortOrder")
	if !okCategory || !okTerm || !okSort {
		response.Status(w, http.StatusBadRequest)
		return
	}

	var (
		products []domain.Product
		err      error
	)
	switch {
	case !hasCategory && !hasTerm && !hasSort:
		products, err = h.svc.FindAll(r.Context())
	case hasCategory && !hasTerm && !hasSort:
		products, err = h.svc.FindByCategory(r.Context(), category)
	default:
		products, err = h.svc.FindProducts(r.Context(), service.ProductFilter{
			Category:   category,
			SearchTerm: term,
			SortOrder:  sortOrder,
		})
	}
	if err != nil {
		response.Status(w, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", listCacheControl)
	response.JSON(w, r, http.StatusOK, domain.ToTransfers(products))
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(w, r, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	product, err := h.svc.FindByID(r.Context(), uint(id))
	h.writeProduct(w, r, product, err)
}

func (h *ProductHandler) GetBySKU(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	if sku == "" {
		response.Error(w, r, http.StatusBadRequest, "sku is required")
		return
	}
	product, err := h.svc.FindBySKU(r.Context(), sku)
	h.writeProduct(w, r, product, err)
}

func (h *ProductHandler) SortedByPrice(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.SortByPrice(r.Context(), r.URL.Query().Get("direction"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSortDirection):
			response.Status(w, http.StatusBadRequest)
		default:
			response.Status(w, http.StatusInternalServerError)
		}
		return
	}
	response.JSON(w, r, http.StatusOK, domain.ToTransfers(products))
}

func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Categories(r.Context())
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "failed to list categories")
		return
	}
	if len(categories) == 0 {
		response.Status(w, http.StatusNoContent)
		return
	}
	response.JSON(w, r, http.StatusOK, categories)
}

func (h *ProductHandler) writeProduct(w http.ResponseWriter, r *http.Request, product *domain.Product, err error) {
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			response.Error(w, r, http.StatusNotFound, "product not found")
		default:
			response.Error(w, r, http.StatusInternalServerError, "failed to load product")
		}
		return
	}
	response.JSON(w, r, http.StatusOK, product.ToTransfer())
}

// queryParam reports the first value, whether the key was sent at all, and
// whether a sent value is non-empty.
func queryParam(q map[string][]string, key string) (value string, present bool, valid bool) {
	values, present := q[key]
	if !present {
		return "", false, true
	}
	if len(values) == 0 {
		return "", true, false
	}
	return values[0], true, values[0] != ""
}
