package handler

import (
	"net/http"

	"github.com/sandeepkv93/product-catalog-service/internal/http/response"
	"github.com/sandeepkv93/product-catalog-service/internal/service"
)

type IngestionHandler struct {
	status service.IngestionStatusReader
}

func NewIngestionHandler(status service.IngestionStatusReader) *IngestionHandler {
	return &IngestionHandler{status: status}
}

func (h *IngestionHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.status.Status())
}
