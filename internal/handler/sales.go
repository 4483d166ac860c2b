package handler

import (
	"net/http"

	"github.com/sebastiangaticacl/stvaldivia/internal/apierror"
	"github.com/sebastiangaticacl/stvaldivia/internal/dto"
	"github.com/sebastiangaticacl/stvaldivia/internal/middleware"
	"github.com/sebastiangaticacl/stvaldivia/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SaleHandler struct{ svc service.SaleService }

func NewSaleHandler(svc service.SaleService) *SaleHandler { return &SaleHandler{svc: svc} }

// Record godoc
// @Summary Record a sale in the ledger
// @Description Idempotent on idempotency_key: a retried submission returns
// @Description the originally recorded sale with status 200 instead of 201.
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RecordSaleRequest true "Sale data"
// @Success 201 {object} dto.SaleResponse
// @Success 200 {object} dto.SaleResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/sales [post]
func (h *SaleHandler) Record(c *gin.Context) {
	var req dto.RecordSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, created, err := h.svc.RecordSale(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

// Cancel godoc
// @Summary Cancel a sale (audit-preserving)
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sale ID"
// @Param body body dto.CancelSaleRequest true "Cancellation reason"
// @Success 200 {object} dto.SaleResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/sales/{id}/cancel [post]
func (h *SaleHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.CancelSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CancelSale(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SaleHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SaleHandler) List(c *gin.Context) {
	var filter dto.SaleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query: "+err.Error()))
		return
	}
	resp, err := h.svc.ListSales(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
