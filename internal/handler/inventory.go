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

type InventoryHandler struct{ svc service.InventoryService }

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

func (h *InventoryHandler) CreateIngredient(c *gin.Context) {
	var req dto.CreateIngredientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateIngredient(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InventoryHandler) ListIngredients(c *gin.Context) {
	resp, err := h.svc.ListIngredients(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AdjustStock(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) ListStock(c *gin.Context) {
	resp, err := h.svc.ListStock(c.Request.Context(), c.Query("location"), c.Query("negative") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) CreateRecipe(c *gin.Context) {
	var req dto.CreateRecipeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateRecipe(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InventoryHandler) ListRecipes(c *gin.Context) {
	resp, err := h.svc.ListRecipes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deliver godoc
// @Summary Record the physical delivery of one unit of a sold item
// @Description Deducts the item's recipe from bar stock. Stock may go
// @Description negative; warnings are returned, the delivery always succeeds.
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.DeliverRequest true "Delivery data"
// @Success 201 {object} dto.DeliveryResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/deliveries [post]
func (h *InventoryHandler) Deliver(c *gin.Context) {
	var req dto.DeliverRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Deliver(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InventoryHandler) ListDeliveriesBySale(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.ListDeliveriesBySale(c.Request.Context(), saleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
