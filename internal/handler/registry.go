package handler

import (
	"net/http"

	"github.com/sebastiangaticacl/stvaldivia/internal/apierror"
	"github.com/sebastiangaticacl/stvaldivia/internal/dto"
	"github.com/sebastiangaticacl/stvaldivia/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegistryHandler exposes the admin CRUD for registers, products and
// employees.
type RegistryHandler struct{ svc service.RegistryService }

func NewRegistryHandler(svc service.RegistryService) *RegistryHandler {
	return &RegistryHandler{svc: svc}
}

// ── Registers ────────────────────────────────────────────────────────────────

// CreateRegister godoc
// @Summary Register a new POS terminal
// @Tags registers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateRegisterRequest true "Register data"
// @Success 201 {object} dto.RegisterResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/registers [post]
func (h *RegistryHandler) CreateRegister(c *gin.Context) {
	var req dto.CreateRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateRegister(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *RegistryHandler) GetRegister(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.GetRegister(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RegistryHandler) ListRegisters(c *gin.Context) {
	resp, err := h.svc.ListRegisters(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RegistryHandler) DeactivateRegister(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	if err := h.svc.DeactivateRegister(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Products ─────────────────────────────────────────────────────────────────

func (h *RegistryHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *RegistryHandler) ListProducts(c *gin.Context) {
	resp, err := h.svc.ListProducts(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Employees ────────────────────────────────────────────────────────────────

func (h *RegistryHandler) CreateEmployee(c *gin.Context) {
	var req dto.CreateEmployeeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateEmployee(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *RegistryHandler) UpdateEmployee(c *gin.Context) {
	var req dto.UpdateEmployeeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateEmployee(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RegistryHandler) ListEmployees(c *gin.Context) {
	resp, err := h.svc.ListEmployees(c.Request.Context(), c.Query("include_inactive") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RegistryHandler) DeactivateEmployee(c *gin.Context) {
	if err := h.svc.DeactivateEmployee(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
