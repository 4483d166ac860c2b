package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sebastiangaticacl/stvaldivia/internal/apierror"
	"github.com/sebastiangaticacl/stvaldivia/internal/dto"
	"github.com/sebastiangaticacl/stvaldivia/internal/infra"
	"github.com/sebastiangaticacl/stvaldivia/internal/middleware"
	"github.com/sebastiangaticacl/stvaldivia/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CloseHandler struct {
	svc service.ReconcileService
	pdf *infra.ClosePDF
}

func NewCloseHandler(svc service.ReconcileService, pdf *infra.ClosePDF) *CloseHandler {
	return &CloseHandler{svc: svc, pdf: pdf}
}

// Expected godoc
// @Summary Expected totals for one register and operating day
// @Description Pure replay of the ledger; safe to call any number of times.
// @Tags closes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Register ID"
// @Param shift_date query string false "Operating day YYYY-MM-DD, default today"
// @Success 200 {object} dto.ExpectedTotals
// @Router /v1/registers/{id}/expected [get]
func (h *CloseHandler) Expected(c *gin.Context) {
	registerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.ComputeExpected(c.Request.Context(), registerID, c.Query("shift_date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Close godoc
// @Summary Close a register for the operating day
// @Description Writes the immutable reconciliation record. A second close for
// @Description the same register and day is rejected with 409.
// @Tags closes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseRegisterRequest true "Actual counted totals"
// @Success 201 {object} dto.CloseResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/closes [post]
func (h *CloseHandler) Close(c *gin.Context) {
	var req dto.CloseRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CloseRegister(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CloseHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.GetClose(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Report serves the PDF rendered when the close was recorded. Closes written
// before PDF storage was configured have no file; that is a 404, not an error.
func (h *CloseHandler) Report(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.GetClose(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	path := h.pdf.ReportPath(resp.RegisterName, resp.ShiftDate)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, apierror.New("report not available"))
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

func (h *CloseHandler) GetByRegisterDay(c *gin.Context) {
	registerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.GetCloseByRegisterDay(c.Request.Context(), registerID, c.Query("shift_date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CloseHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	closes, total, err := h.svc.ListCloses(c.Request.Context(), c.Query("shift_date"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": closes, "total": total, "page": page, "limit": limit})
}
