package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-library-circulation/internal/domain"
)

// MyFinesResponse lists the caller's outstanding fines and their total.
type MyFinesResponse struct {
	Fines       []domain.Fine `json:"fines"`
	Outstanding int64         `json:"outstanding" example:"30000"`
}

// ListFinesResponse is a page of outstanding fines for staff.
type ListFinesResponse struct {
	Fines      []domain.Fine `json:"fines"`
	Pagination Pagination    `json:"pagination"`
}

// CreateFineRequest is the payload for a manual fine.
type CreateFineRequest struct {
	UserID      string  `json:"user_id"     binding:"required" example:"reader-42"`
	Amount      *int64  `json:"amount"      binding:"required" example:"15000"`
	Description string  `json:"description" example:"Damaged cover"`
	LoanID      *string `json:"loan_id,omitempty"`
}

// ListMyFines godoc
// @ID          listMyFines
// @Summary     List my outstanding fines
// @Tags        Fines
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (header identity mode)"  example(reader-42)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {object}  handlers.MyFinesResponse
// @Success     304  {string}  string "Not Modified"
// @Router      /fines/mine [get]
func (h *Handlers) ListMyFines(c *gin.Context) {
	if h.notModified(c, "fines", "outstanding", func(s StatsSource) statsFunc { return s.FinesStats }) {
		return
	}
	ctx := c.Request.Context()
	uid := userID(c)
	items, err := h.d.Fines.ListByUser(ctx, uid)
	if err != nil {
		failErr(c, err)
		return
	}
	total, err := h.d.Fines.Outstanding(ctx, uid)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, MyFinesResponse{Fines: items, Outstanding: total})
}

// ListFines godoc
// @ID          listFines
// @Summary     List outstanding fines (staff)
// @Tags        Staff
// @Produce     json
//
// @Param       X-User-Role  header  string  false "Role (header identity mode)"  example(staff)
// @Param       page         query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size    query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListFinesResponse
// @Router      /admin/fines [get]
func (h *Handlers) ListFines(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.d.Fines.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListFinesResponse{Fines: items, Pagination: newPagination(page, pageSize, total)})
}

// CreateFine godoc
// @ID          createFine
// @Summary     Record a manual fine (staff)
// @Tags        Staff
// @Accept      json
// @Produce     json
//
// @Param       X-User-Role  header  string  false "Role (header identity mode)"  example(staff)
// @Param       body         body    handlers.CreateFineRequest  true  "Fine"
//
// @Success     201  {object}  domain.Fine
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Loan not found"
// @Router      /admin/fines [post]
func (h *Handlers) CreateFine(c *gin.Context) {
	var req CreateFineRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id and amount required")
		return
	}
	if req.LoanID != nil && strings.TrimSpace(*req.LoanID) == "" {
		req.LoanID = nil
	}
	f, err := h.d.Fines.CreateManual(c.Request.Context(), req.UserID, *req.Amount, req.Description, req.LoanID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, f)
}

// SettleFine godoc
// @ID          settleFine
// @Summary     Settle a fine (staff)
// @Description Removes an outstanding fine once paid.
// @Tags        Staff
//
// @Param       X-User-Role  header  string  false "Role (header identity mode)"  example(staff)
// @Param       id           path    string  true  "Fine ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Fine not found"
// @Router      /admin/fines/{id} [delete]
func (h *Handlers) SettleFine(c *gin.Context) {
	id, good := pathUUID(c, "id", "fine")
	if !good {
		return
	}
	if err := h.d.Fines.Settle(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
