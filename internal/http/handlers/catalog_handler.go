// Catalog HTTP handlers: titles and their physical copies.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-library-circulation/internal/domain"
)

// CreateTitleRequest is the payload for POST /admin/titles.
type CreateTitleRequest struct {
	Name     string `json:"name"      binding:"required,max=255" example:"Dune"`
	CoverURL string `json:"cover_url" binding:"max=512"`
}

// AddCopyRequest is the payload for POST /admin/titles/{id}/copies.
type AddCopyRequest struct {
	// Condition is free text; blank means "Good".
	Condition string `json:"condition" binding:"max=64" example:"Worn"`
}

// ListTitlesResponse is a page of titles.
type ListTitlesResponse struct {
	Titles     []domain.Title `json:"titles"`
	Pagination Pagination     `json:"pagination"`
}

// CopiesResponse lists a title's copies with a count per status.
type CopiesResponse struct {
	Copies       []domain.Copy               `json:"copies"`
	Availability map[domain.CopyStatus]int64 `json:"availability"`
}

// ListTitles godoc
// @ID          listTitles
// @Summary     Browse the catalog
// @Tags        Catalog
// @Produce     json
//
// @Param       page       query  int  false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListTitlesResponse
// @Router      /titles [get]
func (h *Handlers) ListTitles(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.d.Catalog.ListTitles(c.Request.Context(), page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListTitlesResponse{Titles: items, Pagination: newPagination(page, pageSize, total)})
}

// ListCopies godoc
// @ID          listCopies
// @Summary     List a title's copies
// @Tags        Catalog
// @Produce     json
//
// @Param       id  path  string  true  "Title ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.CopiesResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Title not found"
// @Router      /titles/{id}/copies [get]
func (h *Handlers) ListCopies(c *gin.Context) {
	id, good := pathUUID(c, "id", "title")
	if !good {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.d.Catalog.GetTitle(ctx, id); err != nil {
		failErr(c, err)
		return
	}
	copies, err := h.d.Copies.ListByTitle(ctx, id)
	if err != nil {
		failErr(c, err)
		return
	}
	avail, err := h.d.Copies.Availability(ctx, id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, CopiesResponse{Copies: copies, Availability: avail})
}

// CreateTitle godoc
// @ID          createTitle
// @Summary     Add a title to the catalog (staff)
// @Tags        Staff
// @Accept      json
// @Produce     json
//
// @Param       X-User-Role  header  string  false "Role (header identity mode)"  example(staff)
// @Param       body         body    handlers.CreateTitleRequest  true  "Title"
//
// @Success     201  {object}  domain.Title
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /admin/titles [post]
func (h *Handlers) CreateTitle(c *gin.Context) {
	var req CreateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required (max 255 chars)")
		return
	}
	t, err := h.d.Catalog.CreateTitle(c.Request.Context(), req.Name, req.CoverURL)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, t)
}

// AddCopy godoc
// @ID          addCopy
// @Summary     Register a physical copy (staff)
// @Description Adds an AVAILABLE copy of the title.
// @Tags        Staff
// @Accept      json
// @Produce     json
//
// @Param       X-User-Role  header  string  false "Role (header identity mode)"  example(staff)
// @Param       id           path    string  true  "Title ID (UUID)"  format(uuid)
// @Param       body         body    handlers.AddCopyRequest  false  "Copy"
//
// @Success     201  {object}  domain.Copy
// @Failure     404  {object}  handlers.ErrorResponse  "Title not found"
// @Router      /admin/titles/{id}/copies [post]
func (h *Handlers) AddCopy(c *gin.Context) {
	id, good := pathUUID(c, "id", "title")
	if !good {
		return
	}
	var req AddCopyRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	cp, err := h.d.Copies.Add(c.Request.Context(), id, req.Condition)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, cp)
}

// MarkCopyLost godoc
// @ID          markCopyLost
// @Summary     Write off a copy on the shelf (staff)
// @Description Marks an AVAILABLE copy LOST. Borrowed copies are written off through their loan.
// @Tags        Staff
// @Produce     json
//
// @Param       X-User-Role  header  string  false "Role (header identity mode)"  example(staff)
// @Param       id           path    string  true  "Copy ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Copy
// @Failure     404  {object}  handlers.ErrorResponse  "Copy not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Copy is not available"
// @Router      /admin/copies/{id}/lost [put]
func (h *Handlers) MarkCopyLost(c *gin.Context) {
	id, good := pathUUID(c, "id", "copy")
	if !good {
		return
	}
	cp, err := h.d.Copies.MarkLost(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, cp)
}
