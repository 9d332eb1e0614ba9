// Request HTTP handlers.
//
//   - POST   /requests/borrow          (submit, idempotent)
//   - POST   /requests/return          (submit, idempotent)
//   - GET    /requests/mine            (list, ETag support)
//   - DELETE /requests/{id}            (cancel)
//   - GET    /admin/requests           (staff, paginated)
//   - PUT    /admin/requests/{id}      (staff decision)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-library-circulation/internal/domain"
	"github.com/tbourn/go-library-circulation/internal/http/middleware"
)

// BorrowRequestBody is the payload for POST /requests/borrow.
type BorrowRequestBody struct {
	TitleID string `json:"title_id" binding:"required" example:"3f0b6a52-5d0e-4a57-9a8e-0b6f9f3c1d11"`
}

// ReturnRequestBody is the payload for POST /requests/return.
type ReturnRequestBody struct {
	LoanID string `json:"loan_id" binding:"required" example:"8d7e4a3c-2c6b-4d8e-9f1a-5b2c3d4e5f60"`
}

// ListRequestsResponse is a page of requests for staff.
type ListRequestsResponse struct {
	Requests   []domain.Request `json:"requests"`
	Pagination Pagination       `json:"pagination"`
}

// DecisionResponse reports what a staff decision changed. Loan is the loan
// opened (borrow) or closed (return); Fine is an overdue fine, if assessed.
type DecisionResponse struct {
	Request *domain.Request `json:"request"`
	Loan    *domain.Loan    `json:"loan,omitempty"`
	Fine    *domain.Fine    `json:"fine,omitempty"`
}

// SubmitBorrow godoc
// @ID          submitBorrow
// @Summary     Request to borrow a title
// @Description Records a PENDING borrowing request. Availability is checked when staff approve it. Retries with the same Idempotency-Key return the original request.
// @Tags        Requests
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (header identity mode)"  example(reader-42)
// @Param       Idempotency-Key  header  string  false "Retry-safe submission key"
// @Param       body             body    handlers.BorrowRequestBody  true  "Title to borrow"
//
// @Success     201  {object}  domain.Request
// @Header      201  {string}  Idempotency-Replayed  "true when served from a stored result"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Title not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already pending"
// @Router      /requests/borrow [post]
func (h *Handlers) SubmitBorrow(c *gin.Context) {
	if h.replay(c) {
		return
	}
	var body BorrowRequestBody
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.TitleID) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title_id required")
		return
	}
	r, err := h.d.Requests.SubmitBorrow(c.Request.Context(), userID(c), strings.TrimSpace(body.TitleID))
	if err != nil {
		failErr(c, err)
		return
	}
	h.remember(c, r.ID, http.StatusCreated)
	ok(c, http.StatusCreated, r)
}

// SubmitReturn godoc
// @ID          submitReturn
// @Summary     Request to return a loan
// @Description Records a PENDING returning request for one of the caller's BORROWED loans. The loan is closed when staff accept it.
// @Tags        Requests
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (header identity mode)"  example(reader-42)
// @Param       Idempotency-Key  header  string  false "Retry-safe submission key"
// @Param       body             body    handlers.ReturnRequestBody  true  "Loan to return"
//
// @Success     201  {object}  domain.Request
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "No active loan"
// @Failure     409  {object}  handlers.ErrorResponse  "Already pending"
// @Router      /requests/return [post]
func (h *Handlers) SubmitReturn(c *gin.Context) {
	if h.replay(c) {
		return
	}
	var body ReturnRequestBody
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.LoanID) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "loan_id required")
		return
	}
	r, err := h.d.Requests.SubmitReturn(c.Request.Context(), userID(c), strings.TrimSpace(body.LoanID))
	if err != nil {
		failErr(c, err)
		return
	}
	h.remember(c, r.ID, http.StatusCreated)
	ok(c, http.StatusCreated, r)
}

// replay answers a repeated submission with the request it created the
// first time. It reports whether a response was written.
func (h *Handlers) replay(c *gin.Context) bool {
	rec, hit := middleware.ReplayRecord(c)
	if !hit {
		return false
	}
	r, err := h.d.Requests.Get(c.Request.Context(), rec.ResourceID)
	if err != nil || r.UserID != userID(c) {
		// The stored resource is gone; process the request normally.
		return false
	}
	c.Header(middleware.HeaderIdempotencyReplayed, "true")
	ok(c, rec.Status, r)
	return true
}

// ListMyRequests godoc
// @ID          listMyRequests
// @Summary     List my requests
// @Description Returns the caller's requests, newest first. Supports weak ETag via If-None-Match.
// @Tags        Requests
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (header identity mode)"  example(reader-42)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {array}   domain.Request
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Router      /requests/mine [get]
func (h *Handlers) ListMyRequests(c *gin.Context) {
	if h.notModified(c, "requests", "all", func(s StatsSource) statsFunc { return s.RequestsStats }) {
		return
	}
	items, err := h.d.Requests.ListByUser(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// CancelRequest godoc
// @ID          cancelRequest
// @Summary     Cancel my pending request
// @Description Withdraws a PENDING request. The request is kept with status CANCELLED.
// @Tags        Requests
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (header identity mode)"  example(reader-42)
// @Param       id         path    string  true  "Request ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Request
// @Failure     403  {object}  handlers.ErrorResponse  "Not the requester"
// @Failure     404  {object}  handlers.ErrorResponse  "Request not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Request is not pending"
// @Router      /requests/{id} [delete]
func (h *Handlers) CancelRequest(c *gin.Context) {
	id, good := pathUUID(c, "id", "request")
	if !good {
		return
	}
	r, err := h.d.Requests.Cancel(c.Request.Context(), id, userID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// ListRequests godoc
// @ID          listRequests
// @Summary     List all requests (staff)
// @Description Returns a page of requests, PENDING first, newest first within each status.
// @Tags        Staff
// @Produce     json
//
// @Param       X-User-Role  header  string  false "Role (header identity mode)"  example(staff)
// @Param       page         query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size    query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListRequestsResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Staff only"
// @Router      /admin/requests [get]
func (h *Handlers) ListRequests(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.d.Requests.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListRequestsResponse{Requests: items, Pagination: newPagination(page, pageSize, total)})
}

// DecideRequest godoc
// @ID          decideRequest
// @Summary     Accept or deny a pending request (staff)
// @Description Accepting a borrow request claims the oldest available copy and opens a loan; when none is available the request stays PENDING and 409 no_copy_available is returned. Accepting a return request closes the loan and assesses any overdue fine.
// @Tags        Staff
// @Produce     json
//
// @Param       X-User-Role  header  string  false "Role (header identity mode)"  example(staff)
// @Param       id           path    string  true  "Request ID (UUID)"  format(uuid)
// @Param       status       query   string  true  "Decision"  Enums(ACCEPTED, DENIED)
//
// @Success     200  {object}  handlers.DecisionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad decision"
// @Failure     404  {object}  handlers.ErrorResponse  "Request not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already decided or no copy available"
// @Router      /admin/requests/{id} [put]
func (h *Handlers) DecideRequest(c *gin.Context) {
	id, good := pathUUID(c, "id", "request")
	if !good {
		return
	}
	out, err := h.d.Circulation.Decide(c.Request.Context(), id, c.Query("status"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, DecisionResponse{Request: out.Request, Loan: out.Loan, Fine: out.Fine})
}

// pathUUID reads a UUID path parameter, answering 400 when it is malformed.
func pathUUID(c *gin.Context, param, what string) (string, bool) {
	id := c.Param(param)
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, what+" id must be a UUID")
		return "", false
	}
	return id, true
}
