// Loan HTTP handlers.
//
//   - GET  /loans/mine               (list, ?status=, ETag support)
//   - GET  /admin/loans              (staff, paginated, ?status=)
//   - GET  /admin/loans/overdue      (staff)
//   - PUT  /admin/loans/{id}/return  (staff direct return)
//   - PUT  /admin/loans/{id}/lost    (staff write-off)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-library-circulation/internal/domain"
)

// ListLoansResponse is a page of loans for staff.
type ListLoansResponse struct {
	Loans      []domain.Loan `json:"loans"`
	Pagination Pagination    `json:"pagination"`
}

// ReturnResponse reports what a direct return changed.
type ReturnResponse struct {
	Loan *domain.Loan `json:"loan"`
	Copy *domain.Copy `json:"copy"`
	// Fine is omitted when the loan came back on time.
	Fine *domain.Fine `json:"fine,omitempty"`
	// AcceptedRequests lists pending return requests accepted by this return.
	AcceptedRequests []string `json:"accepted_requests"`
}

// ListMyLoans godoc
// @ID          listMyLoans
// @Summary     List my loans
// @Description Returns the caller's loans, most recent first. status filters by loan status; empty, ALL or unknown values list every loan.
// @Tags        Loans
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (header identity mode)"  example(reader-42)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       status         query   string  false "Loan status"  Enums(ALL, BORROWED, RETURNED, NONRETURNABLE)
//
// @Success     200  {array}   domain.Loan
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Router      /loans/mine [get]
func (h *Handlers) ListMyLoans(c *gin.Context) {
	filter := strings.ToUpper(strings.TrimSpace(c.Query("status")))
	variant := filter
	if variant == "" {
		variant = "ALL"
	}
	if h.notModified(c, "loans", variant, func(s StatsSource) statsFunc { return s.LoansStats }) {
		return
	}
	items, err := h.d.Loans.ListByUser(c.Request.Context(), userID(c), filter)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// ListLoans godoc
// @ID          listLoans
// @Summary     List all loans (staff)
// @Tags        Staff
// @Produce     json
//
// @Param       X-User-Role  header  string  false "Role (header identity mode)"  example(staff)
// @Param       status       query   string  false "Loan status"  Enums(ALL, BORROWED, RETURNED, NONRETURNABLE)
// @Param       page         query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size    query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListLoansResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Staff only"
// @Router      /admin/loans [get]
func (h *Handlers) ListLoans(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.d.Loans.ListPage(c.Request.Context(), c.Query("status"), page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListLoansResponse{Loans: items, Pagination: newPagination(page, pageSize, total)})
}

// ListOverdue godoc
// @ID          listOverdueLoans
// @Summary     List overdue loans (staff)
// @Description Returns BORROWED loans whose due date has passed, earliest due first.
// @Tags        Staff
// @Produce     json
//
// @Param       X-User-Role  header  string  false "Role (header identity mode)"  example(staff)
//
// @Success     200  {array}   domain.Loan
// @Router      /admin/loans/overdue [get]
func (h *Handlers) ListOverdue(c *gin.Context) {
	items, err := h.d.Loans.ListOverdue(c.Request.Context(), h.d.Now())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// ReturnLoan godoc
// @ID          returnLoan
// @Summary     Return a loan (staff)
// @Description Closes a BORROWED loan, assesses the overdue fine if late and puts the copy back on the shelf. A pending return request for the loan is accepted too.
// @Tags        Staff
// @Produce     json
//
// @Param       X-User-Role  header  string  false "Role (header identity mode)"  example(staff)
// @Param       id           path    string  true  "Loan ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.ReturnResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Loan not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Loan is not borrowed"
// @Router      /admin/loans/{id}/return [put]
func (h *Handlers) ReturnLoan(c *gin.Context) {
	id, good := pathUUID(c, "id", "loan")
	if !good {
		return
	}
	out, err := h.d.Circulation.ReturnLoan(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	accepted := out.AcceptedRequests
	if accepted == nil {
		accepted = []string{}
	}
	ok(c, http.StatusOK, ReturnResponse{Loan: out.Loan, Copy: out.Copy, Fine: out.Fine, AcceptedRequests: accepted})
}

// DeclareLost godoc
// @ID          declareLoanLost
// @Summary     Declare a borrowed copy lost (staff)
// @Description Closes the loan as NONRETURNABLE and marks its copy LOST. Pending return requests for the loan are denied.
// @Tags        Staff
// @Produce     json
//
// @Param       X-User-Role  header  string  false "Role (header identity mode)"  example(staff)
// @Param       id           path    string  true  "Loan ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Loan
// @Failure     404  {object}  handlers.ErrorResponse  "Loan not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Loan is not borrowed"
// @Router      /admin/loans/{id}/lost [put]
func (h *Handlers) DeclareLost(c *gin.Context) {
	id, good := pathUUID(c, "id", "loan")
	if !good {
		return
	}
	loan, err := h.d.Circulation.DeclareLost(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, loan)
}
