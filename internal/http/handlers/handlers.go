// Package handlers exposes the circulation core over JSON/HTTP.
//
// Handlers are transport-thin: they bind input, take the caller from the
// identity middleware, call a service and translate the result (or the
// error kind) into a response. Swagger annotations on each handler feed the
// generated docs package.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-library-circulation/internal/domain"
	"github.com/tbourn/go-library-circulation/internal/http/middleware"
	"github.com/tbourn/go-library-circulation/internal/services"
	"github.com/tbourn/go-library-circulation/internal/utils"
)

// CatalogService manages catalog titles.
type CatalogService interface {
	CreateTitle(ctx context.Context, name, coverURL string) (*domain.Title, error)
	GetTitle(ctx context.Context, id string) (*domain.Title, error)
	ListTitles(ctx context.Context, page, pageSize int) ([]domain.Title, int64, error)
}

// CopyService manages physical copies.
type CopyService interface {
	Add(ctx context.Context, titleID, condition string) (*domain.Copy, error)
	ListByTitle(ctx context.Context, titleID string) ([]domain.Copy, error)
	Availability(ctx context.Context, titleID string) (map[domain.CopyStatus]int64, error)
	MarkLost(ctx context.Context, copyID string) (*domain.Copy, error)
}

// RequestService records borrow and return requests.
type RequestService interface {
	SubmitBorrow(ctx context.Context, userID, titleID string) (*domain.Request, error)
	SubmitReturn(ctx context.Context, userID, loanID string) (*domain.Request, error)
	Cancel(ctx context.Context, requestID, byUserID string) (*domain.Request, error)
	Get(ctx context.Context, requestID string) (*domain.Request, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Request, error)
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Request, int64, error)
}

// LoanService reads the loan ledger.
type LoanService interface {
	ListByUser(ctx context.Context, userID, filter string) ([]domain.Loan, error)
	ListPage(ctx context.Context, filter string, page, pageSize int) ([]domain.Loan, int64, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Loan, error)
}

// FineService manages outstanding fines.
type FineService interface {
	CreateManual(ctx context.Context, userID string, amount int64, description string, loanID *string) (*domain.Fine, error)
	Settle(ctx context.Context, fineID string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Fine, error)
	Outstanding(ctx context.Context, userID string) (int64, error)
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Fine, int64, error)
}

// CirculationService runs the multi-record operations: decisions, returns
// and write-offs.
type CirculationService interface {
	Decide(ctx context.Context, requestID, decision string) (*services.DecisionOutcome, error)
	ReturnLoan(ctx context.Context, loanID string) (*services.ReturnOutcome, error)
	DeclareLost(ctx context.Context, loanID string) (*domain.Loan, error)
}

// NotificationService manages back-in-stock subscriptions and the inbox.
type NotificationService interface {
	Subscribe(ctx context.Context, userID, titleID string) (*domain.Subscription, error)
	Unsubscribe(ctx context.Context, userID, titleID string) error
	ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// IdempotencyStore remembers the resource created for an Idempotency-Key.
type IdempotencyStore interface {
	Remember(ctx context.Context, userID, scope, key, resourceID string, status int) error
}

// StatsSource reports (row count, latest update) per user for weak ETags.
type StatsSource interface {
	RequestsStats(ctx context.Context, userID string) (int64, *time.Time, error)
	LoansStats(ctx context.Context, userID string) (int64, *time.Time, error)
	FinesStats(ctx context.Context, userID string) (int64, *time.Time, error)
}

// Deps lists the services behind the handlers. Idempotency and Stats are
// optional.
type Deps struct {
	Catalog       CatalogService
	Copies        CopyService
	Requests      RequestService
	Loans         LoanService
	Fines         FineService
	Circulation   CirculationService
	Notifications NotificationService

	Idempotency IdempotencyStore
	Stats       StatsSource

	// Now is the clock for overdue listings; nil means time.Now.
	Now func() time.Time
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	d Deps
}

// New returns Handlers bound to d.
func New(d Deps) *Handlers {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Handlers{d: d}
}

// userID returns the caller identified by middleware.Identity.
func userID(c *gin.Context) string {
	if uid := middleware.UserID(c); uid != "" {
		return uid
	}
	return middleware.DemoUser
}

// clampPagination reads page and page_size, bounded to [1, 100].
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	pageSize = utils.Clamp(pageSize, 1, maxPageSize)
	return page, pageSize
}

type statsFunc func(ctx context.Context, userID string) (int64, *time.Time, error)

// notModified sets a weak ETag for the caller's collection and reports
// whether If-None-Match already matches it. variant distinguishes filtered
// views of the same collection. Stats failures just skip the ETag.
func (h *Handlers) notModified(c *gin.Context, kind, variant string, pick func(StatsSource) statsFunc) bool {
	if h.d.Stats == nil {
		return false
	}
	uid := userID(c)
	count, latest, err := pick(h.d.Stats)(c.Request.Context(), uid)
	if err != nil {
		return false
	}
	var ts int64
	if latest != nil {
		ts = latest.UnixNano()
	}
	etag := fmt.Sprintf(`W/"%s:%s:%s:%d:%d"`, kind, uid, variant, count, ts)
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

// remember stores the idempotency record for a successful submission. It is
// best effort: a failure only means a retry will create a duplicate attempt,
// which the services reject as a conflict.
func (h *Handlers) remember(c *gin.Context, resourceID string, status int) {
	key, ok := middleware.GetIdempotencyKey(c)
	if !ok || h.d.Idempotency == nil {
		return
	}
	err := h.d.Idempotency.Remember(c.Request.Context(), userID(c), middleware.IdempotencyScope(c), key, resourceID, status)
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("key", key).Msg("idempotency record not stored")
	}
}

// Register mounts the member endpoints on api and the staff endpoints on
// staff. The caller is responsible for guarding staff with
// middleware.RequireStaff.
func (h *Handlers) Register(api, staff gin.IRoutes) {
	api.GET("/titles", h.ListTitles)
	api.GET("/titles/:id/copies", h.ListCopies)
	api.POST("/titles/:id/subscriptions", h.Subscribe)
	api.DELETE("/titles/:id/subscriptions", h.Unsubscribe)

	api.POST("/requests/borrow", h.SubmitBorrow)
	api.POST("/requests/return", h.SubmitReturn)
	api.GET("/requests/mine", h.ListMyRequests)
	api.DELETE("/requests/:id", h.CancelRequest)

	api.GET("/loans/mine", h.ListMyLoans)
	api.GET("/fines/mine", h.ListMyFines)

	api.GET("/notifications", h.ListNotifications)
	api.PUT("/notifications/read", h.MarkNotificationsRead)

	staff.GET("/requests", h.ListRequests)
	staff.PUT("/requests/:id", h.DecideRequest)

	staff.GET("/loans", h.ListLoans)
	staff.GET("/loans/overdue", h.ListOverdue)
	staff.PUT("/loans/:id/return", h.ReturnLoan)
	staff.PUT("/loans/:id/lost", h.DeclareLost)

	staff.GET("/fines", h.ListFines)
	staff.POST("/fines", h.CreateFine)
	staff.DELETE("/fines/:id", h.SettleFine)

	staff.POST("/titles", h.CreateTitle)
	staff.POST("/titles/:id/copies", h.AddCopy)
	staff.PUT("/copies/:id/lost", h.MarkCopyLost)
}
