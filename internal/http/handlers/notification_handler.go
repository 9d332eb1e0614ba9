package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-library-circulation/internal/utils"
)

// MarkReadResponse reports how many notifications were marked read.
type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}

// Subscribe godoc
// @ID          subscribeTitle
// @Summary     Get notified when a title is back on the shelf
// @Description Subscribing twice is a no-op.
// @Tags        Notifications
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (header identity mode)"  example(reader-42)
// @Param       id         path    string  true  "Title ID (UUID)"  format(uuid)
//
// @Success     201  {object}  domain.Subscription
// @Failure     404  {object}  handlers.ErrorResponse  "Title not found"
// @Router      /titles/{id}/subscriptions [post]
func (h *Handlers) Subscribe(c *gin.Context) {
	id, good := pathUUID(c, "id", "title")
	if !good {
		return
	}
	s, err := h.d.Notifications.Subscribe(c.Request.Context(), userID(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, s)
}

// Unsubscribe godoc
// @ID          unsubscribeTitle
// @Summary     Stop back-in-stock notifications for a title
// @Tags        Notifications
//
// @Param       X-User-ID  header  string  false "User ID (header identity mode)"  example(reader-42)
// @Param       id         path    string  true  "Title ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Router      /titles/{id}/subscriptions [delete]
func (h *Handlers) Unsubscribe(c *gin.Context) {
	id, good := pathUUID(c, "id", "title")
	if !good {
		return
	}
	if err := h.d.Notifications.Unsubscribe(c.Request.Context(), userID(c), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// ListNotifications godoc
// @ID          listNotifications
// @Summary     List my notifications
// @Tags        Notifications
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (header identity mode)"  example(reader-42)
// @Param       limit      query   int     false "Max items"  minimum(1) maximum(100) default(50)
//
// @Success     200  {array}  domain.Notification
// @Router      /notifications [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	limit := utils.Clamp(utils.AtoiDefault(c.Query("limit"), 50), 1, 100)
	items, err := h.d.Notifications.ListNotifications(c.Request.Context(), userID(c), limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// MarkNotificationsRead godoc
// @ID          markNotificationsRead
// @Summary     Mark all my notifications read
// @Tags        Notifications
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (header identity mode)"  example(reader-42)
//
// @Success     200  {object}  handlers.MarkReadResponse
// @Router      /notifications/read [put]
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	n, err := h.d.Notifications.MarkAllRead(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, MarkReadResponse{Updated: n})
}
