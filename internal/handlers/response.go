package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/01moynul/tradelink-golang/internal/auth"
	"github.com/01moynul/tradelink-golang/internal/middleware"
	"github.com/01moynul/tradelink-golang/internal/models"
	"github.com/01moynul/tradelink-golang/internal/pagination"
	"github.com/gin-gonic/gin"
)

// respond writes the success envelope {success, message, data}.
func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{"success": true, "message": message, "data": data})
}

// respondPage writes a paginated list: the envelope plus meta.
func respondPage[T any](c *gin.Context, message string, page pagination.Page[T]) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "meta": page.Meta, "data": page.Data})
}

// fail maps err onto the error envelope. Server errors are logged with the
// request id and reported generically.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		h.Logger.ErrorContext(c.Request.Context(), "request failed",
			"request_id", c.GetString(middleware.RequestIDKey),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err)
	}
	c.JSON(status, gin.H{"success": false, "message": apperr.Message(err)})
}

// badInput reports a body that failed to bind or validate.
func badInput(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body", "error": err.Error()})
}

// bindOptionalJSON binds a body that may be empty.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// currentActor returns the actor set by the auth middleware.
func currentActor(c *gin.Context) (models.Actor, error) {
	return auth.ActorFromContext(c.Request.Context())
}

func paramID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", apperr.ErrBadRequest, name)
	}
	return id, nil
}

func pageParams(c *gin.Context) pagination.Params {
	return pagination.Parse(c.Query("page"), c.Query("limit"))
}
