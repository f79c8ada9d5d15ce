package httpapi

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/kanban/internal/apperr"
)

// InvalidLimitMessage is returned for a non-numeric limit parameter.
const InvalidLimitMessage = "Invalid limit"

// bindJSON decodes a required body.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.Validation("%s", InvalidBodyMessage)
	}
	return nil
}

// bindOptionalJSON decodes a body that may be absent.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("%s", InvalidBodyMessage)
	}
	return nil
}

// queryLimit parses ?limit=; zero means the service default.
func queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Validation("%s", InvalidLimitMessage)
	}
	return n, nil
}

// list keeps empty collections rendering as [] rather than null.
func list[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
