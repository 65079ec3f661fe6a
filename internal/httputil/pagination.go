package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Page bounds the offset/limit query parameters of one listing endpoint.
type Page struct {
	DefaultLimit int
	MaxLimit     int
}

// DeadLetterPage bounds GET /v1/dead-letters and the list-dead-letters command.
var DeadLetterPage = Page{DefaultLimit: 50, MaxLimit: 200}

// CheckLimit reports whether limit is within 1 and p.MaxLimit.
func (p Page) CheckLimit(limit int) error {
	if limit < 1 || limit > p.MaxLimit {
		return fmt.Errorf("invalid limit parameter: must be between 1 and %d", p.MaxLimit)
	}
	return nil
}

// ParsePagination reads offset (default 0) and limit (default p.DefaultLimit)
// from the query string.
func ParsePagination(c *gin.Context, p Page) (offset, limit int, err error) {
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("invalid offset parameter: must be a non-negative integer")
	}

	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(p.DefaultLimit)))
	if err != nil {
		return 0, 0, p.CheckLimit(0)
	}
	if err := p.CheckLimit(limit); err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}
