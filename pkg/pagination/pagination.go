package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts pagination parameters from the echo context. Both
// limit/offset and page/per_page are accepted; page wins when present.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit, _ = strconv.Atoi(c.QueryParam("per_page"))
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if page, _ := strconv.Atoi(c.QueryParam("page")); page > 0 {
		offset = (page - 1) * limit
	}
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// Response wraps a paginated API response.
type Response struct {
	Data     interface{} `json:"data"`
	Total    int         `json:"total"`
	Limit    int         `json:"limit"`
	Offset   int         `json:"offset"`
	Page     int         `json:"page"`
	LastPage int         `json:"last_page"`
	HasMore  bool        `json:"has_more"`
}

func NewResponse(data interface{}, total, limit, offset int) *Response {
	r := &Response{
		Data:     data,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
		Page:     1,
		LastPage: 1,
		HasMore:  offset+limit < total,
	}
	if limit > 0 {
		r.Page = offset/limit + 1
		if total > 0 {
			r.LastPage = (total + limit - 1) / limit
		}
	}
	return r
}
