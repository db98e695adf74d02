package pagination

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultSize = 10
	MaxSize     = 100
)

// Params is a zero-based page request.
type Params struct {
	Page int
	Size int
}

// FromContext reads ?page= (zero-based) and ?size=. limit/offset are
// accepted as a fallback and converted to the enclosing page.
func FromContext(c echo.Context) Params {
	size, _ := strconv.Atoi(c.QueryParam("size"))
	if size <= 0 {
		size, _ = strconv.Atoi(c.QueryParam("limit"))
	}
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil {
		offset, _ := strconv.Atoi(c.QueryParam("offset"))
		page = offset / size
	}
	if page < 0 {
		page = 0
	}

	return Params{Page: page, Size: size}
}

func (p Params) Limit() int  { return p.Size }
func (p Params) Offset() int { return p.Page * p.Size }

// SQL returns the LIMIT and OFFSET clause for SQL queries.
func (p Params) SQL() string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", p.Limit(), p.Offset())
}

// Page is the paged list shape the web clients consume.
type Page[T any] struct {
	Content          []T  `json:"content"`
	TotalElements    int  `json:"totalElements"`
	TotalPages       int  `json:"totalPages"`
	Size             int  `json:"size"`
	Number           int  `json:"number"`
	First            bool `json:"first"`
	Last             bool `json:"last"`
	NumberOfElements int  `json:"numberOfElements"`
	Empty            bool `json:"empty"`
}

func NewPage[T any](content []T, total int, p Params) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if p.Size > 0 {
		totalPages = (total + p.Size - 1) / p.Size
	}
	return Page[T]{
		Content:          content,
		TotalElements:    total,
		TotalPages:       totalPages,
		Size:             p.Size,
		Number:           p.Page,
		First:            p.Page == 0,
		Last:             p.Page >= totalPages-1,
		NumberOfElements: len(content),
		Empty:            len(content) == 0,
	}
}
