package model

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// PageRequest параметры постраничной выборки, страницы нумеруются с 1
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize подставляет значения по умолчанию
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	return r
}

func (r PageRequest) Offset() int {
	n := r.Normalize()
	return (n.Page - 1) * n.Limit
}

type Page[T any] struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	Limit    int `json:"limit"`
	LastPage int `json:"last_page"`
	Data     []T `json:"data"`
}

// NewPage собирает страницу; LastPage = ceil(total/limit)
func NewPage[T any](data []T, total int, req PageRequest) *Page[T] {
	req = req.Normalize()
	if data == nil {
		data = []T{}
	}
	return &Page[T]{
		Total:    total,
		Page:     req.Page,
		Limit:    req.Limit,
		LastPage: (total + req.Limit - 1) / req.Limit,
		Data:     data,
	}
}
