// Package api определяет входные порты сервиса заметок и формы их ответов.
package api

// Envelope - единая форма ответа каждой операции.
type Envelope[T any] struct {
	Data       T   `json:"data"`
	StatusCode int `json:"statusCode"`
}

// Wrap упаковывает data в Envelope со статусом code.
func Wrap[T any](data T, code int) Envelope[T] {
	return Envelope[T]{Data: data, StatusCode: code}
}

// PageQuery - параметры постраничной выборки.
// Page не обязателен: при нуле текущая страница вычисляется из Skip и Limit.
type PageQuery struct {
	Skip  int
	Limit int
	Page  int
}

// PageMeta - метаданные страницы.
type PageMeta struct {
	TotalRecords int64 `json:"totalRecords"`
	TotalPages   int64 `json:"totalPages"`
	CurrentPage  int   `json:"currentPage"`
	PageSize     int   `json:"pageSize"`
}

// Page - страница элементов с метаданными.
type Page[T any] struct {
	Items []T      `json:"items"`
	Meta  PageMeta `json:"meta"`
}
