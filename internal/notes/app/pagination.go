package app

import (
	"notechan/internal/notes/ports/api"
)

// MaxPageSize - верхняя граница размера страницы.
const MaxPageSize = 100

// Сообщения ошибок пагинации.
const (
	ErrMsgNegativeSkip = "skip must not be negative"
	ErrMsgBadLimit     = "limit must be positive"
	ErrMsgNegativePage = "page must not be negative"
)

// normalizePage проверяет параметры выборки и ограничивает размер страницы.
func normalizePage(q api.PageQuery) (api.PageQuery, error) {
	if q.Skip < 0 {
		return q, InvalidInput(ErrMsgNegativeSkip)
	}
	if q.Limit <= 0 {
		return q, InvalidInput(ErrMsgBadLimit)
	}
	if q.Page < 0 {
		return q, InvalidInput(ErrMsgNegativePage)
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	return q, nil
}

// buildPageMeta считает метаданные страницы. q должен быть нормализован.
func buildPageMeta(q api.PageQuery, total int64) api.PageMeta {
	limit := int64(q.Limit)

	current := q.Page
	if current == 0 {
		current = q.Skip/q.Limit + 1
	}

	return api.PageMeta{
		TotalRecords: total,
		TotalPages:   (total + limit - 1) / limit,
		CurrentPage:  current,
		PageSize:     q.Limit,
	}
}
