// Package app implements application business logic for the notes service.
package app

import (
	"errors"
	"fmt"
	"net/http"

	"notechan/internal/notes/domain/entities"
)

// Kind классифицирует ошибку операции.
type Kind int

// Виды ошибок.
const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidInput
	KindStoreFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindStoreFailure:
		return "store_failure"
	default:
		return "internal"
	}
}

// HTTPStatus возвращает HTTP-код для вида ошибки.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error - типизированная ошибка операции сервиса.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode возвращает HTTP-код ошибки.
func (e *Error) StatusCode() int {
	return e.Kind.HTTPStatus()
}

// NotFound создает ошибку вида KindNotFound.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// InvalidInput создает ошибку вида KindInvalidInput.
func InvalidInput(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

// KindOf возвращает вид ошибки; неклассифицированные ошибки считаются KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// classify переводит ошибку хранилища в *Error на границе сервиса.
// Уже классифицированные ошибки проходят без изменений, msg используется
// только для сбоев хранилища.
func classify(msg string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, entities.ErrNoteNotFound):
		return &Error{Kind: KindNotFound, Message: entities.ErrNoteNotFound.Error(), Err: err}
	case errors.Is(err, entities.ErrChannelNotFound):
		return &Error{Kind: KindNotFound, Message: entities.ErrChannelNotFound.Error(), Err: err}
	case errors.Is(err, entities.ErrInvalidID):
		return &Error{Kind: KindInvalidInput, Message: entities.ErrInvalidID.Error(), Err: err}
	default:
		return &Error{Kind: KindStoreFailure, Message: msg, Err: err}
	}
}
