package service

import (
	"errors"
	"fmt"
)

const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeStoreLoading  = "STORE_LOADING"
	CodePersistFailed = "PERSIST_FAILED"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(id string) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("элемент %s не найден", id),
		Details: map[string]any{
			"id": id,
		},
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

func NewLoadingError() *BusinessError {
	return &BusinessError{
		Code:    CodeStoreLoading,
		Message: "список ещё загружается",
		Details: map[string]any{},
	}
}

// NewPersistError не отменяет изменение в памяти: оно уже применено
func NewPersistError(err error) *BusinessError {
	return &BusinessError{
		Code:    CodePersistFailed,
		Message: "изменение применено, но не сохранено",
		Details: map[string]any{},
		Err:     err,
	}
}

// Code достаёт код бизнес-ошибки из цепочки
func Code(err error) string {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr.Code
	}
	return ""
}

// IsPersistError: операция выполнена, но запись в слот не удалась
func IsPersistError(err error) bool {
	return Code(err) == CodePersistFailed
}
