package handlers

import (
	"errors"
	"net/http"

	"bucketList/internal/logger"
	"bucketList/internal/service"

	"go.uber.org/zap"
)

func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	if statusCode == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
	return true
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeStoreLoading:
		return http.StatusServiceUnavailable
	case service.CodePersistFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// warningPayload описывает изменение, которое применено, но не сохранено
func warningPayload(err error) Payload {
	var businessErr *service.BusinessError
	errors.As(err, &businessErr)

	warning := map[string]any{
		"code":    service.CodePersistFailed,
		"message": businessErr.Message,
	}
	if businessErr.Err != nil {
		warning["cause"] = businessErr.Err.Error()
	}
	return toPayload("warning", warning)
}

// respondMutation отвечает на изменяющий запрос. Ошибка записи не отменяет
// изменение, поэтому ответ остаётся успешным и несёт warning; 204 без тела
// в этом случае становится 200.
func respondMutation(w http.ResponseWriter, code int, err error, payload ...Payload) {
	if service.IsPersistError(err) {
		logger.Warn("HTTP: Изменение не сохранено", zap.Error(err))
		if code == http.StatusNoContent {
			code = http.StatusOK
		}
		payload = append(payload, warningPayload(err))
	}
	responseWithJSON(w, code, payload...)
}
