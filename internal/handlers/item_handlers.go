package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"bucketList/internal/handlers/dto"
	"bucketList/internal/logger"
	"bucketList/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type ItemHandler struct {
	Store ItemStore
	now   func() time.Time
}

func NewItemHandler(store ItemStore) ItemHandler {
	return ItemHandler{
		Store: store,
		now:   time.Now,
	}
}

func (h *ItemHandler) GetItems(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	snapshot := h.Store.Snapshot()
	active, completed := snapshot.Active(), snapshot.Completed()

	logger.Info("HTTP_OUT: Список получен",
		zap.Int("items", len(snapshot.Items)),
		zap.Bool("is_loading", snapshot.IsLoading),
		zap.Duration("ms", time.Since(start)))

	responseWithJSON(w, http.StatusOK,
		toPayload("items", dto.FromItemList(snapshot.Items, h.now())),
		toPayload("is_loading", snapshot.IsLoading),
		toPayload("active_count", len(active)),
		toPayload("completed_count", len(completed)),
	)
}

func (h *ItemHandler) GetActiveItems(w http.ResponseWriter, r *http.Request) {
	snapshot := h.Store.Snapshot()
	active := snapshot.Active()

	responseWithJSON(w, http.StatusOK,
		toPayload("items", dto.FromItemList(active, h.now())),
		toPayload("count", len(active)),
		toPayload("is_loading", snapshot.IsLoading),
	)
}

func (h *ItemHandler) GetCompletedItems(w http.ResponseWriter, r *http.Request) {
	snapshot := h.Store.Snapshot()
	completed := snapshot.Completed()

	responseWithJSON(w, http.StatusOK,
		toPayload("items", dto.FromItemList(completed, h.now())),
		toPayload("count", len(completed)),
		toPayload("is_loading", snapshot.IsLoading),
	)
}

func (h *ItemHandler) PostItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if !checkContentType(r, "application/json") {

		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateItemRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()

	if err := decoder.Decode(&request); err != nil {

		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	item, err := h.Store.Add(r.Context(), request.Title, request.Options()...)
	if err != nil && !service.IsPersistError(err) {
		if handleBusinessError(w, err) {
			return
		}

		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "add_item"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Цель добавлена",
		zap.String("item_id", item.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	respondMutation(w, http.StatusCreated, err, toPayload("item", dto.FromItem(item, h.now())))
}

func (h *ItemHandler) GetItemByID(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := h.Store.Get(r.Context(), id)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка в Service", err, zap.String("operation", "get_item"))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("item", dto.FromItem(item, h.now())))
}

func (h *ItemHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, found, err := h.Store.ToggleComplete(r.Context(), id)
	if err != nil && !service.IsPersistError(err) {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка в Service", err, zap.String("operation", "toggle_item"))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !found {
		logger.Info("HTTP_OUT: Цель для переключения не найдена",
			zap.String("item_id", id),
			zap.Int("http_status", http.StatusNoContent))
		respondMutation(w, http.StatusNoContent, err, toPayload("found", false))
		return
	}

	logger.Info("HTTP_OUT: Цель переключена",
		zap.String("item_id", id),
		zap.Bool("completed", item.Completed),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	respondMutation(w, http.StatusOK, err, toPayload("item", dto.FromItem(item, h.now())))
}

func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, ok := itemID(w, r)
	if !ok {
		return
	}

	removed, err := h.Store.DeleteItem(r.Context(), id)
	if err != nil && !service.IsPersistError(err) {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "delete_item"),
			zap.String("client_addr", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Цель удалена",
		zap.String("item_id", id),
		zap.Bool("removed", removed),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	respondMutation(w, http.StatusNoContent, err, toPayload("removed", removed))
}

func (h *ItemHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.Store.IsLoading() {
		w.Header().Set("Retry-After", "1")
		responseWithJSON(w, http.StatusServiceUnavailable, toPayload("status", "loading"))
		return
	}

	if err := h.Store.HealthCheck(r.Context()); err != nil {
		logger.Warn("HTTP: Проверка здоровья не пройдена", zap.Error(err))
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unhealthy"),
			toPayload("error", err.Error()),
		)
		return
	}

	st := h.Store.Status(r.Context())
	state := "ok"
	payload := []Payload{
		toPayload("items", st.Items),
		toPayload("dirty", st.Dirty),
	}
	if st.SlotVersion >= 0 {
		payload = append(payload, toPayload("slot_version", st.SlotVersion))
	}
	// сервис отвечает, но последнее сохранение не удалось
	if st.LastSaveError != nil {
		state = "degraded"
		payload = append(payload, toPayload("last_save_error", st.LastSaveError.Error()))
	}

	payload = append(payload, toPayload("status", state))
	responseWithJSON(w, http.StatusOK, payload...)
}

func itemID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {

		logger.Warn("HTTP: Неверное значение id",
			zap.String("error", "empty id"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "id не может быть пустым")
		return "", false
	}
	return id, true
}
