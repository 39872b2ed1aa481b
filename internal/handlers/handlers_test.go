package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bucketList/internal/config"
	"bucketList/internal/handlers"
	"bucketList/internal/models/bucket"
	"bucketList/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockItemStore - мок хранилища целей
type MockItemStore struct {
	mock.Mock
}

func (m *MockItemStore) Snapshot() service.Snapshot {
	args := m.Called()
	return args.Get(0).(service.Snapshot)
}

func (m *MockItemStore) IsLoading() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockItemStore) Get(ctx context.Context, id string) (bucket.Item, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(bucket.Item), args.Error(1)
}

func (m *MockItemStore) Add(ctx context.Context, title string, options ...bucket.ItemOption) (bucket.Item, error) {
	args := m.Called(ctx, title, options)
	return args.Get(0).(bucket.Item), args.Error(1)
}

func (m *MockItemStore) ToggleComplete(ctx context.Context, id string) (bucket.Item, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(bucket.Item), args.Bool(1), args.Error(2)
}

func (m *MockItemStore) DeleteItem(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockItemStore) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockItemStore) Status(ctx context.Context) service.Status {
	args := m.Called(ctx)
	return args.Get(0).(service.Status)
}

var _ handlers.ItemStore = (*MockItemStore)(nil)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func activeItem(id, title string) bucket.Item {
	return bucket.New(id, title, testNow.Add(-48*time.Hour))
}

func completedItem(id, title string) bucket.Item {
	item := activeItem(id, title)
	item.Complete(testNow.Add(-3 * time.Hour))
	return item
}

func serve(t *testing.T, store *MockItemStore, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	router := handlers.NewRouter(store, config.HTTPConfig{
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// TestGetItems тестирует список с количеством активных и выполненных
func TestGetItems(t *testing.T) {
	store := new(MockItemStore)
	store.On("Snapshot").Return(service.Snapshot{Items: []bucket.Item{
		activeItem("1", "Visit Tokyo"),
		completedItem("2", "Learn piano"),
		activeItem("3", "Skydive"),
	}})

	rec := serve(t, store, httptest.NewRequest(http.MethodGet, "/items", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	body := decodeBody(t, rec)
	assert.Len(t, body["items"], 3)
	assert.Equal(t, false, body["is_loading"])
	assert.Equal(t, float64(2), body["active_count"])
	assert.Equal(t, float64(1), body["completed_count"])

	completed := body["items"].([]any)[1].(map[string]any)
	assert.Equal(t, true, completed["completed"])
	assert.NotEmpty(t, completed["completed_on"])
	assert.NotEmpty(t, completed["completed_ago"])

	active := body["items"].([]any)[0].(map[string]any)
	_, hasCompletedOn := active["completed_on"]
	assert.False(t, hasCompletedOn)
}

// TestGetItems_Loading проверяет флаг загрузки
func TestGetItems_Loading(t *testing.T) {
	store := new(MockItemStore)
	store.On("Snapshot").Return(service.Snapshot{Items: []bucket.Item{}, IsLoading: true})

	rec := serve(t, store, httptest.NewRequest(http.MethodGet, "/items", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["is_loading"])
	assert.Empty(t, body["items"])
}

// TestGetViews тестирует вкладки активных и выполненных
func TestGetViews(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		expectedID string
	}{
		{name: "active", path: "/items/active", expectedID: "1"},
		{name: "completed", path: "/items/completed", expectedID: "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockItemStore)
			store.On("Snapshot").Return(service.Snapshot{Items: []bucket.Item{
				activeItem("1", "Visit Tokyo"),
				completedItem("2", "Learn piano"),
			}})

			rec := serve(t, store, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, http.StatusOK, rec.Code)

			body := decodeBody(t, rec)
			assert.Equal(t, float64(1), body["count"])
			items := body["items"].([]any)
			require.Len(t, items, 1)
			assert.Equal(t, tt.expectedID, items[0].(map[string]any)["id"])
		})
	}
}

// TestPostItem тестирует добавление цели
func TestPostItem(t *testing.T) {
	tests := []struct {
		name           string
		contentType    string
		body           string
		setupMock      func(*MockItemStore)
		expectedStatus int
		checkBody      func(*testing.T, map[string]any)
	}{
		{
			name:        "success - created",
			contentType: "application/json",
			body:        `{"title":"Visit Tokyo","description":"spring","image_uri":"file:///tokyo.png"}`,
			setupMock: func(m *MockItemStore) {
				m.On("Add", mock.Anything, "Visit Tokyo", mock.Anything).
					Return(activeItem("1", "Visit Tokyo"), nil)
			},
			expectedStatus: http.StatusCreated,
			checkBody: func(t *testing.T, body map[string]any) {
				item := body["item"].(map[string]any)
				assert.Equal(t, "1", item["id"])
				assert.Equal(t, false, item["completed"])
				assert.NotContains(t, body, "warning")
			},
		},
		{
			name:        "success - charset in content type",
			contentType: "application/json; charset=utf-8",
			body:        `{"title":"Skydive"}`,
			setupMock: func(m *MockItemStore) {
				m.On("Add", mock.Anything, "Skydive", mock.Anything).
					Return(activeItem("2", "Skydive"), nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "persisted with warning",
			contentType: "application/json",
			body:        `{"title":"Visit Tokyo"}`,
			setupMock: func(m *MockItemStore) {
				m.On("Add", mock.Anything, "Visit Tokyo", mock.Anything).
					Return(activeItem("1", "Visit Tokyo"), service.NewPersistError(errors.New("disk full")))
			},
			expectedStatus: http.StatusCreated,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Contains(t, body, "item")
				warning := body["warning"].(map[string]any)
				assert.Equal(t, service.CodePersistFailed, warning["code"])
				assert.Equal(t, "disk full", warning["cause"])
			},
		},
		{
			name:        "error - empty title",
			contentType: "application/json",
			body:        `{"title":"   "}`,
			setupMock: func(m *MockItemStore) {
				m.On("Add", mock.Anything, "   ", mock.Anything).
					Return(bucket.Item{}, service.NewValidationError("title", "название не может быть пустым"))
			},
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, service.CodeValidation, body["error"])
			},
		},
		{
			name:        "error - store loading",
			contentType: "application/json",
			body:        `{"title":"Visit Tokyo"}`,
			setupMock: func(m *MockItemStore) {
				m.On("Add", mock.Anything, "Visit Tokyo", mock.Anything).
					Return(bucket.Item{}, service.NewLoadingError())
			},
			expectedStatus: http.StatusServiceUnavailable,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, service.CodeStoreLoading, body["error"])
			},
		},
		{
			name:           "error - wrong content type",
			contentType:    "text/plain",
			body:           `{"title":"Visit Tokyo"}`,
			setupMock:      func(m *MockItemStore) {},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "error - broken json",
			contentType:    "application/json",
			body:           `{"title":`,
			setupMock:      func(m *MockItemStore) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockItemStore)
			tt.setupMock(store)

			req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)

			rec := serve(t, store, req)
			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.checkBody != nil {
				tt.checkBody(t, decodeBody(t, rec))
			}
			store.AssertExpectations(t)
		})
	}
}

// TestGetItemByID тестирует получение цели
func TestGetItemByID(t *testing.T) {
	store := new(MockItemStore)
	store.On("Get", mock.Anything, "1").Return(completedItem("1", "Learn piano"), nil)
	store.On("Get", mock.Anything, "missing").Return(bucket.Item{}, service.NewNotFound("missing"))

	rec := serve(t, store, httptest.NewRequest(http.MethodGet, "/items/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	item := decodeBody(t, rec)["item"].(map[string]any)
	assert.Equal(t, "Learn piano", item["title"])
	assert.Equal(t, testNow.Add(-3*time.Hour).Format("Jan 2, 2006"), item["completed_on"])

	rec = serve(t, store, httptest.NewRequest(http.MethodGet, "/items/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, service.CodeNotFound, decodeBody(t, rec)["error"])
}

// TestToggleItem тестирует переключение
func TestToggleItem(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockItemStore)
		expectedStatus int
		checkBody      func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "success - toggled",
			id:   "1",
			setupMock: func(m *MockItemStore) {
				m.On("ToggleComplete", mock.Anything, "1").Return(completedItem("1", "Visit Tokyo"), true, nil)
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, rec *httptest.ResponseRecorder) {
				item := decodeBody(t, rec)["item"].(map[string]any)
				assert.Equal(t, true, item["completed"])
			},
		},
		{
			name: "unknown id is a no-op",
			id:   "missing",
			setupMock: func(m *MockItemStore) {
				m.On("ToggleComplete", mock.Anything, "missing").Return(bucket.Item{}, false, nil)
			},
			expectedStatus: http.StatusNoContent,
			checkBody: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Empty(t, rec.Body.String())
			},
		},
		{
			name: "unknown id with unsaved state",
			id:   "missing",
			setupMock: func(m *MockItemStore) {
				m.On("ToggleComplete", mock.Anything, "missing").
					Return(bucket.Item{}, false, service.NewPersistError(errors.New("timeout")))
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, rec *httptest.ResponseRecorder) {
				body := decodeBody(t, rec)
				assert.Equal(t, false, body["found"])
				assert.Contains(t, body, "warning")
			},
		},
		{
			name: "error - store loading",
			id:   "1",
			setupMock: func(m *MockItemStore) {
				m.On("ToggleComplete", mock.Anything, "1").Return(bucket.Item{}, false, service.NewLoadingError())
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockItemStore)
			tt.setupMock(store)

			rec := serve(t, store, jsonRequest(http.MethodPost, "/items/"+tt.id+"/toggle", ""))
			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.checkBody != nil {
				tt.checkBody(t, rec)
			}
			store.AssertExpectations(t)
		})
	}
}

// TestDeleteItem тестирует удаление
func TestDeleteItem(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockItemStore)
		expectedStatus int
	}{
		{
			name: "success - removed",
			setupMock: func(m *MockItemStore) {
				m.On("DeleteItem", mock.Anything, "1").Return(true, nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name: "success - already gone",
			setupMock: func(m *MockItemStore) {
				m.On("DeleteItem", mock.Anything, "1").Return(false, nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name: "removed but not persisted",
			setupMock: func(m *MockItemStore) {
				m.On("DeleteItem", mock.Anything, "1").Return(true, service.NewPersistError(errors.New("disk full")))
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - store loading",
			setupMock: func(m *MockItemStore) {
				m.On("DeleteItem", mock.Anything, "1").Return(false, service.NewLoadingError())
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockItemStore)
			tt.setupMock(store)

			rec := serve(t, store, httptest.NewRequest(http.MethodDelete, "/items/1", nil))
			assert.Equal(t, tt.expectedStatus, rec.Code)
			store.AssertExpectations(t)
		})
	}
}

// TestHealthCheck тестирует проверку здоровья
func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockItemStore)
		expectedStatus int
		expectedState  string
		check          func(*testing.T, map[string]any)
	}{
		{
			name: "ok",
			setupMock: func(m *MockItemStore) {
				m.On("IsLoading").Return(false)
				m.On("HealthCheck", mock.Anything).Return(nil)
				m.On("Status", mock.Anything).Return(service.Status{Items: 3, SlotVersion: 7})
			},
			expectedStatus: http.StatusOK,
			expectedState:  "ok",
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, float64(3), body["items"])
				assert.Equal(t, float64(7), body["slot_version"])
				assert.Equal(t, false, body["dirty"])
				assert.NotContains(t, body, "last_save_error")
			},
		},
		{
			name: "last save failed",
			setupMock: func(m *MockItemStore) {
				m.On("IsLoading").Return(false)
				m.On("HealthCheck", mock.Anything).Return(nil)
				m.On("Status", mock.Anything).Return(service.Status{
					Items:         1,
					Dirty:         true,
					LastSaveError: errors.New("disk full"),
					SlotVersion:   -1,
				})
			},
			expectedStatus: http.StatusOK,
			expectedState:  "degraded",
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, true, body["dirty"])
				assert.Equal(t, "disk full", body["last_save_error"])
				assert.NotContains(t, body, "slot_version")
			},
		},
		{
			name: "loading",
			setupMock: func(m *MockItemStore) {
				m.On("IsLoading").Return(true)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "loading",
		},
		{
			name: "slot unavailable",
			setupMock: func(m *MockItemStore) {
				m.On("IsLoading").Return(false)
				m.On("HealthCheck", mock.Anything).Return(errors.New("connection refused"))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockItemStore)
			tt.setupMock(store)

			rec := serve(t, store, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.expectedStatus, rec.Code)

			body := decodeBody(t, rec)
			assert.Equal(t, tt.expectedState, body["status"])
			if tt.check != nil {
				tt.check(t, body)
			}
			store.AssertExpectations(t)
		})
	}
}

// TestRouter_MethodNotAllowed проверяет, что chi отвечает 405 на чужой метод
func TestRouter_MethodNotAllowed(t *testing.T) {
	rec := serve(t, new(MockItemStore), httptest.NewRequest(http.MethodPut, "/items/1", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
