package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/account-service-go/internal/services"
	"github.com/nimeshabuddhika/account-service-go/pkg"
	middleware "github.com/nimeshabuddhika/account-service-go/pkg/middlewares"
	"github.com/nimeshabuddhika/account-service-go/pkg/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockAccountService lets each test plug in just the calls it expects.
type mockAccountService struct {
	createFn func(ctx context.Context, traceId string, req views.AccountRequest) (views.AccountResponse, error)
	getFn    func(ctx context.Context, traceId string, id int64) (views.AccountResponse, error)
	updateFn func(ctx context.Context, traceId string, id int64, req views.AccountRequest) (views.AccountResponse, error)
	deleteFn func(ctx context.Context, traceId string, id int64) error
	listFn   func(ctx context.Context, traceId string) ([]views.AccountResponse, error)
}

func (m *mockAccountService) CreateAccount(ctx context.Context, traceId string, req views.AccountRequest) (views.AccountResponse, error) {
	if m.createFn == nil {
		return views.AccountResponse{}, errors.New("unexpected CreateAccount call")
	}
	return m.createFn(ctx, traceId, req)
}

func (m *mockAccountService) GetAccountById(ctx context.Context, traceId string, id int64) (views.AccountResponse, error) {
	if m.getFn == nil {
		return views.AccountResponse{}, errors.New("unexpected GetAccountById call")
	}
	return m.getFn(ctx, traceId, id)
}

func (m *mockAccountService) UpdateAccount(ctx context.Context, traceId string, id int64, req views.AccountRequest) (views.AccountResponse, error) {
	if m.updateFn == nil {
		return views.AccountResponse{}, errors.New("unexpected UpdateAccount call")
	}
	return m.updateFn(ctx, traceId, id, req)
}

func (m *mockAccountService) DeleteAccount(ctx context.Context, traceId string, id int64) error {
	if m.deleteFn == nil {
		return errors.New("unexpected DeleteAccount call")
	}
	return m.deleteFn(ctx, traceId, id)
}

func (m *mockAccountService) ListAccounts(ctx context.Context, traceId string) ([]views.AccountResponse, error) {
	if m.listFn == nil {
		return nil, errors.New("unexpected ListAccounts call")
	}
	return m.listFn(ctx, traceId)
}

func newTestRouter(svc services.AccountService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/")
	group.Use(middleware.TraceID())
	NewAccountHandler(zap.NewNop(), svc).RegisterRoutes(group)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sampleResponse() views.AccountResponse {
	phone := "+1-416-555-0199"
	return views.AccountResponse{
		ID:          42,
		Name:        "Jane Doe",
		Email:       "jane.doe@example.com",
		Address:     "1 Main Street",
		PhoneNumber: &phone,
		DateJoined:  "2026-01-15",
	}
}

func validPayload() map[string]interface{} {
	return map[string]interface{}{
		"name":    "Jane Doe",
		"email":   "jane.doe@example.com",
		"address": "1 Main Street",
	}
}

func TestCreateAccount(t *testing.T) {
	t.Run("created with location header", func(t *testing.T) {
		svc := &mockAccountService{
			createFn: func(ctx context.Context, traceId string, req views.AccountRequest) (views.AccountResponse, error) {
				assert.NotEmpty(t, traceId)
				assert.Equal(t, "Jane Doe", req.Name)
				return sampleResponse(), nil
			},
		}
		r := newTestRouter(svc)

		w := doRequest(t, r, http.MethodPost, "/accounts", validPayload())

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "/accounts/42", w.Header().Get("Location"))
		assert.NotEmpty(t, w.Header().Get(pkg.HeaderTraceId))

		var got views.AccountResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, sampleResponse(), got)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		r := newTestRouter(&mockAccountService{})

		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp pkg.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, pkg.ErrInvalidInputCode.Code, resp.Code)
	})

	t.Run("missing required field is a bad request", func(t *testing.T) {
		r := newTestRouter(&mockAccountService{})

		payload := validPayload()
		delete(payload, "name")
		w := doRequest(t, r, http.MethodPost, "/accounts", payload)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store validation failure is a bad request", func(t *testing.T) {
		svc := &mockAccountService{
			createFn: func(ctx context.Context, traceId string, req views.AccountRequest) (views.AccountResponse, error) {
				return views.AccountResponse{}, pkg.NewAppError(pkg.ErrInvalidInputCode, "invalid account payload: email (email)", nil)
			},
		}
		r := newTestRouter(svc)

		w := doRequest(t, r, http.MethodPost, "/accounts", validPayload())

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp pkg.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, pkg.ErrInvalidInputCode.Code, resp.Code)
		assert.Contains(t, resp.Message, "email")
	})

	t.Run("unexpected store failure is an internal error", func(t *testing.T) {
		svc := &mockAccountService{
			createFn: func(ctx context.Context, traceId string, req views.AccountRequest) (views.AccountResponse, error) {
				return views.AccountResponse{}, errors.New("connection refused")
			},
		}
		r := newTestRouter(svc)

		w := doRequest(t, r, http.MethodPost, "/accounts", validPayload())

		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var resp pkg.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, pkg.ErrServerCode.Code, resp.Code)
	})
}

func TestGetAccount(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := &mockAccountService{
			getFn: func(ctx context.Context, traceId string, id int64) (views.AccountResponse, error) {
				assert.Equal(t, int64(42), id)
				return sampleResponse(), nil
			},
		}
		r := newTestRouter(svc)

		w := doRequest(t, r, http.MethodGet, "/accounts/42", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var got views.AccountResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, int64(42), got.ID)
	})

	t.Run("absent id is not found", func(t *testing.T) {
		svc := &mockAccountService{
			getFn: func(ctx context.Context, traceId string, id int64) (views.AccountResponse, error) {
				return views.AccountResponse{}, pkg.NewAppError(pkg.ErrRecordNotFoundCode, "no records found", nil)
			},
		}
		r := newTestRouter(svc)

		w := doRequest(t, r, http.MethodGet, "/accounts/9999", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var resp pkg.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, pkg.ErrRecordNotFoundCode.Code, resp.Code)
	})

	t.Run("non-numeric id is not found without touching the store", func(t *testing.T) {
		r := newTestRouter(&mockAccountService{})

		w := doRequest(t, r, http.MethodGet, "/accounts/abc", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("zero id is not found", func(t *testing.T) {
		r := newTestRouter(&mockAccountService{})

		w := doRequest(t, r, http.MethodGet, "/accounts/0", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUpdateAccount(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		svc := &mockAccountService{
			updateFn: func(ctx context.Context, traceId string, id int64, req views.AccountRequest) (views.AccountResponse, error) {
				assert.Equal(t, int64(42), id)
				updated := sampleResponse()
				updated.Name = req.Name
				return updated, nil
			},
		}
		r := newTestRouter(svc)

		payload := validPayload()
		payload["name"] = "Jane Smith"
		w := doRequest(t, r, http.MethodPut, "/accounts/42", payload)

		assert.Equal(t, http.StatusOK, w.Code)

		var got views.AccountResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Jane Smith", got.Name)
		assert.Equal(t, int64(42), got.ID)
	})

	t.Run("absent id is not found", func(t *testing.T) {
		svc := &mockAccountService{
			updateFn: func(ctx context.Context, traceId string, id int64, req views.AccountRequest) (views.AccountResponse, error) {
				return views.AccountResponse{}, pkg.NewAppError(pkg.ErrRecordNotFoundCode, "no records found", nil)
			},
		}
		r := newTestRouter(svc)

		w := doRequest(t, r, http.MethodPut, "/accounts/9999", validPayload())

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-numeric id is not found", func(t *testing.T) {
		r := newTestRouter(&mockAccountService{})

		w := doRequest(t, r, http.MethodPut, "/accounts/abc", validPayload())

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		r := newTestRouter(&mockAccountService{})

		req, _ := http.NewRequest(http.MethodPut, "/accounts/42", bytes.NewReader([]byte("{")))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteAccount(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		called := false
		svc := &mockAccountService{
			deleteFn: func(ctx context.Context, traceId string, id int64) error {
				called = true
				assert.Equal(t, int64(42), id)
				return nil
			},
		}
		r := newTestRouter(svc)

		w := doRequest(t, r, http.MethodDelete, "/accounts/42", nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
		assert.True(t, called)
	})

	t.Run("non-numeric id is a silent no-op", func(t *testing.T) {
		r := newTestRouter(&mockAccountService{})

		w := doRequest(t, r, http.MethodDelete, "/accounts/abc", nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		svc := &mockAccountService{
			deleteFn: func(ctx context.Context, traceId string, id int64) error {
				return errors.New("connection refused")
			},
		}
		r := newTestRouter(svc)

		w := doRequest(t, r, http.MethodDelete, "/accounts/42", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestListAccounts(t *testing.T) {
	t.Run("returns accounts", func(t *testing.T) {
		svc := &mockAccountService{
			listFn: func(ctx context.Context, traceId string) ([]views.AccountResponse, error) {
				return []views.AccountResponse{sampleResponse()}, nil
			},
		}
		r := newTestRouter(svc)

		w := doRequest(t, r, http.MethodGet, "/accounts", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var got []views.AccountResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, int64(42), got[0].ID)
	})

	t.Run("empty store yields an empty array", func(t *testing.T) {
		svc := &mockAccountService{
			listFn: func(ctx context.Context, traceId string) ([]views.AccountResponse, error) {
				return []views.AccountResponse{}, nil
			},
		}
		r := newTestRouter(svc)

		w := doRequest(t, r, http.MethodGet, "/accounts", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]", w.Body.String())
	})
}
