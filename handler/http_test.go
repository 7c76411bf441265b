package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"llm-chat/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRouter_PostRelaysCompletion(t *testing.T) {
	uc := &stubCompleter{out: usecase.CompleteOutput{Completion: json.RawMessage(completion)}}
	r := NewRouter(newTestHandler(t, uc))

	req := httptest.NewRequest(http.MethodPost, Route, strings.NewReader(`{"messages":[{"role":"user","content":"hello"}]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-Id", "corr-http")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, completion, rec.Body.String())
	require.Equal(t, "corr-http", rec.Header().Get("X-Correlation-Id"))
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Len(t, uc.in.Messages, 1)
}

func TestRouter_ErrorBody(t *testing.T) {
	r := NewRouter(newTestHandler(t, &stubCompleter{err: &usecase.Error{Code: usecase.ErrorUpstream, Reason: "provider_error"}}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, Route, strings.NewReader(`{}`)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	out := parseBody[errorResponse](t, rec.Body.String())
	require.Equal(t, "usecase: UPSTREAM_ERROR (provider_error)", out.Error)
}

func TestRouter_GetNotAllowed(t *testing.T) {
	r := NewRouter(newTestHandler(t, &stubCompleter{}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, Route, nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_UnknownPath(t *testing.T) {
	r := NewRouter(newTestHandler(t, &stubCompleter{}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/other", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
