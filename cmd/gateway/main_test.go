package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"llm-chat/handler"
	"llm-chat/internal/usecase"
)

type okCompleter struct{}

func (okCompleter) Complete(context.Context, usecase.CompleteInput) (usecase.CompleteOutput, error) {
	return usecase.CompleteOutput{Completion: json.RawMessage(`{"choices":[]}`)}, nil
}

func TestNewHTTPRouter_ReleaseMode(t *testing.T) {
	prevMode, prevOut := gin.Mode(), gin.DefaultWriter
	var out bytes.Buffer
	gin.DefaultWriter = &out
	t.Cleanup(func() {
		gin.SetMode(prevMode)
		gin.DefaultWriter = prevOut
	})
	gin.SetMode(gin.DebugMode)

	h, err := handler.NewHandler(okCompleter{}, handler.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	r := newHTTPRouter(h)
	require.Equal(t, gin.ReleaseMode, gin.Mode())
	require.Empty(t, out.String(), "no route banners on stdout")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, handler.Route, strings.NewReader(`{}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `{"choices":[]}`, rec.Body.String())
}
