package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"llm-chat/internal/usecase"
)

type stubCompleter struct {
	out    usecase.CompleteOutput
	err    error
	in     usecase.CompleteInput
	called bool
}

func (s *stubCompleter) Complete(_ context.Context, in usecase.CompleteInput) (usecase.CompleteOutput, error) {
	s.in = in
	s.called = true
	return s.out, s.err
}

const completion = `{"id":"chatcmpl-1","choices":[{"index":0,"message":{"role":"assistant","content":"hi there"}}]}`

func makeEvent(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       Route,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func newTestHandler(t *testing.T, c Completer) *Handler {
	t.Helper()
	h, err := NewHandler(c, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	return h
}

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil)
	require.Error(t, err)
}

func TestHandle_HappyPath(t *testing.T) {
	uc := &stubCompleter{out: usecase.CompleteOutput{Completion: json.RawMessage(completion), Model: "qwen-plus"}}
	h := newTestHandler(t, uc)

	resp, err := h.Handle(context.Background(), makeEvent(`{"messages":[{"role":"user","content":"hello"}],"model":"qwen-plus"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Headers["Content-Type"])
	require.NotEmpty(t, resp.Headers["X-Correlation-Id"])
	require.Equal(t, completion, resp.Body)

	require.Len(t, uc.in.Messages, 1)
	require.JSONEq(t, `{"role":"user","content":"hello"}`, string(uc.in.Messages[0]))
	require.NotNil(t, uc.in.Model)
	require.Equal(t, "qwen-plus", *uc.in.Model)
}

func TestHandle_AbsentAndNullFieldsLeftForDefaults(t *testing.T) {
	for _, body := range []string{`{}`, `{"messages":null,"model":null}`} {
		uc := &stubCompleter{out: usecase.CompleteOutput{Completion: json.RawMessage(`{}`)}}
		h := newTestHandler(t, uc)

		resp, err := h.Handle(context.Background(), makeEvent(body))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Nil(t, uc.in.Messages, body)
		require.Nil(t, uc.in.Model, body)
	}
}

func TestHandle_InvalidBody(t *testing.T) {
	uc := &stubCompleter{}
	h := newTestHandler(t, uc)

	resp, err := h.Handle(context.Background(), makeEvent(`not-json`))
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.False(t, uc.called)

	out := parseBody[errorResponse](t, resp.Body)
	require.Contains(t, out.Error, "invalid_json_body")
}

func TestHandle_Base64Body(t *testing.T) {
	uc := &stubCompleter{out: usecase.CompleteOutput{Completion: json.RawMessage(completion)}}
	h := newTestHandler(t, uc)

	event := makeEvent(base64.StdEncoding.EncodeToString([]byte(`{"model":"gpt-4o"}`)))
	event.IsBase64Encoded = true
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "gpt-4o", *uc.in.Model)
}

func TestHandle_UpstreamFailureIs500(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{name: "usecase error", err: &usecase.Error{Code: usecase.ErrorUpstream, Reason: "provider_status", Err: errors.New("openai: unexpected status 401")}},
		{name: "unexpected", err: errors.New("boom")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(t, &stubCompleter{err: tc.err})

			resp, err := h.Handle(context.Background(), makeEvent(`{}`))
			require.NoError(t, err)
			require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
			require.Equal(t, "application/json", resp.Headers["Content-Type"])

			out := parseBody[errorResponse](t, resp.Body)
			require.Equal(t, tc.err.Error(), out.Error)
		})
	}
}

func TestHandle_MethodNotAllowed(t *testing.T) {
	uc := &stubCompleter{}
	h := newTestHandler(t, uc)

	event := makeEvent("")
	event.HTTPMethod = http.MethodGet
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	require.Equal(t, http.MethodPost, resp.Headers["Allow"])
	require.False(t, uc.called)
}

func TestHandle_UsesProvidedCorrelationID_CaseInsensitive(t *testing.T) {
	h := newTestHandler(t, &stubCompleter{out: usecase.CompleteOutput{Completion: json.RawMessage(`{}`)}})

	event := makeEvent(`{}`)
	event.Headers["x-correlation-id"] = "corr-123"
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers["X-Correlation-Id"])
}

func TestHandle_LogsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler(
		&stubCompleter{out: usecase.CompleteOutput{Completion: json.RawMessage(`{}`), Model: "qwen-plus"}},
		WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))),
	)
	require.NoError(t, err)

	event := makeEvent(`{}`)
	event.Headers["X-Correlation-Id"] = "corr-log"
	_, err = h.Handle(context.Background(), event)
	require.NoError(t, err)

	line := parseBody[map[string]any](t, buf.String())
	require.Equal(t, "corr-log", line["correlation_id"])
	require.Equal(t, "qwen-plus", line["model"])
	require.Equal(t, "completion relayed", line["msg"])
}
