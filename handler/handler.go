package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"llm-chat/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// Completer is the use case behind POST /api/openai.
type Completer interface {
	Complete(ctx context.Context, in usecase.CompleteInput) (usecase.CompleteOutput, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the completion gateway as an API Gateway proxy integration.
type Handler struct {
	completer Completer
	logger    *slog.Logger
}

type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewHandler(c Completer, opts ...Option) (*Handler, error) {
	if c == nil {
		return nil, errors.New("handler: completer must not be nil")
	}
	h := &Handler{completer: c, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle relays the provider completion on success. Every failure, whether
// a bad body or an upstream error, comes back as 500 {"error": "..."}.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()
	corrID := correlationID(req.Headers)
	log := h.logger.With("correlation_id", corrID, "path", req.Path)

	if req.HTTPMethod != "" && !strings.EqualFold(req.HTTPMethod, http.MethodPost) {
		log.Warn("method not allowed", "method", req.HTTPMethod)
		resp := errorJSON(http.StatusMethodNotAllowed, corrID, "method "+req.HTTPMethod+" not allowed")
		resp.Headers["Allow"] = http.MethodPost
		return resp, nil
	}

	in, err := decodeInput(req)
	if err != nil {
		log.Error("decode request failed", "err", err)
		return errorJSON(http.StatusInternalServerError, corrID, err.Error()), nil
	}

	out, err := h.completer.Complete(ctx, in)
	if err != nil {
		log.Error("completion failed", "model", out.Model, "err", err, "duration_ms", time.Since(start).Milliseconds())
		return errorJSON(http.StatusInternalServerError, corrID, err.Error()), nil
	}

	log.Info("completion relayed", "model", out.Model, "status", http.StatusOK, "duration_ms", time.Since(start).Milliseconds())
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    responseHeaders(corrID),
		Body:       string(out.Completion),
	}, nil
}

func decodeInput(req events.APIGatewayProxyRequest) (usecase.CompleteInput, error) {
	body := req.Body
	if req.IsBase64Encoded {
		raw, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return usecase.CompleteInput{}, &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "invalid_base64_body", Err: err}
		}
		body = string(raw)
	}

	var in usecase.CompleteInput
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		return usecase.CompleteInput{}, &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "invalid_json_body", Err: err}
	}
	return in, nil
}

func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return uuid.NewString()
}

func responseHeaders(corrID string) map[string]string {
	return map[string]string{
		"Content-Type":    "application/json",
		correlationHeader: corrID,
	}
}

func errorJSON(status int, corrID, msg string) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(errorResponse{Error: msg})
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    responseHeaders(corrID),
		Body:       string(body),
	}
}
