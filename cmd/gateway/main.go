package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/gin-gonic/gin"

	"llm-chat/handler"
	"llm-chat/internal/config"
	"llm-chat/internal/integrations/openai"
	"llm-chat/internal/integrations/paramstore"
	"llm-chat/internal/usecase"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// ---- Configuration (read only here) ----
	cfg, err := config.LoadGateway(os.Getenv)
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	// ---- Provider client ----
	opts := []openai.Option{
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithTimeout(cfg.ProviderTimeout),
		openai.WithAPIKey(cfg.APIKey),
	}
	if cfg.APIKeyParam != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			slog.Error("failed to load AWS config", "err", err)
			os.Exit(1)
		}
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			slog.Error("failed to create SSM client", "err", err)
			os.Exit(1)
		}
		opts = append(opts, openai.WithKeySource(ssmClient, cfg.APIKeyParam))
	} else if cfg.APIKey == "" {
		slog.Warn("no provider API key configured; upstream calls will be rejected")
	}

	openaiClient, err := openai.NewClient(opts...)
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	svc, err := usecase.NewCompletionService(openaiClient, usecase.Defaults{
		Model:  cfg.DefaultModel,
		Prompt: cfg.DefaultPrompt,
	})
	if err != nil {
		slog.Error("failed to create completion service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(svc, handler.WithLogger(logger))
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	if cfg.ListenAddr != "" {
		slog.Info("serving gateway over HTTP", "addr", cfg.ListenAddr, "route", handler.Route)
		if err := newHTTPRouter(h).Run(cfg.ListenAddr); err != nil {
			slog.Error("http listener stopped", "err", err)
			os.Exit(1)
		}
		return
	}

	lambda.Start(h.Handle)
}

// newHTTPRouter builds the local listener with gin's debug output off, so
// stdout carries only the JSON log stream.
func newHTTPRouter(h *handler.Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	return handler.NewRouter(h)
}
