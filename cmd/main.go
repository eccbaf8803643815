package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"wallet-agent/handler"
	"wallet-agent/internal/confirmstore"
	"wallet-agent/internal/integrations/executor"
	"wallet-agent/internal/integrations/gemini"
	"wallet-agent/internal/integrations/paramstore"
	"wallet-agent/internal/integrations/speech"
	"wallet-agent/internal/repository"
	"wallet-agent/internal/telegram"
	"wallet-agent/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	botToken := mustEnv("TELEGRAM_BOT_TOKEN")
	auditTable := mustEnv("AUDIT_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	executorURL := envStr("EXECUTOR_URL", "https://ens-asset-sender.onrender.com")
	geminiModel := envStr("GEMINI_MODEL", "gemini-2.0-flash")
	httpAddr := envStr("HTTP_ADDR", ":8080")

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	dynamoClient := awsdynamodb.NewFromConfig(cfg)
	auditClient, err := repository.New(dynamoClient, auditTable)
	if err != nil {
		slog.Error("failed to create audit client", "err", err)
		os.Exit(1)
	}

	geminiClient, err := gemini.NewClient(ssmClient, paramPrefix, gemini.WithModel(geminiModel))
	if err != nil {
		slog.Error("failed to create Gemini client", "err", err)
		os.Exit(1)
	}
	speechClient, err := speech.NewClient(ssmClient, paramPrefix)
	if err != nil {
		slog.Error("failed to create speech client", "err", err)
		os.Exit(1)
	}
	executorClient, err := executor.NewClient(executorURL)
	if err != nil {
		slog.Error("failed to create executor client", "err", err)
		os.Exit(1)
	}

	// ---- Transport and controller ----
	channel, err := telegram.NewChannel(botToken)
	if err != nil {
		slog.Error("failed to create telegram channel", "err", err)
		os.Exit(1)
	}

	controller, err := usecase.NewController(geminiClient, executorClient, confirmstore.New(), auditClient, channel)
	if err != nil {
		slog.Error("failed to create controller", "err", err)
		os.Exit(1)
	}
	channel.SetResponder(controller)
	channel.SetTranscriber(speechClient)
	channel.SetVoiceRecorder(auditClient)

	h, err := handler.New(controller, auditClient)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}
	srv := &http.Server{Addr: httpAddr, Handler: h.Mux()}

	// ---- Run until signaled ----
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := channel.Start(runCtx); err != nil {
		slog.Error("failed to start telegram channel", "err", err)
		os.Exit(1)
	}

	go func() {
		slog.Info("http server listening", "addr", httpAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-runCtx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "err", err)
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envStr(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
