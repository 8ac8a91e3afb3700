package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"library/api-gateway/internal/routes"
	"library/shared/pkg/rpc"
	"library/shared/pkg/utils"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type gatewayConfig struct {
	Addr        string
	BookService string
	BatchWindow time.Duration
	LogLevel    string
	LogFormat   string
}

func loadConfig() gatewayConfig {
	godotenv.Load(".env")
	config := gatewayConfig{
		Addr:        "localhost:8080",
		BookService: "localhost:50052",
		BatchWindow: routes.DefaultBatchingConfig().Window,
		LogLevel:    "info",
		LogFormat:   "text",
	}

	if addr := os.Getenv("GATEWAY_ADDR"); addr != "" {
		config.Addr = addr
	}
	if port := os.Getenv("BOOK_SERVICE_PORT"); port != "" {
		config.BookService = "localhost:" + port
	}
	if addr := os.Getenv("BOOK_SERVICE_ADDR"); addr != "" {
		config.BookService = addr
	}
	if window, err := time.ParseDuration(os.Getenv("BATCH_WINDOW")); err == nil {
		config.BatchWindow = window
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.LogLevel = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.LogFormat = format
	}

	return config
}

func main() {
	config := loadConfig()
	utils.ConfigureLogging(config.LogLevel, config.LogFormat)

	conn, err := grpc.NewClient(config.BookService, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.WithFields(log.Fields{"addr": config.BookService, "err": err}).Fatal("book grpc server connection failed")
	}
	defer conn.Close()

	router := routes.SetupRoutes(rpc.NewBookServiceClient(conn), routes.BatchingConfig{Window: config.BatchWindow})
	srv := &http.Server{
		Addr:    config.Addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", config.Addr).Info("Server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithField("err", err).Error("Server forced to shutdown")
	}
	log.Info("Server exited")
}
