package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joineryai/quote-engine/internal/common"
	"github.com/joineryai/quote-engine/internal/export"
	"github.com/joineryai/quote-engine/internal/ocr"
	"github.com/joineryai/quote-engine/internal/processor"
	"github.com/joineryai/quote-engine/internal/server"
	"github.com/joineryai/quote-engine/internal/textextract"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chain := textextract.NewChain(logger,
		textextract.NewNativePrimary(),
		textextract.NewNativeSecondary(),
		ocr.NewStrategy(ocr.Config{
			Pdftoppm:  cfg.OCR.Pdftoppm,
			Tesseract: cfg.OCR.Tesseract,
			Lang:      cfg.OCR.Lang,
			DPI:       cfg.OCR.DPI,
			MaxPages:  cfg.OCR.MaxPages,
		}, logger),
	)

	proc := processor.New(chain, logger)
	exporter := export.NewService(logger)
	fetcher := server.NewFetcher(cfg.Server.DownloadTimeout, cfg.Server.MaxDocumentSize)

	srv := server.New(proc, exporter, fetcher, cfg.Pricing.Config(), logger)

	go func() {
		if err := srv.Start(cfg.Server.Addr); err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
