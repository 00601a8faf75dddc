package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/joineryai/quote-engine/internal/common"
	"github.com/joineryai/quote-engine/internal/entity"
	"github.com/joineryai/quote-engine/internal/ocr"
	"github.com/joineryai/quote-engine/internal/processor"
	"github.com/joineryai/quote-engine/internal/textextract"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "parsequote <quote.pdf>")
		os.Exit(2)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("read file", "path", os.Args[1], "error", err)
		os.Exit(1)
	}

	cfg := common.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

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
	result, err := proc.Process(ctx, data, entity.DefaultPricingConfig())
	if err != nil {
		logger.Error("processing failed", "path", os.Args[1], "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
}
