package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/joineryai/quote-engine/constants"
	"github.com/joineryai/quote-engine/internal/common"
	"github.com/joineryai/quote-engine/internal/entity"
	"github.com/joineryai/quote-engine/internal/pricing"
	"github.com/joineryai/quote-engine/internal/processor"
)

const maxRequestBody = 1 << 20

// maxTrainingSamples caps a single training batch; bigger corpora go
// through repeated calls.
const maxTrainingSamples = 5

const debugTextPreview = 2000

type parseQuoteRequest struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

type processQuoteRequest struct {
	URL                       string           `json:"url"`
	Filename                  string           `json:"filename"`
	LineItems                 []map[string]any `json:"lineItems"`
	MarkupPercent             *float64         `json:"markupPercent"`
	VATPercent                *float64         `json:"vatPercent"`
	MarkupDelivery            *bool            `json:"markupDelivery"`
	AmalgamateDelivery        *bool            `json:"amalgamateDelivery"`
	ClientDeliveryGBP         *float64         `json:"clientDeliveryGBP"`
	ClientDeliveryDescription *string          `json:"clientDeliveryDescription"`
	RoundTo                   *int             `json:"roundTo"`
}

type trainItem struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	QuotedAt string `json:"quotedAt"`
	// Category is the tenant's own label for the sample ("supplier",
	// "estimate", "invoice", ...). Free-form synonyms are accepted.
	Category string `json:"category"`
}

type trainRequest struct {
	TenantID string      `json:"tenantId"`
	Items    []trainItem `json:"items"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":    "quote-engine",
		"status":     "ok",
		"categories": constants.AsStringSlice(),
		"file_types": constants.FileTypes,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleParseQuote downloads the document and returns the parsed structure
// without applying any pricing.
func (s *Server) handleParseQuote(w http.ResponseWriter, r *http.Request) {
	var req parseQuoteRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "url is required")
		return
	}

	data, err := s.fetcher.Fetch(r.Context(), req.URL)
	if err != nil {
		s.writeFetchError(w, req.URL, err)
		return
	}

	result, err := s.processor.Parse(r.Context(), data)
	if err != nil {
		s.logger.Error("parse failed", "url", req.URL, "error", err)
		writeError(w, http.StatusInternalServerError, "parse_failed", "could not parse document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"filename":   req.Filename,
		"text_chars": len(result.Text.Text),
		"parsed":     result,
	})
}

// handleProcessQuote runs the full pipeline and, for supplier documents,
// returns the client-facing quote built with the request's pricing overrides.
// Callers that already hold line items submit them directly via lineItems
// and skip the download entirely.
func (s *Server) handleProcessQuote(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeProcessRequest(w, r)
	if !ok {
		return
	}

	cfg := s.mergePricing(req)

	if len(req.LineItems) > 0 {
		lines := pricing.NormalizeLineItems(req.LineItems)
		quote := pricing.BuildClientQuote(entity.ParsedSupplierQuote{Lines: lines}, cfg)
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":           true,
			"filename":     req.Filename,
			"client_quote": quote,
		})
		return
	}

	data, err := s.fetcher.Fetch(r.Context(), req.URL)
	if err != nil {
		s.writeFetchError(w, req.URL, err)
		return
	}

	result, err := s.processor.Process(r.Context(), data, cfg)
	if err != nil {
		s.logger.Error("process failed", "url", req.URL, "error", err)
		writeError(w, http.StatusInternalServerError, "process_failed", "could not process document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"filename":   req.Filename,
		"text_chars": len(result.Text.Text),
		"parsed":     result,
	})
}

// handleTrain parses a small batch of historical documents for a tenant and
// reports the average estimated total across the supplier quotes in it.
// Items may carry the tenant's own category label, which is canonicalized
// and scored against the classifier. Individual download or parse failures
// are collected, not fatal.
func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "items is required")
		return
	}
	items := req.Items
	if len(items) > maxTrainingSamples {
		items = items[:maxTrainingSamples]
	}

	var (
		results         []*processor.Result
		totals          []float64
		failures        []map[string]string
		labeled         int
		labelsConfirmed int
	)
	for _, item := range items {
		data, err := s.fetcher.Fetch(r.Context(), item.URL)
		if err != nil {
			s.logger.Warn("training item skipped", "tenantId", req.TenantID, "url", item.URL, "error", err)
			failures = append(failures, map[string]string{"url": item.URL, "error": err.Error()})
			continue
		}
		result, err := s.processor.Parse(r.Context(), data)
		if err != nil {
			s.logger.Warn("training item skipped", "tenantId", req.TenantID, "url", item.URL, "error", err)
			failures = append(failures, map[string]string{"url": item.URL, "error": err.Error()})
			continue
		}
		if cat, ok := constants.Canonicalize(item.Category); ok {
			labeled++
			if string(cat) == result.Classification.Category {
				labelsConfirmed++
			}
		}
		results = append(results, result)
		if result.Supplier != nil && result.Supplier.EstimatedTotal != nil {
			totals = append(totals, *result.Supplier.EstimatedTotal)
		}
	}

	resp := map[string]any{
		"tenantId":        req.TenantID,
		"items_submitted": len(req.Items),
		"items_processed": len(results),
		"failures":        failures,
		"results":         results,
	}
	if labeled > 0 {
		resp["labels_submitted"] = labeled
		resp["labels_confirmed"] = labelsConfirmed
	}
	if len(totals) > 0 {
		sum := 0.0
		for _, t := range totals {
			sum += t
		}
		resp["avg_estimated_total"] = sum / float64(len(totals))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleExportQuote runs the supplier pipeline and returns the priced quote
// as an XLSX attachment.
func (s *Server) handleExportQuote(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeProcessRequest(w, r)
	if !ok {
		return
	}
	cfg := s.mergePricing(req)

	var quote *entity.ClientFacingQuote
	if len(req.LineItems) > 0 {
		lines := pricing.NormalizeLineItems(req.LineItems)
		q := pricing.BuildClientQuote(entity.ParsedSupplierQuote{Lines: lines}, cfg)
		quote = &q
	} else {
		data, err := s.fetcher.Fetch(r.Context(), req.URL)
		if err != nil {
			s.writeFetchError(w, req.URL, err)
			return
		}
		result, err := s.processor.Process(r.Context(), data, cfg)
		if err != nil {
			s.logger.Error("process failed", "url", req.URL, "error", err)
			writeError(w, http.StatusInternalServerError, "process_failed", "could not process document")
			return
		}
		quote = result.ClientQuote
	}
	if quote == nil || len(quote.Lines) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no_line_items", "document produced no priceable line items")
		return
	}

	data, err := s.exporter.QuoteXLSX(*quote)
	if err != nil {
		s.logger.Error("export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "export_failed", "could not build workbook")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="quote.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleDebugParse exposes a preview of the acquired text alongside the
// classification and parse, for diagnosing extraction misses on a document.
func (s *Server) handleDebugParse(w http.ResponseWriter, r *http.Request) {
	var req parseQuoteRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "url is required")
		return
	}

	data, err := s.fetcher.Fetch(r.Context(), req.URL)
	if err != nil {
		s.writeFetchError(w, req.URL, err)
		return
	}
	result, err := s.processor.Parse(r.Context(), data)
	if err != nil {
		s.logger.Error("debug parse failed", "url", req.URL, "error", err)
		writeError(w, http.StatusInternalServerError, "parse_failed", "could not parse document")
		return
	}

	preview := result.Text.Text
	if len(preview) > debugTextPreview {
		preview = preview[:debugTextPreview]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"source":         result.Text.Source,
		"quality_ok":     result.Text.QualityOK,
		"text_chars":     len(result.Text.Text),
		"text_preview":   preview,
		"classification": result.Classification,
		"supplier":       result.Supplier,
		"client":         result.Client,
	})
}

// decodeProcessRequest validates and decodes a process/export request body.
// Either url or lineItems must be present.
func (s *Server) decodeProcessRequest(w http.ResponseWriter, r *http.Request) (processQuoteRequest, bool) {
	var req processQuoteRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "could not read request body")
		return req, false
	}
	if err := validateAgainstSchema(processQuoteSchema, body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return req, false
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return req, false
	}
	if strings.TrimSpace(req.URL) == "" && len(req.LineItems) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "url or lineItems is required")
		return req, false
	}
	return req, true
}

// mergePricing overlays request overrides on the server's pricing defaults.
func (s *Server) mergePricing(req processQuoteRequest) entity.PricingConfig {
	cfg := s.pricingDefault
	if req.MarkupPercent != nil {
		cfg.MarkupPercent = *req.MarkupPercent
	}
	if req.VATPercent != nil {
		cfg.VATPercent = *req.VATPercent
	}
	if req.MarkupDelivery != nil {
		cfg.MarkupDelivery = *req.MarkupDelivery
	}
	if req.AmalgamateDelivery != nil {
		cfg.AmalgamateDelivery = *req.AmalgamateDelivery
	}
	if req.ClientDeliveryGBP != nil {
		cfg.ClientDeliveryGBP = req.ClientDeliveryGBP
	}
	if req.ClientDeliveryDescription != nil {
		cfg.ClientDeliveryDescription = req.ClientDeliveryDescription
	}
	if req.RoundTo != nil {
		cfg.RoundTo = *req.RoundTo
	}
	return cfg
}

func (s *Server) writeFetchError(w http.ResponseWriter, url string, err error) {
	if errors.Is(err, common.ErrDownloadFailed) {
		s.logger.Warn("document download failed", "url", url, "error", err)
		writeError(w, http.StatusNotFound, "download_failed", fmt.Sprintf("could not fetch document: %v", err))
		return
	}
	s.logger.Error("document fetch failed", "url", url, "error", err)
	writeError(w, http.StatusInternalServerError, "fetch_failed", "could not fetch document")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
