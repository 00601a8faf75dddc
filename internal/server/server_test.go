package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joineryai/quote-engine/internal/common"
	"github.com/joineryai/quote-engine/internal/entity"
	"github.com/joineryai/quote-engine/internal/export"
	"github.com/joineryai/quote-engine/internal/processor"
)

type stubExtractor struct{ text string }

func (s stubExtractor) ExtractText(ctx context.Context, data []byte) (entity.ExtractedText, error) {
	return entity.ExtractedText{Text: s.text, Source: entity.SourceNativePrimary, QualityOK: true}, nil
}

type stubFetcher struct {
	data []byte
	err  error
}

func (s stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return s.data, s.err
}

const supplierDoc = `Invoice from Wealden Joinery Ltd
Payment Terms: Net 30 days
QUOTATION
Oak entrance door
2
£450.00
£900.00`

func newTestServer(t *testing.T, fetcher Fetcher, docText string) http.Handler {
	t.Helper()
	proc := processor.New(stubExtractor{text: docText}, nil)
	srv := New(proc, export.NewService(nil), fetcher, entity.DefaultPricingConfig(), nil)
	return srv.Router()
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, stubFetcher{data: []byte("%PDF")}, supplierDoc)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
}

func TestParseQuote_SupplierDocument(t *testing.T) {
	// WHAT: A downloadable supplier document parses into line items with
	// text statistics in the envelope.
	h := newTestServer(t, stubFetcher{data: []byte("%PDF")}, supplierDoc)

	w := postJSON(t, h, "/parse-quote", `{"url":"http://quotes.example/q.pdf"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body)
	}

	var resp struct {
		OK        bool `json:"ok"`
		TextChars int  `json:"text_chars"`
		Parsed    struct {
			Classification entity.QuoteClassification  `json:"classification"`
			Supplier       *entity.ParsedSupplierQuote `json:"supplier"`
		} `json:"parsed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.TextChars == 0 {
		t.Errorf("envelope: got ok=%v chars=%d", resp.OK, resp.TextChars)
	}
	if resp.Parsed.Supplier == nil || len(resp.Parsed.Supplier.Lines) == 0 {
		t.Errorf("supplier parse: got %+v, want line items", resp.Parsed.Supplier)
	}
}

func TestParseQuote_DownloadFailure404(t *testing.T) {
	// WHAT: A failed download is reported as 404 download_failed.
	// WHY: Callers must distinguish an unavailable source from a document
	// that parsed with low confidence.
	fetchErr := fmt.Errorf("%w: status 403", common.ErrDownloadFailed)
	h := newTestServer(t, stubFetcher{err: fetchErr}, supplierDoc)

	w := postJSON(t, h, "/parse-quote", `{"url":"http://quotes.example/gone.pdf"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"] != "download_failed" {
		t.Errorf("error code: got %q, want download_failed", resp["error"])
	}
}

func TestProcessQuote_SchemaRejectsUnknownField(t *testing.T) {
	// WHAT: The request schema rejects unknown fields before processing.
	h := newTestServer(t, stubFetcher{data: []byte("%PDF")}, supplierDoc)

	w := postJSON(t, h, "/process-quote", `{"url":"http://x/q.pdf","markup":"20"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", w.Code)
	}
}

func TestProcessQuote_DirectLineItems(t *testing.T) {
	// WHAT: Pre-parsed line items (with costUnit/lineTotal synonyms) are
	// priced directly, no download involved.
	h := newTestServer(t, stubFetcher{err: fmt.Errorf("should not be called")}, supplierDoc)

	body := `{"lineItems":[
		{"description":"Oak door","qty":1,"costUnit":100,"lineTotal":100},
		{"description":"Sash window","qty":1,"unit_price":200,"total":200},
		{"description":"Delivery","qty":1,"unit_price":30,"total":30}
	],"markupPercent":20,"vatPercent":20,"amalgamateDelivery":true}`

	w := postJSON(t, h, "/process-quote", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body)
	}

	var resp struct {
		ClientQuote entity.ClientFacingQuote `json:"client_quote"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ClientQuote.Subtotal != 396 || resp.ClientQuote.GrandTotal != 475.2 {
		t.Errorf("quote: got subtotal=%v grand=%v, want 396/475.2",
			resp.ClientQuote.Subtotal, resp.ClientQuote.GrandTotal)
	}
}

func TestProcessQuote_ExplicitZeroVAT(t *testing.T) {
	// WHAT: A request with vatPercent 0 charges no VAT.
	// WHY: Server defaults apply only to fields the request leaves out; an
	// explicit zero is a choice, not an omission.
	h := newTestServer(t, stubFetcher{err: fmt.Errorf("should not be called")}, supplierDoc)

	body := `{"lineItems":[
		{"description":"Oak door","qty":1,"unit_price":100,"total":100}
	],"markupPercent":20,"vatPercent":0}`

	w := postJSON(t, h, "/process-quote", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body)
	}

	var resp struct {
		ClientQuote entity.ClientFacingQuote `json:"client_quote"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ClientQuote.VATAmount != 0 {
		t.Errorf("vat: got %v, want 0", resp.ClientQuote.VATAmount)
	}
	if resp.ClientQuote.GrandTotal != resp.ClientQuote.Subtotal {
		t.Errorf("grand total %v != subtotal %v with VAT disabled",
			resp.ClientQuote.GrandTotal, resp.ClientQuote.Subtotal)
	}
}

func TestTrain_CapsBatchSize(t *testing.T) {
	// WHAT: Training batches are capped at five items per call.
	h := newTestServer(t, stubFetcher{data: []byte("%PDF")}, supplierDoc)

	items := make([]string, 7)
	for i := range items {
		items[i] = fmt.Sprintf(`{"url":"http://quotes.example/%d.pdf"}`, i)
	}
	body := fmt.Sprintf(`{"tenantId":"t1","items":[%s]}`, strings.Join(items, ","))

	w := postJSON(t, h, "/train", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body)
	}

	var resp struct {
		ItemsSubmitted    int     `json:"items_submitted"`
		ItemsProcessed    int     `json:"items_processed"`
		AvgEstimatedTotal float64 `json:"avg_estimated_total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ItemsSubmitted != 7 || resp.ItemsProcessed != 5 {
		t.Errorf("batch: got submitted=%d processed=%d, want 7/5", resp.ItemsSubmitted, resp.ItemsProcessed)
	}
	if resp.AvgEstimatedTotal <= 0 {
		t.Errorf("avg estimated total: got %v, want positive", resp.AvgEstimatedTotal)
	}
}

func TestTrain_CategoryLabels(t *testing.T) {
	// WHAT: Tenant-supplied category labels are canonicalized (synonyms like
	// "invoice" and "estimate" included) and scored against the classifier.
	h := newTestServer(t, stubFetcher{data: []byte("%PDF")}, supplierDoc)

	// The stub document classifies as supplier, so "invoice" confirms and
	// "estimate" does not; the unlabeled item is not counted either way.
	body := `{"tenantId":"t1","items":[
		{"url":"http://quotes.example/a.pdf","category":"invoice"},
		{"url":"http://quotes.example/b.pdf","category":"estimate"},
		{"url":"http://quotes.example/c.pdf"}
	]}`

	w := postJSON(t, h, "/train", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body)
	}

	var resp struct {
		LabelsSubmitted int `json:"labels_submitted"`
		LabelsConfirmed int `json:"labels_confirmed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.LabelsSubmitted != 2 || resp.LabelsConfirmed != 1 {
		t.Errorf("labels: got submitted=%d confirmed=%d, want 2/1",
			resp.LabelsSubmitted, resp.LabelsConfirmed)
	}
}

func TestExportQuote_ReturnsWorkbook(t *testing.T) {
	// WHAT: The export endpoint responds with an XLSX attachment.
	h := newTestServer(t, stubFetcher{data: []byte("%PDF")}, supplierDoc)

	w := postJSON(t, h, "/export-quote", `{"url":"http://quotes.example/q.pdf"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body)
	}
	ct := w.Header().Get("Content-Type")
	if !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type: got %q, want spreadsheet", ct)
	}
	// XLSX files are zip archives.
	if body := w.Body.Bytes(); len(body) < 4 || body[0] != 'P' || body[1] != 'K' {
		t.Errorf("body: got %d bytes, want zip signature", w.Body.Len())
	}
}

func TestDebugParse_PreviewAndClassification(t *testing.T) {
	// WHAT: The debug endpoint exposes a bounded text preview plus the
	// classification for the document.
	h := newTestServer(t, stubFetcher{data: []byte("%PDF")}, supplierDoc)

	w := postJSON(t, h, "/debug-parse", `{"url":"http://quotes.example/q.pdf"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body)
	}
	var resp struct {
		TextPreview    string                     `json:"text_preview"`
		Classification entity.QuoteClassification `json:"classification"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TextPreview == "" {
		t.Error("text preview: got empty")
	}
	if resp.Classification.Category != "supplier" {
		t.Errorf("classification: got %q, want supplier", resp.Classification.Category)
	}
}
