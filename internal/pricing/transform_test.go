package pricing

import (
	"math"
	"reflect"
	"testing"

	"github.com/joineryai/quote-engine/internal/entity"
)

func scenarioParse() entity.ParsedSupplierQuote {
	return entity.ParsedSupplierQuote{
		Lines: []entity.LineItem{
			{Description: "Oak door", Qty: 1, UnitPrice: 100, Total: 100},
			{Description: "Sash window", Qty: 1, UnitPrice: 200, Total: 200},
			{Description: "Delivery", Qty: 1, UnitPrice: 30, Total: 30},
		},
	}
}

func TestBuildClientQuote_AmalgamatedDeliveryScenario(t *testing.T) {
	// WHAT: Two product lines (100, 200) with a 30 delivery charge, 20%
	// markup, 20% VAT and amalgamation: delivery splits 10/20 pro rata,
	// marked-up line totals are 132 and 264, subtotal 396.00, VAT 79.20,
	// grand total 475.20.
	cfg := entity.PricingConfig{
		MarkupPercent:      20,
		VATPercent:         20,
		AmalgamateDelivery: true,
		RoundTo:            2,
	}

	got := BuildClientQuote(scenarioParse(), cfg)

	if len(got.Lines) != 2 {
		t.Fatalf("lines: got %d (%+v), want 2 product lines", len(got.Lines), got.Lines)
	}
	if got.Lines[0].TotalMarkedUp != 132 {
		t.Errorf("first line total: got %v, want 132", got.Lines[0].TotalMarkedUp)
	}
	if got.Lines[1].TotalMarkedUp != 264 {
		t.Errorf("second line total: got %v, want 264", got.Lines[1].TotalMarkedUp)
	}
	if got.Subtotal != 396.00 {
		t.Errorf("subtotal: got %v, want 396.00", got.Subtotal)
	}
	if got.VATAmount != 79.20 {
		t.Errorf("vat: got %v, want 79.20", got.VATAmount)
	}
	if got.GrandTotal != 475.20 {
		t.Errorf("grand total: got %v, want 475.20", got.GrandTotal)
	}
	if got.SupplierDeliveryTotal == nil || *got.SupplierDeliveryTotal != 30 {
		t.Errorf("supplier delivery: got %v, want 30", got.SupplierDeliveryTotal)
	}
	if got.ClientDeliveryCharge != nil {
		t.Errorf("client delivery charge: got %v, want nil when amalgamated", got.ClientDeliveryCharge)
	}
}

func TestBuildClientQuote_SeparateDeliveryLine(t *testing.T) {
	// WHAT: Without amalgamation the delivery survives as its own client
	// line, marked up only when configured.
	cfg := entity.PricingConfig{
		MarkupPercent:  20,
		VATPercent:     20,
		MarkupDelivery: true,
		RoundTo:        2,
	}

	got := BuildClientQuote(scenarioParse(), cfg)

	if len(got.Lines) != 3 {
		t.Fatalf("lines: got %d, want 3", len(got.Lines))
	}
	last := got.Lines[2]
	if last.Description != "Delivery" || last.TotalMarkedUp != 36 {
		t.Errorf("delivery line: got %+v, want marked-up 36", last)
	}
	if got.ClientDeliveryCharge != nil {
		t.Errorf("client delivery charge: got %v, want nil without an override", got.ClientDeliveryCharge)
	}
	// 120 + 240 + 36.
	if got.Subtotal != 396 {
		t.Errorf("subtotal: got %v, want 396", got.Subtotal)
	}
}

func TestBuildClientQuote_ClientDeliveryWithAmalgamation(t *testing.T) {
	// WHAT: A flat client delivery price is appended as its own zero-cost
	// line even when the supplier delivery was folded into product prices.
	// WHY: The charge is what the business shows the client, independent of
	// the supplier cost, so amalgamation must not swallow it.
	override := 25.0
	cfg := entity.PricingConfig{
		MarkupPercent:      20,
		VATPercent:         20,
		AmalgamateDelivery: true,
		ClientDeliveryGBP:  &override,
		RoundTo:            2,
	}

	got := BuildClientQuote(scenarioParse(), cfg)

	if len(got.Lines) != 3 {
		t.Fatalf("lines: got %d (%+v), want 2 products + client delivery", len(got.Lines), got.Lines)
	}
	last := got.Lines[2]
	if last.Description != "Delivery" || last.UnitPrice != 0 || last.Total != 0 || last.TotalMarkedUp != 25 {
		t.Errorf("client delivery line: got %+v, want zero-cost line at 25", last)
	}
	// 132 + 264 + 25, the flat charge is never marked up.
	if got.Subtotal != 421.00 {
		t.Errorf("subtotal: got %v, want 421.00", got.Subtotal)
	}
	if got.ClientDeliveryCharge == nil || *got.ClientDeliveryCharge != 25 {
		t.Errorf("client delivery charge: got %v, want 25", got.ClientDeliveryCharge)
	}
}

func TestBuildClientQuote_ClientDeliveryWithSeparateSupplierLine(t *testing.T) {
	// WHAT: Without amalgamation a client delivery price adds a second
	// delivery line; the supplier's own delivery line is kept.
	override := 25.0
	desc := "Delivery and installation"
	cfg := entity.PricingConfig{
		MarkupPercent:             20,
		VATPercent:                20,
		ClientDeliveryGBP:         &override,
		ClientDeliveryDescription: &desc,
		RoundTo:                   2,
	}

	got := BuildClientQuote(scenarioParse(), cfg)

	if len(got.Lines) != 4 {
		t.Fatalf("lines: got %d (%+v), want 4", len(got.Lines), got.Lines)
	}
	supplier := got.Lines[2]
	if supplier.Description != "Delivery" || supplier.TotalMarkedUp != 30 {
		t.Errorf("supplier delivery line: got %+v, want 30 unmarked", supplier)
	}
	client := got.Lines[3]
	if client.Description != desc || client.TotalMarkedUp != 25 {
		t.Errorf("client delivery line: got %+v, want %q at 25", client, desc)
	}
	// 120 + 240 + 30 + 25.
	if got.Subtotal != 415.00 {
		t.Errorf("subtotal: got %v, want 415.00", got.Subtotal)
	}
}

func TestBuildClientQuote_VATIdentity(t *testing.T) {
	// WHAT: Grand total always equals subtotal plus VAT, and VAT equals
	// subtotal times the configured rate, within rounding.
	cfg := entity.DefaultPricingConfig()
	got := BuildClientQuote(scenarioParse(), cfg)

	if math.Abs(got.GrandTotal-(got.Subtotal+got.VATAmount)) > 1e-9 {
		t.Errorf("grand total %v != subtotal %v + vat %v", got.GrandTotal, got.Subtotal, got.VATAmount)
	}
	wantVAT := roundTo(got.Subtotal*cfg.VATPercent/100, cfg.RoundTo)
	if got.VATAmount != wantVAT {
		t.Errorf("vat: got %v, want %v", got.VATAmount, wantVAT)
	}
}

func TestBuildClientQuote_NoVATWhenRateNotPositive(t *testing.T) {
	// WHAT: A zero or negative VAT rate charges no VAT at all; the grand
	// total equals the subtotal.
	// WHY: Explicitly disabling VAT must be honored, not replaced by a
	// default rate, and a bad negative rate must not produce a credit.
	for _, rate := range []float64{0, -5} {
		cfg := entity.PricingConfig{
			MarkupPercent:      20,
			VATPercent:         rate,
			AmalgamateDelivery: true,
			RoundTo:            2,
		}
		got := BuildClientQuote(scenarioParse(), cfg)

		if got.VATAmount != 0 {
			t.Errorf("rate %v: vat got %v, want 0", rate, got.VATAmount)
		}
		if got.GrandTotal != got.Subtotal {
			t.Errorf("rate %v: grand total %v != subtotal %v", rate, got.GrandTotal, got.Subtotal)
		}
	}
}

func TestBuildClientQuote_ZeroMarkupRespected(t *testing.T) {
	// WHAT: An explicit zero markup passes supplier prices through unchanged.
	cfg := entity.PricingConfig{
		VATPercent:         20,
		AmalgamateDelivery: true,
		RoundTo:            2,
	}
	got := BuildClientQuote(scenarioParse(), cfg)

	// Delivery still amalgamates: 110 + 220.
	if got.Subtotal != 330 {
		t.Errorf("subtotal: got %v, want 330", got.Subtotal)
	}
}

func TestBuildClientQuote_Idempotent(t *testing.T) {
	// WHAT: The transformer is a pure function; repeated calls with the same
	// inputs return identical results.
	cfg := entity.DefaultPricingConfig()
	first := BuildClientQuote(scenarioParse(), cfg)
	second := BuildClientQuote(scenarioParse(), cfg)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated calls differ:\n%+v\n%+v", first, second)
	}
}

func TestBuildClientQuote_UnitDerivedFromTotal(t *testing.T) {
	// WHAT: The marked-up unit price comes from total/qty, not from the
	// parsed unit price, so lines where unit*qty disagrees with total keep
	// the total authoritative.
	parsed := entity.ParsedSupplierQuote{
		Lines: []entity.LineItem{
			{Description: "Hinge pack", Qty: 2, UnitPrice: 10, Total: 30},
		},
	}
	cfg := entity.PricingConfig{MarkupPercent: 20, RoundTo: 2}

	got := BuildClientQuote(parsed, cfg)

	if got.Lines[0].UnitPriceMarkedUp != 18 {
		t.Errorf("unit: got %v, want 18 (15 effective unit marked up)", got.Lines[0].UnitPriceMarkedUp)
	}
	if got.Lines[0].TotalMarkedUp != 36 {
		t.Errorf("total: got %v, want 36", got.Lines[0].TotalMarkedUp)
	}
}

func TestAllocateDelivery_ConservesTotal(t *testing.T) {
	// WHAT: Delivery allocations always sum exactly to the delivery total,
	// the last line absorbing any rounding residual.
	// WHY: Silently gaining or losing pennies in the split would make the
	// client quote disagree with the supplier invoice.
	products := []entity.LineItem{
		{Total: 33.33},
		{Total: 33.33},
		{Total: 33.34},
	}
	allocations := allocateDelivery(products, 10, 2)

	sum := 0.0
	for _, a := range allocations {
		sum += a
	}
	if math.Abs(sum-10) > 1e-9 {
		t.Errorf("allocations %v sum to %v, want 10", allocations, sum)
	}
}

func TestBuildClientQuote_NoLines(t *testing.T) {
	// WHAT: An empty parse produces an empty quote with zero totals.
	got := BuildClientQuote(entity.ParsedSupplierQuote{}, entity.DefaultPricingConfig())
	if len(got.Lines) != 0 || got.Subtotal != 0 || got.GrandTotal != 0 {
		t.Errorf("empty quote: got %+v", got)
	}
}
