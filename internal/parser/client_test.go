package parser

import (
	"math"
	"testing"
)

const clientEstimate = `Heritage Joinery Ltd
Specialists in Purpose Made Joinery
St Marys Church

ESTIMATE
Reference: SMC-114
Estimate Number: E-2201
Date of Estimate: 12/03/2024
This estimate is valid for 30 days

Item Width Height Qty
Sliding Sash window 950 x 1450 mm 4
Casement window 600 x 900 mm 2

Sub Total £8,400.00
VAT @ 20% £1,680.00
Total £10,080.00`

func TestParseClient_FullEstimate(t *testing.T) {
	// WHAT: A well-formed estimate yields metadata, spec-table line items
	// with accumulated area, the quoted price, and full confidence.
	got := ParseClient(clientEstimate)

	if got.ProjectDetails["reference"] != "SMC-114" {
		t.Errorf("reference: got %v", got.ProjectDetails["reference"])
	}
	if got.ProjectDetails["estimate_number"] != "E-2201" {
		t.Errorf("estimate number: got %v", got.ProjectDetails["estimate_number"])
	}
	if got.ProjectDetails["estimate_date"] != "12/03/2024" {
		t.Errorf("estimate date: got %v", got.ProjectDetails["estimate_date"])
	}
	if got.ProjectDetails["validity_days"] != 30 {
		t.Errorf("validity days: got %v", got.ProjectDetails["validity_days"])
	}
	if got.ProjectDetails["project_location"] != "St Marys Church" {
		t.Errorf("project location: got %v", got.ProjectDetails["project_location"])
	}
	if got.QuestionnaireAnswers["project_type"] != "windows" {
		t.Errorf("project type: got %v", got.QuestionnaireAnswers["project_type"])
	}
	if got.QuestionnaireAnswers["materials_grade"] != "standard" {
		t.Errorf("materials grade: got %v", got.QuestionnaireAnswers["materials_grade"])
	}

	if len(got.LineItems) != 2 {
		t.Fatalf("line items: got %d (%+v), want 2", len(got.LineItems), got.LineItems)
	}
	if got.LineItems[0]["qty"] != 4.0 || got.LineItems[0]["width_mm"] != 950.0 || got.LineItems[0]["height_mm"] != 1450.0 {
		t.Errorf("first item: got %+v", got.LineItems[0])
	}

	// 950*1450*4/1e6 + 600*900*2/1e6 = 5.51 + 1.08.
	wantArea := 6.59
	area, _ := got.QuestionnaireAnswers["area_m2"].(float64)
	if math.Abs(area-wantArea) > 0.01 {
		t.Errorf("area: got %v, want %v", area, wantArea)
	}

	if got.ProjectDetails["subtotal"] != 8400.0 {
		t.Errorf("subtotal: got %v", got.ProjectDetails["subtotal"])
	}
	if got.ProjectDetails["vat"] != 1680.0 {
		t.Errorf("vat: got %v", got.ProjectDetails["vat"])
	}
	if got.QuotedPrice == nil || *got.QuotedPrice != 10080 {
		t.Errorf("quoted price: got %v, want 10080", got.QuotedPrice)
	}

	// All five weighted signals present: (3+2+2+1+2)/10.
	if got.Confidence != 1.0 {
		t.Errorf("confidence: got %v, want 1.0", got.Confidence)
	}
}

func TestParseClient_PremiumTimber(t *testing.T) {
	// WHAT: Premium timber species set materials_grade and wood_type.
	got := ParseClient("Quotation for Accoya casement windows throughout")

	if got.QuestionnaireAnswers["materials_grade"] != "premium" {
		t.Errorf("materials grade: got %v, want premium", got.QuestionnaireAnswers["materials_grade"])
	}
	if got.QuestionnaireAnswers["wood_type"] != "accoya" {
		t.Errorf("wood type: got %v, want accoya", got.QuestionnaireAnswers["wood_type"])
	}
}

func TestParseClient_SparseDocument(t *testing.T) {
	// WHAT: A document with no price, items or location scores low
	// confidence rather than failing.
	got := ParseClient("Covering letter about forthcoming joinery works")

	if got.QuotedPrice != nil {
		t.Errorf("quoted price: got %v, want nil", got.QuotedPrice)
	}
	if len(got.LineItems) != 0 {
		t.Errorf("line items: got %+v, want none", got.LineItems)
	}
	// Only project_type ("joinery") contributes: 2/10.
	if got.Confidence != 0.2 {
		t.Errorf("confidence: got %v, want 0.2", got.Confidence)
	}
}

func TestParseClient_EmptyText(t *testing.T) {
	got := ParseClient("")
	if got.Confidence != 0 || got.QuotedPrice != nil || len(got.LineItems) != 0 {
		t.Errorf("empty parse: got %+v", got)
	}
}
