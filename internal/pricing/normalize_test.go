package pricing

import "testing"

func TestNormalizeLineItems_FieldSynonyms(t *testing.T) {
	// WHAT: costUnit/lineTotal are accepted as synonyms of unit_price/total.
	// WHY: Callers submit items produced by different frontends; rejecting a
	// known synonym would force clients to re-map fields.
	raw := []map[string]any{
		{"description": "Oak door", "qty": 2.0, "unit_price": 100.0, "total": 200.0},
		{"description": "Sash window", "qty": 1.0, "costUnit": 250.0, "lineTotal": 250.0},
	}

	got := NormalizeLineItems(raw)
	if len(got) != 2 {
		t.Fatalf("items: got %d, want 2", len(got))
	}
	if got[0].UnitPrice != 100 || got[0].Total != 200 {
		t.Errorf("canonical fields: got %+v", got[0])
	}
	if got[1].UnitPrice != 250 || got[1].Total != 250 {
		t.Errorf("synonym fields: got %+v", got[1])
	}
}

func TestNormalizeLineItems_StringAmounts(t *testing.T) {
	// WHAT: Numeric strings, including currency symbols and thousands
	// separators, are coerced to floats; malformed values become zero.
	raw := []map[string]any{
		{"description": "Frames", "qty": "3", "unit_price": "£1,250.50"},
		{"description": "Broken", "qty": 1.0, "unit_price": "n/a"},
	}

	got := NormalizeLineItems(raw)
	if got[0].Qty != 3 || got[0].UnitPrice != 1250.5 {
		t.Errorf("string amounts: got %+v", got[0])
	}
	if got[0].Total != 3751.5 {
		t.Errorf("derived total: got %v, want 3751.5", got[0].Total)
	}
	if got[1].UnitPrice != 0 || got[1].Total != 0 {
		t.Errorf("malformed amount: got %+v, want zeros", got[1])
	}
}

func TestNormalizeLineItems_DerivedFields(t *testing.T) {
	// WHAT: Missing qty defaults to 1; a missing total or unit price is
	// derived from the other two fields.
	raw := []map[string]any{
		{"description": "Hinges", "unit_price": 12.5},
		{"description": "Boards", "qty": 4.0, "total": 100.0},
	}

	got := NormalizeLineItems(raw)
	if got[0].Qty != 1 || got[0].Total != 12.5 {
		t.Errorf("defaulted qty: got %+v", got[0])
	}
	if got[1].UnitPrice != 25 {
		t.Errorf("derived unit price: got %+v", got[1])
	}
}
