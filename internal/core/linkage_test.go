package core

import "testing"

func TestStripCylinderWords(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Bharat Cylinder", "Bharat"},
		{"14.2kg Cylinder", "14.2kg"},
		{"Empty Cylinders 19kg", "Empty 19kg"},
		{"Regulator", "Regulator"},
		{"Cylinder", ""},
	}
	for _, tt := range tests {
		if got := stripCylinderWords(tt.in); got != tt.want {
			t.Errorf("stripCylinderWords(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNameTokens(t *testing.T) {
	got := nameTokens("Bharat Gas 14.2kg")
	want := []string{"bharat", "14.2kg"}
	if len(got) != len(want) {
		t.Fatalf("nameTokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}

	// Unit words and single characters are dropped entirely.
	if got := nameTokens("gas kg l ."); len(got) != 0 {
		t.Errorf("expected no tokens, got %v", got)
	}
}

func TestMatchCylinderForGas_RemainderContainment(t *testing.T) {
	cylinders := []Product{
		{ID: 1, Name: "HP Cylinder"},
		{ID: 2, Name: "Bharat Cylinder"},
	}

	match := matchCylinderForGas("Bharat Gas 14.2kg", cylinders)
	if match == nil || match.ID != 2 {
		t.Fatalf("expected cylinder 2 (Bharat), got %+v", match)
	}
}

func TestMatchCylinderForGas_TokenFallback(t *testing.T) {
	// The stripped cylinder remainder ("for Indane") never appears inside
	// the gas name, but the shared token "indane" should still pair them.
	cylinders := []Product{
		{ID: 5, Name: "Cylinder for Indane"},
	}
	match := matchCylinderForGas("Indane Gas", cylinders)
	if match == nil || match.ID != 5 {
		t.Fatalf("expected cylinder 5 via token match, got %+v", match)
	}
}

func TestMatchCylinderForGas_NoMatch(t *testing.T) {
	cylinders := []Product{
		{ID: 1, Name: "HP Cylinder"},
	}
	if match := matchCylinderForGas("Bharat Gas", cylinders); match != nil {
		t.Fatalf("expected no match, got %+v", match)
	}
	if match := matchCylinderForGas("Bharat Gas", nil); match != nil {
		t.Fatalf("expected no match with empty catalog, got %+v", match)
	}
}

func TestMatchGasForCylinder_NameSimilarity(t *testing.T) {
	candidates := []gasCandidate{
		{Product: Product{ID: 10, Name: "HP Gas"}, stock: 50},
		{Product: Product{ID: 11, Name: "Bharat Gas"}, stock: 5},
	}
	match := matchGasForCylinder(Product{Name: "Bharat Cylinder"}, candidates)
	if match == nil || match.ID != 11 {
		t.Fatalf("expected gas 11 (Bharat), got %+v", match)
	}
}

func TestMatchGasForCylinder_SizeFallback(t *testing.T) {
	candidates := []gasCandidate{
		{Product: Product{ID: 10, Name: "HP Gas", CylinderSize: "19kg"}, stock: 50},
		{Product: Product{ID: 11, Name: "Indane Gas", CylinderSize: "14.2kg"}, stock: 5},
	}
	// No name overlap; the 14.2kg size should decide.
	match := matchGasForCylinder(Product{Name: "Steel Cylinder", CylinderSize: "14.2kg"}, candidates)
	if match == nil || match.ID != 11 {
		t.Fatalf("expected gas 11 via size, got %+v", match)
	}
}

func TestMatchGasForCylinder_HighestStockFallback(t *testing.T) {
	// Candidates arrive highest-stock first; with no name or size signal
	// the first with positive stock wins.
	candidates := []gasCandidate{
		{Product: Product{ID: 10, Name: "Alpha", CylinderSize: "19kg"}, stock: 50},
		{Product: Product{ID: 11, Name: "Beta", CylinderSize: "19kg"}, stock: 5},
	}
	match := matchGasForCylinder(Product{Name: "Steel Vessel", CylinderSize: "5kg"}, candidates)
	if match == nil || match.ID != 10 {
		t.Fatalf("expected highest-stock gas 10, got %+v", match)
	}
}

func TestMatchGasForCylinder_AllOutOfStock(t *testing.T) {
	candidates := []gasCandidate{
		{Product: Product{ID: 10, Name: "Alpha"}, stock: 0},
	}
	if match := matchGasForCylinder(Product{Name: "Steel Vessel"}, candidates); match != nil {
		t.Fatalf("expected no match when every candidate is out of stock, got %+v", match)
	}
}
