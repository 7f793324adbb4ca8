package core

import (
	"reflect"
	"testing"
)

func TestGenerateBatchIDs(t *testing.T) {
	cases := []struct {
		name     string
		base     string
		quantity int
		want     []string
	}{
		{name: "single container reuses base", base: "ABC", quantity: 1, want: []string{"ABC"}},
		{name: "batch appends padded suffix", base: "ABC", quantity: 3, want: []string{"ABC-01", "ABC-02", "ABC-03"}},
		{name: "blank base yields nil", base: "   ", quantity: 5, want: nil},
		{name: "empty base yields nil", base: "", quantity: 2, want: nil},
		{name: "zero quantity clamps to one", base: "X", quantity: 0, want: []string{"X"}},
		{name: "negative quantity clamps to one", base: "X", quantity: -3, want: []string{"X"}},
		{name: "base is trimmed", base: " QR1 ", quantity: 1, want: []string{"QR1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := GenerateBatchIDs(tc.base, tc.quantity)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("GenerateBatchIDs(%q, %d) = %v, want %v", tc.base, tc.quantity, got, tc.want)
			}
		})
	}
}

func TestGenerateBatchIDsGrowsPastTwoDigits(t *testing.T) {
	ids := GenerateBatchIDs("X", 105)
	if len(ids) != 105 {
		t.Fatalf("expected 105 ids, got %d", len(ids))
	}
	if ids[9] != "X-10" {
		t.Fatalf("expected X-10 at index 9, got %s", ids[9])
	}
	if ids[99] != "X-100" {
		t.Fatalf("expected suffix to grow past 99, got %s", ids[99])
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}
