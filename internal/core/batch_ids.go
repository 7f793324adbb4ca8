package core

import (
	"fmt"
	"strings"
)

// GenerateBatchIDs derives printable container identifiers from a base code.
// The base is trimmed of surrounding whitespace; an empty base yields nil.
// Quantity is clamped to a minimum of one. A single container reuses the base
// verbatim; batches append a 1-based, zero-padded two-digit suffix that grows
// naturally past 99.
func GenerateBatchIDs(base string, quantity int) []string {
	base = strings.TrimSpace(base)
	if base == "" {
		return nil
	}
	if quantity < 1 {
		quantity = 1
	}
	if quantity == 1 {
		return []string{base}
	}
	ids := make([]string, quantity)
	for i := 0; i < quantity; i++ {
		ids[i] = fmt.Sprintf("%s-%02d", base, i+1)
	}
	return ids
}
