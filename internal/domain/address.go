package domain

import (
	"sort"
	"strings"
)

// NormalizeAddress turns a wallet address as stored upstream into the grouping key.
// Fixed-width binary columns arrive NUL padded; addresses are compared case-insensitively.
func NormalizeAddress(raw string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimRight(raw, "\x00")))
}

// NormalizeAddressBytes decodes a binary address and normalizes it.
func NormalizeAddressBytes(raw []byte) string {
	return NormalizeAddress(string(raw))
}

// AddressSet is a set of normalized addresses.
type AddressSet map[string]struct{}

// NewAddressSet builds a set from raw addresses, skipping empty entries.
func NewAddressSet(addrs []string) AddressSet {
	set := make(AddressSet, len(addrs))
	for _, a := range addrs {
		if n := NormalizeAddress(a); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// Contains reports whether addr (normalized) is in the set.
func (s AddressSet) Contains(addr string) bool {
	_, ok := s[NormalizeAddress(addr)]
	return ok
}

// Slice returns the members sorted.
func (s AddressSet) Slice() []string {
	out := make([]string, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
