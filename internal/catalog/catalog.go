// Package catalog holds the immutable product → customs classification table.
package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"declbot/internal/domain"
)

var codeFormat = regexp.MustCompile(`^\d{4} \d{2} \d{3} \d$`)

// Catalog provides in-memory lookups over a fixed, ordered product table.
// It is immutable after construction and safe for concurrent access.
type Catalog struct {
	entries    []domain.CatalogEntry
	byName     map[string]int
	codeDigits map[string]struct{}
}

// New validates entries and builds a Catalog. Entry order is preserved and is the
// tie-break order for every multi-match lookup.
func New(entries []domain.CatalogEntry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", domain.ErrInvalidCatalog)
	}
	c := &Catalog{
		entries:    make([]domain.CatalogEntry, 0, len(entries)),
		byName:     make(map[string]int, len(entries)),
		codeDigits: make(map[string]struct{}, len(entries)),
	}
	for i := range entries {
		e := entries[i]
		e.Name = strings.TrimSpace(e.Name)
		e.CustomsCode = strings.TrimSpace(e.CustomsCode)
		if e.Name == "" {
			return nil, fmt.Errorf("%w: entry %d has an empty name", domain.ErrInvalidCatalog, i)
		}
		if e.Name != strings.ToLower(e.Name) {
			return nil, fmt.Errorf("%w: name %q is not lower-case", domain.ErrInvalidCatalog, e.Name)
		}
		if _, dup := c.byName[e.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", domain.ErrInvalidCatalog, e.Name)
		}
		if !codeFormat.MatchString(e.CustomsCode) {
			return nil, fmt.Errorf("%w: %q has malformed code %q", domain.ErrInvalidCatalog, e.Name, e.CustomsCode)
		}
		c.byName[e.Name] = len(c.entries)
		c.codeDigits[Digits(e.CustomsCode)] = struct{}{}
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// MustNew is New for tables known to be valid at compile time.
func MustNew(entries []domain.CatalogEntry) *Catalog {
	c, err := New(entries)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Entries returns a copy of the entries in catalog order.
func (c *Catalog) Entries() []domain.CatalogEntry {
	return append([]domain.CatalogEntry(nil), c.entries...)
}

// Lookup returns the entry with exactly the given name.
func (c *Catalog) Lookup(name string) (domain.CatalogEntry, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return domain.CatalogEntry{}, false
	}
	return c.entries[idx], true
}

// MatchIn returns the first entry, in catalog order, whose name occurs as a substring of text.
// Several entries may occur in the same text; the earlier catalog entry wins.
func (c *Catalog) MatchIn(text string) (domain.CatalogEntry, bool) {
	for i := range c.entries {
		if strings.Contains(text, c.entries[i].Name) {
			return c.entries[i], true
		}
	}
	return domain.CatalogEntry{}, false
}

// Candidates returns the names that contain fragment, in catalog order. An exact
// name match short-circuits to that single name.
func (c *Catalog) Candidates(fragment string) []string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil
	}
	if _, ok := c.byName[fragment]; ok {
		return []string{fragment}
	}
	var out []string
	for i := range c.entries {
		if strings.Contains(c.entries[i].Name, fragment) {
			out = append(out, c.entries[i].Name)
		}
	}
	return out
}

// IsCodeDigits reports whether digits equals the digit string of a known customs code.
func (c *Catalog) IsCodeDigits(digits string) bool {
	if digits == "" {
		return false
	}
	_, ok := c.codeDigits[digits]
	return ok
}

// Codes returns every customs code in its formatted form, in catalog order.
func (c *Catalog) Codes() []string {
	out := make([]string, len(c.entries))
	for i := range c.entries {
		out[i] = c.entries[i].CustomsCode
	}
	return out
}

// Digits strips everything but ASCII digits from s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
