// Package extractor infers a single declaration line item from one line of noisy text.
//
// The pipeline runs fixed, ordered stages:
//
//	normalize → matchProduct → excludeCodes → tokenize → classifyByKeywords → magnitudeFallback → build
//
// Keyword classification looks at the token itself and then at neighbours up to
// windowSize tokens away, nearest first. When no token is keyword-classified as a
// weight or a price, the largest remaining number becomes the net weight and the
// second largest the price. That fallback misreads lines where an unlabelled count
// outranks the weight; it is kept as is.
package extractor

import (
	"sort"
	"strings"

	"declbot/internal/catalog"
	"declbot/internal/domain"
)

const (
	windowSize = 2
	maxWeight  = 100000.0
	maxPrice   = 1000.0
)

// Extractor is stateless; one instance can be shared by every goroutine.
type Extractor struct {
	catalog *catalog.Catalog
	consts  domain.LineItemConstants
}

// New creates an Extractor over cat.
func New(cat *catalog.Catalog, consts domain.LineItemConstants) *Extractor {
	return &Extractor{catalog: cat, consts: consts}
}

// fields is what the numeric stages resolved.
type fields struct {
	weight     float64
	price      float64
	count      int
	classified bool
}

// Extract returns the line item inferred from text, or false when the text names no
// catalog product or its weight or price resolves to zero.
func (e *Extractor) Extract(text string) (domain.LineItem, bool) {
	text = normalize(text)
	entry, ok := e.catalog.MatchIn(text)
	if !ok {
		return domain.LineItem{}, false
	}
	tokens := tokenize(e.excludeCodes(text))
	tokens = e.dropCodeTokens(tokens)

	f := classifyByKeywords(tokens)
	if !f.classified {
		f = magnitudeFallback(tokens, f)
	}
	if f.weight == 0 || f.price == 0 {
		return domain.LineItem{}, false
	}
	return e.build(entry, f), true
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, " ", " ")
	return strings.ToLower(strings.TrimSpace(text))
}

// excludeCodes blanks out formatted customs codes so their digit groups never become numbers.
func (e *Extractor) excludeCodes(text string) string {
	for _, code := range e.catalog.Codes() {
		if strings.Contains(text, code) {
			text = strings.ReplaceAll(text, code, " ")
		}
	}
	return text
}

// dropCodeTokens removes numeric tokens whose digits spell a known customs code.
func (e *Extractor) dropCodeTokens(tokens []token) []token {
	out := tokens[:0]
	for _, t := range tokens {
		if t.numeric && e.catalog.IsCodeDigits(catalog.Digits(t.raw)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func classifyByKeywords(tokens []token) fields {
	var f fields
	for i := range tokens {
		if !tokens[i].numeric {
			continue
		}
		v := tokens[i].value
		switch classify(tokens, i) {
		case classWeight:
			f.classified = true
			if f.weight == 0 && v > 0 && v < maxWeight {
				f.weight = v
			}
		case classPrice:
			f.classified = true
			if f.price == 0 && v > 0 && v < maxPrice {
				f.price = v
			}
		case classCount:
			if f.count == 0 && tokens[i].integer {
				f.count = int(v)
			}
		}
	}
	return f
}

// classify resolves the class of the numeric token at i: its own marker first, then
// the nearest neighbours whose markers point at it. When both neighbours at the same
// distance point at it, the one after it wins ("2 $ 20 мест" makes 20 a count).
func classify(tokens []token, i int) class {
	if c := tokens[i].marker.class; c != classNone {
		return c
	}
	for d := 1; d <= windowSize; d++ {
		if j := i + d; j < len(tokens) && !tokens[j].numeric && tokens[j].marker.bindsLeft {
			return tokens[j].marker.class
		}
		if j := i - d; j >= 0 && !tokens[j].numeric && tokens[j].marker.bindsRight {
			return tokens[j].marker.class
		}
	}
	return classNone
}

// magnitudeFallback takes the largest number as net weight and the second largest as price.
func magnitudeFallback(tokens []token, f fields) fields {
	var values []float64
	for i := range tokens {
		if !tokens[i].numeric {
			continue
		}
		if classify(tokens, i) == classCount {
			continue
		}
		values = append(values, tokens[i].value)
	}
	sort.SliceStable(values, func(a, b int) bool { return values[a] > values[b] })
	if len(values) > 0 {
		f.weight = values[0]
	}
	if len(values) > 1 {
		f.price = values[1]
	}
	return f
}

func (e *Extractor) build(entry domain.CatalogEntry, f fields) domain.LineItem {
	item := domain.NewLineItem(entry, e.consts)
	item.NetWeightKg = f.weight
	item.GrossWeightKg = f.weight
	item.PackageCount = f.count
	item.SetPrice(f.price)
	return item
}
