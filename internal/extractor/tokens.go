package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

type class int

const (
	classNone class = iota
	classWeight
	classPrice
	classCount
)

// marker is the keyword meaning a token carries, and which neighbouring number it can describe.
// Labels ("вес", "цена") describe the number after them, units ("кг", "мест") the number
// before them, and currency signs either side.
type marker struct {
	class      class
	bindsLeft  bool
	bindsRight bool
}

type token struct {
	raw     string
	marker  marker
	value   float64
	numeric bool
	integer bool
}

var numberPattern = regexp.MustCompile(`^\d+(?:\.\d+)?$`)

var (
	weightUnits  = []string{"кг", "kg"}
	currencies   = []string{"$", "usd"}
	weightLabels = []string{"вес", "нетто", "netto"}
	priceLabels  = []string{"цена", "price", "стоимость"}
	countWords   = []string{"мест", "шт", "ящ", "короб", "мешк", "упак", "pcs"}
)

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ';' || r == '|' || r == '='
}

// tokenize splits text into tokens and resolves each token's keyword marker and numeric value.
func tokenize(text string) []token {
	fields := strings.FieldsFunc(text, isSeparator)
	tokens := make([]token, len(fields))
	for i, f := range fields {
		tokens[i] = token{raw: f, marker: markerOf(f)}
		tokens[i].value, tokens[i].integer, tokens[i].numeric = numericValue(f)
	}
	// "за кг" is a per-kg price marker, not a weight unit. It describes the price on either
	// side: "1.1 $ за кг" and "цена за кг 1.1".
	perKg := marker{class: classPrice, bindsLeft: true, bindsRight: true}
	for i := 1; i < len(tokens); i++ {
		if tokens[i-1].raw == "за" && tokens[i].marker.class == classWeight && !tokens[i].numeric {
			tokens[i-1].marker = perKg
			tokens[i].marker = perKg
		}
	}
	return tokens
}

func markerOf(tok string) marker {
	switch {
	case strings.Contains(tok, "/кг") || strings.Contains(tok, "/kg"):
		return marker{class: classPrice, bindsLeft: true, bindsRight: true}
	case containsAny(tok, currencies):
		return marker{class: classPrice, bindsLeft: true, bindsRight: true}
	case hasPrefixAny(trimNumber(tok), priceLabels) || tok == "за":
		return marker{class: classPrice, bindsRight: true}
	case hasPrefixAny(trimNumber(tok), weightLabels):
		return marker{class: classWeight, bindsRight: true}
	case containsAny(tok, weightUnits):
		return marker{class: classWeight, bindsLeft: true}
	case hasPrefixAny(trimNumber(tok), countWords):
		return marker{class: classCount, bindsLeft: true}
	}
	return marker{}
}

// numericValue strips currency and weight markers, normalizes the decimal separator and parses.
func numericValue(tok string) (v float64, integer, ok bool) {
	s := tok
	for _, m := range append(append([]string{}, currencies...), weightUnits...) {
		s = strings.ReplaceAll(s, m, "")
	}
	s = strings.ReplaceAll(s, "/", "")
	s = strings.Trim(s, ".,:;()")
	if rest := trimNumber(s); rest != s && hasPrefixAny(rest, countWords) {
		s = strings.Trim(strings.TrimSuffix(s, rest), ".,:")
	}
	s = strings.ReplaceAll(s, ",", ".")
	if !numberPattern.MatchString(s) {
		return 0, false, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, false
	}
	return v, !strings.Contains(s, "."), true
}

func trimNumber(tok string) string {
	return strings.TrimLeftFunc(tok, func(r rune) bool {
		return unicode.IsDigit(r) || r == '.' || r == ',' || r == '-' || r == ':'
	})
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasPrefixAny(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
