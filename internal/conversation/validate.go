package conversation

import (
	"strconv"
	"strings"
	"time"

	"declbot/internal/domain"
)

const dateLayout = "02.01.2006"

var (
	yesLiterals = map[string]struct{}{"да": {}, "д": {}, "yes": {}, "y": {}}
	noLiterals  = map[string]struct{}{"нет": {}, "н": {}, "no": {}, "n": {}}
)

// ParseDecimal accepts a positive number with a comma or period decimal separator.
func ParseDecimal(field, input string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(input), ",", ".")
	s = strings.ReplaceAll(s, " ", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || s == "" || strings.ContainsAny(s, "eEnNiIxXpP+_") {
		return 0, &domain.ValidationError{Field: field, Input: input, Reason: "not a number"}
	}
	if v <= 0 {
		return 0, &domain.ValidationError{Field: field, Input: input, Reason: "must be greater than zero"}
	}
	return v, nil
}

// ParseCount accepts a non-negative integer.
func ParseCount(field, input string) (int, error) {
	s := strings.TrimSpace(input)
	v, err := strconv.Atoi(s)
	if err != nil || strings.HasPrefix(s, "+") {
		return 0, &domain.ValidationError{Field: field, Input: input, Reason: "not a whole number"}
	}
	if v < 0 {
		return 0, &domain.ValidationError{Field: field, Input: input, Reason: "must not be negative"}
	}
	return v, nil
}

// ParseDate accepts a real calendar date written day.month.year and returns it in
// canonical DD.MM.YYYY form. Leading zeros may be omitted.
func ParseDate(field, input string) (string, error) {
	parts := strings.Split(strings.TrimSpace(input), ".")
	if len(parts) != 3 || len(parts[2]) != 4 {
		return "", &domain.ValidationError{Field: field, Input: input, Reason: "expected DD.MM.YYYY"}
	}
	for i := 0; i < 2; i++ {
		if len(parts[i]) == 1 {
			parts[i] = "0" + parts[i]
		}
	}
	t, err := time.Parse(dateLayout, strings.Join(parts, "."))
	if err != nil {
		return "", &domain.ValidationError{Field: field, Input: input, Reason: "not a calendar date"}
	}
	return t.Format(dateLayout), nil
}

// ParseYesNo recognizes the yes/no literals, case-insensitively.
func ParseYesNo(field, input string) (bool, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if _, ok := yesLiterals[s]; ok {
		return true, nil
	}
	if _, ok := noLiterals[s]; ok {
		return false, nil
	}
	return false, &domain.ValidationError{Field: field, Input: input, Reason: "expected yes or no"}
}

// RequireText accepts any non-blank text.
func RequireText(field, input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", &domain.ValidationError{Field: field, Input: input, Reason: "must not be empty"}
	}
	return s, nil
}
