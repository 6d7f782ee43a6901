// Package aggregator runs the field extractor over every line of every document in a batch.
package aggregator

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"declbot/internal/domain"
)

// LineExtractor is the single-line inference step the aggregator drives.
type LineExtractor interface {
	Extract(text string) (domain.LineItem, bool)
}

// Aggregator deduplicates per document: within one document only the first line
// naming a product is kept, while a later document may contribute the same product again.
type Aggregator struct {
	extractor LineExtractor
	now       func() time.Time
}

// New creates an Aggregator.
func New(extractor LineExtractor) *Aggregator {
	return &Aggregator{extractor: extractor, now: time.Now}
}

// Aggregate processes docs in order and concatenates their items in document-then-line order.
// Documents carrying an error contribute nothing. An empty result is returned together with
// domain.ErrNoItemsRecognized so callers can report it.
func (a *Aggregator) Aggregate(userID int64, docs []domain.Document) (*domain.BatchResult, error) {
	result := &domain.BatchResult{
		ID:        uuid.New(),
		UserID:    userID,
		Items:     []domain.LineItem{},
		Documents: make([]domain.DocumentReport, 0, len(docs)),
		CreatedAt: a.now().UTC(),
	}
	for i := range docs {
		items := a.document(&docs[i])
		report := domain.DocumentReport{Name: docs[i].Name, Kind: docs[i].Kind, Recognized: len(items)}
		if docs[i].Err != nil {
			report.Error = docs[i].Err.Error()
		}
		result.Documents = append(result.Documents, report)
		result.Items = append(result.Items, items...)
	}
	if len(result.Items) == 0 {
		return result, domain.ErrNoItemsRecognized
	}
	return result, nil
}

func (a *Aggregator) document(doc *domain.Document) []domain.LineItem {
	if doc.Err != nil {
		return nil
	}
	seen := make(map[string]struct{})
	var items []domain.LineItem
	for _, text := range Candidates(doc) {
		item, ok := a.extractor.Extract(text)
		if !ok {
			continue
		}
		if _, dup := seen[item.ProductName]; dup {
			continue
		}
		seen[item.ProductName] = struct{}{}
		items = append(items, item)
	}
	return items
}

// Candidates returns the lower-cased candidate texts of a document: OCR lines as they are,
// tabular rows as their non-null cells joined by a single space.
func Candidates(doc *domain.Document) []string {
	switch doc.Kind {
	case domain.DocumentKindTabular:
		out := make([]string, 0, len(doc.Rows))
		for _, row := range doc.Rows {
			if text := JoinRow(row); text != "" {
				out = append(out, text)
			}
		}
		return out
	default:
		out := make([]string, 0, len(doc.Lines))
		for _, line := range doc.Lines {
			if line = strings.ToLower(strings.TrimSpace(line)); line != "" {
				out = append(out, line)
			}
		}
		return out
	}
}

// JoinRow concatenates the non-null cells of a row.
func JoinRow(row []domain.Cell) string {
	parts := make([]string, 0, len(row))
	for _, c := range row {
		if !c.Valid {
			continue
		}
		if v := strings.TrimSpace(c.Value); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}
