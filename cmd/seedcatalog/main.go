// Command seedcatalog converts a product catalog spreadsheet into a SQL seed file.
// Columns: A=name, B=customs code, C=certification required, D=origin certificate available.
// The first row is a header. Without an argument the builtin catalog is written.
// Usage: go run ./cmd/seedcatalog [catalog.xlsx]
// Output: db/seeds/catalog_entries.sql
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"declbot/internal/catalog"
	"declbot/internal/domain"
)

const outPath = "db/seeds/catalog_entries.sql"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		entries []domain.CatalogEntry
		err     error
	)
	if len(os.Args) > 1 {
		entries, err = readSheet(os.Args[1])
		if err != nil {
			return fmt.Errorf("read catalog sheet: %w", err)
		}
	} else {
		entries = catalog.Default().Entries()
	}

	// Same validation the server applies when loading from the database.
	if _, err := catalog.New(entries); err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = out.Close() }()

	if _, err := out.WriteString(render(entries)); err != nil {
		return fmt.Errorf("write seed: %w", err)
	}

	log.Printf("Generated %d catalog entries in %s", len(entries), outPath)
	return nil
}

func readSheet(path string) ([]domain.CatalogEntry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, err
	}

	var entries []domain.CatalogEntry
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		name := strings.ToLower(strings.TrimSpace(cellVal(row, 0)))
		code, ok := formatCode(cellVal(row, 1))
		if name == "" || !ok {
			log.Printf("row %d skipped: name %q, code %q", i+1, name, cellVal(row, 1))
			continue
		}
		entries = append(entries, domain.CatalogEntry{
			Name:                       name,
			CustomsCode:                code,
			CertificationRequired:      parseFlag(cellVal(row, 2), true),
			OriginCertificateAvailable: parseFlag(cellVal(row, 3), true),
		})
	}
	return entries, nil
}

// formatCode normalizes a ten-digit customs code to the "NNNN NN NNN N" layout.
func formatCode(s string) (string, bool) {
	d := catalog.Digits(s)
	if len(d) != 10 {
		return "", false
	}
	return d[:4] + " " + d[4:6] + " " + d[6:9] + " " + d[9:], true
}

// parseFlag reads yes/no cells in Russian or English. Blank cells take def.
func parseFlag(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "да", "yes", "y", "true", "1", "+":
		return true
	case "нет", "no", "n", "false", "0", "-":
		return false
	default:
		return def
	}
}

func render(entries []domain.CatalogEntry) string {
	var b strings.Builder
	b.WriteString("-- Catalog seed data.\n")
	fmt.Fprintf(&b, "-- %d entries. Apply after migrations.\n", len(entries))
	b.WriteString("BEGIN;\n\n")
	b.WriteString("INSERT INTO catalog_entries (position, name, customs_code, certification_required, origin_certificate_available) VALUES\n")
	for i, e := range entries {
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "  (%d, '%s', '%s', %t, %t)",
			i+1, escapeSQL(e.Name), escapeSQL(e.CustomsCode), e.CertificationRequired, e.OriginCertificateAvailable)
	}
	b.WriteString("\nON CONFLICT (name) DO NOTHING;\n\nCOMMIT;\n")
	return b.String()
}

func cellVal(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
