package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogEntry is one recognized product with its customs classification.
type CatalogEntry struct {
	Name                       string `db:"name" json:"name" yaml:"name"`
	CustomsCode                string `db:"customs_code" json:"customs_code" yaml:"customs_code"`
	CertificationRequired      bool   `db:"certification_required" json:"certification_required" yaml:"certification_required"`
	OriginCertificateAvailable bool   `db:"origin_certificate_available" json:"origin_certificate_available" yaml:"origin_certificate_available"`
}

// LineItemConstants are the values stamped onto every line item regardless of product.
type LineItemConstants struct {
	OriginCountry   string `json:"origin_country"`
	DispatchCountry string `json:"dispatch_country"`
	Preference      string `json:"preference"`
	VATRate         int    `json:"vat_rate"`
}

// DefaultLineItemConstants matches the shipments the declaration table was built for.
var DefaultLineItemConstants = LineItemConstants{
	OriginCountry:   "Узбекистан",
	DispatchCountry: "Узбекистан",
	Preference:      "Да",
	VATRate:         10,
}

// LineItem is one row of the declaration.
type LineItem struct {
	ProductName                string  `json:"product_name"`
	CustomsCode                string  `json:"customs_code"`
	CertificationRequired      bool    `json:"certification_required"`
	OriginCertificateAvailable bool    `json:"origin_certificate_available"`
	OriginCountry              string  `json:"origin_country"`
	DispatchCountry            string  `json:"dispatch_country"`
	Preference                 string  `json:"preference"`
	VATRate                    int     `json:"vat_rate"`
	NetWeightKg                float64 `json:"net_weight_kg"`
	GrossWeightKg              float64 `json:"gross_weight_kg"`
	PackageCount               int     `json:"package_count"`
	PricePerKgUSD              float64 `json:"price_per_kg_usd"`
	TotalUSD                   float64 `json:"total_usd"`
}

// NewLineItem starts a line item from a catalog entry. Quantities are left zero.
func NewLineItem(entry CatalogEntry, consts LineItemConstants) LineItem {
	return LineItem{
		ProductName:                entry.Name,
		CustomsCode:                entry.CustomsCode,
		CertificationRequired:      entry.CertificationRequired,
		OriginCertificateAvailable: entry.OriginCertificateAvailable,
		OriginCountry:              consts.OriginCountry,
		DispatchCountry:            consts.DispatchCountry,
		Preference:                 consts.Preference,
		VATRate:                    consts.VATRate,
	}
}

// SetPrice records the price per kg and recomputes the total.
func (li *LineItem) SetPrice(pricePerKg float64) {
	li.PricePerKgUSD = pricePerKg
	li.TotalUSD = ComputeTotal(li.NetWeightKg, pricePerKg)
}

// ComputeTotal returns net weight × price rounded half away from zero to 2 decimals.
func ComputeTotal(netWeightKg, pricePerKg float64) float64 {
	return decimal.NewFromFloat(netWeightKg).
		Mul(decimal.NewFromFloat(pricePerKg)).
		Round(2).
		InexactFloat64()
}

// Shipment holds the four shipment-level fields broadcast onto every manual row.
type Shipment struct {
	InvoiceNumber string `json:"invoice_number"`
	InvoiceDate   string `json:"invoice_date"`
	CMRNumber     string `json:"cmr_number"`
	CMRDate       string `json:"cmr_date"`
}

// Session is the per-user state of a guided declaration conversation.
type Session struct {
	UserID     int64      `json:"user_id"`
	Step       Step       `json:"step"`
	Draft      *LineItem  `json:"draft,omitempty"`
	Candidates []string   `json:"candidates,omitempty"`
	Positions  []LineItem `json:"positions"`
	Shipment   Shipment   `json:"shipment"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewSession returns a session positioned at the first step.
func NewSession(userID int64, now time.Time) *Session {
	return &Session{
		UserID:    userID,
		Step:      StepProduct,
		Positions: []LineItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy so a transition can be staged without touching the original.
func (s *Session) Clone() *Session {
	c := *s
	if s.Draft != nil {
		d := *s.Draft
		c.Draft = &d
	}
	if s.Candidates != nil {
		c.Candidates = append([]string(nil), s.Candidates...)
	}
	c.Positions = append(make([]LineItem, 0, len(s.Positions)), s.Positions...)
	return &c
}

// Document is one file of an uploaded batch, already reduced to text lines or cell rows.
type Document struct {
	Name  string       `json:"name"`
	Kind  DocumentKind `json:"kind"`
	Lines []string     `json:"lines,omitempty"`
	Rows  [][]Cell     `json:"rows,omitempty"`
	Err   error        `json:"-"`
}

// Cell is a nullable spreadsheet cell.
type Cell struct {
	Value string `json:"value"`
	Valid bool   `json:"valid"`
}

// DocumentReport summarizes what one document contributed to a batch.
type DocumentReport struct {
	Name       string       `json:"name"`
	Kind       DocumentKind `json:"kind"`
	Recognized int          `json:"recognized"`
	Error      string       `json:"error,omitempty"`
}

// BatchResult is the ordered set of line items recognized in one uploaded archive.
type BatchResult struct {
	ID        uuid.UUID        `json:"id"`
	UserID    int64            `json:"user_id"`
	Items     []LineItem       `json:"items"`
	Documents []DocumentReport `json:"documents"`
	CreatedAt time.Time        `json:"created_at"`
}

// Artifact is a rendered declaration file.
type Artifact struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
	URL         string `json:"url,omitempty"`
	Rows        int    `json:"rows"`
}

// Reply is one outbound chat message, optionally carrying a document.
type Reply struct {
	Text     string    `json:"text"`
	Document *Artifact `json:"document,omitempty"`
}
