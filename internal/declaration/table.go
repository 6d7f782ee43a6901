// Package declaration assembles line items into the fixed-column declaration table.
package declaration

import (
	"fmt"
	"strconv"
	"time"

	"declbot/internal/domain"
)

// Columns is the header of every declaration table, in export order.
var Columns = []string{
	"№",
	"Наименование товара",
	"Код ТН ВЭД",
	"ТР ТС",
	"СТ-1",
	"Страна происхождения",
	"Страна отправления",
	"Преференция",
	"Ставка НДС (%)",
	"Вес нетто (кг)",
	"Вес брутто (кг)",
	"Кол-во мест",
	"Цена за кг ($)",
	"Сумма ($)",
	"Номер инвойса",
	"Дата инвойса",
	"Номер CMR",
	"Дата CMR",
}

// Row is one numbered line of the table. Shipment is empty on the batch path.
type Row struct {
	Seq      int
	Item     domain.LineItem
	Shipment domain.Shipment
}

// Values returns the row cells in Columns order. Numbers stay numeric so writers can type them.
func (r Row) Values() []any {
	return []any{
		r.Seq,
		r.Item.ProductName,
		r.Item.CustomsCode,
		CertificationLabel(r.Item.CertificationRequired),
		OriginCertificateLabel(r.Item.OriginCertificateAvailable),
		r.Item.OriginCountry,
		r.Item.DispatchCountry,
		r.Item.Preference,
		r.Item.VATRate,
		r.Item.NetWeightKg,
		r.Item.GrossWeightKg,
		r.Item.PackageCount,
		r.Item.PricePerKgUSD,
		r.Item.TotalUSD,
		r.Shipment.InvoiceNumber,
		r.Shipment.InvoiceDate,
		r.Shipment.CMRNumber,
		r.Shipment.CMRDate,
	}
}

// Strings renders Values as text for formats without typed cells.
func (r Row) Strings() []string {
	values := r.Values()
	out := make([]string, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case string:
			out[i] = x
		case float64:
			out[i] = FormatNumber(x)
		default:
			out[i] = fmt.Sprint(x)
		}
	}
	return out
}

// Table is the ordered declaration. It never carries a summary row.
type Table struct {
	Rows []Row
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// FromItems numbers items from 1 and stamps shipment onto every row.
func FromItems(items []domain.LineItem, shipment domain.Shipment) (*Table, error) {
	if len(items) == 0 {
		return nil, domain.ErrNoItemsRecognized
	}
	t := &Table{Rows: make([]Row, len(items))}
	for i := range items {
		t.Rows[i] = Row{Seq: i + 1, Item: items[i], Shipment: shipment}
	}
	return t, nil
}

// FromBatch builds the table for an uploaded batch.
func FromBatch(b *domain.BatchResult) (*Table, error) {
	if b == nil {
		return nil, domain.ErrNoItemsRecognized
	}
	return FromItems(b.Items, domain.Shipment{})
}

// FromSession builds the table for a completed conversation.
func FromSession(s *domain.Session) (*Table, error) {
	if s == nil {
		return nil, domain.ErrSessionNotFound
	}
	return FromItems(s.Positions, s.Shipment)
}

// CertificationLabel renders the certification flag.
func CertificationLabel(required bool) string {
	if required {
		return "Нужна"
	}
	return "Не нужна"
}

// OriginCertificateLabel renders the certificate-of-origin flag.
func OriginCertificateLabel(available bool) string {
	if available {
		return "Да"
	}
	return "Нет"
}

// FormatNumber prints v without trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ObjectKey is where an uploaded artifact of the user lives. id keeps repeated exports apart.
func ObjectKey(userID int64, id, fileName string) string {
	return fmt.Sprintf("declarations/%d/%s/%s", userID, id, fileName)
}

// FileName is the artifact name for a user's declaration rendered at now.
func FileName(userID int64, now time.Time, ext string) string {
	return fmt.Sprintf("declaration_%d_%s.%s", userID, now.Format("2006-01-02"), ext)
}
