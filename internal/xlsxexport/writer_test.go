package xlsxexport_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"declbot/internal/declaration"
	"declbot/internal/domain"
	"declbot/internal/xlsxexport"
)

func table(t *testing.T) *declaration.Table {
	t.Helper()
	kiwi := domain.NewLineItem(domain.CatalogEntry{Name: "киви", CustomsCode: "0810 50 000 0", CertificationRequired: true}, domain.DefaultLineItemConstants)
	kiwi.NetWeightKg = 12.5
	kiwi.SetPrice(0.8)
	tom := domain.NewLineItem(domain.CatalogEntry{Name: "томаты", CustomsCode: "0702 00 000 7", CertificationRequired: true, OriginCertificateAvailable: true}, domain.DefaultLineItemConstants)
	tom.NetWeightKg = 500
	tom.PackageCount = 20
	tom.SetPrice(1.2)

	tbl, err := declaration.FromItems([]domain.LineItem{kiwi, tom}, domain.Shipment{})
	require.NoError(t, err)
	return tbl
}

func TestWriter_Write_Workbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, xlsxexport.NewWriter().Write(&buf, table(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{xlsxexport.SheetName}, f.GetSheetList())

	rows, err := f.GetRows(xlsxexport.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, declaration.Columns, rows[0])
	assert.Equal(t, "киви", rows[1][1])
	assert.Equal(t, "Нет", rows[1][4])
	assert.Equal(t, "томаты", rows[2][1])
	assert.Equal(t, "2", rows[2][0])
}

func TestWriter_Write_NumericCellsAreTyped(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, xlsxexport.NewWriter().Write(&buf, table(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	for _, cell := range []string{"A2", "I2", "J2", "M2", "N2"} {
		typ, err := f.GetCellType(xlsxexport.SheetName, cell)
		require.NoError(t, err)
		assert.NotEqual(t, excelize.CellTypeSharedString, typ, cell)
		assert.NotEqual(t, excelize.CellTypeInlineString, typ, cell)
	}

	total, err := f.GetCellValue(xlsxexport.SheetName, "N2")
	require.NoError(t, err)
	assert.Equal(t, "10", total)
}

func TestWriter_Write_FreezesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, xlsxexport.NewWriter().Write(&buf, table(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	panes, err := f.GetPanes(xlsxexport.SheetName)
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)
}
