package tabular_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"declbot/internal/tabular"
)

func workbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Товар", "Вес", "Цена"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Томаты", nil, "200 кг", 1.5}))
	_, err := f.NewSheet("Лист2")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Лист2", "A1", &[]interface{}{"киви", 20, "$3"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestReader_ReadRows(t *testing.T) {
	rows, err := tabular.NewReader().ReadRows(context.Background(), bytes.NewReader(workbook(t)))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Томаты", rows[1][0].Value)
	assert.False(t, rows[1][1].Valid)
	assert.Equal(t, "200 кг", rows[1][2].Value)
	assert.Equal(t, "1.5", rows[1][3].Value)
	assert.Equal(t, "киви", rows[2][0].Value)
	assert.Equal(t, "20", rows[2][1].Value)
}

func TestReader_NotAWorkbook(t *testing.T) {
	_, err := tabular.NewReader().ReadRows(context.Background(), bytes.NewReader([]byte("plain text")))
	assert.Error(t, err)
}
