package archive_test

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"declbot/internal/archive"
	"declbot/internal/domain"
)

func zipOf(t *testing.T, files map[string]string, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReader_OpenZip(t *testing.T) {
	order := []string{"docs/invoice.PDF", "notes.txt", "scan.jpg", ".DS_Store", "__MACOSX/._scan.jpg", "table.xlsx", "docs/"}
	files := map[string]string{
		"docs/invoice.PDF":    "pdf",
		"notes.txt":           "txt",
		"scan.jpg":            "jpg",
		".DS_Store":           "junk",
		"__MACOSX/._scan.jpg": "junk",
		"table.xlsx":          "xlsx",
		"docs/":               "",
	}

	got, skipped, err := archive.NewReader(10, 1<<20).Open("upload.zip", zipOf(t, files, order))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "docs/invoice.PDF", got[0].Name)
	assert.Equal(t, "pdf", got[0].Ext)
	assert.Equal(t, domain.DocumentKindOCR, got[0].Kind)
	assert.Equal(t, domain.DocumentKindOCR, got[1].Kind)
	assert.Equal(t, domain.DocumentKindTabular, got[2].Kind)
	assert.Equal(t, []byte("xlsx"), got[2].Data)

	require.Len(t, skipped, 1)
	assert.Equal(t, "notes.txt", skipped[0].Name)
}

func TestReader_Limits(t *testing.T) {
	data := zipOf(t, map[string]string{"a.png": "1234", "b.png": "5678"}, []string{"a.png", "b.png"})

	_, _, err := archive.NewReader(1, 1<<20).Open("u.zip", data)
	assert.ErrorIs(t, err, domain.ErrArchiveTooLarge)

	_, _, err = archive.NewReader(10, 6).Open("u.zip", data)
	assert.ErrorIs(t, err, domain.ErrArchiveTooLarge)
}

func TestReader_SingleFile(t *testing.T) {
	got, skipped, err := archive.NewReader(10, 100).Open("Photo.JPEG", []byte("img"))
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, got, 1)
	assert.Equal(t, "jpeg", got[0].Ext)

	_, _, err = archive.NewReader(10, 100).Open("report.docx", []byte("doc"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)

	_, _, err = archive.NewReader(10, 100).Open("broken.zip", []byte("not a zip"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestReader_OpenZip_DamagedMemberIsSkipped(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("good.pdf")
	require.NoError(t, err)
	_, err = w.Write([]byte("pdf"))
	require.NoError(t, err)
	// Method 99 has no registered decompressor, so opening the member fails.
	raw, err := zw.CreateRaw(&zip.FileHeader{Name: "bad.pdf", Method: 99, CompressedSize64: 3, UncompressedSize64: 3})
	require.NoError(t, err)
	_, err = raw.Write([]byte("xyz"))
	require.NoError(t, err)
	w, err = zw.Create("scan.png")
	require.NoError(t, err)
	_, err = w.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	files, skipped, err := archive.NewReader(10, 1<<20).Open("docs.zip", buf.Bytes())

	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "good.pdf", files[0].Name)
	assert.Equal(t, []byte("pdf"), files[0].Data)
	assert.Equal(t, "scan.png", files[1].Name)
	require.Len(t, skipped, 1)
	assert.Equal(t, "bad.pdf", skipped[0].Name)
	assert.Contains(t, skipped[0].Reason, "unreadable")
}
