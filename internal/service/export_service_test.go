package service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"declbot/internal/declaration"
	"declbot/internal/domain"
	"declbot/internal/port"
	"declbot/internal/service"
	"declbot/mocks"
)

func exportTable(t *testing.T) *declaration.Table {
	t.Helper()
	item := domain.NewLineItem(domain.CatalogEntry{Name: "киви", CustomsCode: "0810 50 000 0"}, domain.DefaultLineItemConstants)
	table, err := declaration.FromItems([]domain.LineItem{item, item}, domain.Shipment{})
	require.NoError(t, err)
	return table
}

func csvWriter() *mocks.MockTableWriter {
	w := new(mocks.MockTableWriter)
	w.On("Write", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		_, _ = io.WriteString(args.Get(0).(io.Writer), "a;b\n")
	}).Return(nil)
	w.On("Extension").Return("csv")
	w.On("ContentType").Return("text/csv")
	return w
}

func TestExportService_Render_LocalOnly(t *testing.T) {
	svc := service.NewExportService(csvWriter(), nil, nil, service.ExportOptions{}, zap.NewNop())

	artifact, err := svc.Render(context.Background(), 42, exportTable(t))

	require.NoError(t, err)
	assert.Regexp(t, `^declaration_42_\d{4}-\d{2}-\d{2}\.csv$`, artifact.Name)
	assert.Equal(t, "text/csv", artifact.ContentType)
	assert.Equal(t, []byte("a;b\n"), artifact.Data)
	assert.Equal(t, 2, artifact.Rows)
	assert.Empty(t, artifact.URL)
}

func TestExportService_Render_WriterError(t *testing.T) {
	w := new(mocks.MockTableWriter)
	w.On("Write", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	svc := service.NewExportService(w, nil, nil, service.ExportOptions{}, zap.NewNop())

	_, err := svc.Render(context.Background(), 1, exportTable(t))

	assert.ErrorContains(t, err, "disk full")
}

func TestExportService_Render_UploadsAndEmails(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	email := new(mocks.MockEmailSender)

	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "decl" && in.ContentType == "text/csv" && in.Size == 4 &&
			strings.HasPrefix(in.Key, "declarations/42/") && strings.HasSuffix(in.Key, "/"+in.FileName) &&
			in.Metadata["user-id"] == "42" && in.Metadata["rows"] == "2"
	})).Return(&port.UploadOutput{Location: "s3://decl/x"}, nil)
	storage.On("GetPresignedURL", mock.Anything, "decl", mock.AnythingOfType("string"), int64(600)).
		Return("https://s3/decl/x", nil)
	email.On("SendDeclaration", mock.Anything, mock.MatchedBy(func(msg port.DeclarationEmail) bool {
		return msg.To == "broker@example.com" && msg.DownloadURL == "https://s3/decl/x" && msg.Rows == 2 && msg.UserID == 42
	})).Return(nil)

	svc := service.NewExportService(csvWriter(), storage, email, service.ExportOptions{
		Bucket: "decl", PresignExpiry: 600, EmailTo: "broker@example.com",
	}, zap.NewNop())

	artifact, err := svc.Render(context.Background(), 42, exportTable(t))

	require.NoError(t, err)
	assert.Equal(t, "https://s3/decl/x", artifact.URL)
	storage.AssertExpectations(t)
	email.AssertExpectations(t)
}

func TestExportService_Render_DeliveryFailuresAreNotFatal(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	email := new(mocks.MockEmailSender)

	storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)
	storage.On("GetPresignedURL", mock.Anything, "decl", mock.Anything, int64(600)).Return("", errors.New("denied"))
	storage.On("Delete", mock.Anything, "decl", mock.AnythingOfType("string")).Return(nil)
	email.On("SendDeclaration", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	svc := service.NewExportService(csvWriter(), storage, email, service.ExportOptions{
		Bucket: "decl", PresignExpiry: 600, EmailTo: "broker@example.com",
	}, zap.NewNop())

	artifact, err := svc.Render(context.Background(), 42, exportTable(t))

	require.NoError(t, err)
	assert.Empty(t, artifact.URL)
	storage.AssertCalled(t, "Delete", mock.Anything, "decl", mock.AnythingOfType("string"))
}
