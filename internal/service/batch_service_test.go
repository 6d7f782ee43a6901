package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"declbot/internal/aggregator"
	"declbot/internal/catalog"
	"declbot/internal/declaration"
	"declbot/internal/domain"
	"declbot/internal/extractor"
	"declbot/internal/port"
	"declbot/internal/repository/memstore"
	"declbot/internal/service"
	"declbot/mocks"
)

type batchDeps struct {
	archive  *mocks.MockArchiveReader
	tabular  *mocks.MockTabularReader
	ocr      *mocks.MockOCREngine
	store    *memstore.BatchStore
	renderer *mocks.MockDeclarationRenderer
}

func newBatchService(cfg service.BatchConfig) (service.BatchService, *batchDeps) {
	d := &batchDeps{
		archive:  new(mocks.MockArchiveReader),
		tabular:  new(mocks.MockTabularReader),
		ocr:      new(mocks.MockOCREngine),
		store:    memstore.NewBatchStore(time.Hour),
		renderer: new(mocks.MockDeclarationRenderer),
	}
	agg := aggregator.New(extractor.New(catalog.Default(), domain.DefaultLineItemConstants))
	svc := service.NewBatchService(d.archive, d.tabular, d.ocr, agg, d.store, d.renderer, cfg, zap.NewNop())
	return svc, d
}

func cells(values ...string) []domain.Cell {
	out := make([]domain.Cell, len(values))
	for i, v := range values {
		out[i] = domain.Cell{Value: v, Valid: v != ""}
	}
	return out
}

func TestBatchService_Process_KeepsArchiveOrder(t *testing.T) {
	svc, d := newBatchService(service.BatchConfig{Concurrency: 3, Timeout: time.Second})
	files := []port.ArchiveFile{
		{Name: "scan.jpg", Ext: "jpg", Kind: domain.DocumentKindOCR, Data: []byte("jpg")},
		{Name: "list.xlsx", Ext: "xlsx", Kind: domain.DocumentKindTabular, Data: []byte("xlsx")},
	}
	d.archive.On("Open", "bundle.zip", []byte("zip")).
		Return(files, []port.SkippedFile{{Name: "notes.txt", Reason: "unsupported"}}, nil)
	d.ocr.On("Recognize", mock.Anything, mock.MatchedBy(func(in port.OCRInput) bool {
		return in.Name == "scan.jpg" && in.ContentType == "image/jpeg"
	})).After(20*time.Millisecond).Return("Киви 12.5кг $0.80\nкиви 99кг $1\nтоматы 100 кг 1.2 $", nil)
	d.tabular.On("ReadRows", mock.Anything, mock.Anything).Return([][]domain.Cell{
		cells("Товар", "Вес", "Цена"),
		cells("киви", "20кг", "$2"),
	}, nil)

	out, err := svc.Process(context.Background(), 42, "bundle.zip", []byte("zip"))

	require.NoError(t, err)
	require.Len(t, out.Result.Items, 3)
	assert.Equal(t, "киви", out.Result.Items[0].ProductName)
	assert.Equal(t, 12.5, out.Result.Items[0].NetWeightKg)
	assert.Equal(t, "томаты", out.Result.Items[1].ProductName)
	assert.Equal(t, "киви", out.Result.Items[2].ProductName)
	assert.Equal(t, 20.0, out.Result.Items[2].NetWeightKg)
	assert.Len(t, out.Skipped, 1)
	require.Len(t, out.Result.Documents, 2)
	assert.Equal(t, 2, out.Result.Documents[0].Recognized)
	assert.Equal(t, 1, out.Result.Documents[1].Recognized)

	assert.True(t, svc.HasPending(context.Background(), 42))
}

func TestBatchService_Process_FailedDocumentDoesNotAbort(t *testing.T) {
	svc, d := newBatchService(service.BatchConfig{Concurrency: 2, Timeout: time.Second})
	files := []port.ArchiveFile{
		{Name: "bad.pdf", Ext: "pdf", Kind: domain.DocumentKindOCR, Data: []byte("pdf")},
		{Name: "good.png", Ext: "png", Kind: domain.DocumentKindOCR, Data: []byte("png")},
	}
	d.archive.On("Open", "b.zip", mock.Anything).Return(files, nil, nil)
	d.ocr.On("Recognize", mock.Anything, mock.MatchedBy(func(in port.OCRInput) bool { return in.Name == "bad.pdf" })).
		Return("", errors.New("engine crashed"))
	d.ocr.On("Recognize", mock.Anything, mock.MatchedBy(func(in port.OCRInput) bool { return in.Name == "good.png" })).
		Return("финики 10кг $3", nil)

	out, err := svc.Process(context.Background(), 1, "b.zip", []byte("zip"))

	require.NoError(t, err)
	require.Len(t, out.Result.Items, 1)
	assert.Equal(t, "engine crashed", out.Result.Documents[0].Error)
	assert.Equal(t, 0, out.Result.Documents[0].Recognized)
}

func TestBatchService_Process_NoItems(t *testing.T) {
	svc, d := newBatchService(service.BatchConfig{Concurrency: 1, Timeout: time.Second})
	d.archive.On("Open", "a.png", mock.Anything).
		Return([]port.ArchiveFile{{Name: "a.png", Ext: "png", Kind: domain.DocumentKindOCR, Data: []byte("x")}}, nil, nil)
	d.ocr.On("Recognize", mock.Anything, mock.Anything).Return("nothing useful here", nil)

	out, err := svc.Process(context.Background(), 5, "a.png", []byte("x"))

	assert.ErrorIs(t, err, domain.ErrNoItemsRecognized)
	require.NotNil(t, out)
	assert.Empty(t, out.Result.Items)
	assert.False(t, svc.HasPending(context.Background(), 5))
}

func TestBatchService_Process_BlankOCRText(t *testing.T) {
	svc, d := newBatchService(service.BatchConfig{Concurrency: 1, Timeout: time.Second})
	d.archive.On("Open", "a.png", mock.Anything).
		Return([]port.ArchiveFile{{Name: "a.png", Ext: "png", Kind: domain.DocumentKindOCR, Data: []byte("x")}}, nil, nil)
	d.ocr.On("Recognize", mock.Anything, mock.Anything).Return("  ", nil)

	out, err := svc.Process(context.Background(), 5, "a.png", []byte("x"))

	assert.ErrorIs(t, err, domain.ErrNoItemsRecognized)
	assert.Equal(t, domain.ErrExtractionFailed.Error(), out.Result.Documents[0].Error)
}

func TestBatchService_Process_ArchiveError(t *testing.T) {
	svc, d := newBatchService(service.BatchConfig{Concurrency: 1, Timeout: time.Second})
	d.archive.On("Open", "a.doc", mock.Anything).Return(nil, nil, domain.ErrUnsupportedFileType)

	_, err := svc.Process(context.Background(), 5, "a.doc", []byte("x"))

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestBatchService_Process_TimeoutStoresNothing(t *testing.T) {
	svc, d := newBatchService(service.BatchConfig{Concurrency: 1, Timeout: 30 * time.Millisecond})
	d.archive.On("Open", "a.png", mock.Anything).
		Return([]port.ArchiveFile{{Name: "a.png", Ext: "png", Kind: domain.DocumentKindOCR, Data: []byte("x")}}, nil, nil)
	d.ocr.On("Recognize", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { <-args.Get(0).(context.Context).Done() }).
		Return("", context.DeadlineExceeded)

	_, err := svc.Process(context.Background(), 5, "a.png", []byte("x"))

	assert.ErrorIs(t, err, domain.ErrBatchTimeout)
	assert.False(t, svc.HasPending(context.Background(), 5))
}

func TestBatchService_Process_RespectsConcurrency(t *testing.T) {
	svc, d := newBatchService(service.BatchConfig{Concurrency: 2, Timeout: time.Second})
	files := make([]port.ArchiveFile, 6)
	for i := range files {
		files[i] = port.ArchiveFile{Name: "p.png", Ext: "png", Kind: domain.DocumentKindOCR, Data: []byte{byte(i)}}
	}
	d.archive.On("Open", "z.zip", mock.Anything).Return(files, nil, nil)

	var inFlight, peak int32
	d.ocr.On("Recognize", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	}).Return("киви 1кг $1", nil)

	_, err := svc.Process(context.Background(), 5, "z.zip", []byte("x"))

	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestBatchService_Finalize(t *testing.T) {
	svc, d := newBatchService(service.BatchConfig{Concurrency: 1, Timeout: time.Second})
	d.archive.On("Open", "a.png", mock.Anything).
		Return([]port.ArchiveFile{{Name: "a.png", Ext: "png", Kind: domain.DocumentKindOCR, Data: []byte("x")}}, nil, nil)
	d.ocr.On("Recognize", mock.Anything, mock.Anything).Return("киви 10кг $2\nинжир 5кг $4", nil)
	_, err := svc.Process(context.Background(), 9, "a.png", []byte("x"))
	require.NoError(t, err)

	artifact := &domain.Artifact{Name: "declaration_9.xlsx", Rows: 2}
	d.renderer.On("Render", mock.Anything, int64(9), mock.MatchedBy(func(tbl *declaration.Table) bool {
		return tbl.Len() == 2 && tbl.Rows[0].Shipment == domain.Shipment{} && tbl.Rows[1].Seq == 2
	})).Return(artifact, nil)

	got, err := svc.Finalize(context.Background(), 9)

	require.NoError(t, err)
	assert.Same(t, artifact, got)
	assert.False(t, svc.HasPending(context.Background(), 9))
}

func TestBatchService_Finalize_NothingPending(t *testing.T) {
	svc, _ := newBatchService(service.BatchConfig{Concurrency: 1})

	_, err := svc.Finalize(context.Background(), 9)

	assert.ErrorIs(t, err, domain.ErrNoPendingBatch)
}

func TestBatchService_Finalize_RenderFailureKeepsBatch(t *testing.T) {
	svc, d := newBatchService(service.BatchConfig{Concurrency: 1, Timeout: time.Second})
	d.archive.On("Open", "a.png", mock.Anything).
		Return([]port.ArchiveFile{{Name: "a.png", Ext: "png", Kind: domain.DocumentKindOCR, Data: []byte("x")}}, nil, nil)
	d.ocr.On("Recognize", mock.Anything, mock.Anything).Return("киви 10кг $2", nil)
	_, err := svc.Process(context.Background(), 9, "a.png", []byte("x"))
	require.NoError(t, err)
	d.renderer.On("Render", mock.Anything, int64(9), mock.Anything).Return(nil, errors.New("disk full"))

	_, err = svc.Finalize(context.Background(), 9)

	require.Error(t, err)
	assert.True(t, svc.HasPending(context.Background(), 9))
}

func TestBatchService_StoreFailures(t *testing.T) {
	ctx := context.Background()
	archive := new(mocks.MockArchiveReader)
	ocr := new(mocks.MockOCREngine)
	store := new(mocks.MockBatchStore)
	renderer := new(mocks.MockDeclarationRenderer)
	agg := aggregator.New(extractor.New(catalog.Default(), domain.DefaultLineItemConstants))
	svc := service.NewBatchService(archive, new(mocks.MockTabularReader), ocr, agg, store, renderer,
		service.BatchConfig{Concurrency: 1, Timeout: time.Second}, zap.NewNop())

	archive.On("Open", "a.png", mock.Anything).
		Return([]port.ArchiveFile{{Name: "a.png", Ext: "png", Kind: domain.DocumentKindOCR, Data: []byte("x")}}, nil, nil)
	ocr.On("Recognize", mock.Anything, mock.Anything).Return("киви 10кг $2", nil)
	store.On("Delete", mock.Anything, int64(4)).Return(nil).Once()
	store.On("Put", mock.Anything, mock.Anything).Return(errors.New("store full")).Once()

	outcome, err := svc.Process(ctx, 4, "a.png", []byte("x"))
	require.Error(t, err)
	assert.Nil(t, outcome)

	// A failed cleanup after rendering still delivers the artifact.
	pending := &domain.BatchResult{UserID: 4, Items: []domain.LineItem{{ProductName: "киви", NetWeightKg: 10, PricePerKgUSD: 2, TotalUSD: 20}}}
	artifact := &domain.Artifact{Name: "declaration_4.xlsx", Rows: 1}
	store.On("Get", mock.Anything, int64(4)).Return(pending, nil)
	store.On("Delete", mock.Anything, int64(4)).Return(errors.New("gone"))
	renderer.On("Render", mock.Anything, int64(4), mock.Anything).Return(artifact, nil)

	got, err := svc.Finalize(ctx, 4)
	require.NoError(t, err)
	assert.Same(t, artifact, got)
	store.AssertExpectations(t)
}

func TestBatchService_Process_EmptyUploadClearsPendingBatch(t *testing.T) {
	ctx := context.Background()
	svc, d := newBatchService(service.BatchConfig{Concurrency: 1, Timeout: time.Second})
	d.archive.On("Open", "first.png", mock.Anything).
		Return([]port.ArchiveFile{{Name: "first.png", Ext: "png", Kind: domain.DocumentKindOCR, Data: []byte("1")}}, nil, nil)
	d.archive.On("Open", "second.png", mock.Anything).
		Return([]port.ArchiveFile{{Name: "second.png", Ext: "png", Kind: domain.DocumentKindOCR, Data: []byte("2")}}, nil, nil)
	d.ocr.On("Recognize", mock.Anything, mock.MatchedBy(func(in port.OCRInput) bool { return string(in.Data) == "1" })).
		Return("томаты 10 кг 1 $", nil)
	d.ocr.On("Recognize", mock.Anything, mock.MatchedBy(func(in port.OCRInput) bool { return string(in.Data) == "2" })).
		Return("nothing useful", nil)

	_, err := svc.Process(ctx, 7, "first.png", []byte("1"))
	require.NoError(t, err)
	require.True(t, svc.HasPending(ctx, 7))

	_, err = svc.Process(ctx, 7, "second.png", []byte("2"))

	assert.ErrorIs(t, err, domain.ErrNoItemsRecognized)
	assert.False(t, svc.HasPending(ctx, 7))
	_, err = svc.Finalize(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrNoPendingBatch)
}

func TestBatchService_Process_UnsupportedUploadClearsPendingBatch(t *testing.T) {
	ctx := context.Background()
	svc, d := newBatchService(service.BatchConfig{Concurrency: 1, Timeout: time.Second})
	require.NoError(t, d.store.Put(ctx, &domain.BatchResult{UserID: 7, Items: []domain.LineItem{{ProductName: "томаты"}}}))
	d.archive.On("Open", "notes.txt", mock.Anything).Return(nil, nil, domain.ErrUnsupportedFileType)

	_, err := svc.Process(ctx, 7, "notes.txt", []byte("x"))

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	assert.False(t, svc.HasPending(ctx, 7))
}
