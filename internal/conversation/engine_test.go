package conversation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"declbot/internal/catalog"
	"declbot/internal/conversation"
	"declbot/internal/declaration"
	"declbot/internal/domain"
	"declbot/mocks"
)

const userID int64 = 7

var testNow = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func smallCatalog() *catalog.Catalog {
	return catalog.MustNew([]domain.CatalogEntry{
		{Name: "томаты", CustomsCode: "0702 00 000 0", CertificationRequired: true, OriginCertificateAvailable: true},
		{Name: "томаты черри", CustomsCode: "0702 00 000 1", CertificationRequired: true, OriginCertificateAvailable: true},
		{Name: "киви", CustomsCode: "0810 50 000 0", CertificationRequired: true},
	})
}

func newEngine(store *mocks.MockSessionStore, renderer *mocks.MockDeclarationRenderer, opts ...conversation.Option) *conversation.Engine {
	opts = append([]conversation.Option{conversation.WithClock(func() time.Time { return testNow })}, opts...)
	return conversation.NewEngine(smallCatalog(), domain.DefaultLineItemConstants, store, renderer, zap.NewNop(), opts...)
}

func okStore() *mocks.MockSessionStore {
	store := new(mocks.MockSessionStore)
	store.On("Save", mock.Anything, mock.Anything).Return(nil)
	store.On("Delete", mock.Anything, mock.Anything).Return(nil)
	return store
}

func send(t *testing.T, e *conversation.Engine, inputs ...string) domain.Reply {
	t.Helper()
	var reply domain.Reply
	for _, in := range inputs {
		var err error
		reply, err = e.Handle(context.Background(), userID, in)
		require.NoError(t, err, "input %q", in)
	}
	return reply
}

func step(t *testing.T, e *conversation.Engine) domain.Step {
	t.Helper()
	s, ok := e.Session(userID)
	require.True(t, ok)
	return s.Step
}

func TestEngine_FullConversation(t *testing.T) {
	store := okStore()
	renderer := new(mocks.MockDeclarationRenderer)
	artifact := &domain.Artifact{Name: "declaration_7_2025-05-01.xlsx", Rows: 2}
	renderer.On("Render", mock.Anything, userID, mock.MatchedBy(func(tbl *declaration.Table) bool {
		if tbl.Len() != 2 {
			return false
		}
		for _, row := range tbl.Rows {
			if row.Shipment != (domain.Shipment{
				InvoiceNumber: "INV-1", InvoiceDate: "01.05.2025", CMRNumber: "CMR-9", CMRDate: "02.05.2025",
			}) {
				return false
			}
		}
		return tbl.Rows[0].Item.TotalUSD == 150 && tbl.Rows[1].Item.ProductName == "киви"
	})).Return(artifact, nil)

	e := newEngine(store, renderer)
	_, err := e.Start(context.Background(), userID)
	require.NoError(t, err)

	send(t, e, "Томаты", "100", "105,5", "20", "1.5")
	assert.Equal(t, domain.StepAddMore, step(t, e))

	send(t, e, "ДА", "киви", "20", "20", "0", "3", "нет", "INV-1", "01.05.2025", "CMR-9")
	assert.Equal(t, domain.StepCMRDate, step(t, e))

	reply := send(t, e, "2.5.2025")
	assert.Same(t, artifact, reply.Document)
	assert.False(t, e.Active(userID))

	renderer.AssertExpectations(t)
	store.AssertCalled(t, "Delete", mock.Anything, userID)
}

func TestEngine_Product_OnlyUniqueMatchAdvances(t *testing.T) {
	store := okStore()
	e := newEngine(store, nil)
	_, err := e.Start(context.Background(), userID)
	require.NoError(t, err)

	reply := send(t, e, "том")
	assert.Contains(t, reply.Text, "1. томаты")
	assert.Contains(t, reply.Text, "2. томаты черри")
	s, _ := e.Session(userID)
	assert.Equal(t, domain.StepProduct, s.Step)
	assert.Equal(t, []string{"томаты", "томаты черри"}, s.Candidates)
	assert.Nil(t, s.Draft)

	send(t, e, "2")
	s, _ = e.Session(userID)
	assert.Equal(t, domain.StepNetto, s.Step)
	require.NotNil(t, s.Draft)
	assert.Equal(t, "томаты черри", s.Draft.ProductName)
	assert.Empty(t, s.Candidates)
}

func TestEngine_Product_ExactNameAmongFragments(t *testing.T) {
	e := newEngine(okStore(), nil)
	_, err := e.Start(context.Background(), userID)
	require.NoError(t, err)

	send(t, e, "томаты")
	s, _ := e.Session(userID)
	assert.Equal(t, domain.StepNetto, s.Step)
	assert.Equal(t, "томаты", s.Draft.ProductName)
	assert.Equal(t, "Узбекистан", s.Draft.OriginCountry)
	assert.Equal(t, 10, s.Draft.VATRate)
}

func TestEngine_Product_NotFound(t *testing.T) {
	store := okStore()
	e := newEngine(store, nil)
	_, err := e.Start(context.Background(), userID)
	require.NoError(t, err)

	reply := send(t, e, "бананы")
	assert.Contains(t, reply.Text, "не найден")
	assert.Equal(t, domain.StepProduct, step(t, e))
	store.AssertNumberOfCalls(t, "Save", 1)
}

func TestEngine_InvalidInputNeverAdvances(t *testing.T) {
	tests := []struct {
		name    string
		prefix  []string
		at      domain.Step
		invalid []string
	}{
		{"netto", []string{"томаты"}, domain.StepNetto, []string{"abc", "0", "-5", "", "1e3", "NaN"}},
		{"brutto below netto", []string{"томаты", "100"}, domain.StepBrutto, []string{"99.9", "x"}},
		{"places", []string{"томаты", "100", "100"}, domain.StepPlaces, []string{"2.5", "-1", "много"}},
		{"price", []string{"томаты", "100", "100", "5"}, domain.StepPrice, []string{"0", "0,00", "цена"}},
		{"add more", []string{"томаты", "100", "100", "5", "1"}, domain.StepAddMore, []string{"может", "ok"}},
		{"invoice number", []string{"томаты", "100", "100", "5", "1", "н"}, domain.StepInvoiceNumber, []string{"   "}},
		{"invoice date", []string{"томаты", "100", "100", "5", "1", "н", "INV"}, domain.StepInvoiceDate,
			[]string{"30.02.2025", "2025-05-01", "1.5.25", "32.01.2025", "01.13.2025"}},
		{"cmr date", []string{"томаты", "100", "100", "5", "1", "н", "INV", "01.05.2025", "CMR"}, domain.StepCMRDate,
			[]string{"29.02.2025", "завтра"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := okStore()
			e := newEngine(store, nil)
			_, err := e.Start(context.Background(), userID)
			require.NoError(t, err)
			send(t, e, tt.prefix...)
			before, _ := e.Session(userID)
			require.Equal(t, tt.at, before.Step)
			saves := len(store.Calls)

			for _, in := range tt.invalid {
				reply := send(t, e, in)
				assert.NotEmpty(t, reply.Text)
				after, _ := e.Session(userID)
				assert.Equal(t, before, after, "input %q", in)
			}
			assert.Len(t, store.Calls, saves)
		})
	}
}

func TestEngine_DatesAreNormalized(t *testing.T) {
	e := newEngine(okStore(), nil)
	_, err := e.Start(context.Background(), userID)
	require.NoError(t, err)

	send(t, e, "томаты", "100", "100", "5", "1", "нет", "INV", "1.5.2025")
	s, _ := e.Session(userID)
	assert.Equal(t, domain.StepCMRNumber, s.Step)
	assert.Equal(t, "01.05.2025", s.Shipment.InvoiceDate)
	assert.Equal(t, "INV", s.Shipment.InvoiceNumber)
}

func TestEngine_SaveFailureLeavesStateUntouched(t *testing.T) {
	store := new(mocks.MockSessionStore)
	store.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	e := newEngine(store, nil)
	_, err := e.Start(context.Background(), userID)
	require.NoError(t, err)

	_, err = e.Handle(context.Background(), userID, "томаты")
	assert.ErrorIs(t, err, domain.ErrPersistence)

	var pe *domain.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, userID, pe.UserID)

	s, ok := e.Session(userID)
	require.True(t, ok)
	assert.Equal(t, domain.StepProduct, s.Step)
	assert.Nil(t, s.Draft)
}

func TestEngine_ResumeAfterRestart(t *testing.T) {
	var saved *domain.Session
	store := new(mocks.MockSessionStore)
	store.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.Session)
	}).Return(nil)

	e := newEngine(store, nil)
	_, err := e.Start(context.Background(), userID)
	require.NoError(t, err)
	send(t, e, "томаты", "100", "110", "8")
	before, _ := e.Session(userID)
	require.Equal(t, domain.StepPrice, before.Step)
	require.NotNil(t, saved)

	restarted := new(mocks.MockSessionStore)
	restarted.On("LoadAll", mock.Anything).Return([]*domain.Session{saved}, nil)
	restarted.On("Save", mock.Anything, mock.Anything).Return(nil)
	e2 := newEngine(restarted, nil)
	n, err := e2.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	after, ok := e2.Session(userID)
	require.True(t, ok)
	assert.Equal(t, before, after)

	send(t, e2, "1.5")
	s, _ := e2.Session(userID)
	assert.Equal(t, domain.StepAddMore, s.Step)
	require.Len(t, s.Positions, 1)
	assert.Equal(t, 110.0, s.Positions[0].GrossWeightKg)
	assert.Equal(t, 8, s.Positions[0].PackageCount)
	assert.Equal(t, 150.0, s.Positions[0].TotalUSD)
}

func TestEngine_LoadFailure(t *testing.T) {
	store := new(mocks.MockSessionStore)
	store.On("LoadAll", mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := newEngine(store, nil).Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestEngine_StartDiscardsExistingSession(t *testing.T) {
	e := newEngine(okStore(), nil)
	_, err := e.Start(context.Background(), userID)
	require.NoError(t, err)
	send(t, e, "томаты", "100", "100", "5", "1")

	_, err = e.Start(context.Background(), userID)
	require.NoError(t, err)
	s, _ := e.Session(userID)
	assert.Equal(t, domain.StepProduct, s.Step)
	assert.Empty(t, s.Positions)
}

func TestEngine_Cancel(t *testing.T) {
	store := okStore()
	e := newEngine(store, nil)
	_, err := e.Start(context.Background(), userID)
	require.NoError(t, err)
	send(t, e, "томаты", "100")

	_, err = e.Cancel(context.Background(), userID)
	require.NoError(t, err)
	assert.False(t, e.Active(userID))
	store.AssertCalled(t, "Delete", mock.Anything, userID)

	reply, err := e.Handle(context.Background(), userID, "100")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "/start")
}

func TestEngine_CancelWithoutSession(t *testing.T) {
	store := new(mocks.MockSessionStore)
	reply, err := newEngine(store, nil).Cancel(context.Background(), userID)
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Text)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestEngine_RenderFailureKeepsSession(t *testing.T) {
	store := okStore()
	renderer := new(mocks.MockDeclarationRenderer)
	renderer.On("Render", mock.Anything, userID, mock.Anything).Return(nil, errors.New("excel broke"))
	e := newEngine(store, renderer)
	_, err := e.Start(context.Background(), userID)
	require.NoError(t, err)
	send(t, e, "киви", "10", "10", "1", "2", "нет", "INV", "01.05.2025", "CMR")

	_, err = e.Handle(context.Background(), userID, "02.05.2025")
	require.Error(t, err)
	assert.Equal(t, domain.StepCMRDate, step(t, e))
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestEngine_Help(t *testing.T) {
	store := new(mocks.MockSessionStore)
	reply := newEngine(store, nil).Help()
	assert.Contains(t, reply.Text, "/start")
	assert.Contains(t, reply.Text, "done")
	assert.Empty(t, store.Calls)
}

func TestEngine_PurgeIdle(t *testing.T) {
	now := testNow
	store := okStore()
	e := newEngine(store, nil, conversation.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := e.Start(ctx, 1)
	require.NoError(t, err)
	now = now.Add(2 * time.Hour)
	_, err = e.Start(ctx, 2)
	require.NoError(t, err)
	now = now.Add(30 * time.Minute)

	n, err := e.PurgeIdle(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, e.Active(1))
	assert.True(t, e.Active(2))
}

func TestEngine_ReleasesUserLocks(t *testing.T) {
	now := testNow
	e := newEngine(okStore(), nil, conversation.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := e.Handle(ctx, 7, "томаты")
	require.NoError(t, err)
	_, err = e.Start(ctx, 8)
	require.NoError(t, err)
	_, err = e.Cancel(ctx, 8)
	require.NoError(t, err)
	_, err = e.Start(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 0, e.TrackedLocks())

	now = now.Add(2 * time.Hour)
	n, err := e.PurgeIdle(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, e.TrackedLocks())
}

func TestEngine_ReleasesUserLocksUnderContention(t *testing.T) {
	e := newEngine(okStore(), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			_, _ = e.Start(ctx, uid)
			_, _ = e.Handle(ctx, uid, "томаты")
			_, _ = e.Cancel(ctx, uid)
		}(int64(i % 3))
	}
	wg.Wait()

	assert.Equal(t, 0, e.TrackedLocks())
}

func TestEngine_UsersAreIndependent(t *testing.T) {
	e := newEngine(okStore(), nil)
	ctx := context.Background()
	_, err := e.Start(ctx, 1)
	require.NoError(t, err)
	_, err = e.Start(ctx, 2)
	require.NoError(t, err)

	_, err = e.Handle(ctx, 1, "томаты")
	require.NoError(t, err)
	_, err = e.Handle(ctx, 2, "zzz")
	require.NoError(t, err)

	s1, _ := e.Session(1)
	s2, _ := e.Session(2)
	assert.Equal(t, domain.StepNetto, s1.Step)
	assert.Equal(t, domain.StepProduct, s2.Step)
}
