// Package conversation implements the guided, one-field-at-a-time declaration dialogue.
//
// Each user has at most one session. Every accepted message is applied to a clone of
// the session, the clone is saved to the store, and only then replaces the in-memory
// copy, so a failed save leaves both memory and the store at the previous step.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"declbot/internal/catalog"
	"declbot/internal/declaration"
	"declbot/internal/domain"
	"declbot/internal/port"
)

// outcome is what a successful transition produced.
type outcome struct {
	reply    string
	finalize bool
}

// transition applies input to s, which the engine owns exclusively for the call.
type transition func(e *Engine, s *domain.Session, input string) (outcome, error)

var transitions = map[domain.Step]transition{
	domain.StepProduct:       (*Engine).product,
	domain.StepNetto:         (*Engine).netto,
	domain.StepBrutto:        (*Engine).brutto,
	domain.StepPlaces:        (*Engine).places,
	domain.StepPrice:         (*Engine).price,
	domain.StepAddMore:       (*Engine).addMore,
	domain.StepInvoiceNumber: (*Engine).invoiceNumber,
	domain.StepInvoiceDate:   (*Engine).invoiceDate,
	domain.StepCMRNumber:     (*Engine).cmrNumber,
	domain.StepCMRDate:       (*Engine).cmrDate,
}

// Engine runs conversations for every user. Different users proceed in parallel;
// messages of one user are applied one at a time.
type Engine struct {
	catalog  *catalog.Catalog
	consts   domain.LineItemConstants
	store    port.SessionStore
	renderer port.DeclarationRenderer
	log      *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[int64]*domain.Session
	locks    map[int64]*userLock
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine. Call Load before serving messages to resume persisted sessions.
func NewEngine(
	cat *catalog.Catalog,
	consts domain.LineItemConstants,
	store port.SessionStore,
	renderer port.DeclarationRenderer,
	log *zap.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		catalog:  cat,
		consts:   consts,
		store:    store,
		renderer: renderer,
		log:      log.Named("conversation"),
		now:      time.Now,
		sessions: make(map[int64]*domain.Session),
		locks:    make(map[int64]*userLock),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load replaces the in-memory sessions with everything in the store.
func (e *Engine) Load(ctx context.Context) (int, error) {
	sessions, err := e.store.LoadAll(ctx)
	if err != nil {
		return 0, &domain.PersistenceError{Op: "load", Err: err}
	}
	loaded := make(map[int64]*domain.Session, len(sessions))
	for _, s := range sessions {
		loaded[s.UserID] = s
	}
	e.mu.Lock()
	e.sessions = loaded
	e.mu.Unlock()
	e.log.Info("sessions resumed", zap.Int("count", len(loaded)))
	return len(loaded), nil
}

// Start discards any existing session of the user and opens a new one at the product step.
func (e *Engine) Start(ctx context.Context, userID int64) (domain.Reply, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	s := domain.NewSession(userID, e.now().UTC())
	if err := e.store.Save(ctx, s); err != nil {
		return domain.Reply{}, e.persistenceError("save", userID, err)
	}
	e.put(s)
	e.log.Debug("session started", zap.Int64("user_id", userID))
	return domain.Reply{Text: greeting}, nil
}

// Cancel destroys the user's session, whatever step it is at.
func (e *Engine) Cancel(ctx context.Context, userID int64) (domain.Reply, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	if _, ok := e.get(userID); !ok {
		return domain.Reply{Text: nothingToDrop}, nil
	}
	if err := e.store.Delete(ctx, userID); err != nil {
		return domain.Reply{}, e.persistenceError("delete", userID, err)
	}
	e.drop(userID)
	e.log.Debug("session cancelled", zap.Int64("user_id", userID))
	return domain.Reply{Text: cancelled}, nil
}

// Help returns the usage text. It never touches session state.
func (e *Engine) Help() domain.Reply {
	return domain.Reply{Text: helpText}
}

// Active reports whether the user has a session in progress.
func (e *Engine) Active(userID int64) bool {
	_, ok := e.get(userID)
	return ok
}

// Session returns a copy of the user's session.
func (e *Engine) Session(userID int64) (*domain.Session, bool) {
	s, ok := e.get(userID)
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Handle routes free text to the user's current step. Malformed input is answered with
// a re-prompt and a nil error; only persistence and rendering failures return errors.
func (e *Engine) Handle(ctx context.Context, userID int64, text string) (domain.Reply, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	current, ok := e.get(userID)
	if !ok {
		return domain.Reply{Text: needStart}, nil
	}
	apply, ok := transitions[current.Step]
	if !ok {
		return domain.Reply{}, fmt.Errorf("conversation.Handle: session of user %d is at unknown step %q", userID, current.Step)
	}

	next := current.Clone()
	out, err := apply(e, next, text)
	var ambiguous *domain.AmbiguousMatchError
	switch {
	case err == nil:
	case errors.As(err, &ambiguous) && len(ambiguous.Candidates) > 0:
		next.Candidates = ambiguous.Candidates
		out = outcome{reply: choicePrompt(ambiguous.Candidates)}
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrProductNotFound):
		e.log.Debug("input rejected",
			zap.Int64("user_id", userID),
			zap.String("step", current.Step.String()),
			zap.Error(err),
		)
		return domain.Reply{Text: retryPrompt(current.Step)}, nil
	default:
		return domain.Reply{}, err
	}

	if out.finalize {
		return e.finalize(ctx, next)
	}
	next.UpdatedAt = e.now().UTC()
	if err := e.store.Save(ctx, next); err != nil {
		return domain.Reply{}, e.persistenceError("save", userID, err)
	}
	e.put(next)
	e.log.Debug("step advanced",
		zap.Int64("user_id", userID),
		zap.String("from", current.Step.String()),
		zap.String("to", next.Step.String()),
	)
	return domain.Reply{Text: out.reply}, nil
}

// finalize renders the declaration and removes the session. Until the artifact exists
// the session stays at its last step.
func (e *Engine) finalize(ctx context.Context, s *domain.Session) (domain.Reply, error) {
	table, err := declaration.FromSession(s)
	if err != nil {
		return domain.Reply{}, fmt.Errorf("conversation.finalize: %w", err)
	}
	artifact, err := e.renderer.Render(ctx, s.UserID, table)
	if err != nil {
		return domain.Reply{}, fmt.Errorf("conversation.finalize: rendering declaration: %w", err)
	}
	if err := e.store.Delete(ctx, s.UserID); err != nil {
		return domain.Reply{}, e.persistenceError("delete", s.UserID, err)
	}
	e.drop(s.UserID)
	e.log.Info("declaration completed", zap.Int64("user_id", s.UserID), zap.Int("rows", table.Len()))
	return domain.Reply{Text: done, Document: artifact}, nil
}

// PurgeIdle removes sessions not updated for longer than idle.
func (e *Engine) PurgeIdle(ctx context.Context, idle time.Duration) (int, error) {
	cutoff := e.now().UTC().Add(-idle)

	e.mu.Lock()
	var stale []int64
	for id, s := range e.sessions {
		if s.UpdatedAt.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	e.mu.Unlock()

	purged := 0
	var errs []error
	for _, id := range stale {
		ok, err := e.purge(ctx, id, cutoff)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			purged++
		}
	}
	if purged > 0 {
		e.log.Info("idle sessions purged", zap.Int("count", purged), zap.Duration("idle", idle))
	}
	return purged, errors.Join(errs...)
}

// purge re-checks staleness under the user lock so a message that arrived meanwhile wins.
func (e *Engine) purge(ctx context.Context, userID int64, cutoff time.Time) (bool, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	s, ok := e.get(userID)
	if !ok || !s.UpdatedAt.Before(cutoff) {
		return false, nil
	}
	if err := e.store.Delete(ctx, userID); err != nil {
		return false, e.persistenceError("delete", userID, err)
	}
	e.drop(userID)
	return true, nil
}

func (e *Engine) product(s *domain.Session, input string) (outcome, error) {
	name := strings.ToLower(strings.TrimSpace(input))
	if n, err := strconv.Atoi(name); err == nil && n >= 1 && n <= len(s.Candidates) {
		name = s.Candidates[n-1]
	}
	candidates := e.catalog.Candidates(name)
	if len(candidates) != 1 {
		return outcome{}, &domain.AmbiguousMatchError{Input: input, Candidates: candidates}
	}
	entry, _ := e.catalog.Lookup(candidates[0])
	item := domain.NewLineItem(entry, e.consts)
	s.Draft = &item
	s.Candidates = nil
	s.Step = domain.StepNetto
	return outcome{reply: prompts[domain.StepNetto]}, nil
}

func (e *Engine) netto(s *domain.Session, input string) (outcome, error) {
	draft, err := requireDraft(s)
	if err != nil {
		return outcome{}, err
	}
	v, err := ParseDecimal("netto", input)
	if err != nil {
		return outcome{}, err
	}
	draft.NetWeightKg = v
	draft.GrossWeightKg = v
	return advance(s, domain.StepBrutto), nil
}

func (e *Engine) brutto(s *domain.Session, input string) (outcome, error) {
	draft, err := requireDraft(s)
	if err != nil {
		return outcome{}, err
	}
	v, err := ParseDecimal("brutto", input)
	if err != nil {
		return outcome{}, err
	}
	if v < draft.NetWeightKg {
		return outcome{}, &domain.ValidationError{Field: "brutto", Input: input, Reason: "less than net weight"}
	}
	draft.GrossWeightKg = v
	return advance(s, domain.StepPlaces), nil
}

func (e *Engine) places(s *domain.Session, input string) (outcome, error) {
	draft, err := requireDraft(s)
	if err != nil {
		return outcome{}, err
	}
	n, err := ParseCount("places", input)
	if err != nil {
		return outcome{}, err
	}
	draft.PackageCount = n
	return advance(s, domain.StepPrice), nil
}

func (e *Engine) price(s *domain.Session, input string) (outcome, error) {
	draft, err := requireDraft(s)
	if err != nil {
		return outcome{}, err
	}
	v, err := ParseDecimal("price", input)
	if err != nil {
		return outcome{}, err
	}
	draft.SetPrice(v)
	s.Positions = append(s.Positions, *draft)
	s.Draft = nil
	return advance(s, domain.StepAddMore), nil
}

func (e *Engine) addMore(s *domain.Session, input string) (outcome, error) {
	more, err := ParseYesNo("add_more", input)
	if err != nil {
		return outcome{}, err
	}
	if more {
		return advance(s, domain.StepProduct), nil
	}
	return advance(s, domain.StepInvoiceNumber), nil
}

func (e *Engine) invoiceNumber(s *domain.Session, input string) (outcome, error) {
	v, err := RequireText("invoice_number", input)
	if err != nil {
		return outcome{}, err
	}
	s.Shipment.InvoiceNumber = v
	return advance(s, domain.StepInvoiceDate), nil
}

func (e *Engine) invoiceDate(s *domain.Session, input string) (outcome, error) {
	v, err := ParseDate("invoice_date", input)
	if err != nil {
		return outcome{}, err
	}
	s.Shipment.InvoiceDate = v
	return advance(s, domain.StepCMRNumber), nil
}

func (e *Engine) cmrNumber(s *domain.Session, input string) (outcome, error) {
	v, err := RequireText("cmr_number", input)
	if err != nil {
		return outcome{}, err
	}
	s.Shipment.CMRNumber = v
	return advance(s, domain.StepCMRDate), nil
}

func (e *Engine) cmrDate(s *domain.Session, input string) (outcome, error) {
	v, err := ParseDate("cmr_date", input)
	if err != nil {
		return outcome{}, err
	}
	s.Shipment.CMRDate = v
	return outcome{finalize: true}, nil
}

func advance(s *domain.Session, step domain.Step) outcome {
	s.Step = step
	return outcome{reply: prompts[step]}
}

func requireDraft(s *domain.Session) (*domain.LineItem, error) {
	if s.Draft == nil {
		return nil, fmt.Errorf("conversation: session of user %d at %s has no draft", s.UserID, s.Step)
	}
	return s.Draft, nil
}

// userLock serializes one user's turns. refs counts holders and waiters so the
// entry can be dropped once nobody needs it.
type userLock struct {
	mu   sync.Mutex
	refs int
}

func (e *Engine) lockUser(userID int64) func() {
	e.mu.Lock()
	l, ok := e.locks[userID]
	if !ok {
		l = &userLock{}
		e.locks[userID] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		e.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, userID)
		}
		e.mu.Unlock()
	}
}

func (e *Engine) get(userID int64) (*domain.Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[userID]
	return s, ok
}

func (e *Engine) put(s *domain.Session) {
	e.mu.Lock()
	e.sessions[s.UserID] = s
	e.mu.Unlock()
}

func (e *Engine) drop(userID int64) {
	e.mu.Lock()
	delete(e.sessions, userID)
	e.mu.Unlock()
}

func (e *Engine) persistenceError(op string, userID int64, err error) error {
	e.log.Error("session store failed", zap.String("op", op), zap.Int64("user_id", userID), zap.Error(err))
	return &domain.PersistenceError{Op: op, UserID: userID, Err: err}
}
