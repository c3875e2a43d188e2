package storefront

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/storefront/internal/logging"
	"github.com/aretw0/storefront/internal/phrases"
	"github.com/aretw0/storefront/internal/runtime"
	"github.com/aretw0/storefront/pkg/domain"
	"github.com/aretw0/storefront/pkg/ports"
	"github.com/aretw0/storefront/pkg/session"
)

const (
	// DefaultEventTimeout bounds the collaborator calls of one event.
	DefaultEventTimeout = 15 * time.Second
	// DefaultSaveTimeout bounds the state write, which ignores caller cancellation.
	DefaultSaveTimeout = 5 * time.Second
)

var (
	// ErrEmptyUserID is returned when an event carries no user identity.
	ErrEmptyUserID = errors.New("user id is required")
	// ErrClosed is returned for events received after Close.
	ErrClosed = errors.New("engine is closed")
)

// Services is the capability bundle the engine is built with.
type Services struct {
	Catalog   ports.Catalog
	Cart      ports.Cart
	Customers ports.Customers
	Store     ports.StateStore
}

// Engine is the high-level entry point of the storefront.
// It loads the user's session, applies one event and persists the new state
// before the reply is handed back to the transport.
type Engine struct {
	runtime  *runtime.Engine
	sessions *session.Manager
	store    ports.StateStore

	phrases      phrases.Phrases
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	locker       ports.DistributedLocker
	lockTTL      time.Duration
	eventTimeout time.Duration
	saveTimeout  time.Duration
	now          func() time.Time
	closers      []io.Closer

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks. Multiple calls are chained.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = domain.ChainHooks(e.hooks, hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLocker serializes users across replicas with a distributed lock.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLockTTL sets how long a distributed lock survives a crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithEventTimeout sets the per-event deadline.
func WithEventTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.eventTimeout = d
		}
	}
}

// WithSaveTimeout sets the deadline of the state write.
func WithSaveTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.saveTimeout = d
		}
	}
}

// WithPhrases replaces the default copy deck.
func WithPhrases(p phrases.Phrases) Option {
	return func(e *Engine) {
		e.phrases = p
	}
}

// WithClock overrides the clock used for UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithCloser hands a resource to the engine; Close releases it.
func WithCloser(c io.Closer) Option {
	return func(e *Engine) {
		if c != nil {
			e.closers = append(e.closers, c)
		}
	}
}

// New initializes a new storefront Engine.
func New(svc Services, opts ...Option) (*Engine, error) {
	switch {
	case svc.Catalog == nil:
		return nil, errors.New("storefront: catalog is required")
	case svc.Cart == nil:
		return nil, errors.New("storefront: cart is required")
	case svc.Customers == nil:
		return nil, errors.New("storefront: customers is required")
	case svc.Store == nil:
		return nil, errors.New("storefront: session store is required")
	}

	e := &Engine{
		store:        svc.Store,
		phrases:      phrases.Default(),
		eventTimeout: DefaultEventTimeout,
		saveTimeout:  DefaultSaveTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}

	mgrOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(e.locker))
	}
	if e.lockTTL > 0 {
		mgrOpts = append(mgrOpts, session.WithLockTTL(e.lockTTL))
	}
	e.sessions = session.NewManager(svc.Store, mgrOpts...)
	e.runtime = runtime.NewEngine(svc.Catalog, svc.Cart, svc.Customers, e.phrases)
	return e, nil
}

// HandleEvent applies one inbound event for userID and returns what to show.
// Collaborator and store failures are turned into a "please try again" reply;
// the returned error is reserved for invalid calls (empty user, closed engine).
func (e *Engine) HandleEvent(ctx context.Context, userID string, ev domain.Event) (domain.Reply, error) {
	if userID == "" {
		return domain.Reply{}, ErrEmptyUserID
	}

	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return domain.Reply{}, ErrClosed
	}
	e.inflight.Add(1)
	e.mu.RUnlock()
	defer e.inflight.Done()

	ctx, cancel := context.WithTimeout(ctx, e.eventTimeout)
	defer cancel()

	var reply domain.Reply
	err := e.sessions.WithLock(ctx, userID, func(ctx context.Context) error {
		reply = e.handleLocked(ctx, userID, ev)
		return nil
	})
	if err != nil {
		e.fail(ctx, userID, ev, "", domain.StateStart, err)
		return e.retryReply(), nil
	}
	return reply, nil
}

func (e *Engine) handleLocked(ctx context.Context, userID string, ev domain.Event) domain.Reply {
	start := e.now()

	current, err := e.store.Load(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		current = domain.NewSession(userID)
	case err != nil:
		e.fail(ctx, userID, ev, "", "", fmt.Errorf("load session: %w", asStoreErr(err)))
		return e.retryReply()
	}

	if ev.ID != "" && ev.ID == current.LastEventID {
		e.ignore(ctx, userID, ev, current.State, "duplicate delivery")
		return domain.NoReply
	}

	in, err := runtime.Classify(ev)
	if err != nil {
		e.ignore(ctx, userID, ev, current.State, err.Error())
		return domain.NoReply
	}

	out, err := e.runtime.Step(ctx, userID, current.State, in)
	if err != nil {
		e.fail(ctx, userID, ev, in.Intent, current.State, err)
		return e.retryReply()
	}
	if out.Ignored != "" {
		e.ignore(ctx, userID, ev, current.State, out.Ignored)
	}
	if !out.Persist {
		return out.Reply
	}

	next := &domain.Session{
		UserID:      userID,
		State:       out.Next,
		UpdatedAt:   e.now().UTC(),
		LastEventID: ev.ID,
	}
	// Side effects may already have happened; finish the write even if the caller went away.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.saveTimeout)
	defer cancel()
	if err := e.store.Save(saveCtx, userID, next); err != nil {
		e.fail(ctx, userID, ev, in.Intent, current.State, fmt.Errorf("save session: %w", asStoreErr(err)))
		return e.retryReply()
	}

	e.logger.Debug("transition",
		"user_id", userID,
		"event", string(in.Intent),
		"state", string(current.State),
		"next_state", string(out.Next),
	)
	if e.hooks.OnTransition != nil {
		e.hooks.OnTransition(ctx, &domain.TransitionEvent{
			HookBase: e.hookBase(domain.HookTransition, userID, ev),
			Intent:   string(in.Intent),
			From:     current.State,
			To:       out.Next,
			Duration: e.now().Sub(start),
		})
	}
	return out.Reply
}

func (e *Engine) retryReply() domain.Reply {
	return domain.Reply{Text: e.phrases.Retry}
}

func (e *Engine) hookBase(t domain.HookType, userID string, ev domain.Event) domain.HookBase {
	return domain.HookBase{Timestamp: e.now().UTC(), Type: t, UserID: userID, EventID: ev.ID}
}

func (e *Engine) fail(ctx context.Context, userID string, ev domain.Event, intent runtime.Intent, state domain.State, err error) {
	e.logger.Warn("event failed",
		"user_id", userID,
		"state", string(state),
		"event", string(intent),
		"err", err,
	)
	if e.hooks.OnFailure != nil {
		e.hooks.OnFailure(ctx, &domain.FailureEvent{
			HookBase: e.hookBase(domain.HookFailure, userID, ev),
			Intent:   string(intent),
			State:    state,
			Err:      err,
			Error:    err.Error(),
		})
	}
}

func (e *Engine) ignore(ctx context.Context, userID string, ev domain.Event, state domain.State, reason string) {
	e.logger.Debug("event ignored",
		"user_id", userID,
		"state", string(state),
		"kind", string(ev.Kind),
		"reason", reason,
	)
	if e.hooks.OnIgnored != nil {
		e.hooks.OnIgnored(ctx, &domain.IgnoredEvent{
			HookBase: e.hookBase(domain.HookIgnored, userID, ev),
			State:    state,
			Reason:   reason,
		})
	}
}

// asStoreErr makes sure store failures match domain.ErrStoreUnavailable.
func asStoreErr(err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

// Session returns the persisted session of userID.
func (e *Engine) Session(ctx context.Context, userID string) (*domain.Session, error) {
	return e.sessions.Load(ctx, userID)
}

// Reset forgets userID's conversation; the next event starts from scratch.
func (e *Engine) Reset(ctx context.Context, userID string) error {
	return e.sessions.Delete(ctx, userID)
}

// Phrases returns the copy deck in use.
func (e *Engine) Phrases() phrases.Phrases {
	return e.phrases
}

// Close stops accepting events, waits for in-flight ones and releases owned resources.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.inflight.Wait()

	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ ports.EventHandler = (*Engine)(nil)
