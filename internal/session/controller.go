// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/parley-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyPrompt is returned when the prompt is empty after trimming.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrPending is returned when a call is already in flight.
	ErrPending = errors.New("a reply is already pending")

	// ErrClosed is returned after the controller has been closed.
	ErrClosed = errors.New("session is closed")

	// ErrMalformedResponse marks a reply that did not carry generated text.
	// Generators wrap it so failures can be classified.
	ErrMalformedResponse = errors.New("malformed response")
)

// FailureKind classifies a failed call for logging and telemetry.
type FailureKind string

const (
	FailureNone      FailureKind = ""
	FailureTransport FailureKind = "transport"
	FailureProtocol  FailureKind = "protocol"
	FailureCanceled  FailureKind = "canceled"
)

// statusCoder is implemented by errors carrying an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// serverMessager is implemented by errors carrying a server-supplied message.
type serverMessager interface {
	ServerMessage() string
}

// Classify maps a generator error to a FailureKind.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	if errors.Is(err, context.Canceled) {
		return FailureCanceled
	}
	var sc statusCoder
	if errors.Is(err, ErrMalformedResponse) || errors.As(err, &sc) {
		return FailureProtocol
	}
	return FailureTransport
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// Request is the payload of the single outbound call.
type Request struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"sessionId"`
}

// Generator performs the outbound call and returns the generated text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f(ctx, req).
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// CallKind says which operation started a call.
type CallKind string

const (
	KindSubmit     CallKind = "submit"
	KindRegenerate CallKind = "regenerate"
)

// CallRecord describes one finished call. It never includes turn content.
type CallRecord struct {
	SessionID string
	Kind      CallKind
	Started   time.Time
	Duration  time.Duration
	OK        bool
	Failure   FailureKind
}

// Recorder receives a CallRecord for every reconciled call.
type Recorder interface {
	RecordCall(ctx context.Context, rec CallRecord) error
}

// Options configures a Controller. The zero value is usable.
type Options struct {
	Notifier        Notifier
	Recorder        Recorder
	Logger          *slog.Logger
	ErrorTitle      string
	FallbackMessage string

	// Seed turns are copied into the new session's transcript.
	Seed []model.Turn
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller drives one Session. It is safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	sess     *Session
	inflight *Call

	gen      Generator
	notifier Notifier
	recorder Recorder
	logger   *slog.Logger

	errorTitle string
	fallback   string

	observers map[int]func(Snapshot)
	nextObsID int

	// ctx is canceled by Close so abandoned calls stop early.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates a controller over a new Session.
func NewController(gen Generator, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ErrorTitle == "" {
		opts.ErrorTitle = DefaultErrorTitle
	}
	if opts.FallbackMessage == "" {
		opts.FallbackMessage = DefaultFallbackMessage
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := NewSession(opts.Seed...)

	return &Controller{
		sess:       sess,
		gen:        gen,
		notifier:   opts.Notifier,
		recorder:   opts.Recorder,
		logger:     opts.Logger.With("session_id", sess.id),
		errorTitle: opts.ErrorTitle,
		fallback:   opts.FallbackMessage,
		observers:  make(map[int]func(Snapshot)),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SessionID returns the ID sent with every request.
func (c *Controller) SessionID() string {
	return c.sess.id
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.snapshot()
}

// Pending reports whether a call is in flight.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.pending
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.closed
}

// Turn returns the turn with the given ID.
func (c *Controller) Turn(id string) (model.Turn, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.transcript.Get(id)
}

// LastAssistantID returns the ID of the newest assistant turn, or "".
func (c *Controller) LastAssistantID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.sess.transcript.LastAssistant(); ok {
		return t.ID
	}
	return ""
}

// Observe registers fn to receive a snapshot after every state transition.
// fn runs on the goroutine that caused the transition, outside the state
// lock, and must not block. The returned func unregisters it.
func (c *Controller) Observe(fn func(Snapshot)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObsID
	c.nextObsID++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// Close discards the session. Any in-flight call is canceled and its reply,
// if it still arrives, is ignored. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.sess.closed {
		c.mu.Unlock()
		return
	}
	c.sess.closed = true
	c.inflight = nil
	c.mu.Unlock()

	c.cancel()
	c.logger.Debug("session closed")
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit validates prompt, appends it as a user turn and marks the session
// pending. The returned Call performs the request.
//
// Validation failures (ErrEmptyPrompt, ErrPending, ErrClosed) have no side
// effects.
func (c *Controller) Submit(prompt string) (*Call, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	c.mu.Lock()
	if err := c.checkIdleLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.sess.transcript.Append(model.NewUserTurn(prompt))
	call := c.beginLocked(KindSubmit, prompt)
	snap, observers := c.sess.snapshot(), c.observersLocked()
	c.mu.Unlock()

	c.logger.Debug("prompt submitted", "turns", snap.Len())
	emit(observers, snap)
	return call, nil
}

// SubmitAsync submits prompt and runs the call on a new goroutine. The
// channel receives the outcome once.
func (c *Controller) SubmitAsync(ctx context.Context, prompt string) (<-chan Outcome, error) {
	call, err := c.Submit(prompt)
	if err != nil {
		return nil, err
	}
	return c.Go(ctx, call), nil
}

// Go runs call.Do on a new goroutine.
func (c *Controller) Go(ctx context.Context, call *Call) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		ch <- call.Do(ctx)
	}()
	return ch
}

// checkIdleLocked enforces the single-flight gate.
func (c *Controller) checkIdleLocked() error {
	if c.sess.closed {
		return ErrClosed
	}
	if c.sess.pending {
		return ErrPending
	}
	return nil
}

// beginLocked sets pending and creates the call that owns it.
func (c *Controller) beginLocked(kind CallKind, prompt string) *Call {
	c.sess.pending = true
	call := &Call{
		ctrl:      c,
		kind:      kind,
		prompt:    prompt,
		sessionID: c.sess.id,
	}
	c.inflight = call
	return call
}

func (c *Controller) observersLocked() []func(Snapshot) {
	if len(c.observers) == 0 {
		return nil
	}
	out := make([]func(Snapshot), 0, len(c.observers))
	for id := 0; id < c.nextObsID; id++ {
		if fn, ok := c.observers[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func emit(observers []func(Snapshot), snap Snapshot) {
	for _, fn := range observers {
		fn(snap)
	}
}

// =============================================================================
// CALL
// =============================================================================

// Outcome is the result of reconciling a call.
type Outcome struct {
	// Turn is the appended assistant turn on success.
	Turn *model.Turn

	// Err is the generator error on failure.
	Err error

	// Notice is what was sent to the notifier on failure.
	Notice *Notice

	// Discarded is true when the session was closed before the reply
	// arrived. Nothing was mutated.
	Discarded bool

	Snapshot Snapshot
}

// OK reports whether the call produced an assistant turn.
func (o Outcome) OK() bool {
	return o.Turn != nil
}

// Call is one outbound request. It is created by Submit or Regenerate and
// must be run exactly once with Do.
type Call struct {
	ctrl      *Controller
	kind      CallKind
	prompt    string
	sessionID string

	once    sync.Once
	outcome Outcome
}

// Kind returns the operation that started the call.
func (c *Call) Kind() CallKind {
	return c.kind
}

// Prompt returns the prompt text being sent.
func (c *Call) Prompt() string {
	return c.prompt
}

// Do performs the request and reconciles the reply. Repeated calls return
// the first outcome without issuing another request.
func (c *Call) Do(ctx context.Context) Outcome {
	c.once.Do(func() {
		c.outcome = c.ctrl.run(ctx, c)
	})
	return c.outcome
}

func (c *Controller) run(ctx context.Context, call *Call) Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	started := time.Now()
	text, err := c.gen.Generate(ctx, Request{Prompt: call.prompt, SessionID: call.sessionID})
	return c.finish(ctx, call, started, text, err)
}

// finish applies the reply unless the call has been abandoned.
func (c *Controller) finish(ctx context.Context, call *Call, started time.Time, text string, err error) Outcome {
	duration := time.Since(started)

	c.mu.Lock()
	if c.sess.closed || c.inflight != call {
		c.mu.Unlock()
		c.logger.Debug("late reply discarded", "kind", call.kind, "duration", duration)
		return Outcome{Discarded: true}
	}

	c.inflight = nil
	c.sess.pending = false

	var out Outcome
	if err == nil {
		turn := model.NewAssistantTurn(text)
		c.sess.transcript.Append(turn)
		out.Turn = &turn
	} else {
		notice := c.noticeFor(err)
		out.Err = err
		out.Notice = &notice
	}
	out.Snapshot = c.sess.snapshot()
	observers := c.observersLocked()
	notifier := c.notifier
	c.mu.Unlock()

	failure := Classify(err)
	if err != nil {
		c.logger.Warn("reply failed", "kind", call.kind, "failure", failure, "duration", duration, "error", err)
		if notifier != nil {
			notifier.Notify(*out.Notice)
		}
	} else {
		c.logger.Info("reply received", "kind", call.kind, "duration", duration, "chars", len(text))
	}

	if c.recorder != nil {
		rec := CallRecord{
			SessionID: call.sessionID,
			Kind:      call.kind,
			Started:   started,
			Duration:  duration,
			OK:        err == nil,
			Failure:   failure,
		}
		if rerr := c.recorder.RecordCall(context.WithoutCancel(ctx), rec); rerr != nil {
			c.logger.Warn("failed to record call", "error", rerr)
		}
	}

	emit(observers, out.Snapshot)
	return out
}

// noticeFor builds the failure notice, preferring a server-supplied message.
func (c *Controller) noticeFor(err error) Notice {
	if errors.Is(err, context.Canceled) {
		return Notice{Title: c.errorTitle, Description: canceledMessage, Severity: SeverityWarning}
	}
	desc := c.fallback
	var sm serverMessager
	if errors.As(err, &sm) {
		if msg := strings.TrimSpace(sm.ServerMessage()); msg != "" {
			desc = msg
		}
	}
	return Notice{Title: c.errorTitle, Description: desc, Severity: SeverityError}
}
