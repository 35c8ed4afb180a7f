package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gamebot/internal/game"
	"gamebot/internal/logger"
	"gamebot/internal/metrics"
)

const (
	MsgNoGame     = "Please start a game first with /play."
	MsgGameOver   = "Game over! Type /play to start again."
	MsgFault      = "Something went wrong while handling that. Please try again."
	MsgUseButtons = "Use the buttons on the grid to play."
	MsgStopped    = "Your game has been stopped."
	MsgNothingOn  = "No active game! Start a new game with /play."
	MsgSlowDown   = "You're going too fast, wait a moment and try again."

	timerDeliveryTimeout = 10 * time.Second
)

// Dispatcher owns every user's Session and routes inbound events to the
// active game machine.
type Dispatcher struct {
	builder  Builder
	out      Messenger
	clock    Clock
	recorder Recorder
	limiter  Limiter
	name     string
	log      *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*Session
}

type Option func(*Dispatcher)

func WithClock(c Clock) Option { return func(d *Dispatcher) { d.clock = c } }

// WithRecorder stores every finished game.
func WithRecorder(r Recorder) Option { return func(d *Dispatcher) { d.recorder = r } }

// WithLimiter drops events the limiter refuses.
func WithLimiter(l Limiter) Option { return func(d *Dispatcher) { d.limiter = l } }

// WithName labels logs and metrics with the transport name.
func WithName(name string) Option { return func(d *Dispatcher) { d.name = name } }

func NewDispatcher(builder Builder, out Messenger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		builder:  builder,
		out:      out,
		clock:    systemClock{},
		name:     "bot",
		sessions: make(map[int64]*Session),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = logger.With("component", "dispatcher", "transport", d.name)
	return d
}

// Active reports the game the user is playing, if any.
func (d *Dispatcher) Active(userID int64) (game.Kind, bool) {
	s := d.lookup(userID, false)
	if s == nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return "", false
	}
	return s.active.Kind(), true
}

// SelectGame starts kind for the user, replacing whatever was active.
func (d *Dispatcher) SelectGame(ctx context.Context, userID int64, kind game.Kind) error {
	metrics.Events.WithLabelValues(d.name, "select").Inc()
	if !d.allow(ctx, userID) {
		return d.out.SendText(ctx, userID, MsgSlowDown, game.FormatPlain)
	}

	s := d.lookup(userID, true)
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[kind]
	if !ok {
		var err error
		g, err = d.builder.New(kind)
		if err != nil {
			return fmt.Errorf("select %s: %w", kind, err)
		}
		s.games[kind] = g
	}

	if s.active != nil {
		d.finish(ctx, s, game.OutcomeNone, true)
	}

	reply, err := invoke(func() (game.Reply, error) { return g.Start(), nil })
	if err != nil {
		d.fault(s, g.Kind(), err)
		return d.out.SendText(ctx, userID, MsgFault, game.FormatPlain)
	}

	s.active = g
	s.startedAt = d.clock.Now()
	metrics.GamesStarted.WithLabelValues(string(kind)).Inc()
	metrics.ActiveGames.Inc()
	d.log.Info("game started", "user_id", userID, "game", kind)

	return d.apply(ctx, s, reply)
}

// HandleText forwards a free-text message to the active game.
func (d *Dispatcher) HandleText(ctx context.Context, userID int64, text string) error {
	metrics.Events.WithLabelValues(d.name, "text").Inc()
	if !d.allow(ctx, userID) {
		return d.out.SendText(ctx, userID, MsgSlowDown, game.FormatPlain)
	}

	s := d.lookup(userID, false)
	if s == nil {
		return d.out.SendText(ctx, userID, MsgNoGame, game.FormatPlain)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return d.out.SendText(ctx, userID, MsgNoGame, game.FormatPlain)
	}

	active := s.active
	reply, err := invoke(func() (game.Reply, error) {
		switch g := active.(type) {
		case *game.WordGuess:
			return g.Guess(text), nil
		case *game.Hangman:
			return g.Guess(text), nil
		case *game.WordChain:
			return g.Check(text), nil
		case *game.Unscramble:
			return g.Guess(text), nil
		case *game.MathPuzzle:
			return g.Solve(text), nil
		case *game.MemoryGrid:
			return game.Reply{Messages: []game.Message{{Text: MsgUseButtons}}}, nil
		default:
			return game.Reply{}, fmt.Errorf("no text handler for %T", g)
		}
	})
	if err != nil {
		d.fault(s, active.Kind(), err)
		return d.out.SendText(ctx, userID, MsgFault, game.FormatPlain)
	}
	return d.apply(ctx, s, reply)
}

// HandleClick forwards inline button data to the active game. Clicks on
// decorative buttons and clicks for games without buttons are dropped.
func (d *Dispatcher) HandleClick(ctx context.Context, userID int64, data string) error {
	metrics.Events.WithLabelValues(d.name, "click").Inc()
	if data == game.IgnoreData {
		return nil
	}
	if !d.allow(ctx, userID) {
		return nil
	}

	s := d.lookup(userID, false)
	if s == nil {
		return d.out.SendText(ctx, userID, MsgNoGame, game.FormatPlain)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return d.out.SendText(ctx, userID, MsgNoGame, game.FormatPlain)
	}

	active := s.active
	reply, err := invoke(func() (game.Reply, error) {
		switch g := active.(type) {
		case *game.MemoryGrid:
			return g.Click(data), nil
		case *game.WordGuess, *game.Hangman, *game.WordChain, *game.Unscramble, *game.MathPuzzle:
			return game.Reply{}, nil
		default:
			return game.Reply{}, fmt.Errorf("no click handler for %T", g)
		}
	})
	if err != nil {
		d.fault(s, active.Kind(), err)
		return d.out.SendText(ctx, userID, MsgFault, game.FormatPlain)
	}
	return d.apply(ctx, s, reply)
}

// Abort ends the user's game, if any, and cancels its pending timers.
func (d *Dispatcher) Abort(ctx context.Context, userID int64) (bool, error) {
	metrics.Events.WithLabelValues(d.name, "abort").Inc()

	s := d.lookup(userID, false)
	if s == nil {
		return false, d.out.SendText(ctx, userID, MsgNothingOn, game.FormatPlain)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return false, d.out.SendText(ctx, userID, MsgNothingOn, game.FormatPlain)
	}

	d.finish(ctx, s, game.OutcomeNone, true)
	return true, d.out.SendText(ctx, userID, MsgStopped, game.FormatPlain)
}

// Close ends every active game as aborted and cancels pending timers. It is
// meant for shutdown and sends nothing to users; later events find no game.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	all := make([]*Session, 0, len(d.sessions))
	for _, s := range d.sessions {
		all = append(all, s)
	}
	d.mu.Unlock()

	ctx := context.Background()
	for _, s := range all {
		s.mu.Lock()
		if s.active != nil {
			d.finish(ctx, s, game.OutcomeNone, true)
		} else {
			s.stopTimer()
			s.generation++
		}
		s.mu.Unlock()
	}
}

func (d *Dispatcher) lookup(userID int64, create bool) *Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[userID]
	if !ok && create {
		s = newSession(userID)
		d.sessions[userID] = s
	}
	return s
}

func (d *Dispatcher) allow(ctx context.Context, userID int64) bool {
	if d.limiter == nil || d.limiter.Allow(ctx, userID) {
		return true
	}
	d.log.Debug("event rate limited", "user_id", userID)
	return false
}

// apply delivers a reply and performs the lifecycle work it implies.
// Called with s.mu held.
func (d *Dispatcher) apply(ctx context.Context, s *Session, reply game.Reply) error {
	var errs []error
	for _, m := range reply.Messages {
		if err := d.deliver(ctx, s, m); err != nil {
			errs = append(errs, err)
		}
	}

	switch {
	case reply.Terminal():
		d.finish(ctx, s, reply.Outcome, false)
		if err := d.out.SendText(ctx, s.userID, MsgGameOver, game.FormatPlain); err != nil {
			errs = append(errs, err)
		}
	case reply.Schedule != nil:
		d.schedule(s, *reply.Schedule)
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) deliver(ctx context.Context, s *Session, m game.Message) error {
	var err error
	switch {
	case m.Edit && s.hasGrid:
		err = d.withFallback(m.Format, func(f game.Format) error {
			return d.out.EditGrid(ctx, s.userID, s.gridRef, m.Text, f, m.Grid)
		})
	case m.HasGrid():
		err = d.withFallback(m.Format, func(f game.Format) error {
			ref, sendErr := d.out.SendGrid(ctx, s.userID, m.Text, f, m.Grid)
			if sendErr == nil {
				s.gridRef = ref
				s.hasGrid = true
			}
			return sendErr
		})
	default:
		err = d.withFallback(m.Format, func(f game.Format) error {
			return d.out.SendText(ctx, s.userID, m.Text, f)
		})
	}
	if err != nil {
		op := "text"
		if m.HasGrid() || m.Edit {
			op = "grid"
		}
		metrics.DeliveryErrors.WithLabelValues(d.name, op).Inc()
		d.log.Warn("delivery failed", "user_id", s.userID, "op", op, "error", err)
	}
	return err
}

func (d *Dispatcher) withFallback(format game.Format, send func(game.Format) error) error {
	err := send(format)
	if err == nil || format != game.FormatMarkdown || !errors.Is(err, ErrBadFormatting) {
		return err
	}
	metrics.FormatFallbacks.Inc()
	return send(game.FormatPlain)
}

func (d *Dispatcher) schedule(s *Session, t game.Transition) {
	s.stopTimer()
	gen := s.generation
	target := s.active
	s.timer = d.clock.AfterFunc(t.After, func() {
		d.fire(s, gen, target, t.Token)
	})
}

// fire runs a scheduled transition unless the session moved on since it was armed.
func (d *Dispatcher) fire(s *Session, gen uint64, target game.Game, token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.active != target {
		return
	}

	reply, err := invoke(func() (game.Reply, error) {
		switch g := target.(type) {
		case *game.MemoryGrid:
			return g.Reveal(token), nil
		default:
			return game.Reply{}, fmt.Errorf("no scheduled transition for %T", g)
		}
	})
	if err != nil {
		d.fault(s, target.Kind(), err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timerDeliveryTimeout)
	defer cancel()
	if err := d.apply(ctx, s, reply); err != nil {
		d.log.Warn("scheduled transition delivery failed", "user_id", s.userID, "error", err)
	}
}

// finish unbinds the active game and records it. Called with s.mu held.
func (d *Dispatcher) finish(ctx context.Context, s *Session, outcome game.Outcome, aborted bool) {
	kind := s.active.Kind()
	res := Result{
		UserID:     s.userID,
		Transport:  d.name,
		Kind:       kind,
		Outcome:    outcome,
		Aborted:    aborted,
		StartedAt:  s.startedAt,
		FinishedAt: d.clock.Now(),
	}
	s.clear()

	label := outcome.String()
	if aborted {
		label = "aborted"
	}
	metrics.GamesFinished.WithLabelValues(string(kind), label).Inc()
	metrics.ActiveGames.Dec()
	d.log.Info("game finished", "user_id", s.userID, "game", kind, "outcome", label)

	if d.recorder == nil {
		return
	}
	if err := d.recorder.Record(ctx, res); err != nil {
		d.log.Error("failed to record game", "user_id", s.userID, "game", kind, "error", err)
	}
}

func (d *Dispatcher) fault(s *Session, kind game.Kind, err error) {
	metrics.HandlerFaults.WithLabelValues(string(kind)).Inc()
	d.log.Error("game handler failed", "user_id", s.userID, "game", kind, "error", err)
}

// invoke runs a machine handler, turning errors and panics into ErrHandlerFault.
func invoke(fn func() (game.Reply, error)) (reply game.Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrHandlerFault, r)
		}
	}()
	reply, err = fn()
	if err != nil {
		return game.Reply{}, fmt.Errorf("%w: %w", ErrHandlerFault, err)
	}
	return reply, nil
}
