package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"gamebot/internal/game"
)

var (
	// ErrBadFormatting is returned by a Messenger when the transport rejects
	// the markup of a message. The dispatcher then resends it as plain text.
	ErrBadFormatting = errors.New("message markup rejected")

	ErrHandlerFault = errors.New("game handler fault")
)

// MessageRef identifies a sent grid message so it can be edited later.
type MessageRef int64

// Messenger delivers game output to one user over some transport.
type Messenger interface {
	SendText(ctx context.Context, userID int64, text string, format game.Format) error
	SendGrid(ctx context.Context, userID int64, text string, format game.Format, grid [][]game.Button) (MessageRef, error)
	// EditGrid replaces the text and buttons of ref. A nil grid removes the buttons.
	EditGrid(ctx context.Context, userID int64, ref MessageRef, text string, format game.Format, grid [][]game.Button) error
}

// Builder creates unstarted game machines.
type Builder interface {
	New(kind game.Kind) (game.Game, error)
}

// Result describes one finished or abandoned game.
type Result struct {
	UserID     int64
	Transport  string
	Kind       game.Kind
	Outcome    game.Outcome
	Aborted    bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Recorder persists finished games.
type Recorder interface {
	Record(ctx context.Context, res Result) error
}

// Limiter decides whether a user's event may be processed.
type Limiter interface {
	Allow(ctx context.Context, userID int64) bool
}

type Timer interface {
	Stop() bool
}

type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
func (systemClock) Now() time.Time                            { return time.Now() }

// Session binds one user to at most one active game. All fields are guarded
// by mu, which also serializes that user's events.
type Session struct {
	mu sync.Mutex

	userID    int64
	active    game.Game
	startedAt time.Time
	games     map[game.Kind]game.Game

	gridRef MessageRef
	hasGrid bool

	// bumped whenever the active game ends or is replaced; timers carry the
	// generation they were armed in
	generation uint64
	timer      Timer
}

func newSession(userID int64) *Session {
	return &Session{
		userID: userID,
		games:  make(map[game.Kind]game.Game),
	}
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// clear unbinds the active game and invalidates pending timers.
func (s *Session) clear() {
	s.stopTimer()
	s.generation++
	s.active = nil
	s.hasGrid = false
	s.gridRef = 0
}
