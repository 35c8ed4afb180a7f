package game

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindWordGuess  Kind = "wordle"
	KindHangman    Kind = "hangman"
	KindWordChain  Kind = "wordchain"
	KindUnscramble Kind = "unscramble"
	KindMath       Kind = "math"
	KindMemory     Kind = "memory"
)

var ErrUnknownKind = errors.New("unknown game kind")

var kinds = []Kind{KindWordGuess, KindHangman, KindWordChain, KindUnscramble, KindMath, KindMemory}

// Kinds lists every playable game in menu order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Title is the human readable name shown on menus.
func (k Kind) Title() string {
	switch k {
	case KindWordGuess:
		return "Wordle"
	case KindHangman:
		return "Hangman"
	case KindWordChain:
		return "WordChain"
	case KindUnscramble:
		return "Unscramble"
	case KindMath:
		return "Math Challenge"
	case KindMemory:
		return "Memory Grid"
	default:
		return string(k)
	}
}

// Game is implemented only by the six machines in this package.
type Game interface {
	Kind() Kind
	// Start resets the machine and returns its opening prompt.
	Start() Reply
	sealed()
}

type Format int

const (
	FormatPlain Format = iota
	FormatMarkdown
)

// Button is one cell of an inline grid. Data is echoed back on click.
type Button struct {
	Label string
	Data  string
}

// Message is one outbound chat message. A message with Edit set replaces the
// session's current grid message in place; a nil Grid on an edit drops the buttons.
type Message struct {
	Text   string
	Format Format
	Grid   [][]Button
	Edit   bool
}

func (m Message) HasGrid() bool { return len(m.Grid) > 0 }

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWin
	OutcomeLoss
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	default:
		return "none"
	}
}

// Transition asks the caller to deliver Token back to the machine after a delay.
type Transition struct {
	After time.Duration
	Token uint64
}

// Reply is everything a machine wants sent after handling one event.
type Reply struct {
	Messages []Message
	Outcome  Outcome
	Schedule *Transition
}

// Terminal reports whether the game ended with this reply.
func (r Reply) Terminal() bool { return r.Outcome != OutcomeNone }

func plain(text string) Message    { return Message{Text: text, Format: FormatPlain} }
func markdown(text string) Message { return Message{Text: text, Format: FormatMarkdown} }

func say(msgs ...Message) Reply { return Reply{Messages: msgs} }

func normalizeInput(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
