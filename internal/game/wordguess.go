package game

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"gamebot/internal/lexicon"
)

const wordGuessAttempts = 6

type Mark int

const (
	MarkAbsent Mark = iota
	MarkPresent
	MarkExact
)

func (m Mark) Emoji() string {
	switch m {
	case MarkExact:
		return "🟩"
	case MarkPresent:
		return "🟨"
	default:
		return "🟥"
	}
}

// Score grades guess against target, both lowercase a-z of equal length.
// Exact matches consume their target letter first; the remaining letters are
// marked present left to right while unconsumed copies exist in the target.
func Score(guess, target string) []Mark {
	marks := make([]Mark, len(guess))
	var counts [26]int

	for i := 0; i < len(guess); i++ {
		if guess[i] == target[i] {
			marks[i] = MarkExact
			continue
		}
		counts[target[i]-'a']++
	}
	for i := 0; i < len(guess); i++ {
		if marks[i] == MarkExact {
			continue
		}
		idx := guess[i] - 'a'
		if idx < 26 && counts[idx] > 0 {
			marks[i] = MarkPresent
			counts[idx]--
		}
	}
	return marks
}

// WordGuess is a Wordle-style round: six tries at a hidden 5-letter word.
type WordGuess struct {
	lex *lexicon.Lexicon
	src Source

	target       string
	attemptsLeft int
}

func NewWordGuess(lex *lexicon.Lexicon, src Source) *WordGuess {
	return &WordGuess{lex: lex, src: src}
}

func (g *WordGuess) Kind() Kind { return KindWordGuess }
func (g *WordGuess) sealed()    {}

func (g *WordGuess) Target() string    { return g.target }
func (g *WordGuess) AttemptsLeft() int { return g.attemptsLeft }

func (g *WordGuess) Start() Reply {
	g.target = pick(g.src, g.lex.Targets())
	g.attemptsLeft = wordGuessAttempts
	return say(plain("New Wordle game started! Guess a 5-letter word:"))
}

func (g *WordGuess) Guess(text string) Reply {
	guess := normalizeInput(text)

	if utf8.RuneCountInString(guess) != lexicon.WordLength {
		return say(plain("Your guess must be a 5-letter word."))
	}
	if !g.lex.IsValidGuess(guess) {
		return say(plain("This is not a valid word. Please guess a valid 5-letter word."))
	}
	if guess == g.target {
		return Reply{
			Messages: []Message{plain(fmt.Sprintf("Congrats! You guessed the word: %s. You win!", g.target))},
			Outcome:  OutcomeWin,
		}
	}

	marks := Score(guess, g.target)
	g.attemptsLeft--
	if g.attemptsLeft <= 0 {
		g.attemptsLeft = 0
		return Reply{
			Messages: []Message{plain(fmt.Sprintf("Game over! The word was: %s. Better luck next time!", g.target))},
			Outcome:  OutcomeLoss,
		}
	}

	squares := make([]string, len(marks))
	for i, m := range marks {
		squares[i] = m.Emoji()
	}
	return say(plain(fmt.Sprintf("%s [%d attempts left]", strings.Join(squares, " "), g.attemptsLeft)))
}
