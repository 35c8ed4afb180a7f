package game

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"gamebot/internal/lexicon"
)

const (
	hangmanAttempts = 6
	hiddenLetter    = "▯"
)

// gallows[i] is drawn after i wrong guesses.
var gallows = [hangmanAttempts + 1]string{
	`
  -----
  |   |
      |
      |
      |
      |
========`,
	`
  -----
  |   |
  O   |
      |
      |
      |
========`,
	`
  -----
  |   |
  O   |
  |   |
      |
      |
========`,
	`
  -----
  |   |
  O   |
 /|   |
      |
      |
========`,
	`
  -----
  |   |
  O   |
 /|\  |
      |
      |
========`,
	`
  -----
  |   |
  O   |
 /|\  |
 /    |
      |
========`,
	`
  -----
  |   |
  O   |
 /|\  |
 / \  |
      |
========`,
}

type Hangman struct {
	lex *lexicon.Lexicon
	src Source

	secret       string
	guessed      map[rune]struct{}
	wrong        map[rune]struct{}
	attemptsLeft int
}

func NewHangman(lex *lexicon.Lexicon, src Source) *Hangman {
	return &Hangman{lex: lex, src: src}
}

func (h *Hangman) Kind() Kind { return KindHangman }
func (h *Hangman) sealed()    {}

func (h *Hangman) Secret() string    { return h.secret }
func (h *Hangman) AttemptsLeft() int { return h.attemptsLeft }

func (h *Hangman) Start() Reply {
	h.secret = pick(h.src, h.lex.Common())
	h.guessed = make(map[rune]struct{})
	h.wrong = make(map[rune]struct{})
	h.attemptsLeft = hangmanAttempts

	return say(markdown(fmt.Sprintf(
		"🎮 *Hangman Started!*\nWord: %s\n%s\nGuess a letter or the whole word:",
		h.masked(), h.drawing(),
	)))
}

func (h *Hangman) Guess(text string) Reply {
	guess := normalizeInput(text)
	if !onlyLetters(guess) {
		return say(plain("❌ Please enter only letters!"))
	}

	letters := []rune(guess)
	if len(letters) > 1 {
		return h.guessWord(guess)
	}
	return h.guessLetter(letters[0])
}

func (h *Hangman) guessLetter(c rune) Reply {
	if _, ok := h.guessed[c]; ok {
		return say(plain(fmt.Sprintf("You already guessed '%c'!", c)))
	}
	if _, ok := h.wrong[c]; ok {
		return say(plain(fmt.Sprintf("You already guessed '%c'!", c)))
	}

	if !strings.ContainsRune(h.secret, c) {
		h.wrong[c] = struct{}{}
		h.attemptsLeft--
		if h.attemptsLeft <= 0 {
			return h.lose(fmt.Sprintf("💀 *Game over!* The word was: *%s*\n%s", h.secret, h.drawing()))
		}
		return say(markdown(fmt.Sprintf(
			"❌ *Wrong!* '%c' is not in the word.\nWrong guesses: %s\n%s\n%s",
			c, h.wrongList(), h.masked(), h.drawing(),
		)))
	}

	h.guessed[c] = struct{}{}
	if h.solved() {
		return Reply{
			Messages: []Message{markdown(fmt.Sprintf(
				"🎉 *You won!* The word was: *%s*\nWrong guesses: %d\n%s",
				h.secret, len(h.wrong), h.drawing(),
			))},
			Outcome: OutcomeWin,
		}
	}
	return say(markdown(fmt.Sprintf(
		"✅ *Correct!* '%c' is in the word.\n%s\n%s",
		c, h.masked(), h.drawing(),
	)))
}

func (h *Hangman) guessWord(word string) Reply {
	if word == h.secret {
		for _, c := range h.secret {
			h.guessed[c] = struct{}{}
		}
		return Reply{
			Messages: []Message{markdown(fmt.Sprintf("🎉 *Perfect guess!* The word was: *%s*. You won!", h.secret))},
			Outcome:  OutcomeWin,
		}
	}

	h.attemptsLeft--
	if h.attemptsLeft <= 0 {
		return h.lose(fmt.Sprintf("💀 *Wrong!* Game over. The word was: *%s*\n%s", h.secret, h.drawing()))
	}
	return say(markdown(fmt.Sprintf(
		"❌ *Nope!* %d attempts left.\n%s\n%s",
		h.attemptsLeft, h.masked(), h.drawing(),
	)))
}

func (h *Hangman) lose(text string) Reply {
	h.attemptsLeft = 0
	return Reply{Messages: []Message{markdown(text)}, Outcome: OutcomeLoss}
}

func (h *Hangman) solved() bool {
	for _, c := range h.secret {
		if _, ok := h.guessed[c]; !ok {
			return false
		}
	}
	return true
}

func (h *Hangman) masked() string {
	parts := make([]string, 0, len(h.secret))
	for _, c := range h.secret {
		if _, ok := h.guessed[c]; ok {
			parts = append(parts, string(c))
		} else {
			parts = append(parts, hiddenLetter)
		}
	}
	return strings.Join(parts, " ")
}

func (h *Hangman) wrongList() string {
	out := make([]string, 0, len(h.wrong))
	for c := range h.wrong {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}

func (h *Hangman) drawing() string {
	stage := hangmanAttempts - h.attemptsLeft
	if stage < 0 {
		stage = 0
	}
	if stage > hangmanAttempts {
		stage = hangmanAttempts
	}
	return "```" + gallows[stage] + "\n```"
}

func onlyLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !unicode.IsLetter(c) {
			return false
		}
	}
	return true
}
