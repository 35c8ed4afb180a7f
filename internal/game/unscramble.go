package game

import (
	"fmt"

	"gamebot/internal/lexicon"
)

type Unscramble struct {
	lex *lexicon.Lexicon
	src Source

	word      string
	scrambled string
	solved    int
}

func NewUnscramble(lex *lexicon.Lexicon, src Source) *Unscramble {
	return &Unscramble{lex: lex, src: src}
}

func (u *Unscramble) Kind() Kind { return KindUnscramble }
func (u *Unscramble) sealed()    {}

func (u *Unscramble) Word() string      { return u.word }
func (u *Unscramble) Scrambled() string { return u.scrambled }
func (u *Unscramble) Solved() int       { return u.solved }

func (u *Unscramble) Start() Reply {
	u.solved = 0
	return say(u.nextRound())
}

func (u *Unscramble) Guess(text string) Reply {
	guess := normalizeInput(text)
	if guess == "" {
		return say(plain("Please enter a word or type /stop to end the game."))
	}
	if guess != u.word {
		return say(plain("❌ That's not correct. Try again or type /stop to end the game."))
	}

	u.solved++
	done := markdown(fmt.Sprintf("✅ *Correct!* The word was \"%s\".", u.word))
	return say(done, u.nextRound())
}

func (u *Unscramble) nextRound() Message {
	u.word = pick(u.src, u.lex.LongWords())

	letters := []rune(u.word)
	u.src.Shuffle(len(letters), func(i, j int) {
		letters[i], letters[j] = letters[j], letters[i]
	})
	u.scrambled = string(letters)

	return markdown(fmt.Sprintf(
		"🔑 *New Unscramble Challenge!*\nUnscramble this word: *%s*\nReply with your guess or type /stop to end the game.",
		u.scrambled,
	))
}
