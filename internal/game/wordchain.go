package game

import (
	"fmt"

	"gamebot/internal/lexicon"
)

// WordChain is a duel: each word must start with the last letter of the
// previous one, and no word may be played twice.
type WordChain struct {
	lex *lexicon.Lexicon
	src Source

	current string
	used    map[string]struct{}
}

func NewWordChain(lex *lexicon.Lexicon, src Source) *WordChain {
	return &WordChain{lex: lex, src: src}
}

func (w *WordChain) Kind() Kind { return KindWordChain }
func (w *WordChain) sealed()    {}

func (w *WordChain) Current() string { return w.current }
func (w *WordChain) UsedCount() int  { return len(w.used) }

func (w *WordChain) Used(word string) bool {
	_, ok := w.used[word]
	return ok
}

func (w *WordChain) Start() Reply {
	w.current = pick(w.src, w.lex.Dictionary())
	w.used = map[string]struct{}{w.current: {}}

	return say(plain(fmt.Sprintf(
		"🌟 Word Chain Game Started! 🌟\nMy first word is: %s\nYour turn! Reply with a word starting with \"%c\"",
		w.current, lastLetter(w.current),
	)))
}

func (w *WordChain) Check(text string) Reply {
	word := normalizeInput(text)
	want := lastLetter(w.current)

	switch {
	case word == "":
		return w.lose("You didn't enter a word! Game over.")
	case word[0] != want:
		return w.lose(fmt.Sprintf("❌ Your word \"%s\" doesn't start with \"%c\". Game over!", word, want))
	case !w.lex.InDictionary(word):
		return w.lose(fmt.Sprintf("❌ \"%s\" is not in the dictionary. Game over!", word))
	case w.Used(word):
		return w.lose(fmt.Sprintf("❌ \"%s\" was already used. Game over!", word))
	}

	w.used[word] = struct{}{}
	w.current = word

	answer, ok := w.botWord(lastLetter(word))
	if !ok {
		return Reply{
			Messages: []Message{plain(fmt.Sprintf(
				"✅ Your word: %s\n🏆 I can't think of a word starting with \"%c\"! You win!",
				word, lastLetter(word),
			))},
			Outcome: OutcomeWin,
		}
	}

	w.used[answer] = struct{}{}
	w.current = answer
	return say(plain(fmt.Sprintf(
		"✅ Your word: %s\n🤖 My word: %s\nYour turn! Reply with a word starting with \"%c\"",
		word, answer, lastLetter(answer),
	)))
}

// botWord picks uniformly among unused dictionary words starting with c.
func (w *WordChain) botWord(c byte) (string, bool) {
	var options []string
	for _, cand := range w.lex.StartingWith(c) {
		if !w.Used(cand) {
			options = append(options, cand)
		}
	}
	if len(options) == 0 {
		return "", false
	}
	return pick(w.src, options), true
}

func (w *WordChain) lose(text string) Reply {
	return Reply{Messages: []Message{plain(text)}, Outcome: OutcomeLoss}
}

func lastLetter(word string) byte {
	return word[len(word)-1]
}
