package game

import (
	"fmt"

	"gamebot/internal/lexicon"
)

type Factory struct {
	lex *lexicon.Lexicon
	src Source
}

func NewFactory(lex *lexicon.Lexicon, src Source) *Factory {
	return &Factory{lex: lex, src: src}
}

// New builds an unstarted machine of the given kind.
func (f *Factory) New(kind Kind) (Game, error) {
	switch kind {
	case KindWordGuess:
		return NewWordGuess(f.lex, f.src), nil
	case KindHangman:
		return NewHangman(f.lex, f.src), nil
	case KindWordChain:
		return NewWordChain(f.lex, f.src), nil
	case KindUnscramble:
		return NewUnscramble(f.lex, f.src), nil
	case KindMath:
		return NewMathPuzzle(f.src), nil
	case KindMemory:
		return NewMemoryGrid(f.src), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}
