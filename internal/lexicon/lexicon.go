// Package lexicon holds the immutable word collections the games draw from.
//
// Four lists are kept:
//   - targets: 5-letter words a WordGuess round may pick as its answer
//   - valid: 5-letter words accepted as guesses (always includes targets)
//   - dictionary: general words for WordChain and Unscramble
//   - common: everyday words Hangman picks from
//
// Every list can be replaced by a file (one word per line). Lists left empty
// fall back to the embedded defaults under data/.
package lexicon

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// WordLength is the length of every target and valid guess.
const WordLength = 5

// LongWordMin is the shortest dictionary word Unscramble will use.
const LongWordMin = 5

//go:embed data/*.txt
var dataFS embed.FS

var (
	ErrNoTargets    = errors.New("lexicon: target list is empty")
	ErrNoDictionary = errors.New("lexicon: dictionary is empty")
	ErrNoCommon     = errors.New("lexicon: common word list is empty")
	ErrNoLongWords  = errors.New("lexicon: dictionary has no word long enough to scramble")
)

// Files names optional word list files. Empty fields use embedded data.
type Files struct {
	Targets    string
	Valid      string
	Dictionary string
	Common     string
}

type Lexicon struct {
	targets    []string
	valid      map[string]struct{}
	dictionary []string
	dictSet    map[string]struct{}
	common     []string
	byInitial  map[byte][]string
	long       []string
}

// New builds a Lexicon from raw lists. Entries are lowercased and trimmed;
// non-alphabetic entries, duplicates and wrongly sized 5-letter entries are dropped.
func New(targets, valid, dictionary, common []string) (*Lexicon, error) {
	l := &Lexicon{
		valid:     make(map[string]struct{}),
		dictSet:   make(map[string]struct{}),
		byInitial: make(map[byte][]string),
	}

	l.targets = normalize(targets, WordLength)
	if len(l.targets) == 0 {
		return nil, ErrNoTargets
	}
	for _, w := range l.targets {
		l.valid[w] = struct{}{}
	}
	for _, w := range normalize(valid, WordLength) {
		l.valid[w] = struct{}{}
	}

	l.dictionary = normalize(dictionary, 0)
	if len(l.dictionary) == 0 {
		return nil, ErrNoDictionary
	}
	for _, w := range l.dictionary {
		l.dictSet[w] = struct{}{}
		l.byInitial[w[0]] = append(l.byInitial[w[0]], w)
		if len(w) >= LongWordMin {
			l.long = append(l.long, w)
		}
	}
	if len(l.long) == 0 {
		return nil, ErrNoLongWords
	}

	l.common = normalize(common, 0)
	if len(l.common) == 0 {
		return nil, ErrNoCommon
	}
	return l, nil
}

// Load reads each configured file, falling back to embedded data for empty paths.
func Load(f Files) (*Lexicon, error) {
	lists := make([][]string, 4)
	for i, src := range []struct{ path, embedded string }{
		{f.Targets, "data/targets.txt"},
		{f.Valid, "data/valid.txt"},
		{f.Dictionary, "data/dictionary.txt"},
		{f.Common, "data/common.txt"},
	} {
		words, err := readList(src.path, src.embedded)
		if err != nil {
			return nil, err
		}
		lists[i] = words
	}
	return New(lists[0], lists[1], lists[2], lists[3])
}

// Default returns the embedded lexicon.
func Default() (*Lexicon, error) {
	return Load(Files{})
}

func readList(path, embedded string) ([]string, error) {
	if path == "" {
		fh, err := dataFS.Open(embedded)
		if err != nil {
			return nil, fmt.Errorf("open embedded %s: %w", embedded, err)
		}
		defer fh.Close()
		return readLines(fh)
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer fh.Close()
	words, err := readLines(fh)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return words, nil
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

// normalize lowercases, trims and dedups words. size > 0 keeps only words of that length.
func normalize(in []string, size int) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		w := strings.ToLower(strings.TrimSpace(raw))
		if w == "" || !isAlpha(w) {
			continue
		}
		if size > 0 && len(w) != size {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func isAlpha(w string) bool {
	for i := 0; i < len(w); i++ {
		if w[i] < 'a' || w[i] > 'z' {
			return false
		}
	}
	return true
}

// Targets returns the WordGuess answer pool. Callers must not modify it.
func (l *Lexicon) Targets() []string { return l.targets }

func (l *Lexicon) IsValidGuess(w string) bool {
	_, ok := l.valid[w]
	return ok
}

// Dictionary returns every dictionary word. Callers must not modify it.
func (l *Lexicon) Dictionary() []string { return l.dictionary }

func (l *Lexicon) InDictionary(w string) bool {
	_, ok := l.dictSet[w]
	return ok
}

// StartingWith returns the dictionary words whose first letter is c.
func (l *Lexicon) StartingWith(c byte) []string { return l.byInitial[c] }

// LongWords returns dictionary words of at least LongWordMin letters.
func (l *Lexicon) LongWords() []string { return l.long }

// Common returns the Hangman word pool.
func (l *Lexicon) Common() []string { return l.common }
