package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"gamebot/internal/game"
	"gamebot/internal/lexicon"
)

type harness struct {
	d     *Dispatcher
	out   *fakeMessenger
	clock *fakeClock
	rec   *fakeRecorder
	src   *zeroSource
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	lex, err := lexicon.New(
		[]string{"speed"},
		[]string{"sheep"},
		[]string{"tiger", "rabbit", "tent", "planet"},
		[]string{"kiwi"},
	)
	if err != nil {
		t.Fatalf("lexicon: %v", err)
	}
	h := &harness{
		out:   &fakeMessenger{},
		clock: newFakeClock(),
		rec:   &fakeRecorder{},
		src:   &zeroSource{},
	}
	opts = append([]Option{WithClock(h.clock), WithRecorder(h.rec), WithName("test")}, opts...)
	h.d = NewDispatcher(game.NewFactory(lex, h.src), h.out, opts...)
	return h
}

var ctx = context.Background()

func TestNoActiveGame(t *testing.T) {
	h := newHarness(t)

	if err := h.d.HandleText(ctx, 1, "hello"); err != nil {
		t.Fatalf("HandleText: %v", err)
	}
	if got := h.out.last().text; got != MsgNoGame {
		t.Errorf("reply = %q, want %q", got, MsgNoGame)
	}

	h.out.reset()
	if err := h.d.HandleClick(ctx, 1, "0,0"); err != nil {
		t.Fatalf("HandleClick: %v", err)
	}
	if got := h.out.last().text; got != MsgNoGame {
		t.Errorf("click reply = %q, want %q", got, MsgNoGame)
	}
}

func TestWordGuessThroughDispatcher(t *testing.T) {
	h := newHarness(t)

	if err := h.d.SelectGame(ctx, 7, game.KindWordGuess); err != nil {
		t.Fatalf("SelectGame: %v", err)
	}
	if got := h.out.last().text; got != "New Wordle game started! Guess a 5-letter word:" {
		t.Fatalf("prompt = %q", got)
	}
	if kind, ok := h.d.Active(7); !ok || kind != game.KindWordGuess {
		t.Fatalf("Active = %q, %v", kind, ok)
	}

	h.d.HandleText(ctx, 7, "sheep")
	if got := h.out.last().text; got != "🟩 🟥 🟩 🟩 🟨 [5 attempts left]" {
		t.Errorf("feedback = %q", got)
	}

	h.out.reset()
	h.d.HandleText(ctx, 7, "speed")
	msgs := h.out.all()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages after win, want 2", len(msgs))
	}
	if msgs[0].text != "Congrats! You guessed the word: speed. You win!" || msgs[1].text != MsgGameOver {
		t.Errorf("win messages = %q, %q", msgs[0].text, msgs[1].text)
	}
	if _, ok := h.d.Active(7); ok {
		t.Error("session still active after win")
	}

	res := h.rec.all()
	if len(res) != 1 || res[0].Outcome != game.OutcomeWin || res[0].Aborted || res[0].Kind != game.KindWordGuess || res[0].Transport != "test" {
		t.Errorf("recorded %+v", res)
	}

	h.d.HandleText(ctx, 7, "speed")
	if got := h.out.last().text; got != MsgNoGame {
		t.Errorf("after game over reply = %q, want %q", got, MsgNoGame)
	}
}

func TestAbort(t *testing.T) {
	h := newHarness(t)

	stopped, err := h.d.Abort(ctx, 3)
	if err != nil || stopped {
		t.Fatalf("Abort without game = %v, %v", stopped, err)
	}
	if got := h.out.last().text; got != MsgNothingOn {
		t.Errorf("reply = %q", got)
	}

	h.d.SelectGame(ctx, 3, game.KindHangman)
	stopped, err = h.d.Abort(ctx, 3)
	if err != nil || !stopped {
		t.Fatalf("Abort = %v, %v", stopped, err)
	}
	if got := h.out.last().text; got != MsgStopped {
		t.Errorf("reply = %q", got)
	}
	if _, ok := h.d.Active(3); ok {
		t.Error("still active after abort")
	}
	if res := h.rec.all(); len(res) != 1 || !res[0].Aborted {
		t.Errorf("recorded %+v", res)
	}
}

func TestSelectReplacesActiveGame(t *testing.T) {
	h := newHarness(t)
	h.d.SelectGame(ctx, 4, game.KindWordGuess)
	h.d.SelectGame(ctx, 4, game.KindUnscramble)

	if kind, _ := h.d.Active(4); kind != game.KindUnscramble {
		t.Fatalf("active = %q, want unscramble", kind)
	}
	if res := h.rec.all(); len(res) != 1 || res[0].Kind != game.KindWordGuess || !res[0].Aborted {
		t.Errorf("replaced game recorded as %+v", res)
	}

	h.d.HandleText(ctx, 4, "tiger")
	msgs := h.out.all()
	if !strings.Contains(msgs[len(msgs)-2].text, "The word was \"tiger\"") {
		t.Errorf("unscramble did not receive the text: %+v", msgs[len(msgs)-2])
	}
}

func TestUnknownKind(t *testing.T) {
	h := newHarness(t)
	err := h.d.SelectGame(ctx, 1, game.Kind("chess"))
	if !errors.Is(err, game.ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrUnknownKind", err)
	}
}

func TestMemoryRevealIsScheduled(t *testing.T) {
	h := newHarness(t)
	h.d.SelectGame(ctx, 9, game.KindMemory)

	first := h.out.last()
	if first.op != "grid" || first.ref != 1 {
		t.Fatalf("pattern sent as %+v", first)
	}
	pending := h.clock.pending()
	if len(pending) != 1 || pending[0].after != 3*time.Second {
		t.Fatalf("pending timers = %d", len(pending))
	}

	h.d.HandleClick(ctx, 9, "0,0")
	if got := h.out.last(); got.op != "grid" {
		t.Error("click during pattern phase produced output")
	}

	h.clock.fireAll(false)
	blank := h.out.last()
	if blank.op != "edit" || blank.ref != 1 || blank.grid[0][0].Data != "0,0" {
		t.Fatalf("reveal delivered as %+v", blank)
	}

	h.d.HandleText(ctx, 9, "hello")
	if got := h.out.last().text; got != MsgUseButtons {
		t.Errorf("text to memory = %q", got)
	}

	h.d.HandleClick(ctx, 9, "0,0")
	h.d.HandleClick(ctx, 9, "0,1")
	next := h.out.last()
	if next.op != "edit" || !strings.Contains(next.text, "Round 2/2") {
		t.Errorf("second round = %+v", next)
	}
	if len(h.clock.pending()) != 1 {
		t.Errorf("second round did not arm a timer")
	}
}

func TestAbortCancelsReveal(t *testing.T) {
	h := newHarness(t)
	h.d.SelectGame(ctx, 5, game.KindMemory)
	h.d.Abort(ctx, 5)

	if n := len(h.clock.pending()); n != 0 {
		t.Fatalf("%d timers still armed after abort", n)
	}
	before := len(h.out.all())
	h.clock.fireAll(true)
	if after := len(h.out.all()); after != before {
		t.Errorf("stale timer delivered %d messages", after-before)
	}
}

func TestCloseEndsActiveGames(t *testing.T) {
	h := newHarness(t)
	h.d.SelectGame(ctx, 5, game.KindMemory)
	h.d.SelectGame(ctx, 6, game.KindHangman)
	h.d.HandleText(ctx, 8, "hi")
	before := len(h.out.all())

	h.d.Close()

	if n := len(h.clock.pending()); n != 0 {
		t.Fatalf("%d timers still armed after Close", n)
	}
	if len(h.out.all()) != before {
		t.Error("Close sent messages")
	}
	for _, id := range []int64{5, 6} {
		if _, ok := h.d.Active(id); ok {
			t.Errorf("user %d still has a game after Close", id)
		}
	}
	res := h.rec.all()
	if len(res) != 2 || !res[0].Aborted || !res[1].Aborted {
		t.Fatalf("recorded %+v, want two aborted games", res)
	}

	h.clock.fireAll(true)
	if len(h.out.all()) != before {
		t.Error("stale timer delivered after Close")
	}

	// a click on the old grid is answered, not dropped
	h.d.HandleClick(ctx, 5, "0,0")
	if got := h.out.last().text; got != MsgNoGame {
		t.Errorf("click after Close = %q, want %q", got, MsgNoGame)
	}
}

func TestReselectInvalidatesOldReveal(t *testing.T) {
	h := newHarness(t)
	h.d.SelectGame(ctx, 6, game.KindMemory)
	old := h.clock.pending()[0]

	h.d.SelectGame(ctx, 6, game.KindMemory)
	if !old.stopped {
		t.Error("old reveal timer not stopped")
	}
	before := len(h.out.all())
	old.fired = true
	old.fn()
	if len(h.out.all()) != before {
		t.Fatal("old timer acted on the new game")
	}

	h.clock.fireAll(false)
	if got := h.out.last(); got.op != "edit" || got.ref != 2 {
		t.Errorf("new reveal = %+v", got)
	}
}

func TestMemoryLossEndsSession(t *testing.T) {
	h := newHarness(t)
	h.d.SelectGame(ctx, 8, game.KindMemory)
	h.clock.fireAll(false)

	h.out.reset()
	h.d.HandleClick(ctx, 8, "1,1")
	msgs := h.out.all()
	if len(msgs) != 2 || msgs[0].op != "edit" || msgs[1].text != MsgGameOver {
		t.Fatalf("loss output = %+v", msgs)
	}
	if !strings.Contains(msgs[0].text, "Stage reached: 1 (2x2)") {
		t.Errorf("loss text = %q", msgs[0].text)
	}
	if _, ok := h.d.Active(8); ok {
		t.Error("still active after loss")
	}
	if res := h.rec.all(); len(res) != 1 || res[0].Outcome != game.OutcomeLoss {
		t.Errorf("recorded %+v", res)
	}
}

func TestIgnoredClicks(t *testing.T) {
	h := newHarness(t)
	h.d.SelectGame(ctx, 2, game.KindWordGuess)
	before := len(h.out.all())

	h.d.HandleClick(ctx, 2, game.IgnoreData)
	h.d.HandleClick(ctx, 2, "0,0")
	if after := len(h.out.all()); after != before {
		t.Errorf("clicks on a text game sent %d messages", after-before)
	}
}

func TestMarkdownFallsBackToPlain(t *testing.T) {
	h := newHarness(t)
	h.out.rejectMarkup = true

	if err := h.d.SelectGame(ctx, 11, game.KindHangman); err != nil {
		t.Fatalf("SelectGame: %v", err)
	}
	got := h.out.last()
	if got.format != game.FormatPlain || !strings.HasPrefix(got.text, "🎮 *Hangman Started!*") {
		t.Errorf("fallback message = %+v", got)
	}
}

func TestDeliveryErrorsAreReturned(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("network down")
	h.out.failAll = boom

	err := h.d.SelectGame(ctx, 12, game.KindWordGuess)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if _, ok := h.d.Active(12); !ok {
		t.Error("delivery failure must not drop the game")
	}
}

func TestHandlerPanicIsContained(t *testing.T) {
	h := newHarness(t)
	h.d.SelectGame(ctx, 13, game.KindWordChain)

	h.src.setPanic(true)
	if err := h.d.HandleText(ctx, 13, "rabbit"); err != nil {
		t.Fatalf("HandleText: %v", err)
	}
	h.src.setPanic(false)

	if got := h.out.last().text; got != MsgFault {
		t.Errorf("reply = %q, want %q", got, MsgFault)
	}
	if kind, ok := h.d.Active(13); !ok || kind != game.KindWordChain {
		t.Errorf("session changed by fault: %q %v", kind, ok)
	}
	if len(h.rec.all()) != 0 {
		t.Error("fault recorded a finished game")
	}
}

type brokenBuilder struct{}

func (brokenBuilder) New(game.Kind) (game.Game, error) {
	return game.NewWordGuess(nil, &zeroSource{}), nil
}

func TestStartPanicIsContained(t *testing.T) {
	out := &fakeMessenger{}
	d := NewDispatcher(brokenBuilder{}, out, WithClock(newFakeClock()))

	if err := d.SelectGame(ctx, 1, game.KindWordGuess); err != nil {
		t.Fatalf("SelectGame: %v", err)
	}
	if got := out.last().text; got != MsgFault {
		t.Errorf("reply = %q, want %q", got, MsgFault)
	}
	if _, ok := d.Active(1); ok {
		t.Error("failed start left a game active")
	}
}

func TestRateLimitedEvents(t *testing.T) {
	h := newHarness(t, WithLimiter(denyAll{}))

	h.d.SelectGame(ctx, 1, game.KindWordGuess)
	if got := h.out.last().text; got != MsgSlowDown {
		t.Errorf("reply = %q, want %q", got, MsgSlowDown)
	}
	if _, ok := h.d.Active(1); ok {
		t.Error("limited selection started a game")
	}
}

func TestConcurrentUsers(t *testing.T) {
	h := newHarness(t)
	const users = 20

	var wg sync.WaitGroup
	for u := int64(1); u <= users; u++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if err := h.d.SelectGame(ctx, id, game.KindWordGuess); err != nil {
				t.Errorf("user %d select: %v", id, err)
				return
			}
			for i := 0; i < 3; i++ {
				h.d.HandleText(ctx, id, "sheep")
			}
		}(u)
	}
	wg.Wait()

	perUser := make(map[int64][]string)
	for _, m := range h.out.all() {
		perUser[m.userID] = append(perUser[m.userID], m.text)
	}
	for u := int64(1); u <= users; u++ {
		got := perUser[u]
		if len(got) != 4 {
			t.Fatalf("user %d got %d messages, want 4", u, len(got))
		}
		if got[3] != "🟩 🟥 🟩 🟩 🟨 [3 attempts left]" {
			t.Errorf("user %d last = %q", u, got[3])
		}
	}
}

func TestSameUserEventsAreSerialized(t *testing.T) {
	h := newHarness(t)
	h.d.SelectGame(ctx, 1, game.KindWordGuess)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.d.HandleText(ctx, 1, "sheep")
		}()
	}
	wg.Wait()

	msgs := h.out.all()
	if len(msgs) != 6 {
		t.Fatalf("got %d messages, want 6", len(msgs))
	}
	seen := make(map[string]int)
	for _, m := range msgs[1:] {
		seen[m.text]++
	}
	for left := 1; left <= 5; left++ {
		want := fmt.Sprintf("🟩 🟥 🟩 🟩 🟨 [%d attempts left]", left)
		if seen[want] != 1 {
			t.Errorf("%q seen %d times, want once", want, seen[want])
		}
	}
}
