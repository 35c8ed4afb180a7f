package session

import (
	"context"
	"sync"
	"time"

	"gamebot/internal/game"
)

type sent struct {
	op     string // text, grid, edit
	userID int64
	text   string
	format game.Format
	grid   [][]game.Button
	ref    MessageRef
}

type fakeMessenger struct {
	mu           sync.Mutex
	sent         []sent
	nextRef      MessageRef
	rejectMarkup bool
	failAll      error
}

func (f *fakeMessenger) record(s sent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	if f.rejectMarkup && s.format == game.FormatMarkdown {
		return ErrBadFormatting
	}
	f.sent = append(f.sent, s)
	return nil
}

func (f *fakeMessenger) SendText(_ context.Context, userID int64, text string, format game.Format) error {
	return f.record(sent{op: "text", userID: userID, text: text, format: format})
}

func (f *fakeMessenger) SendGrid(_ context.Context, userID int64, text string, format game.Format, grid [][]game.Button) (MessageRef, error) {
	f.mu.Lock()
	f.nextRef++
	ref := f.nextRef
	f.mu.Unlock()
	if err := f.record(sent{op: "grid", userID: userID, text: text, format: format, grid: grid, ref: ref}); err != nil {
		return 0, err
	}
	return ref, nil
}

func (f *fakeMessenger) EditGrid(_ context.Context, userID int64, ref MessageRef, text string, format game.Format, grid [][]game.Button) error {
	return f.record(sent{op: "edit", userID: userID, text: text, format: format, grid: grid, ref: ref})
}

func (f *fakeMessenger) all() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sent, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeMessenger) last() sent {
	all := f.all()
	if len(all) == 0 {
		return sent{}
	}
	return all[len(all)-1]
}

func (f *fakeMessenger) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

type fakeTimer struct {
	clock   *fakeClock
	after   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

// fakeClock records timers; tests fire them explicitly.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, after: d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// pending returns timers that were neither stopped nor fired.
func (c *fakeClock) pending() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fireAll runs every timer that is still armed, including stopped ones when
// force is set, to mimic a timer that raced with Stop.
func (c *fakeClock) fireAll(force bool) int {
	c.mu.Lock()
	var run []*fakeTimer
	for _, t := range c.timers {
		if t.fired || (t.stopped && !force) {
			continue
		}
		t.fired = true
		run = append(run, t)
	}
	c.mu.Unlock()
	for _, t := range run {
		t.fn()
	}
	return len(run)
}

type fakeRecorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *fakeRecorder) Record(_ context.Context, res Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	return nil
}

func (r *fakeRecorder) all() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

type denyAll struct{}

func (denyAll) Allow(context.Context, int64) bool { return false }

// zeroSource always picks the first option and never reorders.
type zeroSource struct {
	mu    sync.Mutex
	panic bool
}

func (z *zeroSource) Intn(int) int {
	z.mu.Lock()
	defer z.mu.Unlock()
	if z.panic {
		panic("source exhausted")
	}
	return 0
}

func (z *zeroSource) Shuffle(int, func(i, j int)) {}

func (z *zeroSource) setPanic(v bool) {
	z.mu.Lock()
	z.panic = v
	z.mu.Unlock()
}
