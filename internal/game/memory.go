package game

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	memoryStartSize   = 2
	memoryMaxSize     = 7
	memoryStartReveal = 3 * time.Second
	memoryRevealStep  = 500 * time.Millisecond
	memoryMaxReveal   = 5 * time.Second

	IgnoreData = "ignore"
)

const (
	cellMarked  = "🔴"
	cellPlain   = "⚪"
	cellBlank   = "⬜"
	cellHit     = "🟢"
	cellMissed  = "🔴"
	markedShare = 0.3
)

type Cell struct {
	Row, Col int
}

func (c Cell) Data() string { return fmt.Sprintf("%d,%d", c.Row, c.Col) }

// ParseCell decodes button data of the form "row,col".
func ParseCell(data string) (Cell, bool) {
	r, c, ok := strings.Cut(data, ",")
	if !ok {
		return Cell{}, false
	}
	row, err := strconv.Atoi(strings.TrimSpace(r))
	if err != nil {
		return Cell{}, false
	}
	col, err := strconv.Atoi(strings.TrimSpace(c))
	if err != nil {
		return Cell{}, false
	}
	return Cell{Row: row, Col: col}, true
}

type memoryPhase int

const (
	phaseShowing memoryPhase = iota
	phaseAwaiting
	phaseOver
)

// MemoryGrid shows a pattern of red cells, hides it after the reveal
// duration and asks the player to click exactly those cells.
type MemoryGrid struct {
	src Source

	size       int
	stage      int
	roundsDone int
	reveal     time.Duration

	marked  map[Cell]struct{}
	clicked map[Cell]struct{}
	phase   memoryPhase
	token   uint64
}

func NewMemoryGrid(src Source) *MemoryGrid {
	return &MemoryGrid{src: src}
}

func (g *MemoryGrid) Kind() Kind { return KindMemory }
func (g *MemoryGrid) sealed()    {}

func (g *MemoryGrid) Size() int                     { return g.size }
func (g *MemoryGrid) Stage() int                    { return g.stage }
func (g *MemoryGrid) RoundsCompleted() int          { return g.roundsDone }
func (g *MemoryGrid) RoundsRequired() int           { return g.size }
func (g *MemoryGrid) RevealDuration() time.Duration { return g.reveal }
func (g *MemoryGrid) ClickedCount() int             { return len(g.clicked) }
func (g *MemoryGrid) Over() bool                    { return g.phase == phaseOver }

// AcceptingClicks reports whether the pattern has been hidden and clicks count.
func (g *MemoryGrid) AcceptingClicks() bool { return g.phase == phaseAwaiting }

// Marked returns the current pattern in row-major order.
func (g *MemoryGrid) Marked() []Cell {
	out := make([]Cell, 0, len(g.marked))
	for r := 0; r < g.size; r++ {
		for c := 0; c < g.size; c++ {
			if _, ok := g.marked[Cell{r, c}]; ok {
				out = append(out, Cell{r, c})
			}
		}
	}
	return out
}

func (g *MemoryGrid) Start() Reply {
	g.size = memoryStartSize
	g.stage = 1
	g.roundsDone = 0
	g.reveal = memoryStartReveal
	return g.newRound(false)
}

// Reveal hides the pattern for the round identified by token. Stale tokens
// and calls outside the showing phase do nothing.
func (g *MemoryGrid) Reveal(token uint64) Reply {
	if token != g.token || g.phase != phaseShowing {
		return Reply{}
	}
	g.phase = phaseAwaiting
	return say(g.gridMessage(g.caption("Click the squares that were red!"), g.clickGrid(), true))
}

func (g *MemoryGrid) Click(data string) Reply {
	if g.phase != phaseAwaiting {
		return Reply{}
	}
	cell, ok := ParseCell(data)
	if !ok || cell.Row < 0 || cell.Col < 0 || cell.Row >= g.size || cell.Col >= g.size {
		return Reply{}
	}
	if _, dup := g.clicked[cell]; dup {
		return Reply{}
	}
	g.clicked[cell] = struct{}{}

	if _, hit := g.marked[cell]; !hit {
		g.phase = phaseOver
		text := fmt.Sprintf(
			"💀 *Game Over!*\n\nYou clicked a wrong square.\nStage reached: %d (%dx%d)\nHere was the correct pattern:",
			g.stage, g.size, g.size,
		)
		return Reply{
			Messages: []Message{g.gridMessage(text, g.patternGrid(), true)},
			Outcome:  OutcomeLoss,
		}
	}

	if len(g.clicked) < len(g.marked) {
		return say(g.gridMessage(g.caption("Click the squares that were red!"), g.clickGrid(), true))
	}

	g.roundsDone++
	if g.roundsDone < g.RoundsRequired() {
		return g.newRound(true)
	}
	if g.size >= memoryMaxSize {
		g.phase = phaseOver
		return Reply{
			Messages: []Message{{
				Text:   "🎉 *Congratulations!* 🎉\n\nYou've completed all stages of the Memory Game!",
				Format: FormatMarkdown,
				Edit:   true,
			}},
			Outcome: OutcomeWin,
		}
	}

	g.size++
	g.stage++
	g.roundsDone = 0
	g.reveal = min(g.reveal+memoryRevealStep, memoryMaxReveal)
	return g.newRound(true)
}

func (g *MemoryGrid) newRound(edit bool) Reply {
	total := g.size * g.size
	lo := g.size
	hi := max(lo+1, int(float64(total)*markedShare))
	count := between(g.src, lo, hi)

	cells := make([]int, total)
	for i := range cells {
		cells[i] = i
	}
	g.src.Shuffle(total, func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })

	g.marked = make(map[Cell]struct{}, count)
	for _, idx := range cells[:count] {
		g.marked[Cell{Row: idx / g.size, Col: idx % g.size}] = struct{}{}
	}
	g.clicked = make(map[Cell]struct{})
	g.phase = phaseShowing
	g.token++

	text := g.caption(fmt.Sprintf("Find %d red squares!\nMemorize the pattern!", count))
	return Reply{
		Messages: []Message{g.gridMessage(text, g.patternGrid(), edit)},
		Schedule: &Transition{After: g.reveal, Token: g.token},
	}
}

func (g *MemoryGrid) caption(tail string) string {
	return fmt.Sprintf("🔍 *Memory Game - Stage %d*\n\nRound %d/%d at %dx%d\n%s",
		g.stage, g.roundsDone+1, g.RoundsRequired(), g.size, g.size, tail)
}

func (g *MemoryGrid) gridMessage(text string, grid [][]Button, edit bool) Message {
	return Message{Text: text, Format: FormatMarkdown, Grid: grid, Edit: edit}
}

func (g *MemoryGrid) patternGrid() [][]Button {
	return g.render(func(c Cell) Button {
		if _, ok := g.marked[c]; ok {
			return Button{Label: cellMarked, Data: IgnoreData}
		}
		return Button{Label: cellPlain, Data: IgnoreData}
	})
}

func (g *MemoryGrid) clickGrid() [][]Button {
	return g.render(func(c Cell) Button {
		label := cellBlank
		if _, clicked := g.clicked[c]; clicked {
			if _, ok := g.marked[c]; ok {
				label = cellHit
			} else {
				label = cellMissed
			}
		}
		return Button{Label: label, Data: c.Data()}
	})
}

func (g *MemoryGrid) render(cell func(Cell) Button) [][]Button {
	rows := make([][]Button, g.size)
	for r := range rows {
		rows[r] = make([]Button, g.size)
		for c := range rows[r] {
			rows[r][c] = cell(Cell{Row: r, Col: c})
		}
	}
	return rows
}
