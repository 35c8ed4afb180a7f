package game

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

const (
	mathOperandCount = 4
	mathOperandMax   = 15
	mathTargetLimit  = 100

	// operand redraws before falling back to a plain sum
	mathGenerateAttempts = 500

	solutionToken = "$solution"
)

var mathOperators = [...]byte{'+', '-', '*', '/'}

// Every binary tree over four ordered operands. Arguments are a, op1, b, op2, c, op3, d.
var mathShapes = [...]string{
	"((%d %c %d) %c %d) %c %d",
	"(%d %c (%d %c %d)) %c %d",
	"%d %c ((%d %c %d) %c %d)",
	"%d %c (%d %c (%d %c %d))",
	"(%d %c %d) %c (%d %c %d)",
}

var (
	mathNumberRe  = regexp.MustCompile(`\d+`)
	mathAllowedRe = regexp.MustCompile(`^[\d+\-*/(). ]+$`)
)

// MathPuzzle asks for an expression over four given numbers that hits a target.
type MathPuzzle struct {
	src Source

	operands []int
	target   int
	solution string
	solved   int
}

func NewMathPuzzle(src Source) *MathPuzzle {
	return &MathPuzzle{src: src}
}

func (m *MathPuzzle) Kind() Kind { return KindMath }
func (m *MathPuzzle) sealed()    {}

func (m *MathPuzzle) Operands() []int  { return slices.Clone(m.operands) }
func (m *MathPuzzle) Target() int      { return m.target }
func (m *MathPuzzle) Solution() string { return m.solution }

// Solved counts puzzles answered correctly since Start. Revealed ones do not count.
func (m *MathPuzzle) Solved() int { return m.solved }

func (m *MathPuzzle) Start() Reply {
	m.solved = 0
	return say(m.nextRound())
}

func (m *MathPuzzle) Solve(text string) Reply {
	input := strings.TrimSpace(text)
	if input == "" {
		return say(plain("Please enter a solution or type /stop to end the game."))
	}

	if strings.ToLower(input) == solutionToken {
		reveal := plain(fmt.Sprintf("💡 The solution was:\n%s = %d\n\nStarting a new challenge...", m.solution, m.target))
		return say(reveal, m.nextRound())
	}

	ok, verdict := m.verify(input)
	if !ok {
		return say(plain(verdict))
	}
	m.solved++
	return say(plain(verdict), m.nextRound())
}

func (m *MathPuzzle) verify(input string) (bool, string) {
	var used []int
	for _, tok := range mathNumberRe.FindAllString(input, -1) {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return false, "You must use exactly the provided numbers."
		}
		used = append(used, n)
	}
	want := slices.Clone(m.operands)
	slices.Sort(used)
	slices.Sort(want)
	if !slices.Equal(used, want) {
		return false, "You must use exactly the provided numbers."
	}

	if !mathAllowedRe.MatchString(input) {
		return false, "Only numbers, +, -, *, /, and parentheses are allowed."
	}

	v, err := Evaluate(input)
	switch {
	case errors.Is(err, ErrDivisionByZero):
		return false, "❌ Division by zero is not allowed."
	case err != nil:
		return false, "❌ Invalid mathematical expression."
	case !v.IsInt():
		return false, "Result must be a whole number."
	}

	got := v.Num()
	if !got.IsInt64() || got.Int64() != int64(m.target) {
		return false, fmt.Sprintf("❌ Incorrect. Your solution equals %s, but the target is %d.", got.String(), m.target)
	}
	return true, fmt.Sprintf("✅ Correct! The computer's solution was: %s = %d", m.solution, m.target)
}

func (m *MathPuzzle) nextRound() Message {
	m.generate()

	nums := make([]string, len(m.operands))
	for i, n := range m.operands {
		nums[i] = strconv.Itoa(n)
	}
	return markdown(fmt.Sprintf(
		"🧮 *Math Challenge!*\nUse these numbers: %s\nTarget: *%d*\n"+
			"Combine them with +, -, \\*, / and parentheses to reach the target.\n"+
			"Example: (3 + 5) \\* 2\n"+
			"Type /stop to end the game or %s to see the answer.",
		strings.Join(nums, ", "), m.target, solutionToken,
	))
}

// generate draws operands and operators until some shape evaluates to an
// acceptable target. After mathGenerateAttempts draws the last operands are
// simply summed, which always lands in range.
func (m *MathPuzzle) generate() {
	nums := make([]int, mathOperandCount)
	for attempt := 0; attempt < mathGenerateAttempts; attempt++ {
		for i := range nums {
			nums[i] = between(m.src, 1, mathOperandMax)
		}
		var ops [3]byte
		for i := range ops {
			ops[i] = mathOperators[m.src.Intn(len(mathOperators))]
		}

		order := []int{0, 1, 2, 3, 4}
		m.src.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for _, idx := range order {
			expr := fmt.Sprintf(mathShapes[idx], nums[0], ops[0], nums[1], ops[1], nums[2], ops[2], nums[3])
			target, ok := acceptableTarget(expr)
			if !ok {
				continue
			}
			m.set(nums, target, expr)
			return
		}
	}

	expr := fmt.Sprintf(mathShapes[0], nums[0], '+', nums[1], '+', nums[2], '+', nums[3])
	m.set(nums, nums[0]+nums[1]+nums[2]+nums[3], expr)
}

func (m *MathPuzzle) set(nums []int, target int, expr string) {
	m.operands = slices.Clone(nums)
	m.target = target
	m.solution = expr
}

func acceptableTarget(expr string) (int, bool) {
	v, err := Evaluate(expr)
	if err != nil || !v.IsInt() {
		return 0, false
	}
	n := v.Num()
	if !n.IsInt64() {
		return 0, false
	}
	t := n.Int64()
	if t == 0 || t < -mathTargetLimit || t > mathTargetLimit {
		return 0, false
	}
	return int(t), true
}
