package game

import (
	"errors"
	"math/big"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrSyntax         = errors.New("invalid expression")
)

// Evaluate computes an arithmetic expression exactly. It accepts numbers
// (with an optional fractional part), + - * /, unary signs and parentheses.
func Evaluate(src string) (*big.Rat, error) {
	p := &exprParser{src: src}
	v, err := p.sum()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, ErrSyntax
	}
	return v, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

// sum := product (('+'|'-') product)*
func (p *exprParser) sum() (*big.Rat, error) {
	left, err := p.product()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.product()
		if err != nil {
			return nil, err
		}
		if op == '+' {
			left = new(big.Rat).Add(left, right)
		} else {
			left = new(big.Rat).Sub(left, right)
		}
	}
}

// product := unary (('*'|'/') unary)*
func (p *exprParser) product() (*big.Rat, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op == '*' {
			left = new(big.Rat).Mul(left, right)
			continue
		}
		if right.Sign() == 0 {
			return nil, ErrDivisionByZero
		}
		left = new(big.Rat).Quo(left, right)
	}
}

// unary := ('+'|'-') unary | primary
func (p *exprParser) unary() (*big.Rat, error) {
	switch p.peek() {
	case '+':
		p.pos++
		return p.unary()
	case '-':
		p.pos++
		v, err := p.unary()
		if err != nil {
			return nil, err
		}
		return new(big.Rat).Neg(v), nil
	}
	return p.primary()
}

// primary := number | '(' sum ')'
func (p *exprParser) primary() (*big.Rat, error) {
	c := p.peek()
	if c == '(' {
		p.pos++
		v, err := p.sum()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, ErrSyntax
		}
		p.pos++
		return v, nil
	}

	start := p.pos
	dots := 0
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		if ch == '.' {
			dots++
		} else if ch < '0' || ch > '9' {
			break
		}
		p.pos++
	}
	lit := p.src[start:p.pos]
	if lit == "" || lit == "." || dots > 1 {
		return nil, ErrSyntax
	}
	v, ok := new(big.Rat).SetString(lit)
	if !ok {
		return nil, ErrSyntax
	}
	return v, nil
}
