package indices

import (
	"fmt"
	"math"
	"sort"
)

// Op is a binary arithmetic operator of an expression tree.
type Op byte

const (
	OpAdd Op = '+'
	OpSub Op = '-'
	OpMul Op = '*'
	OpDiv Op = '/'
)

// Expr is a band-math expression over named variables. The same tree is
// evaluated per pixel by the local engine and compiled to server-side
// image arithmetic by the remote one.
type Expr interface {
	Eval(vars map[string]float64) float64
	String() string
}

type Var string

type Const float64

type Binary struct {
	Op          Op
	Left, Right Expr
}

func (v Var) Eval(vars map[string]float64) float64 {
	value, ok := vars[string(v)]
	if !ok {
		return math.NaN()
	}
	return value
}

func (v Var) String() string { return string(v) }

func (c Const) Eval(map[string]float64) float64 { return float64(c) }

func (c Const) String() string { return fmt.Sprintf("%g", float64(c)) }

func (b Binary) Eval(vars map[string]float64) float64 {
	l, r := b.Left.Eval(vars), b.Right.Eval(vars)
	return Apply(b.Op, l, r)
}

func (b Binary) String() string {
	return fmt.Sprintf("(%s %c %s)", b.Left, b.Op, b.Right)
}

// Apply evaluates a single operator. Division by zero yields NaN, which is
// treated as no-data everywhere in this module.
func Apply(op Op, l, r float64) float64 {
	switch op {
	case OpAdd:
		return l + r
	case OpSub:
		return l - r
	case OpMul:
		return l * r
	case OpDiv:
		if r == 0 {
			return math.NaN()
		}
		return l / r
	}
	return math.NaN()
}

func Add(l, r Expr) Expr { return Binary{OpAdd, l, r} }
func Sub(l, r Expr) Expr { return Binary{OpSub, l, r} }
func Mul(l, r Expr) Expr { return Binary{OpMul, l, r} }
func Div(l, r Expr) Expr { return Binary{OpDiv, l, r} }

// Vars returns the sorted, de-duplicated variable names used by e.
func Vars(e Expr) []string {
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case Var:
			seen[string(n)] = true
		case Binary:
			walk(n.Left)
			walk(n.Right)
		}
	}
	walk(e)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
