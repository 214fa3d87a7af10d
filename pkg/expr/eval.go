package expr

import (
	"errors"
	"fmt"
	"math"

	"github.com/aretw0/parley/pkg/domain"
)

// ErrDivideByZero is returned when an integer or float division has a zero divisor.
var ErrDivideByZero = errors.New("division by zero")

type node interface {
	eval(vars domain.Variables) (domain.Value, error)
}

type literal struct{ v domain.Value }

func (n literal) eval(domain.Variables) (domain.Value, error) { return n.v, nil }

type variable struct{ name string }

func (n variable) eval(vars domain.Variables) (domain.Value, error) {
	return vars[n.name], nil
}

type unary struct {
	op      string
	operand node
}

func (n unary) eval(vars domain.Variables) (domain.Value, error) {
	v, err := n.operand.eval(vars)
	if err != nil {
		return domain.Value{}, err
	}
	switch n.op {
	case "not":
		if t := v.Type(); t != domain.TypeBool && t != domain.TypeEmpty {
			return domain.Value{}, fmt.Errorf("cannot negate %s", t)
		}
		return domain.BoolValue(!v.Truthy()), nil
	case "-":
		v = numeric(v)
		if !v.IsNumeric() {
			return domain.Value{}, fmt.Errorf("cannot negate %s", v.Type())
		}
		return negate(v), nil
	}
	return domain.Value{}, fmt.Errorf("unknown operator %q", n.op)
}

type binary struct {
	op          string
	left, right node
}

func (n binary) eval(vars domain.Variables) (domain.Value, error) {
	l, err := n.left.eval(vars)
	if err != nil {
		return domain.Value{}, err
	}
	// and/or short-circuit
	switch n.op {
	case "and", "or":
		lb, err := asBool(l)
		if err != nil {
			return domain.Value{}, err
		}
		if n.op == "and" && !lb || n.op == "or" && lb {
			return domain.BoolValue(lb), nil
		}
		r, err := n.right.eval(vars)
		if err != nil {
			return domain.Value{}, err
		}
		rb, err := asBool(r)
		if err != nil {
			return domain.Value{}, err
		}
		return domain.BoolValue(rb), nil
	}

	r, err := n.right.eval(vars)
	if err != nil {
		return domain.Value{}, err
	}
	switch n.op {
	case "==":
		return domain.BoolValue(emptyAsZero(l, r).Equal(emptyAsZero(r, l))), nil
	case "!=":
		return domain.BoolValue(!emptyAsZero(l, r).Equal(emptyAsZero(r, l))), nil
	case "<", "<=", ">", ">=":
		return compare(n.op, l, r)
	case "+":
		if l.Type() == domain.TypeText && r.Type() == domain.TypeText {
			return domain.TextValue(l.Text() + r.Text()), nil
		}
		return arithmetic(n.op, l, r)
	case "-", "*", "/", "%":
		return arithmetic(n.op, l, r)
	}
	return domain.Value{}, fmt.Errorf("unknown operator %q", n.op)
}

func asBool(v domain.Value) (bool, error) {
	switch v.Type() {
	case domain.TypeBool, domain.TypeEmpty:
		return v.Truthy(), nil
	}
	return false, fmt.Errorf("%s used as a condition", v.Type())
}

// numeric reads Empty as int 0 so unset counters can be incremented.
func numeric(v domain.Value) domain.Value {
	if v.IsEmpty() {
		return domain.IntValue(0)
	}
	return v
}

// emptyAsZero adapts an unset variable to the type of the other operand,
// so {Unset} == 0, {Unset} == false and {Unset} == "" all hold.
func emptyAsZero(v, other domain.Value) domain.Value {
	if !v.IsEmpty() {
		return v
	}
	switch other.Type() {
	case domain.TypeInt:
		return domain.IntValue(0)
	case domain.TypeFloat:
		return domain.FloatValue(0)
	case domain.TypeBool:
		return domain.BoolValue(false)
	case domain.TypeText:
		return domain.TextValue("")
	case domain.TypeGender:
		return domain.GenderValue(domain.Neuter)
	}
	return v
}

func negate(v domain.Value) domain.Value {
	if v.Type() == domain.TypeInt {
		return domain.IntValue(-v.Int())
	}
	return domain.FloatValue(-v.Float())
}

func arithmetic(op string, l, r domain.Value) (domain.Value, error) {
	l, r = numeric(l), numeric(r)
	if !l.IsNumeric() || !r.IsNumeric() {
		return domain.Value{}, fmt.Errorf("cannot apply %q to %s and %s", op, l.Type(), r.Type())
	}
	if l.Type() == domain.TypeInt && r.Type() == domain.TypeInt {
		a, b := l.Int(), r.Int()
		switch op {
		case "+":
			return domain.IntValue(a + b), nil
		case "-":
			return domain.IntValue(a - b), nil
		case "*":
			return domain.IntValue(a * b), nil
		case "/", "%":
			if b == 0 {
				return domain.Value{}, ErrDivideByZero
			}
			if op == "/" {
				return domain.IntValue(a / b), nil
			}
			return domain.IntValue(a % b), nil
		}
	}
	a, b := l.Float(), r.Float()
	switch op {
	case "+":
		return domain.FloatValue(a + b), nil
	case "-":
		return domain.FloatValue(a - b), nil
	case "*":
		return domain.FloatValue(a * b), nil
	case "/", "%":
		if b == 0 {
			return domain.Value{}, ErrDivideByZero
		}
		if op == "/" {
			return domain.FloatValue(a / b), nil
		}
		return domain.FloatValue(math.Mod(a, b)), nil
	}
	return domain.Value{}, fmt.Errorf("unknown operator %q", op)
}

func compare(op string, l, r domain.Value) (domain.Value, error) {
	var c int
	switch {
	case l.Type() == domain.TypeText && r.Type() == domain.TypeText:
		switch {
		case l.Text() < r.Text():
			c = -1
		case l.Text() > r.Text():
			c = 1
		}
	default:
		l, r = numeric(l), numeric(r)
		if !l.IsNumeric() || !r.IsNumeric() {
			return domain.Value{}, fmt.Errorf("cannot compare %s and %s", l.Type(), r.Type())
		}
		a, b := l.Float(), r.Float()
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	}
	var res bool
	switch op {
	case "<":
		res = c < 0
	case "<=":
		res = c <= 0
	case ">":
		res = c > 0
	case ">=":
		res = c >= 0
	}
	return domain.BoolValue(res), nil
}
