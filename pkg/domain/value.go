package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueType identifies which member of Value is populated.
type ValueType uint8

const (
	TypeEmpty ValueType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeText
	TypeGender
)

var valueTypeNames = [...]string{
	TypeEmpty:  "empty",
	TypeInt:    "int",
	TypeFloat:  "float",
	TypeBool:   "bool",
	TypeText:   "text",
	TypeGender: "gender",
}

func (t ValueType) String() string {
	if int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return "unknown"
}

// ParseValueType is the inverse of ValueType.String.
func ParseValueType(s string) (ValueType, error) {
	for i, name := range valueTypeNames {
		if name == s {
			return ValueType(i), nil
		}
	}
	return TypeEmpty, fmt.Errorf("unknown value type %q", s)
}

// Gender is the grammatical gender a variable can hold.
type Gender uint8

const (
	Neuter Gender = iota
	Masculine
	Feminine
)

func (g Gender) String() string {
	switch g {
	case Masculine:
		return "masculine"
	case Feminine:
		return "feminine"
	default:
		return "neuter"
	}
}

// ParseGender accepts the literal names used in scripts, case-insensitively.
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(s) {
	case "masculine":
		return Masculine, true
	case "feminine":
		return Feminine, true
	case "neuter":
		return Neuter, true
	}
	return Neuter, false
}

// Value is an immutable tagged variable value.
// The zero Value is Empty.
type Value struct {
	typ    ValueType
	i      int64
	f      float64
	b      bool
	s      string
	gender Gender
}

func IntValue(v int64) Value { return Value{typ: TypeInt, i: v} }
func FloatValue(v float64) Value { return Value{typ: TypeFloat, f: v} }
func BoolValue(v bool) Value { return Value{typ: TypeBool, b: v} }
func TextValue(v string) Value { return Value{typ: TypeText, s: v} }
func GenderValue(v Gender) Value { return Value{typ: TypeGender, gender: v} }
func (v Value) Type() ValueType { return v.typ }
func (v Value) IsEmpty() bool { return v.typ == TypeEmpty }
func (v Value) IsNumeric() bool { return v.typ == TypeInt || v.typ == TypeFloat }
func (v Value) Int() int64 { return v.i }
func (v Value) Bool() bool { return v.b }
func (v Value) Text() string { return v.s }
func (v Value) Gender() Gender { return v.gender }

// Float returns the value as a float, promoting ints.
func (v Value) Float() float64 {
	if v.typ == TypeInt {
		return float64(v.i)
	}
	return v.f
}

// Truthy reports the boolean reading of v. Only a true Bool is truthy.
func (v Value) Truthy() bool {
	return v.typ == TypeBool && v.b
}

// Equal compares type-aware: ints and floats compare numerically,
// every other combination of differing types is unequal.
func (v Value) Equal(o Value) bool {
	if v.IsNumeric() && o.IsNumeric() {
		if v.typ == TypeInt && o.typ == TypeInt {
			return v.i == o.i
		}
		return v.Float() == o.Float()
	}
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeBool:
		return v.b == o.b
	case TypeText:
		return v.s == o.s
	case TypeGender:
		return v.gender == o.gender
	}
	return true
}

// String renders the value the way it is substituted into dialogue text.
func (v Value) String() string {
	switch v.typ {
	case TypeInt:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case TypeBool:
		if v.b {
			return "true"
		}
		return "false"
	case TypeText:
		return v.s
	case TypeGender:
		return v.gender.String()
	}
	return ""
}

type valueJSON struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON writes {"type": ..., "value": ...} so the type survives a round trip.
func (v Value) MarshalJSON() ([]byte, error) {
	var raw any
	switch v.typ {
	case TypeInt:
		raw = v.i
	case TypeFloat:
		raw = v.f
	case TypeBool:
		raw = v.b
	case TypeText:
		raw = v.s
	case TypeGender:
		raw = v.gender.String()
	}
	out := valueJSON{Type: v.typ.String()}
	if raw != nil {
		b, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		out.Value = b
	}
	return json.Marshal(out)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var in valueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	typ, err := ParseValueType(in.Type)
	if err != nil {
		return err
	}
	*v = Value{typ: typ}
	if typ == TypeEmpty {
		return nil
	}
	if len(in.Value) == 0 {
		return fmt.Errorf("value of type %s has no value", typ)
	}
	switch typ {
	case TypeInt:
		return json.Unmarshal(in.Value, &v.i)
	case TypeFloat:
		return json.Unmarshal(in.Value, &v.f)
	case TypeBool:
		return json.Unmarshal(in.Value, &v.b)
	case TypeText:
		return json.Unmarshal(in.Value, &v.s)
	case TypeGender:
		var s string
		if err := json.Unmarshal(in.Value, &s); err != nil {
			return err
		}
		g, ok := ParseGender(s)
		if !ok {
			return fmt.Errorf("unknown gender %q", s)
		}
		v.gender = g
	}
	return nil
}

// Variables is a named set of values.
type Variables map[string]Value

// Clone returns an independent copy. Values are immutable so a shallow copy suffices.
func (vs Variables) Clone() Variables {
	out := make(Variables, len(vs))
	for k, v := range vs {
		out[k] = v
	}
	return out
}
