package tracepoint

import (
	"strconv"

	"github.com/codetracer/db-backend/internal/value"
)

// unaryOp and binaryOp mirror the original engine's op(operand,
// error_value_type) -> Result<Value, Value> shape (spec §4.8): an error
// result is itself a Value{kind=Error}, not a Go error, so it can be pushed
// back onto the stack and propagate through subsequent operations.
type unaryOp func(v value.Value) value.Value
type binaryOp func(l, r value.Value) value.Value

var unaryOps = map[string]unaryOp{
	"!": func(v value.Value) value.Value {
		if v.IsError() {
			return v
		}
		if v.Kind != value.KindBool {
			return value.Error("'!' expects a bool operand")
		}
		return value.Bool(!v.B)
	},
	"-": func(v value.Value) value.Value {
		if v.IsError() {
			return v
		}
		switch v.Kind {
		case value.KindInt:
			i, err := strconv.ParseInt(v.I, 10, 64)
			if err != nil {
				return value.Error("invalid int operand for unary '-'")
			}
			return value.Int(-i)
		case value.KindFloat:
			f, err := strconv.ParseFloat(v.F, 64)
			if err != nil {
				return value.Error("invalid float operand for unary '-'")
			}
			return value.Float(-f)
		default:
			return value.Error("'-' expects a numeric operand")
		}
	},
}

var binaryOps = map[string]binaryOp{
	"==": cmpOp(func(c int) bool { return c == 0 }),
	"!=": cmpOp(func(c int) bool { return c != 0 }),
	"<":  cmpOp(func(c int) bool { return c < 0 }),
	">":  cmpOp(func(c int) bool { return c > 0 }),
	"<=": cmpOp(func(c int) bool { return c <= 0 }),
	">=": cmpOp(func(c int) bool { return c >= 0 }),
	"&&": func(l, r value.Value) value.Value { return boolBinary(l, r, func(a, b bool) bool { return a && b }) },
	"||": func(l, r value.Value) value.Value { return boolBinary(l, r, func(a, b bool) bool { return a || b }) },
	"+": arith(func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }),
	"-": arith(func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }),
	"*": arith(func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }),
	"/": divOp,
	"%": modOp,
}

func divOp(l, r value.Value) value.Value {
	if l.IsError() {
		return l
	}
	if r.IsError() {
		return r
	}
	if l.Kind == value.KindInt && r.Kind == value.KindInt {
		li, errL := strconv.ParseInt(l.I, 10, 64)
		ri, errR := strconv.ParseInt(r.I, 10, 64)
		if errL != nil || errR != nil {
			return value.Error("invalid int literal")
		}
		if ri == 0 {
			return value.Error("division by zero")
		}
		return value.Int(li / ri)
	}
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if !lok || !rok {
		return value.Error("arithmetic operator expects numeric operands")
	}
	if rf == 0 {
		return value.Error("division by zero")
	}
	return value.Float(lf / rf)
}

func modOp(l, r value.Value) value.Value {
	if l.IsError() {
		return l
	}
	if r.IsError() {
		return r
	}
	if l.Kind == value.KindInt && r.Kind == value.KindInt {
		li, errL := strconv.ParseInt(l.I, 10, 64)
		ri, errR := strconv.ParseInt(r.I, 10, 64)
		if errL != nil || errR != nil {
			return value.Error("invalid int literal")
		}
		if ri == 0 {
			return value.Error("division by zero")
		}
		return value.Int(li % ri)
	}
	return value.Error("'%' expects int operands")
}

func boolBinary(l, r value.Value, f func(a, b bool) bool) value.Value {
	if l.IsError() {
		return l
	}
	if r.IsError() {
		return r
	}
	if l.Kind != value.KindBool || r.Kind != value.KindBool {
		return value.Error("logical operator expects bool operands")
	}
	return value.Bool(f(l.B, r.B))
}

func numericCompare(l, r value.Value) (int, value.Value, bool) {
	if l.IsError() {
		return 0, l, false
	}
	if r.IsError() {
		return 0, r, false
	}
	switch {
	case l.Kind == value.KindInt && r.Kind == value.KindInt:
		li, errL := strconv.ParseInt(l.I, 10, 64)
		ri, errR := strconv.ParseInt(r.I, 10, 64)
		if errL != nil || errR != nil {
			return 0, value.Error("invalid int literal"), false
		}
		switch {
		case li < ri:
			return -1, value.Value{}, true
		case li > ri:
			return 1, value.Value{}, true
		default:
			return 0, value.Value{}, true
		}
	case l.Kind == value.KindString && r.Kind == value.KindString:
		switch {
		case l.Text < r.Text:
			return -1, value.Value{}, true
		case l.Text > r.Text:
			return 1, value.Value{}, true
		default:
			return 0, value.Value{}, true
		}
	case l.Kind == value.KindBool && r.Kind == value.KindBool:
		if l.B == r.B {
			return 0, value.Value{}, true
		}
		if !l.B && r.B {
			return -1, value.Value{}, true
		}
		return 1, value.Value{}, true
	default:
		lf, lok := asFloat(l)
		rf, rok := asFloat(r)
		if !lok || !rok {
			return 0, value.Error("operands are not comparable"), false
		}
		switch {
		case lf < rf:
			return -1, value.Value{}, true
		case lf > rf:
			return 1, value.Value{}, true
		default:
			return 0, value.Value{}, true
		}
	}
}

func asFloat(v value.Value) (float64, bool) {
	switch v.Kind {
	case value.KindInt:
		i, err := strconv.ParseInt(v.I, 10, 64)
		return float64(i), err == nil
	case value.KindFloat:
		f, err := strconv.ParseFloat(v.F, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func cmpOp(accept func(c int) bool) binaryOp {
	return func(l, r value.Value) value.Value {
		c, errVal, ok := numericCompare(l, r)
		if !ok {
			return errVal
		}
		return value.Bool(accept(c))
	}
}

func arith(intOp func(a, b int64) int64, floatOp func(a, b float64) float64) binaryOp {
	return func(l, r value.Value) value.Value {
		if l.IsError() {
			return l
		}
		if r.IsError() {
			return r
		}
		if l.Kind == value.KindInt && r.Kind == value.KindInt {
			li, errL := strconv.ParseInt(l.I, 10, 64)
			ri, errR := strconv.ParseInt(r.I, 10, 64)
			if errL != nil || errR != nil {
				return value.Error("invalid int literal")
			}
			return value.Int(intOp(li, ri))
		}
		lf, lok := asFloat(l)
		rf, rok := asFloat(r)
		if !lok || !rok {
			return value.Error("arithmetic operator expects numeric operands")
		}
		return value.Float(floatOp(lf, rf))
	}
}
