package lang

import (
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the variant of a [Value].
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNum
	KindString
	KindVec
	KindDict
	KindRange
	KindFunc
)

var kindName = [...]string{
	KindNil:    "nil",
	KindBool:   "bool",
	KindNum:    "num",
	KindString: "string",
	KindVec:    "vec",
	KindDict:   "dict",
	KindRange:  "range",
	KindFunc:   "func",
}

func (k Kind) String() string {
	if int(k) < len(kindName) {
		return kindName[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a psh runtime value.
//
// Nil, Bool, Num, String, and Range are plain values copied on assignment.
// *Vec, *Dict, and *Func are handles: every copy refers to the same
// underlying storage, so a container mutated through one binding is
// observed through all of them.
//
// String returns the display form used by print and string interpolation.
type Value interface {
	Kind() Kind
	String() string
}

type (
	Nil    struct{}
	Bool   bool
	Num    float64
	String string
)

func (Nil) Kind() Kind    { return KindNil }
func (Bool) Kind() Kind   { return KindBool }
func (Num) Kind() Kind    { return KindNum }
func (String) Kind() Kind { return KindString }

func (Nil) String() string { return "nil" }

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

func (s String) String() string { return string(s) }

func (n Num) String() string {
	f := float64(n)

	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "NaN"
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Int returns n as an int if it has no fractional part and fits in an int.
func (n Num) Int() (int, bool) {
	f := float64(n)
	if math.Trunc(f) != f || f < math.MinInt || f > math.MaxInt {
		return 0, false
	}

	return int(f), true
}

// Vec is a shared, mutable sequence of values.
type Vec struct {
	items []Value
}

// NewVec returns a Vec holding items.
func NewVec(items ...Value) *Vec {
	return &Vec{items: items}
}

func (*Vec) Kind() Kind { return KindVec }

// String renders v as [e1, e2, ...] with string elements quoted.
func (v *Vec) String() string {
	parts := make([]string, len(v.items))
	for i, item := range v.items {
		parts[i] = Quoted(item)
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

// Len returns the number of elements.
func (v *Vec) Len() int { return len(v.items) }

// Get returns the element at i.
func (v *Vec) Get(i int) (Value, bool) {
	if i < 0 || i >= len(v.items) {
		return nil, false
	}

	return v.items[i], true
}

// Set replaces the element at i. It reports false if i is out of range; the
// sequence never grows.
func (v *Vec) Set(i int, x Value) bool {
	if i < 0 || i >= len(v.items) {
		return false
	}

	v.items[i] = x

	return true
}

// Push appends xs.
func (v *Vec) Push(xs ...Value) { v.items = append(v.items, xs...) }

// Pop removes and returns the last element.
func (v *Vec) Pop() (Value, bool) {
	if len(v.items) == 0 {
		return nil, false
	}

	x := v.items[len(v.items)-1]
	v.items = v.items[:len(v.items)-1]

	return x, true
}

// Items returns a copy of the elements. Iterating the copy is unaffected by
// concurrent mutation of v.
func (v *Vec) Items() []Value { return slices.Clone(v.items) }

// Dict is a shared, mutable mapping from strings to values.
type Dict struct {
	items map[string]Value
}

// NewDict returns an empty Dict.
func NewDict() *Dict {
	return &Dict{items: make(map[string]Value)}
}

func (*Dict) Kind() Kind { return KindDict }

// String renders d as {k1: v1, ...} in key order with string values quoted.
func (d *Dict) String() string {
	keys := d.Keys()
	parts := make([]string, len(keys))

	for i, k := range keys {
		parts[i] = k + ": " + Quoted(d.items[k])
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

// Len returns the number of keys.
func (d *Dict) Len() int { return len(d.items) }

// Get returns the value stored at k.
func (d *Dict) Get(k string) (Value, bool) {
	x, ok := d.items[k]

	return x, ok
}

// Set inserts or overwrites k.
func (d *Dict) Set(k string, x Value) { d.items[k] = x }

// Delete removes k and reports whether it was present.
func (d *Dict) Delete(k string) bool {
	_, ok := d.items[k]
	delete(d.items, k)

	return ok
}

// Keys returns the keys in sorted order.
func (d *Dict) Keys() []string { return slices.Sorted(maps.Keys(d.items)) }

// Range is the half-open integer interval [L, R).
type Range struct {
	L, R int
}

// NewRange returns the interval from l to r, including r if inclusive.
func NewRange(l, r int, inclusive bool) Range {
	if inclusive {
		r++
	}

	return Range{L: l, R: r}
}

func (Range) Kind() Kind { return KindRange }

func (r Range) String() string { return strconv.Itoa(r.L) + ".." + strconv.Itoa(r.R) }

// Len returns the number of integers in r.
func (r Range) Len() int { return max(0, r.R-r.L) }

// Quoted returns the display form of v, with strings wrapped in single
// quotes. It is used for elements of containers.
func Quoted(v Value) string {
	if s, ok := v.(String); ok {
		return "'" + string(s) + "'"
	}

	return v.String()
}

// Truthy reports whether v is considered true. Only nil and false are
// false.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case nil, Nil:
		return false
	case Bool:
		return bool(v)
	}

	return true
}

// Equal reports whether a and b are structurally equal.
//
// Containers compare element-wise. User functions are equal only if both are
// named and the names match. Native functions are never equal.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Nil:
		_, ok := b.(Nil)

		return ok

	case Bool, Num, String, Range:
		return a == b

	case *Vec:
		o, ok := b.(*Vec)
		if !ok || a.Len() != o.Len() {
			return false
		}

		if a == o {
			return true
		}

		for i := range a.items {
			if !Equal(a.items[i], o.items[i]) {
				return false
			}
		}

		return true

	case *Dict:
		o, ok := b.(*Dict)
		if !ok || a.Len() != o.Len() {
			return false
		}

		if a == o {
			return true
		}

		for k, x := range a.items {
			y, ok := o.items[k]
			if !ok || !Equal(x, y) {
				return false
			}
		}

		return true

	case *Func:
		o, ok := b.(*Func)

		return ok && !a.IsNative() && !o.IsNative() &&
			a.Name != "" && a.Name == o.Name
	}

	return false
}
