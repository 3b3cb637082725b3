package uowtest

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Args are the named arguments of one call. Accessors panic on a missing or
// mistyped argument; the fake database reports the panic as a failed call.
type Args map[string]any

func (a Args) value(name string) any {
	v, ok := a[name]
	if !ok {
		panic(fmt.Sprintf("missing argument %s", name))
	}
	return v
}

func (a Args) String(name string) string {
	v, ok := a.value(name).(string)
	if !ok {
		panic(fmt.Sprintf("argument %s is %T, not string", name, a[name]))
	}
	return v
}

func (a Args) Int64(name string) int64 {
	switch v := a.value(name).(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case *int64:
		if v != nil {
			return *v
		}
	}
	panic(fmt.Sprintf("argument %s is %T, not an integer", name, a[name]))
}

func (a Args) Int(name string) int { return int(a.Int64(name)) }

// OptInt64 returns nil for a NULL argument.
func (a Args) OptInt64(name string) *int64 {
	switch v := a.value(name).(type) {
	case nil:
		return nil
	case *int64:
		return v
	default:
		n := a.Int64(name)
		return &n
	}
}

func (a Args) Bool(name string) bool {
	v, ok := a.value(name).(bool)
	if !ok {
		panic(fmt.Sprintf("argument %s is %T, not bool", name, a[name]))
	}
	return v
}

func (a Args) Decimal(name string) decimal.Decimal {
	switch v := a.value(name).(type) {
	case decimal.Decimal:
		return v
	case string:
		return decimal.RequireFromString(v)
	}
	panic(fmt.Sprintf("argument %s is %T, not numeric", name, a[name]))
}

// JSON decodes a structured argument into out.
func (a Args) JSON(name string, out any) {
	if err := json.Unmarshal([]byte(a.String(name)), out); err != nil {
		panic(fmt.Sprintf("argument %s: %v", name, err))
	}
}
