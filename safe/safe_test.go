package safe

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func decoded(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal %q: %v", raw, err)
	}
	return m
}

func TestString(t *testing.T) {
	m := decoded(t, `{"s":"hello","n":42,"f":1.5,"b":true,"null":null,"obj":{"a":1},"list":[1]}`)

	tests := []struct {
		name string
		key  string
		want string
	}{
		{"plain string", "s", "hello"},
		{"integer number", "n", "42"},
		{"fractional number", "f", "1.5"},
		{"bool is not stringified", "b", ""},
		{"null", "null", ""},
		{"object", "obj", ""},
		{"array", "list", ""},
		{"missing key", "missing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := String(m, tt.key); got != tt.want {
				t.Errorf("String(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}

	if got := String(nil, "anything"); got != "" {
		t.Errorf("String(nil) = %q, want empty", got)
	}
}

func TestStringFallbacks(t *testing.T) {
	m := decoded(t, `{"a":"","b":"second","c":"third"}`)

	if got := String2(m, "a", "b"); got != "second" {
		t.Errorf("String2 = %q, want %q", got, "second")
	}
	if got := String2(m, "b", "c"); got != "second" {
		t.Errorf("String2 prefers first key, got %q", got)
	}
	if got := StringN(m, "missing", "a", "c"); got != "third" {
		t.Errorf("StringN = %q, want %q", got, "third")
	}
	if got := StringN(m, "x", "y"); got != "" {
		t.Errorf("StringN with no hits = %q, want empty", got)
	}
}

func TestStringCase(t *testing.T) {
	m := decoded(t, `{"side":"BUY","status":"open"}`)

	if got := StringLower(m, "side"); got != "buy" {
		t.Errorf("StringLower = %q, want %q", got, "buy")
	}
	if got := StringUpper(m, "status"); got != "OPEN" {
		t.Errorf("StringUpper = %q, want %q", got, "OPEN")
	}
}

func TestInteger(t *testing.T) {
	m := decoded(t, `{"n":1716213903,"s":"1716213903","f":12.9,"fs":"12.9","empty":"","word":"soon","b":true}`)

	tests := []struct {
		name   string
		key    string
		want   int64
		wantOK bool
	}{
		{"json number", "n", 1716213903, true},
		{"numeric string", "s", 1716213903, true},
		{"fraction truncates", "f", 12, true},
		{"fractional string truncates", "fs", 12, true},
		{"empty string", "empty", 0, false},
		{"non-numeric string", "word", 0, false},
		{"bool", "b", 0, false},
		{"missing", "missing", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IntegerOK(m, tt.key)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("IntegerOK(%q) = (%d, %v), want (%d, %v)", tt.key, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestInteger2(t *testing.T) {
	m := decoded(t, `{"zero":0,"ms":1716213903000}`)

	// A present zero still wins over the fallback key.
	if got := Integer2(m, "zero", "ms"); got != 0 {
		t.Errorf("Integer2 = %d, want 0", got)
	}
	if got := Integer2(m, "missing", "ms"); got != 1716213903000 {
		t.Errorf("Integer2 fallback = %d, want 1716213903000", got)
	}
}

func TestTimestamp(t *testing.T) {
	m := decoded(t, `{"date":1716213903,"str":"1716213903"}`)

	if got := Timestamp(m, "date"); got != 1716213903000 {
		t.Errorf("Timestamp = %d, want 1716213903000", got)
	}
	if got := Timestamp(m, "str"); got != 1716213903000 {
		t.Errorf("Timestamp from string = %d, want 1716213903000", got)
	}
	if got := Timestamp(m, "missing"); got != 0 {
		t.Errorf("Timestamp missing = %d, want 0", got)
	}
}

func TestDecimal(t *testing.T) {
	m := decoded(t, `{"s":"0.00000001","n":5,"spaced":" 1.25 ","bad":"1.2.3","empty":"","b":false}`)

	if d := Decimal(m, "s"); d == nil || d.String() != "0.00000001" {
		t.Errorf("Decimal string = %v, want 0.00000001", d)
	}
	if d := Decimal(m, "n"); d == nil || d.String() != "5" {
		t.Errorf("Decimal number = %v, want 5", d)
	}
	if d := Decimal(m, "spaced"); d == nil || d.String() != "1.25" {
		t.Errorf("Decimal trims spaces, got %v", d)
	}
	for _, key := range []string{"bad", "empty", "b", "missing"} {
		if d := Decimal(m, key); d != nil {
			t.Errorf("Decimal(%q) = %v, want nil", key, d)
		}
	}
}

func TestDecimalFallbacks(t *testing.T) {
	m := decoded(t, `{"price":"0","avg":"1.5"}`)

	// Zero is a present value, not an absence.
	if d := Decimal2(m, "price", "avg"); d == nil || !d.IsZero() {
		t.Errorf("Decimal2 = %v, want 0", d)
	}
	if d := Decimal2(m, "missing", "avg"); d == nil || d.String() != "1.5" {
		t.Errorf("Decimal2 fallback = %v, want 1.5", d)
	}
	if d := DecimalN(m, "x", "y", "avg"); d == nil || d.String() != "1.5" {
		t.Errorf("DecimalN = %v, want 1.5", d)
	}
	if d := DecimalN(m, "x", "y"); d != nil {
		t.Errorf("DecimalN with no hits = %v, want nil", d)
	}
}

func TestBool(t *testing.T) {
	m := decoded(t, `{"t":true,"f":false,"ts":"True","fs":"false","word":"yes","n":1}`)

	tests := []struct {
		key  string
		want bool
	}{
		{"t", true},
		{"f", false},
		{"ts", true},
		{"fs", false},
		{"word", false},
		{"n", false},
		{"missing", false},
	}
	for _, tt := range tests {
		if got := Bool(m, tt.key); got != tt.want {
			t.Errorf("Bool(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestMapAndList(t *testing.T) {
	m := decoded(t, `{"obj":{"inner":"x"},"list":["a","b"],"s":"str"}`)

	if got := Map(m, "obj"); got == nil || got["inner"] != "x" {
		t.Errorf("Map = %v, want inner object", got)
	}
	if got := Map(m, "s"); got != nil {
		t.Errorf("Map on string = %v, want nil", got)
	}
	if got := List(m, "list"); len(got) != 2 {
		t.Errorf("List = %v, want 2 elements", got)
	}
	if got := List(m, "obj"); got != nil {
		t.Errorf("List on object = %v, want nil", got)
	}
	if got := Value(m, "s"); got != "str" {
		t.Errorf("Value = %v, want str", got)
	}
	if got := Value(m, "missing"); got != nil {
		t.Errorf("Value missing = %v, want nil", got)
	}
}

func TestIndexAccessors(t *testing.T) {
	var list []any
	if err := json.Unmarshal([]byte(`["59972.3","0.1","text"]`), &list); err != nil {
		t.Fatal(err)
	}

	if got := IndexString(list, 2); got != "text" {
		t.Errorf("IndexString = %q, want text", got)
	}
	if got := IndexString(list, 5); got != "" {
		t.Errorf("IndexString out of range = %q, want empty", got)
	}
	if got := IndexString(list, -1); got != "" {
		t.Errorf("IndexString negative = %q, want empty", got)
	}
	if d := IndexDecimal(list, 0); d == nil || d.String() != "59972.3" {
		t.Errorf("IndexDecimal = %v, want 59972.3", d)
	}
	if d := IndexDecimal(list, 2); d != nil {
		t.Errorf("IndexDecimal on text = %v, want nil", d)
	}
	if d := IndexDecimal(list, 9); d != nil {
		t.Errorf("IndexDecimal out of range = %v, want nil", d)
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "abc", "abc"},
		{"int", 42, "42"},
		{"int64", int64(7), "7"},
		{"float", 0.25, "0.25"},
		{"bool", true, "true"},
		{"decimal", decimal.RequireFromString("0.00000001"), "0.00000001"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stringify(tt.in); got != tt.want {
				t.Errorf("Stringify(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
