package convert

import "testing"

func TestBoolTrueFalse(t *testing.T) {
	r := NewRegistry()

	s, err := r.ToString(true)
	if err != nil || s != "true" {
		t.Fatalf("ToString(true) = %q, %v", s, err)
	}
	s, err = r.ToString(false)
	if err != nil || s != "false" {
		t.Fatalf("ToString(false) = %q, %v", s, err)
	}

	v, err := r.FromString(KindBool, "true")
	if err != nil || v != true {
		t.Fatalf("FromString(true) = %v, %v", v, err)
	}
	v, err = r.FromString(KindBool, "anything-else")
	if err != nil || v != false {
		t.Fatalf("FromString(anything-else) = %v, %v", v, err)
	}
}

func TestBoolYesNoOptIn(t *testing.T) {
	r := NewRegistry()
	r.Register(KindBool, BoolYesNo)

	s, err := r.ToString(true)
	if err != nil || s != "yes" {
		t.Fatalf("ToString(true) with yes/no = %q, %v", s, err)
	}

	// A second, independent registry must be unaffected (session isolation).
	other := NewRegistry()
	s2, _ := other.ToString(true)
	if s2 != "true" {
		t.Fatalf("independent registry leaked yes/no override: got %q", s2)
	}
}

func TestIntRoundTrip(t *testing.T) {
	r := NewRegistry()
	s, err := r.ToString(42)
	if err != nil || s != "42" {
		t.Fatalf("ToString(42) = %q, %v", s, err)
	}
	v, err := r.FromString(KindInt, "42")
	if err != nil || v != 42 {
		t.Fatalf("FromString(42) = %v, %v", v, err)
	}
}

func TestDateRoundTrip(t *testing.T) {
	r := NewRegistry()
	d := Date{Year: 2026, Month: 7, Day: 31}
	s, err := r.ToString(d)
	if err != nil || s != "2026-07-31" {
		t.Fatalf("ToString(date) = %q, %v", s, err)
	}
	v, err := r.FromString(KindDate, s)
	if err != nil || v != d {
		t.Fatalf("FromString(date) = %v, %v", v, err)
	}
}

func TestTimeRoundTripWithMicros(t *testing.T) {
	r := NewRegistry()
	tm := Time{Hour: 9, Minute: 5, Second: 3, Microsecond: 123456}
	s, err := r.ToString(tm)
	if err != nil || s != "09:05:03.123456" {
		t.Fatalf("ToString(time) = %q, %v", s, err)
	}
	v, err := r.FromString(KindTime, s)
	if err != nil || v != tm {
		t.Fatalf("FromString(time) = %v, %v", v, err)
	}
}

func TestMappingRoundTrip(t *testing.T) {
	r := NewRegistry()
	m := map[string]string{"a": "1", "b": "2"}
	s, err := r.ToString(m)
	if err != nil {
		t.Fatalf("ToString(mapping) error: %v", err)
	}
	want := "<table><tr><td>a</td><td>1</td></tr><tr><td>b</td><td>2</td></tr></table>"
	if s != want {
		t.Fatalf("ToString(mapping) = %q, want %q", s, want)
	}
	v, err := r.FromString(KindMapping, s)
	if err != nil {
		t.Fatalf("FromString(mapping) error: %v", err)
	}
	got := v.(map[string]string)
	if len(got) != 2 || got["a"] != "1" || got["b"] != "2" {
		t.Fatalf("FromString(mapping) = %#v", got)
	}
}

func TestSequenceNested(t *testing.T) {
	r := NewRegistry()
	seq := []interface{}{1, "two", true}
	wire, err := r.ToWire(seq)
	if err != nil {
		t.Fatalf("ToWire(sequence) error: %v", err)
	}
	elems, ok := wire.([]Converted)
	if !ok || len(elems) != 3 {
		t.Fatalf("ToWire(sequence) = %#v, want 3-element []Converted", wire)
	}
	if elems[0] != "1" || elems[1] != "two" || elems[2] != "true" {
		t.Fatalf("ToWire(sequence) elements = %#v", elems)
	}
}

func TestConcretelyTypedSliceClassifiesAsSequence(t *testing.T) {
	if got := KindOf([]string{"a", "b"}); got != KindSequence {
		t.Fatalf("KindOf([]string) = %v, want KindSequence", got)
	}

	r := NewRegistry()
	wire, err := r.ToWire([]string{"a", "b"})
	if err != nil {
		t.Fatalf("ToWire([]string) error: %v", err)
	}
	elems, ok := wire.([]Converted)
	if !ok || len(elems) != 2 || elems[0] != "a" || elems[1] != "b" {
		t.Fatalf("ToWire([]string) = %#v, want [a b]", wire)
	}
}

func TestConcretelyTypedMapClassifiesAsMapping(t *testing.T) {
	if got := KindOf(map[string]int{"a": 1}); got != KindMapping {
		t.Fatalf("KindOf(map[string]int) = %v, want KindMapping", got)
	}

	r := NewRegistry()
	s, err := r.ToString(map[string]int{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("ToString(map[string]int) error: %v", err)
	}
	want := "<table><tr><td>a</td><td>1</td></tr><tr><td>b</td><td>2</td></tr></table>"
	if s != want {
		t.Fatalf("ToString(map[string]int) = %q, want %q", s, want)
	}
}

func TestDefaultConverterFromStringFails(t *testing.T) {
	r := NewRegistry()
	if _, err := r.FromString(KindDefault, "anything"); err == nil {
		t.Fatal("Default converter FromString should fail, got nil error")
	}
}

func TestVoidDistinctFromEmptyString(t *testing.T) {
	r := NewRegistry()
	s, err := r.ToString("")
	if err != nil || s != "" {
		t.Fatalf("ToString(\"\") = %q, %v, want empty string with no error", s, err)
	}
}
