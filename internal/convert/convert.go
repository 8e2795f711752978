// Package convert implements the SLIM ValueConverter registry: type
// directed conversion between Go values and the strings (or nested lists,
// for sequences) that travel over the wire.
//
// A Registry is owned by one ExecutionContext and is never shared across
// sessions, so two connections can bind different converters for the same
// Kind (e.g. one session's Bool renders as true/false, another's as
// yes/no) without racing. Registrations are session-scoped and stable
// for the session's lifetime.
package convert

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which converter applies to a Go value. It exists
// because Sequence, Mapping, Date, Time, and DateTime don't correspond to
// a single reflect.Kind.
type Kind int

const (
	KindDefault Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDate
	KindTime
	KindDateTime
	KindSequence
	KindMapping
	KindString
)

// Date is the Y-M-D value the Date converter renders/parses.
type Date struct {
	Year, Month, Day int
}

// Time is the h:m:s[.micros] value the Time converter renders/parses.
type Time struct {
	Hour, Minute, Second, Microsecond int
}

// DateTime pairs a Date and a Time, rendered as "<date> <time>".
type DateTime struct {
	Date Date
	Time Time
}

// Converted is the wire shape a converted value takes: either a flat
// string, or (for Sequence) a nested slice of further Converted values —
// the same recursive shape codec.List expects.
type Converted interface{}

// Converter converts one Kind of Go value to and from its wire form.
type Converter interface {
	// ToWire renders value as its wire form. reg is supplied so a
	// container converter (Sequence) can recursively convert elements
	// using the same registry the caller is using.
	ToWire(value interface{}, reg *Registry) (Converted, error)

	// FromString parses a wire string back into a Go value. The base
	// Default converter's FromString always fails.
	FromString(s string) (interface{}, error)
}

// Registry is a session-scoped map from Kind to Converter, seeded with
// the built-in defaults and overridable per session.
type Registry struct {
	converters map[Kind]Converter
}

// NewRegistry returns a Registry seeded with the built-in converters.
func NewRegistry() *Registry {
	r := &Registry{converters: make(map[Kind]Converter, 9)}
	r.converters[KindBool] = boolTrueFalseConverter{}
	r.converters[KindInt] = intConverter{}
	r.converters[KindFloat] = floatConverter{}
	r.converters[KindDate] = dateConverter{}
	r.converters[KindTime] = timeConverter{}
	r.converters[KindDateTime] = dateTimeConverter{}
	r.converters[KindSequence] = sequenceConverter{}
	r.converters[KindMapping] = mappingConverter{}
	r.converters[KindString] = stringConverter{}
	r.converters[KindDefault] = defaultConverter{}
	return r
}

// Register overrides the converter used for kind, for the remainder of
// this registry's (i.e. this session's) lifetime.
func (r *Registry) Register(kind Kind, c Converter) {
	r.converters[kind] = c
}

// Converter returns the converter bound to kind, falling back to the
// Default converter if none was registered.
func (r *Registry) Converter(kind Kind) Converter {
	if c, ok := r.converters[kind]; ok {
		return c
	}
	return r.converters[KindDefault]
}

// KindOf classifies a Go value into the Kind whose converter should
// handle it. The exact-type cases cover the synthetic shapes the engine
// builds internally ([]interface{}, map[string]string); a fixture
// method written the ordinary Go way returns a concretely typed slice
// or map instead (e.g. []string, map[string]int), so anything that
// doesn't match one of those falls through to a reflect.Kind check
// before giving up and treating it as an opaque Default value.
func KindOf(value interface{}) Kind {
	switch value.(type) {
	case bool:
		return KindBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInt
	case float32, float64:
		return KindFloat
	case Date:
		return KindDate
	case Time:
		return KindTime
	case DateTime:
		return KindDateTime
	case []interface{}:
		return KindSequence
	case map[string]string:
		return KindMapping
	case string:
		return KindString
	}

	if value == nil {
		return KindDefault
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Slice, reflect.Array:
		return KindSequence
	case reflect.Map:
		return KindMapping
	default:
		return KindDefault
	}
}

// ToWire converts value to its wire form using the converter bound to
// value's Kind.
func (r *Registry) ToWire(value interface{}) (Converted, error) {
	return r.Converter(KindOf(value)).ToWire(value, r)
}

// ToString is a convenience for callers that know the result can only be
// a flat string (everything except Sequence).
func (r *Registry) ToString(value interface{}) (string, error) {
	wire, err := r.ToWire(value)
	if err != nil {
		return "", err
	}
	s, ok := wire.(string)
	if !ok {
		return "", fmt.Errorf("convert: value produced a nested sequence, not a flat string")
	}
	return s, nil
}

// FromString parses s using the converter bound to kind.
func (r *Registry) FromString(kind Kind, s string) (interface{}, error) {
	return r.Converter(kind).FromString(s)
}

// --- Bool ---

type boolTrueFalseConverter struct{}

func (boolTrueFalseConverter) ToWire(value interface{}, _ *Registry) (Converted, error) {
	if value.(bool) {
		return "true", nil
	}
	return "false", nil
}

func (boolTrueFalseConverter) FromString(s string) (interface{}, error) {
	return s == "true", nil
}

// BoolYesNo renders bools as yes/no instead of true/false. A session or
// fixture opts into it with registry.Register(KindBool, convert.BoolYesNo).
var BoolYesNo Converter = boolYesNoConverter{}

type boolYesNoConverter struct{}

func (boolYesNoConverter) ToWire(value interface{}, _ *Registry) (Converted, error) {
	if value.(bool) {
		return "yes", nil
	}
	return "no", nil
}

func (boolYesNoConverter) FromString(s string) (interface{}, error) {
	return s == "yes", nil
}

// --- Int ---

type intConverter struct{}

func (intConverter) ToWire(value interface{}, _ *Registry) (Converted, error) {
	return fmt.Sprintf("%d", value), nil
}

func (intConverter) FromString(s string) (interface{}, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("convert: %q is not an integer: %w", s, err)
	}
	return int(n), nil
}

// --- Float ---

type floatConverter struct{}

func (floatConverter) ToWire(value interface{}, _ *Registry) (Converted, error) {
	switch v := value.(type) {
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return fmt.Sprintf("%v", value), nil
	}
}

func (floatConverter) FromString(s string) (interface{}, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("convert: %q is not a float: %w", s, err)
	}
	return f, nil
}

// --- Date (ISO Y-M-D, zero-padded) ---

type dateConverter struct{}

func (dateConverter) ToWire(value interface{}, _ *Registry) (Converted, error) {
	d := value.(Date)
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day), nil
}

func (dateConverter) FromString(s string) (interface{}, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return nil, fmt.Errorf("convert: %q is not a Y-M-D date", s)
	}
	var d Date
	var err error
	if d.Year, err = strconv.Atoi(parts[0]); err != nil {
		return nil, fmt.Errorf("convert: invalid year in %q: %w", s, err)
	}
	if d.Month, err = strconv.Atoi(parts[1]); err != nil {
		return nil, fmt.Errorf("convert: invalid month in %q: %w", s, err)
	}
	if d.Day, err = strconv.Atoi(parts[2]); err != nil {
		return nil, fmt.Errorf("convert: invalid day in %q: %w", s, err)
	}
	return d, nil
}

// --- Time (ISO h:m:s[.micros], zero-padded) ---

type timeConverter struct{}

func (timeConverter) ToWire(value interface{}, _ *Registry) (Converted, error) {
	t := value.(Time)
	if t.Microsecond != 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%06d", t.Hour, t.Minute, t.Second, t.Microsecond), nil
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second), nil
}

func (timeConverter) FromString(s string) (interface{}, error) {
	main := s
	var micros int
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		main = s[:dot]
		frac := s[dot+1:]
		var err error
		if micros, err = strconv.Atoi(frac); err != nil {
			return nil, fmt.Errorf("convert: invalid microseconds in %q: %w", s, err)
		}
	}
	parts := strings.Split(main, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("convert: %q is not an h:m:s time", s)
	}
	var t Time
	var err error
	if t.Hour, err = strconv.Atoi(parts[0]); err != nil {
		return nil, fmt.Errorf("convert: invalid hour in %q: %w", s, err)
	}
	if t.Minute, err = strconv.Atoi(parts[1]); err != nil {
		return nil, fmt.Errorf("convert: invalid minute in %q: %w", s, err)
	}
	if t.Second, err = strconv.Atoi(parts[2]); err != nil {
		return nil, fmt.Errorf("convert: invalid second in %q: %w", s, err)
	}
	t.Microsecond = micros
	return t, nil
}

// --- DateTime ("<date> <time>") ---

type dateTimeConverter struct{}

func (dateTimeConverter) ToWire(value interface{}, reg *Registry) (Converted, error) {
	dt := value.(DateTime)
	datePart, err := dateConverter{}.ToWire(dt.Date, reg)
	if err != nil {
		return nil, err
	}
	timePart, err := timeConverter{}.ToWire(dt.Time, reg)
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("%s %s", datePart, timePart), nil
}

func (dateTimeConverter) FromString(s string) (interface{}, error) {
	parts := strings.SplitN(s, " ", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("convert: %q is not a \"date time\" value", s)
	}
	d, err := dateConverter{}.FromString(parts[0])
	if err != nil {
		return nil, err
	}
	tm, err := timeConverter{}.FromString(parts[1])
	if err != nil {
		return nil, err
	}
	return DateTime{Date: d.(Date), Time: tm.(Time)}, nil
}

// --- Sequence (nested list of converted elements) ---

type sequenceConverter struct{}

func (sequenceConverter) ToWire(value interface{}, reg *Registry) (Converted, error) {
	rv := reflect.ValueOf(value)
	out := make([]Converted, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		w, err := reg.ToWire(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func (sequenceConverter) FromString(s string) (interface{}, error) {
	return nil, fmt.Errorf("convert: sequences arrive as nested lists, not strings")
}

// --- Mapping (HTML-like table) ---

type mappingConverter struct{}

func (mappingConverter) ToWire(value interface{}, _ *Registry) (Converted, error) {
	rv := reflect.ValueOf(value)
	m := make(map[string]string, rv.Len())
	keys := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := fmt.Sprintf("%v", iter.Key().Interface())
		m[k] = fmt.Sprintf("%v", iter.Value().Interface())
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("<table>")
	for _, k := range keys {
		sb.WriteString("<tr><td>")
		sb.WriteString(k)
		sb.WriteString("</td><td>")
		sb.WriteString(m[k])
		sb.WriteString("</td></tr>")
	}
	sb.WriteString("</table>")
	return sb.String(), nil
}

func (mappingConverter) FromString(s string) (interface{}, error) {
	m := make(map[string]string)
	rest := s
	for {
		start := strings.Index(rest, "<tr><td>")
		if start < 0 {
			break
		}
		rest = rest[start+len("<tr><td>"):]
		mid := strings.Index(rest, "</td><td>")
		if mid < 0 {
			return nil, fmt.Errorf("convert: malformed mapping table in %q", s)
		}
		key := rest[:mid]
		rest = rest[mid+len("</td><td>"):]
		end := strings.Index(rest, "</td></tr>")
		if end < 0 {
			return nil, fmt.Errorf("convert: malformed mapping table in %q", s)
		}
		m[key] = rest[:end]
		rest = rest[end+len("</td></tr>"):]
	}
	return m, nil
}

// --- String (identity) ---

type stringConverter struct{}

func (stringConverter) ToWire(value interface{}, _ *Registry) (Converted, error) {
	return value.(string), nil
}

func (stringConverter) FromString(s string) (interface{}, error) {
	return s, nil
}

// --- Default (str(value), fromString always fails) ---

type defaultConverter struct{}

func (defaultConverter) ToWire(value interface{}, _ *Registry) (Converted, error) {
	return fmt.Sprintf("%v", value), nil
}

func (defaultConverter) FromString(s string) (interface{}, error) {
	return nil, fmt.Errorf("convert: no converter registered to parse %q", s)
}
