package engine

import (
	"fmt"
	"reflect"

	"github.com/fitnesse-go/slimd/internal/codec"
	"github.com/fitnesse-go/slimd/internal/convert"
)

var (
	dateType     = reflect.TypeOf(convert.Date{})
	timeType     = reflect.TypeOf(convert.Time{})
	dateTimeType = reflect.TypeOf(convert.DateTime{})
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
)

// coerceArgs converts the substituted wire arguments in args — each
// either a string or a nested []interface{} — into reflect.Values
// matching method's declared parameter types. A fixture method is
// free to declare any parameter type the registry knows how to
// produce from a wire string.
func coerceArgs(method reflect.Value, args []interface{}, reg *convert.Registry) ([]reflect.Value, error) {
	t := method.Type()
	if t.IsVariadic() {
		return nil, fmt.Errorf("engine: variadic fixture methods are not supported")
	}
	if len(args) != t.NumIn() {
		return nil, fmt.Errorf("engine: method expects %d arguments, got %d", t.NumIn(), len(args))
	}

	out := make([]reflect.Value, len(args))
	for i, raw := range args {
		v, err := coerceArg(t.In(i), raw, reg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func coerceArg(want reflect.Type, raw interface{}, reg *convert.Registry) (reflect.Value, error) {
	switch want {
	case dateType:
		return scalarFromString(want, raw, convert.KindDate, reg)
	case timeType:
		return scalarFromString(want, raw, convert.KindTime, reg)
	case dateTimeType:
		return scalarFromString(want, raw, convert.KindDateTime, reg)
	}

	switch want.Kind() {
	case reflect.String:
		s, ok := raw.(string)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected a string, got %T", raw)
		}
		return reflect.ValueOf(s), nil

	case reflect.Bool:
		return scalarFromString(want, raw, convert.KindBool, reg)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return scalarFromString(want, raw, convert.KindInt, reg)

	case reflect.Float32, reflect.Float64:
		return scalarFromString(want, raw, convert.KindFloat, reg)

	case reflect.Slice:
		nested, ok := raw.([]interface{})
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected a sequence, got %T", raw)
		}
		out := reflect.MakeSlice(want, len(nested), len(nested))
		for i, elem := range nested {
			v, err := coerceArg(want.Elem(), elem, reg)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("sequence element %d: %w", i, err)
			}
			out.Index(i).Set(v)
		}
		return out, nil

	case reflect.Map:
		s, ok := raw.(string)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected a mapping, got %T", raw)
		}
		v, err := reg.FromString(convert.KindMapping, s)
		if err != nil {
			return reflect.Value{}, err
		}
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(want) {
			return reflect.Value{}, fmt.Errorf("mapping type %s is not assignable to %s", rv.Type(), want)
		}
		return rv, nil

	default:
		return reflect.Value{}, fmt.Errorf("unsupported parameter type %s", want)
	}
}

func scalarFromString(want reflect.Type, raw interface{}, kind convert.Kind, reg *convert.Registry) (reflect.Value, error) {
	s, ok := raw.(string)
	if !ok {
		return reflect.Value{}, fmt.Errorf("expected a scalar value, got %T", raw)
	}
	v, err := reg.FromString(kind, s)
	if err != nil {
		return reflect.Value{}, err
	}
	rv := reflect.ValueOf(v)
	if rv.Type() != want {
		if !rv.Type().ConvertibleTo(want) {
			return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", rv.Type(), want)
		}
		rv = rv.Convert(want)
	}
	return rv, nil
}

// convertedToWire flattens a convert.Converted value into the shape
// codec.Pack accepts: a string stays a string, a []convert.Converted
// becomes a codec.List of the same recursively flattened elements.
// Pack's packElement type-switches on the named codec.List type, not
// on slices in general, so building a bare []interface{} here would
// make every Sequence-valued result fail to pack.
func convertedToWire(c convert.Converted) interface{} {
	switch v := c.(type) {
	case []convert.Converted:
		out := make(codec.List, len(v))
		for i, elem := range v {
			out[i] = convertedToWire(elem)
		}
		return out
	default:
		return v
	}
}

// splitReturn separates a method's Go return values into its result
// value (nil for a void method) and its error, per the four call
// shapes a fixture method may use: (T), (T, error), (), or (error).
func splitReturn(results []reflect.Value) (interface{}, error) {
	if len(results) == 0 {
		return nil, nil
	}
	last := results[len(results)-1]
	if last.Type().Implements(errorType) {
		var err error
		if !last.IsNil() {
			err = last.Interface().(error)
		}
		if len(results) == 1 {
			return nil, err
		}
		return results[0].Interface(), err
	}
	if len(results) == 1 {
		return results[0].Interface(), nil
	}
	return results[0].Interface(), nil
}
