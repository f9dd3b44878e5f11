package xbind

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"time"
	"unicode"
	"unicode/utf8"
)

type requestKind uint8

const (
	reqArgs requestKind = iota // flat variadic list
	reqSeq                     // one sequence argument
	reqMap                     // one mapping argument
)

// Request is one call's worth of binding values. Build it with Args, Seq or
// Named; methods that take ...any build it for you.
type Request struct {
	kind   requestKind
	values []any
	named  map[string]any
}

// Args is a flat list of values: positional for positional and numeric
// statements, alternating key/value pairs for named ones.
func Args(values ...any) Request { return Request{kind: reqArgs, values: values} }

// Seq is a single sequence argument. It is read like Args.
func Seq(values []any) Request { return Request{kind: reqSeq, values: values} }

// Named binds each key to every occurrence of that identifier.
func Named(m map[string]any) Request { return Request{kind: reqMap, named: m} }

// Len is the number of values (or keys) carried.
func (r Request) Len() int {
	if r.kind == reqMap {
		return len(r.named)
	}
	return len(r.values)
}

// requestFrom turns the arguments of a variadic call into a Request.
//
// A single map (string or integer keys) or struct becomes Named, a single
// slice or array becomes Seq, and anything else is Args. []byte, time.Time
// and driver.Valuer implementations are always plain values.
func requestFrom(args []any) (Request, error) {
	if len(args) != 1 {
		return Args(args...), nil
	}
	switch v := args[0].(type) {
	case Request:
		return v, nil
	case map[string]any:
		return Named(v), nil
	case []any:
		return Seq(v), nil
	case nil, []byte, time.Time, driver.Valuer:
		return Args(args...), nil
	}

	rv := reflect.ValueOf(args[0])
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Request{}, ErrNilParams
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := identifierOf(iter.Key().Interface())
			if err != nil {
				return Request{}, err
			}
			m[k] = iter.Value().Interface()
		}
		return Named(m), nil
	case reflect.Struct:
		if rv.Type() == reflect.TypeOf(time.Time{}) {
			return Args(args...), nil
		}
		m := make(map[string]any)
		if err := addStructFields(m, rv); err != nil {
			return Request{}, err
		}
		return Named(m), nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Args(args...), nil
		}
		vals := make([]any, rv.Len())
		for i := range vals {
			vals[i] = rv.Index(i).Interface()
		}
		return Seq(vals), nil
	}
	return Args(args...), nil
}

// addStructFields flattens exported fields into dst, keyed by db tag or
// field name. Embedded structs are flattened; nil embedded pointers skipped.
func addStructFields(dst map[string]any, v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)

		if f.PkgPath != "" && !f.Anonymous {
			continue
		}

		name, inline, omit := parseTag(f.Tag.Get("db"))
		if omit {
			continue
		}

		if f.Anonymous || inline {
			ft := f.Type
			fv := v.Field(i)

			isNil := false
			for ft.Kind() == reflect.Pointer {
				if fv.IsNil() {
					isNil = true
					break
				}
				ft = ft.Elem()
				fv = fv.Elem()
			}
			if isNil {
				continue
			}
			if ft.Kind() == reflect.Struct && ft != reflect.TypeOf(time.Time{}) && (inline || name == "") {
				if err := addStructFields(dst, fv); err != nil {
					return err
				}
				continue
			}
		}

		if f.PkgPath != "" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if _, exists := dst[name]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateKeyTag, name)
		}
		dst[name] = v.Field(i).Interface()
	}
	return nil
}

// pairsToMap reads values as alternating key/value elements. A repeated key
// keeps its last value.
func pairsToMap(values []any) (map[string]any, error) {
	if len(values) == 1 {
		return nil, fmt.Errorf("%w: got a single %T", ErrShapeMismatch, values[0])
	}
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of elements (%d) in key/value list", ErrShapeMismatch, len(values))
	}
	m := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		k, err := identifierOf(values[i])
		if err != nil {
			return nil, err
		}
		m[k] = values[i+1]
	}
	return m, nil
}

func identifierOf(v any) (string, error) {
	switch k := v.(type) {
	case nil:
		return "", ErrMissingIdentifier
	case string:
		return k, nil
	case fmt.Stringer:
		return k.String(), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	}
	return "", fmt.Errorf("%w: key of type %T", ErrMalformedIdentifier, v)
}

// validateIdentifier accepts letters, digits and underscores with an
// optional leading "@".
func validateIdentifier(id string) error {
	if id == "" {
		return ErrMissingIdentifier
	}
	body := id
	if body[0] == '@' {
		body = body[1:]
		if body == "" {
			return fmt.Errorf("%w: %q", ErrMalformedIdentifier, id)
		}
	}
	for i := 0; i < len(body); {
		r, w := utf8.DecodeRuneInString(body[i:])
		if !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return fmt.Errorf("%w: %q", ErrMalformedIdentifier, id)
		}
		i += w
	}
	return nil
}
