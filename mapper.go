package xbind

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
	"sync"
	"time"
)

// Mapper owns the per-type struct index cache used by Into.
type Mapper struct {
	structIndexCache sync.Map // key: reflect.Type -> *fieldIndex (per T)
}

func NewMapper() *Mapper { return &Mapper{} }

// --- package-level lazy global mapper (used by Into) ---

var (
	mapper     *Mapper
	mapperOnce sync.Once
)

func getMapper() *Mapper {
	mapperOnce.Do(func() { mapper = NewMapper() })
	return mapper
}

// Into returns a Stage that turns a map[string]any row into a T.
//
// T must be a struct (or pointer to one). Keys bind to fields by `db:"name"`
// first, otherwise by case-insensitive field name; `db:",inline"` flattens
// nested structs and `db:"-"` skips a field. Unknown keys are ignored and
// missing keys leave zero values. Fields implementing sql.Scanner receive
// the raw value.
//
// Example:
//
//	type User struct {
//	    ID   int64  `db:"id"`
//	    Name string `db:"name"`
//	}
//	users, err := db.SelectAllHash(ctx, `SELECT id, name FROM users`, xbind.Chain{xbind.Into[User]()})
//	// users[0].(User)
func Into[T any]() Stage {
	return IntoWith[T](getMapper())
}

// IntoWith is Into with an explicit Mapper.
func IntoWith[T any](m *Mapper) Stage {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	return func(row any) (any, error) {
		src, ok := row.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("xbind: Into[%s] needs a map[string]any row, got %T", rt, row)
		}
		if !isStruct(rt) {
			return nil, fmt.Errorf("xbind: Into[%s]: not a struct type", rt)
		}

		rv := reflect.New(rt) // *T
		root := rv.Elem()
		if root.Kind() == reflect.Ptr {
			root.Set(reflect.New(root.Type().Elem()))
			root = root.Elem()
		}
		idx := m.structIndex(derefPtr(rt))
		for k, v := range src {
			fp, ok := idx.byName[normalizeColAscii(k)]
			if !ok {
				continue
			}
			if err := assignValue(fieldByPathAlloc(root, fp), v); err != nil {
				return nil, fmt.Errorf("xbind: Into[%s] column %q: %w", rt, k, err)
			}
		}
		return rv.Elem().Interface().(T), nil
	}
}

type fieldIndex struct {
	byName map[string][]int // lower-case column name -> index path
}

func (m *Mapper) structIndex(rt reflect.Type) *fieldIndex {
	if v, ok := m.structIndexCache.Load(rt); ok {
		return v.(*fieldIndex)
	}
	fi := buildStructIndex(rt)
	m.structIndexCache.Store(rt, &fi)
	return &fi
}

// ---------------- Struct indexing & tags ----------------

func buildStructIndex(rt reflect.Type) fieldIndex {
	idx := fieldIndex{byName: make(map[string][]int)}
	seen := make(map[string]struct{})

	var walk func(t reflect.Type, base []int, forceInline bool)
	walk = func(t reflect.Type, base []int, forceInline bool) {
		t = derefPtr(t)
		if t.Kind() != reflect.Struct {
			return
		}
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if sf.PkgPath != "" && !sf.Anonymous { // unexported, non-anonymous
				continue
			}
			tag := sf.Tag.Get("db")
			name, inline, omit := parseTag(tag)
			if omit {
				continue
			}
			ft := sf.Type
			path := append(append([]int(nil), base...), i)

			if inline || (sf.Anonymous && (forceInline || tag == "")) {
				if isStruct(ft) && derefPtr(ft) != timeType {
					walk(ft, path, inline)
					continue
				}
			}
			if sf.PkgPath != "" {
				continue
			}
			if name == "" {
				name = sf.Name
			}
			lc := toLowerAscii(name)
			if _, ok := seen[lc]; !ok {
				idx.byName[lc] = path
				seen[lc] = struct{}{}
			}
		}
	}
	walk(rt, nil, false)
	return idx
}

// parseTag supports: "-", "col", ",inline", "col,inline", "inline,col".
func parseTag(tag string) (name string, inline bool, omit bool) {
	if tag == "-" {
		return "", false, true
	}
	if tag == "" {
		return "", false, false
	}
	start := 0
	for i := 0; i <= len(tag); i++ {
		if i == len(tag) || tag[i] == ',' {
			part := tag[start:i]
			if part == "inline" {
				inline = true
			} else if part != "" && name == "" {
				name = part
			}
			start = i + 1
		}
	}
	return name, inline, false
}

// ---------------- Value assignment ----------------

var (
	timeType    = reflect.TypeOf(time.Time{})
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

// assignValue stores a driver value into dst, allocating pointer layers and
// applying the usual safe conversions ([]byte<->string, numeric widenings,
// numeric text).
func assignValue(dst reflect.Value, src any) error {
	if dst.CanAddr() && dst.Addr().Type().Implements(scannerType) {
		return dst.Addr().Interface().(sql.Scanner).Scan(src)
	}
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	if dst.Kind() == reflect.Ptr {
		p := reflect.New(dst.Type().Elem())
		if err := assignValue(p.Elem(), src); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}

	sv := reflect.ValueOf(src)
	dt := dst.Type()
	switch {
	case sv.Type().AssignableTo(dt):
		dst.Set(sv)
		return nil
	case dt.Kind() == reflect.String && sv.Kind() == reflect.Slice && sv.Type().Elem().Kind() == reflect.Uint8:
		dst.SetString(string(sv.Bytes()))
		return nil
	case dt.Kind() == reflect.String && sv.Kind() != reflect.String:
		// driver numbers into text fields
		dst.SetString(fmt.Sprint(src))
		return nil
	case isNumericKind(dt.Kind()) && (sv.Kind() == reflect.String || sv.Kind() == reflect.Slice):
		return parseNumberInto(dst, asText(sv))
	case dt.Kind() == reflect.Bool && isNumericKind(sv.Kind()):
		dst.SetBool(!sv.IsZero())
		return nil
	case sv.Type().ConvertibleTo(dt) && isNumericKind(dt.Kind()) == isNumericKind(sv.Kind()):
		dst.Set(sv.Convert(dt))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", src, dt)
}

func asText(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}
	return string(v.Bytes())
}

func parseNumberInto(dst reflect.Value, s string) error {
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, dst.Type().Bits())
		if err != nil {
			return err
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, dst.Type().Bits())
		if err != nil {
			return err
		}
		dst.SetUint(n)
	default:
		f, err := strconv.ParseFloat(s, dst.Type().Bits())
		if err != nil {
			return err
		}
		dst.SetFloat(f)
	}
	return nil
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// ---------------- Type helpers ----------------

func isStruct(t reflect.Type) bool { return derefPtr(t).Kind() == reflect.Struct }

func derefPtr(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// fieldByPathAlloc walks fpath, allocating nil pointers on the way so the
// final field is addressable.
func fieldByPathAlloc(root reflect.Value, fpath []int) reflect.Value {
	v := root
	for _, i := range fpath {
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}

// ---------------- Column normalization (ASCII fast-path) ----------------

func normalizeColAscii(s string) string {
	if l := len(s); l >= 2 {
		switch s[0] {
		case '"':
			if s[l-1] == '"' {
				s = s[1 : l-1]
			}
		case '`':
			if s[l-1] == '`' {
				s = s[1 : l-1]
			}
		case '[':
			if s[l-1] == ']' {
				s = s[1 : l-1]
			}
		}
	}
	return toLowerAscii(s)
}

func toLowerAscii(s string) string {
	var need bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			need = true
			break
		}
	}
	if !need {
		return s
	}
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c = c + ('a' - 'A')
		}
		b[i] = c
	}
	return string(b)
}
