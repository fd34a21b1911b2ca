package codec

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// ISO8601Milli is the canonical timestamp layout required by spec.md §4.1:
// UTC, millisecond precision.
const ISO8601Milli = "2006-01-02T15:04:05.000Z"

var (
	timeType  = reflect.TypeOf(time.Time{})
	bytesType = reflect.TypeOf([]byte(nil))
)

// Canonicalize renders v as the canonical byte representation defined by
// spec.md §4.1: object keys sorted lexicographically at every level,
// timestamps as UTC ISO-8601 with millisecond precision, byte slices as
// lowercase hex, and fields omitted per their `json:"...,omitempty"` tag
// rather than serialized as null. It is the only representation that may
// be hashed or signed; the pretty-printed, on-disk JSON form (JSONCodec)
// is allowed to differ cosmetically as long as it round-trips to the same
// canonical bytes.
func Canonicalize(v interface{}) ([]byte, error) {
	node, err := toCanonicalValue(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, node); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toCanonicalValue(v reflect.Value) (interface{}, error) {
	if !v.IsValid() {
		return nil, nil
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return toCanonicalValue(v.Elem())
	case reflect.Pointer:
		if v.IsNil() {
			return nil, nil
		}
		return toCanonicalValue(v.Elem())
	}

	t := v.Type()
	switch {
	case t == timeType:
		return v.Interface().(time.Time).UTC().Format(ISO8601Milli), nil
	case t == bytesType:
		return hex.EncodeToString(v.Interface().([]byte)), nil
	}

	switch v.Kind() {
	case reflect.Struct:
		obj := make(map[string]interface{}, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.PkgPath != "" { // unexported
				continue
			}
			name, omitempty := jsonTag(field)
			if name == "-" {
				continue
			}
			fv := v.Field(i)
			if omitempty && isEmptyValue(fv) {
				continue
			}
			cv, err := toCanonicalValue(fv)
			if err != nil {
				return nil, err
			}
			obj[name] = cv
		}
		return obj, nil

	case reflect.Map:
		if v.Len() == 0 && v.IsNil() {
			return nil, nil
		}
		obj := make(map[string]interface{}, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key := fmt.Sprint(iter.Key().Interface())
			cv, err := toCanonicalValue(iter.Value())
			if err != nil {
				return nil, err
			}
			obj[key] = cv
		}
		return obj, nil

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil, nil
		}
		arr := make([]interface{}, v.Len())
		for i := 0; i < v.Len(); i++ {
			cv, err := toCanonicalValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			arr[i] = cv
		}
		return arr, nil

	case reflect.Chan, reflect.Func:
		return nil, fmt.Errorf("codec: cannot canonicalize %s", v.Kind())

	default:
		return v.Interface(), nil
	}
}

func jsonTag(field reflect.StructField) (name string, omitempty bool) {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name, false
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = field.Name
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	case reflect.Struct:
		if v.Type() == timeType {
			return v.Interface().(time.Time).IsZero()
		}
	}
	return false
}

// writeCanonical serializes a canonical value tree (built by
// toCanonicalValue) to deterministic JSON bytes: object keys sorted
// lexicographically, no extraneous whitespace.
func writeCanonical(buf *bytes.Buffer, node interface{}) error {
	switch val := node.(type) {
	case nil:
		buf.WriteString("null")
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []interface{}:
		buf.WriteByte('[')
		for i, elt := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elt); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}
