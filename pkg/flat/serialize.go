package flat

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Serialize normalises a default value tree into the string form used by
// form controls: booleans become "on" (false is dropped), numbers are
// rendered in decimal, times use RFC 3339. Maps with string keys and slices
// are walked; nil and unsupported values are dropped.
func Serialize(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			if serialized := Serialize(item); serialized != nil {
				out[key] = serialized
			}
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = Serialize(item)
		}
		return out
	case []string:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out
	case File:
		return typed
	}

	if str, ok := scalarString(value); ok {
		return str
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return Serialize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = Serialize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			if serialized := Serialize(iter.Value().Interface()); serialized != nil {
				out[iter.Key().String()] = serialized
			}
		}
		return out
	}
	return nil
}

func scalarString(value any) (string, bool) {
	switch typed := value.(type) {
	case string:
		return typed, true
	case bool:
		if typed {
			return "on", true
		}
		return "", false
	case int:
		return strconv.Itoa(typed), true
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(typed).Int(), 10), true
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(typed).Uint(), 10), true
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case time.Time:
		return typed.Format(time.RFC3339), true
	case fmt.Stringer:
		return typed.String(), true
	default:
		return "", false
	}
}
