package records

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"time"
)

// Canonical renders v as a stable string. ok is false for nil so callers can
// tell NULL apart from the empty string.
func Canonical(v any) (s string, ok bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case []byte:
		return string(t), true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.FormatInt(int64(t), 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), true
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), true
	default:
		return fmt.Sprint(t), true
	}
}

// AppendEncoded appends a length-prefixed encoding of one (name, value) pair
// to dst. The encoding is injective: distinct ordered pair sequences never
// produce the same bytes, and NULL is distinct from "".
func AppendEncoded(dst []byte, name string, v any) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(name)))
	dst = append(dst, name...)
	s, ok := Canonical(v)
	if !ok {
		return append(dst, 0)
	}
	dst = append(dst, 1)
	dst = binary.AppendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

// EncodeRow encodes r over cols in the given order.
func EncodeRow(r Record, cols []string) []byte {
	var buf []byte
	for _, c := range cols {
		buf = AppendEncoded(buf, c, r[c])
	}
	return buf
}
