package window

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const hexDigits = "0123456789ABCDEF"

// MarshalJSON encodes the record compactly with a fixed field order. Control
// characters are escaped as \u00XX with uppercase hex; everything else,
// including non-ASCII text, is written verbatim.
func (r Result) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 128+2*len(r.Text))
	buf = append(buf, `{"text":`...)
	buf = appendString(buf, r.Text)
	buf = append(buf, `,"segments":[`...)
	for i, seg := range r.Segments {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, `{"start":`...)
		buf = strconv.AppendInt(buf, seg.Start, 10)
		buf = append(buf, `,"end":`...)
		buf = strconv.AppendInt(buf, seg.End, 10)
		buf = append(buf, `,"text":`...)
		buf = appendString(buf, seg.Text)
		buf = append(buf, '}')
	}
	buf = append(buf, `],"context":[`...)
	for i, token := range r.Context {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendString(buf, token)
	}
	buf = append(buf, `],"completed":`...)
	buf = strconv.AppendBool(buf, r.Completed)
	buf = append(buf, `,"next_offset_ms":`...)
	buf = strconv.AppendInt(buf, r.NextOffsetMs, 10)
	buf = append(buf, '}')
	return buf, nil
}

// Decode parses a record produced by MarshalJSON (or any equivalent JSON).
func Decode(data []byte) (Result, error) {
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, fmt.Errorf("window: decode result: %w", err)
	}
	return res, nil
}

// Escape returns s escaped for inclusion inside a JSON string literal.
func Escape(s string) string {
	return string(appendEscaped(nil, s))
}

func appendString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	dst = appendEscaped(dst, s)
	return append(dst, '"')
}

func appendEscaped(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			dst = append(dst, '\\', '\\')
		case '"':
			dst = append(dst, '\\', '"')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if c < 0x20 {
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
				continue
			}
			dst = append(dst, c)
		}
	}
	return dst
}
