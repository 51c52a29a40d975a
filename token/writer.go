package token

import (
	"strconv"
	"sync"
)

// Writer appends JSON tokens to a byte buffer.
type Writer struct {
	buf []byte
}

var writerPool = sync.Pool{New: func() interface{} { return &Writer{buf: make([]byte, 0, 256)} }}

// NewWriter creates a writer appending to dst
func NewWriter(dst []byte) *Writer {
	return &Writer{buf: dst}
}

// AcquireWriter returns a pooled, empty writer
func AcquireWriter() *Writer {
	w := writerPool.Get().(*Writer)
	w.buf = w.buf[:0]
	return w
}

// ReleaseWriter returns writer to the pool
func ReleaseWriter(w *Writer) {
	if w == nil || cap(w.buf) > 64*1024 {
		return
	}
	writerPool.Put(w)
}

// Bytes returns written bytes; the slice is only valid until the writer is reused.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns number of written bytes
func (w *Writer) Len() int { return len(w.buf) }

// Write implements io.Writer so that third-party encoders can stream into the buffer.
func (w *Writer) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *Writer) WriteRaw(raw []byte) { w.buf = append(w.buf, raw...) }

func (w *Writer) WriteNull() { w.buf = append(w.buf, "null"...) }

func (w *Writer) WriteObjectStart() { w.buf = append(w.buf, '{') }

func (w *Writer) WriteObjectEnd() { w.buf = append(w.buf, '}') }

func (w *Writer) WriteArrayStart() { w.buf = append(w.buf, '[') }

func (w *Writer) WriteArrayEnd() { w.buf = append(w.buf, ']') }

func (w *Writer) WriteMore() { w.buf = append(w.buf, ',') }

// WriteObjectField writes a quoted property name followed by ':'
func (w *Writer) WriteObjectField(name string) {
	w.buf = appendQuotedStringFastTo(w.buf, name)
	w.buf = append(w.buf, ':')
}

// WriteString writes a quoted, escaped string
func (w *Writer) WriteString(s string) {
	w.buf = appendQuotedStringFastTo(w.buf, s)
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, "true"...)
		return
	}
	w.buf = append(w.buf, "false"...)
}

func (w *Writer) WriteInt64(v int64) { w.buf = strconv.AppendInt(w.buf, v, 10) }

func (w *Writer) WriteUint64(v uint64) { w.buf = strconv.AppendUint(w.buf, v, 10) }

func (w *Writer) WriteFloat32(v float32) {
	w.buf = strconv.AppendFloat(w.buf, float64(v), 'g', -1, 32)
}

func (w *Writer) WriteFloat64(v float64) {
	w.buf = strconv.AppendFloat(w.buf, v, 'g', -1, 64)
}

const hexDigits = "0123456789abcdef"

func appendQuotedStringFastTo(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c == '"' || c == '\\' {
			return appendEscaped(dst, s, i)
		}
	}
	dst = append(dst, s...)
	dst = append(dst, '"')
	return dst
}

func appendEscaped(dst []byte, s string, from int) []byte {
	dst = append(dst, s[:from]...)
	for i := from; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			dst = append(dst, '\\', c)
		case c == '\n':
			dst = append(dst, '\\', 'n')
		case c == '\r':
			dst = append(dst, '\\', 'r')
		case c == '\t':
			dst = append(dst, '\\', 't')
		case c < 0x20:
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
		default:
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}
