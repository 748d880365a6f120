package nmea

import (
	"strconv"
	"strings"
)

// fieldReader converts sentence fields and remembers the first failure, so
// a decoder can read everything and check once.
//
// Empty fields read as zero. A non-empty field that does not convert is a
// numeric error.
type fieldReader struct {
	kind   Kind
	fields []string
	err    *DecodeError
}

func newFieldReader(s Sentence) *fieldReader {
	return &fieldReader{kind: s.Kind, fields: s.Fields}
}

func (r *fieldReader) raw(i int) string {
	if i < 0 || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r *fieldReader) fail(i int, err error) {
	if r.err != nil {
		return
	}
	r.err = &DecodeError{Kind: r.kind, Reason: ErrNumeric, Field: i, Value: r.raw(i), Err: err}
}

func (r *fieldReader) float(i int) float64 {
	v := r.raw(i)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(i, err)
		return 0
	}
	return f
}

func (r *fieldReader) int(i int) int {
	v := r.raw(i)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(i, err)
		return 0
	}
	return n
}

func (r *fieldReader) coordinate(i, hemi int) float64 {
	v, err := ParseCoordinate(r.raw(i), r.raw(hemi))
	if err != nil {
		r.fail(i, err)
		return 0
	}
	return v
}

func (r *fieldReader) time(i int) (string, bool) {
	v, ok, err := FormatTime(r.raw(i))
	if err != nil {
		r.fail(i, err)
		return "", false
	}
	return v, ok
}

// Err returns nil (typed as error) when every read succeeded.
func (r *fieldReader) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err
}
