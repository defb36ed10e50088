package transfer

import "io"

// countingReader reports the cumulative number of bytes read through it.
// Wrapped around the photo file so progress tracks payload bytes, not
// multipart framing.
type countingReader struct {
	r      io.Reader
	sent   int64
	report func(sent int64)
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.sent += int64(n)
		if cr.report != nil {
			cr.report(cr.sent)
		}
	}
	return n, err
}
