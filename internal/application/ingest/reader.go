package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"unicode"
)

// Reader streams records from a JSON document.  The document is either a
// top-level array of objects or a sequence of objects (newline delimited or
// concatenated).
type Reader struct {
	src     *bufio.Reader
	dec     *json.Decoder
	inArray bool
	done    bool
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{src: bufio.NewReader(r)}
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Raw, error) {
	if r.done {
		return nil, io.EOF
	}
	if r.dec == nil {
		if err := r.start(); err != nil {
			r.done = true
			return nil, err
		}
	}
	if !r.dec.More() {
		r.done = true
		if r.inArray {
			if _, err := r.dec.Token(); err != nil {
				return nil, fmt.Errorf("ingest: unterminated array: %w", err)
			}
		}
		return nil, io.EOF
	}
	var rec Raw
	if err := r.dec.Decode(&rec); err != nil {
		r.done = true
		return nil, fmt.Errorf("ingest: decode record at offset %d: %w", r.dec.InputOffset(), err)
	}
	return rec, nil
}

// start skips a byte order mark and leading space, then consumes the opening
// bracket of an array document.
func (r *Reader) start() error {
	for {
		c, _, err := r.src.ReadRune()
		if err == io.EOF {
			r.dec = json.NewDecoder(r.src)
			return nil
		}
		if err != nil {
			return fmt.Errorf("ingest: read: %w", err)
		}
		if c == '\uFEFF' || unicode.IsSpace(c) {
			continue
		}
		if err := r.src.UnreadRune(); err != nil {
			return err
		}
		r.inArray = c == '['
		break
	}
	r.dec = json.NewDecoder(r.src)
	r.dec.UseNumber()
	if r.inArray {
		if _, err := r.dec.Token(); err != nil {
			return fmt.Errorf("ingest: read array start: %w", err)
		}
	}
	return nil
}
