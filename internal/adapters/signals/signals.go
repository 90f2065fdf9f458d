// Package signals streams raw key events from JSONL recordings.
//
// A recording is one line per signal, in wall-clock order, the way a
// browser session would have produced them. Malformed lines are skipped
// so a truncated recording still replays as far as it goes
package signals

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
)

const maxScanTokenSize = 1024 * 1024

// Signal kinds
const (
	KindKeyDown       = "keydown"
	KindKeyPress      = "keypress"
	KindKeyUp         = "keyup"
	KindSectionStart  = "section_start"
	KindSectionSubmit = "section_submit"
	KindSessionEnd    = "session_end"
)

// Signal is one raw event from a recording
type Signal struct {
	Kind     string `json:"kind"`
	Time     int64  `json:"t"`
	Keycode  int    `json:"keycode,omitempty"`
	Char     string `json:"char,omitempty"`
	Sentence string `json:"sentence,omitempty"`
	Input    string `json:"input,omitempty"`
}

// Reader streams signals from a JSONL stream
type Reader struct {
	r       io.ReadCloser
	gz      *gzip.Reader
	sc      *bufio.Scanner
	err     error
	signals int
	skipped int
}

// Open opens a recording file, transparently unwrapping .gz
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewReader(f, strings.HasSuffix(path, ".gz"))
}

// NewReader wraps an open stream. Set gzipped when the stream is compressed
func NewReader(r io.ReadCloser, gzipped bool) (*Reader, error) {
	rd := &Reader{r: r}
	var src io.Reader = r
	if gzipped {
		gz, err := gzip.NewReader(r)
		if err != nil {
			if cerr := r.Close(); cerr != nil {
				return nil, cerr
			}
			return nil, err
		}
		rd.gz = gz
		src = gz
	}
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 64*1024), maxScanTokenSize)
	rd.sc = sc
	return rd, nil
}

// Next reads the next signal; returns io.EOF when the recording ends
func (rd *Reader) Next() (Signal, error) {
	if rd.err != nil {
		return Signal{}, rd.err
	}
	for {
		if !rd.sc.Scan() {
			if err := rd.sc.Err(); err != nil {
				rd.err = err
				return Signal{}, err
			}
			rd.err = io.EOF
			return Signal{}, io.EOF
		}
		line := rd.sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var sig Signal
		if err := json.Unmarshal(line, &sig); err != nil || sig.Kind == "" {
			rd.skipped++
			continue
		}
		rd.signals++
		return sig, nil
	}
}

// Close closes the underlying stream
func (rd *Reader) Close() error {
	var first error
	if rd.gz != nil {
		if err := rd.gz.Close(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
			first = err
		}
	}
	if err := rd.r.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// Stats returns how many signals parsed and how many lines were skipped
func (rd *Reader) Stats() (signals, skipped int) {
	return rd.signals, rd.skipped
}
