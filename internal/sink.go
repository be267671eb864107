package internal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// OutputHeader is the single header line preceding the path records.
const OutputHeader = "File Path\n"

// Sink is the single shared output destination. Flush is the only write
// path and the only cross-worker synchronization point besides the queue.
type Sink struct {
	mu      sync.Mutex
	w       io.Writer
	closers []io.Closer
}

// NewSink creates (or truncates) the output file, wraps it in the requested
// encoding and writes the header. Failure here is fatal to the scan: no
// worker may start without an open sink.
func NewSink(path, encoding string) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", path, err)
	}
	s, err := NewWriterSink(f, encoding)
	if err != nil {
		f.Close()
		return nil, err
	}
	// close the encoder before the file
	s.closers = append(s.closers, f)
	return s, nil
}

// NewWriterSink wraps an arbitrary writer. The utf8bom and utf16le
// encodings emit their byte-order mark before the header line.
func NewWriterSink(w io.Writer, encoding string) (*Sink, error) {
	s := &Sink{}
	switch encoding {
	case "", EncodingUTF8:
		s.w = w
	case EncodingUTF8BOM:
		tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
		s.w = tw
		s.closers = append(s.closers, tw)
	case EncodingUTF16LE:
		enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
		tw := transform.NewWriter(w, enc)
		s.w = tw
		s.closers = append(s.closers, tw)
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
	if _, err := io.WriteString(s.w, OutputHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return s, nil
}

// Flush appends buf verbatim to the destination under the sink lock.
func (s *Sink) Flush(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(buf)
	return err
}

// Close closes the encoder first, flushing any partial transform state,
// then the underlying file.
func (s *Sink) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// lineBuffer is a worker-private accumulation of matched path lines.
// Exactly one worker owns it, so it needs no locking.
type lineBuffer struct {
	buf   bytes.Buffer
	lines int
	limit int
}

func newLineBuffer(limit int) *lineBuffer {
	return &lineBuffer{limit: limit}
}

// Add appends one path followed by a line terminator.
func (b *lineBuffer) Add(path string) {
	b.buf.WriteString(path)
	b.buf.WriteByte('\n')
	b.lines++
}

// Full reports whether the flush threshold has been crossed.
func (b *lineBuffer) Full() bool { return b.lines >= b.limit }

// FlushTo writes the accumulated lines to the sink and resets the buffer.
// It reports how many lines reached the sink; on error the buffered lines
// are lost and the count is zero.
func (b *lineBuffer) FlushTo(s *Sink) (int, error) {
	if b.lines == 0 {
		return 0, nil
	}
	n := b.lines
	err := s.Flush(b.buf.Bytes())
	b.buf.Reset()
	b.lines = 0
	if err != nil {
		return 0, err
	}
	return n, nil
}
