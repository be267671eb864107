package internal

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Supported output encodings.
const (
	EncodingUTF8    = "utf8"
	EncodingUTF8BOM = "utf8bom"
	EncodingUTF16LE = "utf16le"
)

// DefaultFlushLines is the per-worker buffer flush threshold when the CLI
// does not override it.
const DefaultFlushLines = 5000

// ScanOptions - public options from CLI.
type ScanOptions struct {
	Root       string
	Prefix     string
	FileTypes  []string
	Output     string
	Encoding   string
	FlushLines int
	Threads    int
	Archives   bool

	extMap      map[string]struct{}
	prefixLower string
}

// Validate checks invariants.
func (o *ScanOptions) Validate() error {
	if o.Root == "" {
		return errors.New("root path is required")
	}
	switch o.Encoding {
	case "", EncodingUTF8, EncodingUTF8BOM, EncodingUTF16LE:
	default:
		return fmt.Errorf("unsupported encoding %q", o.Encoding)
	}
	if o.FlushLines < 0 {
		return errors.New("buffer must not be negative")
	}
	return nil
}

// Prepare builds fast lookup structures and sensible defaults.
func (o *ScanOptions) Prepare() {
	o.extMap = toExtSet(o.FileTypes)
	o.prefixLower = strings.ToLower(o.Prefix)
	if o.Threads <= 0 {
		o.Threads = runtime.NumCPU()
	}
	if o.FlushLines == 0 {
		o.FlushLines = DefaultFlushLines
	}
	if o.Encoding == "" {
		o.Encoding = EncodingUTF8
	}
	if o.Output == "" {
		o.Output = "file_list.csv"
	}
}

// toExtSet normalizes "doc,PDF, .txt" style lists into a lowercase set
// without dots. An empty list means no extension filtering at all.
func toExtSet(types []string) map[string]struct{} {
	m := make(map[string]struct{})
	for _, t := range types {
		for _, v := range strings.Split(t, ",") {
			v = strings.TrimSpace(v)
			v = strings.TrimPrefix(v, ".")
			if v == "" {
				continue
			}
			m[strings.ToLower(v)] = struct{}{}
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
