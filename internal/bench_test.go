package internal

import (
	"context"
	"fmt"
	"io"
	"testing"
)

// benchTree builds a fake tree with the given shape: breadth subdirectories
// per level down to depth, filesPerDir files in every directory.
func benchTree(depth, breadth, filesPerDir int) *fakeFS {
	var files []string
	var walk func(prefix string, level int)
	walk = func(prefix string, level int) {
		for f := 0; f < filesPerDir; f++ {
			files = append(files, fmt.Sprintf("%sfile%d.txt", prefix, f))
		}
		if level >= depth {
			return
		}
		for d := 0; d < breadth; d++ {
			walk(fmt.Sprintf("%sdir%d/", prefix, d), level+1)
		}
	}
	walk("", 0)
	return newFakeFS("/bench", files)
}

func BenchmarkScan(b *testing.B) {
	fsys := benchTree(4, 4, 5)
	for _, threads := range []int{1, 4, 8} {
		b.Run(fmt.Sprintf("%dworkers", threads), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				opts := ScanOptions{Root: "/bench", Threads: threads}
				opts.Prepare()
				sink, err := NewWriterSink(io.Discard, EncodingUTF8)
				if err != nil {
					b.Fatal(err)
				}
				var stats ScanStats
				if err := NewScannerFS(fsys).Scan(context.Background(), opts, sink, &stats); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
