package internal

import (
	"path/filepath"
	"strings"
)

// matchTopLevelDir reports whether a directory directly under the root
// passes the prefix filter: the name must start with the prefix,
// case-insensitively. An empty prefix admits everything.
func (o *ScanOptions) matchTopLevelDir(name string) bool {
	if o.prefixLower == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(name), o.prefixLower)
}

// matchNestedDir applies the deeper-level rule: the candidate's full path
// must contain the prefix anywhere, case-insensitively. This is looser than
// the top-level starts-with rule; the two are intentionally kept distinct.
func (o *ScanOptions) matchNestedDir(path string) bool {
	if o.prefixLower == "" {
		return true
	}
	return strings.Contains(strings.ToLower(path), o.prefixLower)
}

// allowedExt reports whether a file name passes the extension filter.
// A name with no dot has no extension and never matches a non-empty filter.
func (o *ScanOptions) allowedExt(name string) bool {
	if o.extMap == nil {
		return true
	}
	ext := filepath.Ext(name)
	if ext == "" {
		return false
	}
	_, ok := o.extMap[strings.ToLower(ext[1:])]
	return ok
}
