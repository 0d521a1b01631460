package types

import (
	"fmt"
	"path/filepath"
)

// SourceFile is an EPUB discovered in the source directory at the start of a run.
type SourceFile struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Name returns the base name of the file
func (f SourceFile) Name() string {
	return filepath.Base(f.Path)
}

// String returns a human-readable representation
func (f SourceFile) String() string {
	return fmt.Sprintf("%s (%d bytes)", f.Path, f.Size)
}
