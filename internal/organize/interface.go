package organize

// FileMover relocates a file into a destination directory and returns the
// path it ended up at. The batch processor depends on this interface so
// tests can substitute failing movers.
type FileMover interface {
	Move(src, destDir string) (string, error)
}

// MoveFunc adapts a function to FileMover.
type MoveFunc func(src, destDir string) (string, error)

// Move implements FileMover.
func (f MoveFunc) Move(src, destDir string) (string, error) { return f(src, destDir) }

// Ensure Mover implements the FileMover interface
var _ FileMover = (*Mover)(nil)
