package organize

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"epubtokens/internal/errors"
)

// maxCollisionAttempts bounds the search for a free destination name.
const maxCollisionAttempts = 1000

// Mover relocates files into a destination directory without ever
// overwriting an existing file.
type Mover struct {
	mu sync.Mutex // Serializes the free-name check and the move
}

// New creates a Mover.
func New() *Mover {
	return &Mover{}
}

// Move moves src into destDir, creating destDir if needed, and returns the
// path actually used. On a name collision the file is renamed to
// name_(1).ext, name_(2).ext, ... Failures are *errors.MoveError.
func (m *Mover) Move(src, destDir string) (string, error) {
	cleanSrc := filepath.Clean(src)

	srcInfo, err := os.Stat(cleanSrc)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewMoveError(src, errors.SourceMissing, err)
		}
		return "", errors.NewMoveError(src, errors.IOError, err)
	}
	if srcInfo.IsDir() {
		return "", errors.NewMoveError(src, errors.IOError, fmt.Errorf("cannot move directory as file"))
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", errors.NewMoveError(src, errors.DestinationUnwritable, err)
	}

	dest := filepath.Join(filepath.Clean(destDir), filepath.Base(cleanSrc))
	if dest == cleanSrc {
		return dest, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	finalDest, err := findUniqueDestName(dest)
	if err != nil {
		return "", errors.NewMoveError(src, errors.DestinationUnwritable, err)
	}

	if err := moveFile(cleanSrc, finalDest); err != nil {
		if os.IsPermission(err) {
			return "", errors.NewMoveError(src, errors.DestinationUnwritable, err)
		}
		if os.IsNotExist(err) {
			if _, statErr := os.Stat(cleanSrc); os.IsNotExist(statErr) {
				return "", errors.NewMoveError(src, errors.SourceMissing, err)
			}
		}
		return "", errors.NewMoveError(src, errors.IOError, err)
	}
	return finalDest, nil
}

// findUniqueDestName returns path if it is free, otherwise the first free
// path with a _(n) counter before the extension.
func findUniqueDestName(path string) (string, error) {
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return path, nil
	} else if err != nil {
		return "", fmt.Errorf("error checking destination %s: %w", path, err)
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for counter := 1; counter <= maxCollisionAttempts; counter++ {
		candidate := fmt.Sprintf("%s_(%d)%s", base, counter, ext)
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("failed to find unique name for %s after %d attempts", path, maxCollisionAttempts)
}

// moveFile renames src to dest, falling back to copy and remove when the
// two paths are on different filesystems.
func moveFile(src, dest string) error {
	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !stderrors.As(err, &linkErr) || !stderrors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}
	if err := copyFile(src, dest); err != nil {
		os.Remove(dest)
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	// O_EXCL keeps the no-overwrite guarantee on the copy path too.
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
