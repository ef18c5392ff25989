// Package filesys provides the one filesystem primitive shmvault's backup
// directory handling needs: ensuring the backup directory exists. Stat and
// directory-creation errors are classified into the pkg/errors taxonomy so
// callers can log and report them consistently with every other I/O
// failure in the pipeline; an existing non-directory path yields
// ErrIsNotDir and a failed chmod returns the os error unchanged.
package filesys

import (
	"errors"
	"os"

	shmerrors "github.com/shmvault/shmvault/pkg/errors"
)

var ErrIsNotDir = errors.New("path isn't a directory")

// CreateDir creates a directory at the specified path with the given
// permissions.
//
// If the directory already exists:
//   - If 'force' is true, it proceeds without error.
//   - If 'force' is false, it returns an error.
//
// It also returns an error if the existing path is a file (not a directory).
func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	stat, err := os.Stat(dirPath)
	if !force && !os.IsNotExist(err) {
		return shmerrors.ClassifyDirectoryCreationError(err, dirPath)
	}

	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}

	if err := os.MkdirAll(dirPath, permission); err != nil {
		return shmerrors.ClassifyDirectoryCreationError(err, dirPath)
	}

	return os.Chmod(dirPath, permission)
}
