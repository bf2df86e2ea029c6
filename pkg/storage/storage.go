package storage

import (
	"os"
	"path/filepath"

	"github.com/chigopher/pathlib"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// KeystorePath returns the keystore location on fs.
func KeystorePath(fs afero.Fs, path string) *pathlib.Path {
	return pathlib.NewPath(path, pathlib.PathWithAfero(fs))
}

// KeystoreExists reports whether a file is already present at keystorePath.
func KeystoreExists(keystorePath *pathlib.Path) (bool, error) {
	l := zap.L().With(zap.String("keystore", keystorePath.String()))
	exists, err := keystorePath.Exists()
	if err != nil {
		l.Error("Filesystem access error", zap.Error(err))
		return false, errors.Wrap(err, "checking for existing keystore")
	}
	if exists {
		l.Debug("Found existing keystore")
	}
	return exists, nil
}

// RemoveKeystore deletes an existing keystore. A missing file is not an error.
func RemoveKeystore(keystorePath *pathlib.Path) error {
	l := zap.L().With(zap.String("keystore", keystorePath.String()))
	if err := keystorePath.Remove(); err != nil && !os.IsNotExist(err) {
		l.Error("Removing existing keystore failed", zap.Error(err))
		return errors.Wrap(err, "removing existing keystore")
	}
	l.Info("Removed existing keystore")
	return nil
}

// AbsolutePath resolves path against the working directory and expands a
// leading ~ to the user's home directory.
func AbsolutePath(path string) (string, error) {
	if path == "~" || len(path) > 1 && path[:2] == "~"+string(filepath.Separator) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "resolving home directory")
		}
		path = filepath.Join(home, path[1:])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, "resolving absolute path of %s", path)
	}
	return abs, nil
}
