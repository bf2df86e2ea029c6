package properties

import (
	"fmt"
	"os"
	"strings"

	"github.com/chigopher/pathlib"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/wrouesnel/keystore-setup/pkg/models"
	"go.uber.org/zap"
)

var ErrWriteFailed = errors.New("failed to write properties file")

// Keys of the signing properties file, in the order they are written.
const (
	KeyStorePassword = "storePassword"
	KeyKeyPassword   = "keyPassword"
	KeyKeyAlias      = "keyAlias"
	KeyStoreFile     = "storeFile"
)

// FilePermissions for the properties file. It contains the keystore passwords.
const FilePermissions = 0600

// Render returns the properties document for a generated keystore. Values
// are written unescaped. storeFile must already be absolute.
func Render(result models.KeystoreResult, storeFile string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s=%s\n", KeyStorePassword, result.StorePassword.Reveal())
	fmt.Fprintf(&sb, "%s=%s\n", KeyKeyPassword, result.KeyPassword.Reveal())
	fmt.Fprintf(&sb, "%s=%s\n", KeyKeyAlias, result.Alias)
	fmt.Fprintf(&sb, "%s=%s\n", KeyStoreFile, storeFile)
	return []byte(sb.String())
}

// Write emits the properties file at path, creating its directory if needed
// and replacing any existing file.
func Write(fs afero.Fs, path string, result models.KeystoreResult, storeFile string) (*pathlib.Path, error) {
	propertiesPath := pathlib.NewPath(path, pathlib.PathWithAfero(fs))
	l := zap.L().With(zap.String("properties_file", propertiesPath.String()))

	l.Debug("Creating properties directory")
	if err := propertiesPath.Parent().MkdirAll(); err != nil {
		l.Error("Creating properties directory failed", zap.Error(err))
		return nil, errors.Wrap(ErrWriteFailed, err.Error())
	}

	if err := propertiesPath.WriteFileMode(Render(result, storeFile), os.FileMode(FilePermissions)); err != nil {
		l.Error("Writing properties file failed", zap.Error(err))
		return nil, errors.Wrap(ErrWriteFailed, err.Error())
	}
	l.Info("Wrote properties file")
	return propertiesPath, nil
}
