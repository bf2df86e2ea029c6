package entrypoint

import (
	"unicode/utf8"

	"github.com/chigopher/pathlib"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/wrouesnel/keystore-setup/pkg/models"
	"gopkg.in/yaml.v3"
)

var ErrInvalidDefaults = errors.New("invalid subject defaults")

// LoadSubjectDefaults returns the built-in subject fallbacks, overridden by
// any values set in the YAML file at path. An empty path skips loading.
func LoadSubjectDefaults(fs afero.Fs, path string) (models.SubjectDefaults, error) {
	defaults := models.NewSubjectDefaults()
	if path == "" {
		return defaults, nil
	}

	content, err := pathlib.NewPath(path, pathlib.PathWithAfero(fs)).ReadFile()
	if err != nil {
		return defaults, errors.Wrapf(err, "reading defaults file %s", path)
	}

	if err := yaml.Unmarshal(content, &defaults); err != nil {
		return defaults, errors.Wrapf(err, "parsing defaults file %s", path)
	}

	if defaults.Name == "" || defaults.City == "" {
		return defaults, errors.Wrap(ErrInvalidDefaults, "name and city may not be blank")
	}
	if utf8.RuneCountInString(defaults.Country) != 2 { //nolint:gomnd
		return defaults, errors.Wrapf(ErrInvalidDefaults, "country %q is not a two letter code", defaults.Country)
	}
	return defaults, nil
}
