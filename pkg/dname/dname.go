package dname

import (
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/wrouesnel/keystore-setup/pkg/models"
	"github.com/wrouesnel/keystore-setup/pkg/util"
)

// Attribute is a single KEY=value component of a distinguished name.
type Attribute struct {
	Key   string
	Value string
}

// SubjectInput is the raw user input for each subject field.
type SubjectInput struct {
	Name         string
	OrgUnit      string
	Organization string
	City         string
	State        string
	Country      string
}

// ApplyDefaults trims each field and substitutes the fallbacks for blank
// input. The returned bool is true if the country code had to be replaced.
func ApplyDefaults(input SubjectInput, defaults models.SubjectDefaults) (models.Subject, bool) {
	subject := models.Subject{
		Name:    util.DefaultIfBlank(input.Name, defaults.Name),
		OrgUnit: strings.TrimSpace(input.OrgUnit),
		City:    util.DefaultIfBlank(input.City, defaults.City),
		State:   strings.TrimSpace(input.State),
	}
	subject.Organization = util.DefaultIfBlank(input.Organization, subject.Name)

	country := strings.TrimSpace(input.Country)
	if utf8.RuneCountInString(country) != 2 { //nolint:gomnd
		subject.Country = defaults.Country
		return subject, true
	}
	subject.Country = country
	return subject, false
}

// Attributes returns the subject as ordered attributes, CN, OU, O, L, ST, C,
// with empty fields dropped.
func Attributes(subject models.Subject) []Attribute {
	attrs := []Attribute{
		{"CN", subject.Name},
		{"OU", subject.OrgUnit},
		{"O", subject.Organization},
		{"L", subject.City},
		{"ST", subject.State},
		{"C", subject.Country},
	}
	return lo.Filter(attrs, func(item Attribute, _ int) bool {
		return item.Value != ""
	})
}

// Build formats the subject as a distinguished name string suitable for
// keytool's -dname argument.
func Build(subject models.Subject) string {
	parts := lo.Map(Attributes(subject), func(item Attribute, _ int) string {
		return item.Key + "=" + Escape(item.Value)
	})
	return strings.Join(parts, ",")
}

// Escape backslash-escapes characters with special meaning in a
// distinguished name value.
func Escape(value string) string {
	var sb strings.Builder
	for i, r := range value {
		switch r {
		case ',', '+', '"', '\\', '<', '>', ';':
			sb.WriteRune('\\')
		case '#':
			if i == 0 {
				sb.WriteRune('\\')
			}
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
