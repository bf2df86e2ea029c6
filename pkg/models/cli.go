package models

// DefaultName is substituted when no name is entered.
const DefaultName = "Bechaalany"

// DefaultCity is substituted when no city is entered.
const DefaultCity = "Unknown"

// DefaultCountry is substituted when the country code is not two characters.
const DefaultCountry = "US"

// SubjectDefaults carries the fallback values applied to blank subject fields.
type SubjectDefaults struct {
	Name    string `yaml:"name"`
	City    string `yaml:"city"`
	Country string `yaml:"country"`
}

// NewSubjectDefaults returns the built-in fallback values.
func NewSubjectDefaults() SubjectDefaults {
	return SubjectDefaults{
		Name:    DefaultName,
		City:    DefaultCity,
		Country: DefaultCountry,
	}
}

// KeystoreFileConfig carries the file locations for the generated artifacts.
type KeystoreFileConfig struct {
	KeystoreFile   string `help:"Keystore file to create"                         default:"${home}/upload-keystore.jks"`
	PropertiesFile string `help:"Properties file consumed by the Gradle build"    default:"android/key.properties"`
	Keytool        string `help:"keytool binary, resolved on PATH if not a path"  default:"keytool"`
}
