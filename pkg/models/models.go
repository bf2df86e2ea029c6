package models

// KeyAlias is the alias the upload key is stored under in the keystore.
const KeyAlias = "upload"

// Secret is a passphrase. It formats as a redacted string so it can be passed
// around (and accidentally logged) without disclosing the value.
type Secret string

const redacted = "[REDACTED]"

func (s Secret) String() string {
	return redacted
}

// GoString keeps %#v redacted too.
func (s Secret) GoString() string {
	return redacted
}

// MarshalText is used by encoders such as zap's reflection encoder.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// Reveal returns the plaintext value. Only call this at the point the value
// leaves the process (keytool arguments, properties file).
func (s Secret) Reveal() string {
	return string(s)
}

// Subject holds the certificate subject fields after defaults are applied.
// Empty fields are omitted from the distinguished name.
type Subject struct {
	Name         string
	OrgUnit      string
	Organization string
	City         string
	State        string
	Country      string
}

// CredentialRequest is everything collected from the user to generate a keystore.
type CredentialRequest struct {
	StorePassword Secret
	KeyPassword   Secret
	Subject       Subject
}

// KeystoreResult is returned by a successful keystore generation.
type KeystoreResult struct {
	StorePassword Secret
	KeyPassword   Secret
	Alias         string
	KeystorePath  string
}
