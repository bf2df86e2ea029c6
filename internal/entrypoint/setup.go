package entrypoint

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/wrouesnel/keystore-setup/pkg/dname"
	"github.com/wrouesnel/keystore-setup/pkg/keytool"
	"github.com/wrouesnel/keystore-setup/pkg/models"
	"github.com/wrouesnel/keystore-setup/pkg/prompt"
	"github.com/wrouesnel/keystore-setup/pkg/properties"
	"github.com/wrouesnel/keystore-setup/pkg/storage"
	"github.com/yuseferi/zax/v2"
	"go.uber.org/zap"
)

var ErrCancelled = errors.New("cancelled by user")

const MinPasswordLength = 6

const banner = "=================================================="

// Setup holds the collaborators of one keystore setup run.
type Setup struct {
	Fs       afero.Fs
	Runner   keytool.Runner
	Prompter *prompt.Prompter

	// Keytool is the binary name or path to resolve.
	Keytool string
	// KeystoreFile must be absolute. It is passed to keytool and written to
	// the properties file as given.
	KeystoreFile   string
	PropertiesFile string
	Defaults       models.SubjectDefaults
}

// Run executes the setup: preflight checks, collecting the request,
// generating the keystore and writing the properties file. ErrCancelled is
// returned if the user declines to overwrite an existing keystore.
func (s *Setup) Run(ctx context.Context) error {
	l := zap.L().With(zax.Get(ctx)...)
	p := s.Prompter

	l.Debug("Running preflight checks")
	keytoolPath, err := s.preflight(ctx)
	if err != nil {
		return err
	}

	request, err := s.collectRequest(ctx)
	if err != nil {
		return err
	}

	p.Println()
	p.Println("Creating keystore...")
	p.Printf("Location: %s\n", s.KeystoreFile)
	p.Println()

	result, err := keytool.NewGenerator(s.Runner, keytoolPath).Generate(ctx, *request, s.KeystoreFile)
	if err != nil {
		var genErr *keytool.GenerationError
		if errors.As(err, &genErr) {
			p.Printf("Error creating keystore: %s\n", genErr.Diagnostic)
		}
		p.Println("Failed to create keystore.")
		return err
	}
	p.Println("Keystore created successfully!")
	p.Println()

	p.Println()
	p.Printf("Creating %s file...\n", s.PropertiesFile)
	propertiesPath, err := properties.Write(s.Fs, s.PropertiesFile, *result, result.KeystorePath)
	if err != nil {
		p.Printf("Error creating %s: %s\n", s.PropertiesFile, err.Error())
		p.Printf("Failed to create %s file.\n", s.PropertiesFile)
		return err
	}
	p.Printf("Created %s\n", propertiesPath.String())

	s.printSummary(result)
	l.Info("Keystore setup complete", zap.String("properties_file", propertiesPath.String()))
	return nil
}

// preflight resolves keytool and handles an existing keystore.
func (s *Setup) preflight(ctx context.Context) (string, error) {
	l := zap.L().With(zax.Get(ctx)...)
	p := s.Prompter

	keytoolPath, err := keytool.Locate(s.Runner, s.Keytool)
	if err != nil {
		l.Error("keytool lookup failed", zap.String("keytool", s.Keytool), zap.Error(err))
		p.Println("Error: keytool not found. Please install Java JDK.")
		p.Println("Make sure the JDK bin directory is on your PATH, or pass --keytool with the path to keytool.")
		return "", err
	}
	l.Debug("Found keytool", zap.String("keytool", keytoolPath))

	keystorePath := storage.KeystorePath(s.Fs, s.KeystoreFile)
	exists, err := storage.KeystoreExists(keystorePath)
	if err != nil {
		return "", err
	}
	if !exists {
		return keytoolPath, nil
	}

	p.Printf("Keystore already exists at: %s\n", s.KeystoreFile)
	overwrite, err := p.Confirm(ctx, "Do you want to overwrite it? (yes/no): ")
	if err != nil {
		return "", err
	}
	if !overwrite {
		p.Println("Cancelled.")
		return "", ErrCancelled
	}

	if err := storage.RemoveKeystore(keystorePath); err != nil {
		return "", err
	}
	p.Println("Removed existing keystore.")
	p.Println()
	return keytoolPath, nil
}

// collectRequest prompts for the passwords and certificate subject.
func (s *Setup) collectRequest(ctx context.Context) (*models.CredentialRequest, error) {
	l := zap.L().With(zax.Get(ctx)...)
	p := s.Prompter

	p.Println(banner)
	p.Println("Android Keystore Creation")
	p.Println(banner)
	p.Println()
	p.Println("IMPORTANT: You'll need to remember these passwords!")
	p.Println("   - Keep them in a secure location (password manager)")
	p.Println("   - You'll need them for all future app updates")
	p.Println()

	storePassword, err := p.NewPassword(ctx,
		"Enter keystore password (min 6 characters): ",
		"Re-enter keystore password: ",
		MinPasswordLength)
	if err != nil {
		return nil, err
	}

	p.Println()
	keyPassword, err := p.Password(ctx, "Enter key password (or press Enter to use same as keystore): ")
	if err != nil {
		return nil, err
	}
	if keyPassword == "" {
		l.Debug("Using keystore password as key password")
		keyPassword = storePassword
	}

	p.Println()
	p.Println("Enter your information for the certificate:")
	input := dname.SubjectInput{}
	for _, field := range []struct {
		prompt string
		value  *string
	}{
		{"Your name or company name: ", &input.Name},
		{"Organizational Unit (press Enter to skip): ", &input.OrgUnit},
		{"Organization (press Enter to skip): ", &input.Organization},
		{"City: ", &input.City},
		{"State/Province (press Enter to skip): ", &input.State},
		{"Country code (2 letters, e.g., " + s.Defaults.Country + "): ", &input.Country},
	} {
		if *field.value, err = p.Line(ctx, field.prompt); err != nil {
			return nil, err
		}
	}

	subject, countryReplaced := dname.ApplyDefaults(input, s.Defaults)
	if countryReplaced {
		l.Warn("Country code replaced with default", zap.String("entered", strings.TrimSpace(input.Country)),
			zap.String("country", subject.Country))
		p.Printf("Warning: Using default country code: %s\n", subject.Country)
	}

	return &models.CredentialRequest{
		StorePassword: storePassword,
		KeyPassword:   keyPassword,
		Subject:       subject,
	}, nil
}

func (s *Setup) printSummary(result *models.KeystoreResult) {
	p := s.Prompter
	p.Println()
	p.Println(banner)
	p.Println("Setup Complete!")
	p.Println(banner)
	p.Println()
	p.Println("Your keystore is ready for release builds.")
	p.Println()
	p.Println("IMPORTANT - Save this information securely:")
	p.Printf("   Keystore location: %s\n", result.KeystorePath)
	p.Println("   Keystore password: [Remember this!]")
	p.Println("   Key password: [Remember this!]")
	p.Println()
	p.Println("Next steps:")
	p.Println("  1. Backup your keystore file to a secure location")
	p.Println("  2. Test your release build: flutter build appbundle --release")
	p.Println()
}
