package entrypoint

import (
	"bytes"
	"context"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/wrouesnel/keystore-setup/pkg/keytool"
	"github.com/wrouesnel/keystore-setup/pkg/models"
	"github.com/wrouesnel/keystore-setup/pkg/prompt"
	"github.com/wrouesnel/keystore-setup/pkg/properties"
	"go.uber.org/zap"

	. "gopkg.in/check.v1"
)

type SetupSuite struct {
	fs     afero.Fs
	runner *fakeRunner
	out    *bytes.Buffer
}

var _ = Suite(&SetupSuite{})

const (
	testKeystore   = "/home/alice/upload-keystore.jks"
	testProperties = "/work/android/key.properties"
)

// fakeRunner stands in for keytool and writes the keystore into fs.
type fakeRunner struct {
	fs      afero.Fs
	missing bool
	fail    string
	args    []string
}

func (f *fakeRunner) LookPath(file string) (string, error) {
	if f.missing {
		return "", errors.New("executable file not found in $PATH")
	}
	return "/usr/bin/" + file, nil
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	f.args = args
	if f.fail != "" {
		return []byte(f.fail), nil, errors.New("exit status 1")
	}
	if err := afero.WriteFile(f.fs, args[3], []byte("keystore"), 0600); err != nil {
		return nil, []byte(err.Error()), err
	}
	return []byte("Generating 2,048 bit RSA key pair"), nil, nil
}

// arg returns the value following flag in the last keytool invocation.
func (f *fakeRunner) arg(flag string) string {
	for i := 0; i < len(f.args)-1; i++ {
		if f.args[i] == flag {
			return f.args[i+1]
		}
	}
	return ""
}

func (s *SetupSuite) SetUpSuite(c *C) {
	l, err := zap.NewDevelopment()
	c.Assert(err, IsNil)
	zap.ReplaceGlobals(l)
}

func (s *SetupSuite) SetUpTest(c *C) {
	s.fs = afero.NewMemMapFs()
	s.runner = &fakeRunner{fs: s.fs}
	s.out = &bytes.Buffer{}
}

func (s *SetupSuite) setup(lines ...string) *Setup {
	input := strings.Join(lines, "\n") + "\n"
	return &Setup{
		Fs:             s.fs,
		Runner:         s.runner,
		Prompter:       prompt.New(strings.NewReader(input), s.out),
		Keytool:        "keytool",
		KeystoreFile:   testKeystore,
		PropertiesFile: testProperties,
		Defaults:       models.NewSubjectDefaults(),
	}
}

func (s *SetupSuite) readProperties(c *C) []string {
	content, err := afero.ReadFile(s.fs, testProperties)
	c.Assert(err, IsNil)
	return strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
}

func (s *SetupSuite) TestRunSuccess(c *C) {
	setup := s.setup(
		"secret1", "secret1", // store password
		"keysecret",                // key password
		"Alice", "", "", "Metropolis", "", "US",
	)
	c.Assert(setup.Run(context.Background()), IsNil)

	c.Assert(s.runner.arg("-dname"), Equals, "CN=Alice,O=Alice,L=Metropolis,C=US")
	c.Assert(s.runner.arg("-storepass"), Equals, "secret1")
	c.Assert(s.runner.arg("-keypass"), Equals, "keysecret")
	c.Assert(s.runner.arg("-alias"), Equals, "upload")
	c.Assert(s.runner.arg("-keystore"), Equals, testKeystore)

	c.Assert(s.readProperties(c), DeepEquals, []string{
		"storePassword=secret1",
		"keyPassword=keysecret",
		"keyAlias=upload",
		"storeFile=" + testKeystore,
	})
	c.Assert(s.out.String(), Matches, "(?s).*Setup Complete!.*")
	c.Assert(strings.Contains(s.out.String(), "secret1"), Equals, false, Commentf("passwords must not be printed"))
}

func (s *SetupSuite) TestRunEmptyKeyPasswordCopiesStorePassword(c *C) {
	setup := s.setup("secret1", "secret1", "", "Alice", "", "", "", "", "GB")
	c.Assert(setup.Run(context.Background()), IsNil)

	lines := s.readProperties(c)
	c.Assert(lines[0], Equals, "storePassword=secret1")
	c.Assert(lines[1], Equals, "keyPassword=secret1")
	c.Assert(s.runner.arg("-dname"), Equals, "CN=Alice,O=Alice,L=Unknown,C=GB")
}

func (s *SetupSuite) TestRunPasswordRetries(c *C) {
	setup := s.setup(
		"short",              // too short
		"secret1", "secret2", // mismatch
		"secret3", "secret3",
		"", "", "", "", "", "", "",
	)
	c.Assert(setup.Run(context.Background()), IsNil)

	c.Assert(strings.Count(s.out.String(), "Password must be at least 6 characters. Try again."), Equals, 1)
	c.Assert(strings.Count(s.out.String(), "Passwords don't match. Try again."), Equals, 1)
	c.Assert(s.runner.arg("-storepass"), Equals, "secret3")
	c.Assert(s.runner.arg("-dname"), Equals, "CN=Bechaalany,O=Bechaalany,L=Unknown,C=US")
}

func (s *SetupSuite) TestRunCountryCodeWarning(c *C) {
	setup := s.setup("secret1", "secret1", "", "Alice", "", "", "", "", "USA")
	c.Assert(setup.Run(context.Background()), IsNil)

	c.Assert(strings.Contains(s.out.String(), "Warning: Using default country code: US"), Equals, true)
	c.Assert(s.runner.arg("-dname"), Equals, "CN=Alice,O=Alice,L=Unknown,C=US")
}

func (s *SetupSuite) TestRunKeytoolMissing(c *C) {
	s.runner.missing = true
	setup := s.setup()

	err := setup.Run(context.Background())
	c.Assert(errors.Is(err, keytool.ErrNotFound), Equals, true)
	c.Assert(strings.Contains(s.out.String(), "keytool not found"), Equals, true)
	c.Assert(s.runner.args, IsNil)
}

func (s *SetupSuite) TestRunDeclineOverwrite(c *C) {
	c.Assert(afero.WriteFile(s.fs, testKeystore, []byte("original"), 0600), IsNil)

	for _, answer := range []string{"no", "", "y", "yes please"} {
		s.out.Reset()
		err := s.setup(answer).Run(context.Background())
		c.Assert(errors.Is(err, ErrCancelled), Equals, true, Commentf("answer %q", answer))
		c.Assert(strings.Contains(s.out.String(), "Cancelled."), Equals, true)

		content, err := afero.ReadFile(s.fs, testKeystore)
		c.Assert(err, IsNil)
		c.Assert(string(content), Equals, "original")
	}
	c.Assert(s.runner.args, IsNil)
}

func (s *SetupSuite) TestRunAcceptOverwrite(c *C) {
	c.Assert(afero.WriteFile(s.fs, testKeystore, []byte("original"), 0600), IsNil)

	setup := s.setup(" YES ", "secret1", "secret1", "", "Alice", "", "", "", "", "US")
	c.Assert(setup.Run(context.Background()), IsNil)
	c.Assert(strings.Contains(s.out.String(), "Removed existing keystore."), Equals, true)

	content, err := afero.ReadFile(s.fs, testKeystore)
	c.Assert(err, IsNil)
	c.Assert(string(content), Equals, "keystore")
}

func (s *SetupSuite) TestRunKeytoolFailure(c *C) {
	s.runner.fail = "keytool error: java.io.IOException: Invalid keystore format"
	setup := s.setup("secret1", "secret1", "", "Alice", "", "", "", "", "US")

	err := setup.Run(context.Background())
	c.Assert(errors.Is(err, keytool.ErrGenerationFailed), Equals, true)
	c.Assert(strings.Contains(s.out.String(), "Error creating keystore: keytool error: java.io.IOException: Invalid keystore format"), Equals, true)

	exists, err := afero.Exists(s.fs, testProperties)
	c.Assert(err, IsNil)
	c.Assert(exists, Equals, false)
}

func (s *SetupSuite) TestRunPropertiesWriteFailure(c *C) {
	setup := s.setup("secret1", "secret1", "", "Alice", "", "", "", "", "US")
	// The keystore is written through the runner's filesystem, the
	// properties file through a read-only view.
	setup.Fs = afero.NewReadOnlyFs(s.fs)

	err := setup.Run(context.Background())
	c.Assert(errors.Is(err, properties.ErrWriteFailed), Equals, true)

	exists, err := afero.Exists(s.fs, testKeystore)
	c.Assert(err, IsNil)
	c.Assert(exists, Equals, true, Commentf("keystore is kept when the properties file cannot be written"))
}

func (s *SetupSuite) TestRunInputClosed(c *C) {
	setup := s.setup("secret1")
	err := setup.Run(context.Background())
	c.Assert(errors.Is(err, prompt.ErrInputClosed), Equals, true)
	c.Assert(s.runner.args, IsNil)
}

func (s *SetupSuite) TestRunInterruptedDuringPrompt(c *C) {
	r, w, err := os.Pipe()
	c.Assert(err, IsNil)
	defer r.Close()
	defer w.Close()

	setup := s.setup()
	setup.Prompter = prompt.New(r, s.out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- setup.Run(ctx) }()

	// Answer the first password prompt, then interrupt at the confirmation.
	_, err = w.Write([]byte("secret1\n"))
	c.Assert(err, IsNil)
	time.AfterFunc(100*time.Millisecond, cancel)

	select {
	case err := <-errCh:
		c.Assert(errors.Is(err, context.Canceled), Equals, true, Commentf("%v", err))
	case <-time.After(2 * time.Second):
		c.Fatal("setup still waiting for input after cancellation")
	}
	c.Assert(s.runner.args, IsNil)

	exists, err := afero.Exists(s.fs, testProperties)
	c.Assert(err, IsNil)
	c.Assert(exists, Equals, false)
}
