package keytool

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/wrouesnel/keystore-setup/pkg/dname"
	"github.com/wrouesnel/keystore-setup/pkg/models"
	"github.com/yuseferi/zax/v2"
	"go.uber.org/zap"
)

var (
	ErrNotFound         = errors.New("keytool not found")
	ErrGenerationFailed = errors.New("keytool failed to generate the keystore")
)

const (
	KeyAlgorithm = "RSA"
	KeySize      = 2048
	ValidityDays = 10000
)

// Runner executes external commands. Arguments are passed to the process
// directly and never through a shell.
type Runner interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// GenerationError carries the diagnostic output of a failed keytool run.
type GenerationError struct {
	Diagnostic string
	Cause      error
}

func (e *GenerationError) Error() string {
	return ErrGenerationFailed.Error() + ": " + e.Diagnostic
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed //nolint:errorlint
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Locate resolves the keytool binary on the search path.
func Locate(runner Runner, name string) (string, error) {
	path, err := runner.LookPath(name)
	if err != nil {
		return "", errors.Wrapf(ErrNotFound, "%s: %s", name, err.Error())
	}
	return path, nil
}

// Args builds the keytool argument vector for generating the upload key.
func Args(keystorePath string, distinguishedName string, storePassword models.Secret, keyPassword models.Secret) []string {
	return []string{
		"-genkey",
		"-v",
		"-keystore", keystorePath,
		"-alias", models.KeyAlias,
		"-keyalg", KeyAlgorithm,
		"-keysize", strconv.Itoa(KeySize),
		"-validity", strconv.Itoa(ValidityDays),
		"-storepass", storePassword.Reveal(),
		"-keypass", keyPassword.Reveal(),
		"-dname", distinguishedName,
	}
}

// Generator creates keystores with a resolved keytool binary.
type Generator struct {
	Runner  Runner
	Keytool string
}

// NewGenerator returns a Generator for the keytool binary at path.
func NewGenerator(runner Runner, path string) *Generator {
	return &Generator{Runner: runner, Keytool: path}
}

// Generate runs keytool to create the keystore at keystorePath. The
// argument vector contains the passwords and is never logged.
func (g *Generator) Generate(ctx context.Context, request models.CredentialRequest, keystorePath string) (*models.KeystoreResult, error) {
	l := zap.L().With(zax.Get(ctx)...)

	distinguishedName := dname.Build(request.Subject)
	l.Debug("Running keytool", zap.String("keytool", g.Keytool),
		zap.String("keystore", keystorePath), zap.String("dname", distinguishedName))

	stdout, stderr, err := g.Runner.Run(ctx, g.Keytool, Args(keystorePath, distinguishedName, request.StorePassword, request.KeyPassword)...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		diagnostic := strings.TrimSpace(string(stderr))
		if diagnostic == "" {
			diagnostic = strings.TrimSpace(string(stdout))
		}
		if diagnostic == "" {
			diagnostic = err.Error()
		}
		l.Error("keytool exited with an error", zap.Error(err))
		return nil, &GenerationError{Diagnostic: diagnostic, Cause: err}
	}
	l.Debug("keytool output", zap.ByteString("stdout", stdout), zap.ByteString("stderr", stderr))

	return &models.KeystoreResult{
		StorePassword: request.StorePassword,
		KeyPassword:   request.KeyPassword,
		Alias:         models.KeyAlias,
		KeystorePath:  keystorePath,
	}, nil
}
