package entrypoint

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/wrouesnel/ctxstdio"
	"github.com/wrouesnel/keystore-setup/pkg/keytool"
	"github.com/wrouesnel/keystore-setup/pkg/models"
	"github.com/wrouesnel/keystore-setup/pkg/prompt"
	"github.com/wrouesnel/keystore-setup/pkg/storage"
	"github.com/wrouesnel/keystore-setup/version"
	"github.com/yuseferi/zax/v2"

	"github.com/alecthomas/kong"
	"go.uber.org/zap/zapcore"

	"go.uber.org/zap"
)

const longHelp = `

Prompts for the keystore passwords and certificate subject, runs keytool to
generate the upload key and writes the key.properties file read by the
Android Gradle build for release signing.

An existing keystore is only replaced after answering "yes" when asked. The
properties file is always overwritten.
`

type CLIConfig struct {
	Version kong.VersionFlag `env:"-" help:"Show version number"`
	Logging struct {
		Level  string `default:"warn"    help:"logging level"`
		Format string `default:"console" enum:"console,json"  help:"logging format (${enum})"`
	} `embed:"" prefix:"log-"`

	Files        models.KeystoreFileConfig `embed:""`
	DefaultsFile string                    `help:"YAML file overriding the fallback subject name, city and country" type:"path"`
}

var CLI CLIConfig //nolint:gochecknoglobals

func Entrypoint(stdOut io.Writer, stdErr io.Writer, stdIn io.ReadCloser) error {
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	deferredLogs := []string{}

	home, err := os.UserHomeDir()
	if err != nil {
		deferredLogs = append(deferredLogs, err.Error())
		home = "."
	}

	// Command line parsing can now happen
	vars := kong.Vars{"version": version.Version, "home": home}
	_ = kong.Parse(&CLI,
		kong.Description(version.Description+longHelp),
		kong.DefaultEnvars(version.Name),
		vars)

	// Initialize logging as soon as possible
	logConfig := zap.NewProductionConfig()
	if err := logConfig.Level.UnmarshalText([]byte(CLI.Logging.Level)); err != nil {
		deferredLogs = append(deferredLogs, err.Error())
	}
	logConfig.Encoding = CLI.Logging.Format
	logConfig.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	if CLI.Logging.Format == "console" {
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := logConfig.Build()
	if err != nil {
		// Error unhandled since this is a very early failure
		_, _ = io.WriteString(stdErr, "Failure while building logger")
		return err
	}

	logger.Debug("Configuring signal handling")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)
	sigCtx, cancelFn := context.WithCancel(appCtx)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("Caught signal - exiting", zap.String("signal", sig.String()))
			// Pending prompts return as soon as the context is cancelled.
			cancelFn()
		case <-sigCtx.Done():
		}
	}()

	// Install as the global logger
	zap.ReplaceGlobals(logger)

	// Emit deferred logs
	for _, line := range deferredLogs {
		logger.Error(line)
	}
	ctx := ctxstdio.Set(sigCtx, stdOut, stdErr, stdIn)

	fs := afero.NewOsFs()

	defaults, err := LoadSubjectDefaults(fs, CLI.DefaultsFile)
	if err != nil {
		logger.Error("Error loading subject defaults", zap.Error(err))
		return err
	}

	keystoreFile, err := storage.AbsolutePath(CLI.Files.KeystoreFile)
	if err != nil {
		logger.Error("Error", zap.Error(err))
		return err
	}
	ctx = zax.Set(ctx, []zap.Field{zap.String("keystore", keystoreFile)})

	setup := &Setup{
		Fs:             fs,
		Runner:         keytool.ExecRunner{},
		Prompter:       prompt.New(ctxstdio.Stdin(ctx), ctxstdio.Stdout(ctx)),
		Keytool:        CLI.Files.Keytool,
		KeystoreFile:   keystoreFile,
		PropertiesFile: CLI.Files.PropertiesFile,
		Defaults:       defaults,
	}

	err = setup.Run(ctx)
	if errors.Is(err, ErrCancelled) {
		logger.Info("Cancelled by user")
		return nil
	}
	if errors.Is(err, context.Canceled) {
		logger.Warn("Interrupted")
		return err
	}
	if err != nil {
		logger.Error("Error", zap.Error(err))
	}
	return err
}
