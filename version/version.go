package version

// Name is the application name, also used as the environment variable prefix.
const Name = "keystore-setup"

// Description is shown at the top of the help output.
const Description = "Generate an Android upload keystore and key.properties file"

// Version is set during build to the current git commitish.
var Version = "development" //nolint:gochecknoglobals
