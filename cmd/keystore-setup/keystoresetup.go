package main

import (
	"os"

	"github.com/wrouesnel/keystore-setup/internal/entrypoint"
)

func realMain() error {
	return entrypoint.Entrypoint(os.Stdout, os.Stderr, os.Stdin)
}
