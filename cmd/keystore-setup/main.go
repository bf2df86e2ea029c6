//go:build !test
// +build !test

package main

import (
	"fmt"
	"os"
)

func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Println(err) //nolint:forbidigo
			os.Exit(1)
		}
	}()

	if err := realMain(); err != nil {
		os.Exit(1) //nolint:gocritic
	}
	os.Exit(0)
}
