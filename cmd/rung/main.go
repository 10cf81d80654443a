package main

import (
	"errors"
	"os"

	"github.com/openrung/rung"
	"github.com/sirupsen/logrus"
)

func main() {
	rootCmd := newRootCmd()

	if err := rootCmd.Execute(); err != nil {
		switch {
		case errors.Is(err, rung.ErrLockContention):
			logrus.Error("another migration run is in progress, retry later")
		default:
			logrus.Errorf("%v", err)
		}
		os.Exit(1)
	}
}
