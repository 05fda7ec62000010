// Command portal runs the hostel bonafide certificate portal.
package main

import (
	"os"

	"github.com/aurcc/bonafide-portal/internal/pkg/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
