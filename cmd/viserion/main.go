package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Err(err).Msg("viserion failed")
		os.Exit(1)
	}
}
