package main

import (
	"os"
	"os/signal"
	"strings"

	"github.com/habedi/apiclient/cmd"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// debugEnvVar enables debug logging when set to anything but "", "0" or "false".
const debugEnvVar = "DEBUG_APICLIENT"

func main() {
	// A .env file in the working directory may supply DEBUG_APICLIENT and the
	// APICLIENT_* overrides. Variables already set in the environment win.
	_ = godotenv.Load()
	configureLogLevelFromEnv()

	stopChan := setupInterruptListener()
	go handleInterrupt(stopChan, func(msg string) { log.Error().Msg(msg) }, os.Exit)

	cmd.Execute()
}

func configureLogLevelFromEnv() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(debugEnvVar))) {
	case "", "0", "false":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func setupInterruptListener() chan os.Signal {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)
	return stopChan
}

// handleInterrupt waits for a signal on stopChan, then logs and exits with status 1.
func handleInterrupt(stopChan chan os.Signal, logFn func(string), exitFn func(int)) {
	<-stopChan
	logFn("Interrupt signal received. Exiting...")
	exitFn(1)
}
