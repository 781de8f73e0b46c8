package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/soyeahso/guildboard/internal/cli"
	"github.com/tillberg/autorestart"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	if os.Getenv("GUILDBOARD_AUTORESTART") == "1" {
		go autorestart.RestartOnChange()
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
