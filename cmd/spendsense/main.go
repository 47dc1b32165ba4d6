package main

import (
	"log"

	"github.com/joho/godotenv"

	"spendsense/cmd/internal/app"
)

func main() {
	// Optional: a local .env is a dev convenience, never required.
	_ = godotenv.Load()

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
