package main

import (
	"log"

	"github.com/TWeb79/appscout/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ appscout failed to start: %v", err)
	}
}
