package main

import (
	"log"

	"github.com/kazmiyai/favuls/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ favuls failed to start: %v", err)
	}
}
