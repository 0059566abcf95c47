package main

import (
	"log"

	"github.com/MrSnakeDoc/tenancy/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("❌ tenancy: %v", err)
	}
}
