package main

import (
	"log"

	"github.com/i474232898/weather-search/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		log.Fatalf("weather-search: %v", err)
	}
}
