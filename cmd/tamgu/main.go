package main

import (
	"os"

	"tamgu/cmd/handlers"
	"tamgu/internal/logger"
)

func main() {
	logger.Init()
	if err := handlers.Execute(); err != nil {
		os.Exit(1)
	}
}
