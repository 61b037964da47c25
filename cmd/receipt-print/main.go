package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	if err := loadDotEnv(".env"); err != nil {
		printError(err)
		os.Exit(1)
	}
	if err := newApp().Run(os.Args); err != nil {
		os.Exit(1)
	}
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
