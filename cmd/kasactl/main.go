package main

import (
	"os"

	"kasa-backend/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
