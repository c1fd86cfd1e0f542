package main

import (
	"os"

	"github.com/XianPaz/quizchain/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
