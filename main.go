package main

import (
	"os"

	"github.com/hpkotak/giftbud/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
