package main

import (
	"os"

	"ovpnsync/cmd/ovpnsync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
