package main

import (
	"os"

	"github.com/zcatalyst/catalyst-go-sdk/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
