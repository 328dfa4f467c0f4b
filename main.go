package main

import (
	"log"

	"github.com/thiagokokada/gitdeck/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("gitdeck: %v", err)
	}
}
