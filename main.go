package main

import (
	"log"

	"github.com/okozhar/interview-simulator/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
