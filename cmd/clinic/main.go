package main

import (
	"fmt"
	"os"

	"github.com/Freeeeeet/clinic_scheduler/internal/service"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, service.Message(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
