package main

import (
	"context"
	"fmt"
	"os"

	"salespulse/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "salespulse: startup failed: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "salespulse: %v\n", err)
		os.Exit(1)
	}
}
