package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cliptube/backend/internal/app"
)

func main() {
	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "cliptube: %v\n", err)
		os.Exit(1)
	}
}
