package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sonsunin65/portfolio-lugsana/pkg/portfolio"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := portfolio.Main(ctx, os.Args[1:]); err != nil {
		stop()
		log.Fatal(err)
	}
}
