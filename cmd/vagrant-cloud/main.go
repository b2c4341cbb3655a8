package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/calebmarchent/vagrant/cmd/vagrant-cloud/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := commands.Execute(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
