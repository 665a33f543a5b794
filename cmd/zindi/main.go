package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KameniAlexNea/zindi/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	username := flag.String("username", "", "account username")
	challenge := flag.String("challenge", "", "challenge id to preselect (optional)")
	timeout := flag.Duration("timeout", 0, "override the HTTP timeout, e.g. 45s (optional)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath:  *configPath,
		Username:    *username,
		Password:    os.Getenv("ZINDI_PASSWORD"),
		ChallengeID: *challenge,
		Timeout:     *timeout,
		Args:        flag.Args(),
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "zindi: %v\n", err)
		return 1
	}
	return 0
}
