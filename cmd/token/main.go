// Command token issues a bearer token for the summary history endpoints using
// the configured MEDBRIEF_AUTH_* settings.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"medbrief/internal/config"
	"medbrief/internal/service"
)

var (
	subject = flag.String("subject", "", "Token subject, e.g. the operator or client name (required)")
	ttl     = flag.Duration("ttl", 24*time.Hour, "Token lifetime")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("token: %v", err))
		os.Exit(1)
	}
}

func run() error {
	if *subject == "" {
		flag.Usage()
		return fmt.Errorf("-subject is required")
	}
	if *ttl <= 0 {
		return fmt.Errorf("-ttl must be positive")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Auth.CheckSecret(); err != nil {
		return err
	}

	token, err := service.NewTokenService(&cfg.Auth).IssueToken(*subject, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "issued for %s, expires %s\n",
		color.CyanString(*subject), time.Now().Add(*ttl).UTC().Format(time.RFC3339))
	return nil
}
