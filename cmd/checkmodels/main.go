// Command checkmodels reports, for every configured provider credential, which
// of the configured models the credential can reach. It never requests a completion.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"medbrief/internal/completion"
	"medbrief/internal/completion/providers"
	"medbrief/internal/config"
	"medbrief/internal/logger"
	"medbrief/internal/port"
)

var (
	timeout     = flag.Duration("timeout", 20*time.Second, "Timeout for the whole check")
	concurrency = flag.Int("concurrency", 4, "Maximum concurrent listing requests")
)

type report struct {
	provider    string
	fingerprint string
	available   []string
	missing     []string
	err         error
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("checkmodels: %v", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	flush, err := logger.Install(config.LogConfig{Level: "warn", Format: "console"})
	if err != nil {
		return err
	}
	defer flush()

	providers.RegisterAll()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		reports []report
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(*concurrency)

	for i := range cfg.Completion.Providers {
		pc := &cfg.Completion.Providers[i]
		p, err := completion.NewProvider(pc)
		if err != nil {
			return err
		}
		lister, ok := p.(port.ModelLister)
		if !ok {
			fmt.Printf("%s %s: provider cannot list models\n", color.YellowString("SKIP"), pc.Name)
			continue
		}
		creds := pc.Credentials()
		if len(creds) == 0 {
			fmt.Printf("%s %s: no credentials configured (%s)\n", color.YellowString("SKIP"), pc.Name, pc.KeyEnv)
			continue
		}

		for _, cred := range creds {
			g.Go(func() error {
				r := check(gCtx, lister, pc, cred)
				mu.Lock()
				reports = append(reports, r)
				mu.Unlock()
				// one bad credential must not cancel the others
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Slice(reports, func(i, j int) bool {
		if reports[i].provider != reports[j].provider {
			return reports[i].provider < reports[j].provider
		}
		return reports[i].fingerprint < reports[j].fingerprint
	})
	return printReports(reports)
}

func check(ctx context.Context, lister port.ModelLister, pc *config.ProviderConfig, cred string) report {
	r := report{provider: pc.Name, fingerprint: completion.Fingerprint(cred)}
	models, err := lister.ListModels(ctx, cred)
	if err != nil {
		zap.L().Warn("checkmodels: listing failed",
			zap.String("provider", pc.Name), zap.String("key", r.fingerprint), zap.Error(err))
		r.err = err
		return r
	}
	have := make(map[string]bool, len(models))
	for _, m := range models {
		have[m] = true
	}
	for _, m := range pc.Models {
		if have[m] {
			r.available = append(r.available, m)
		} else {
			r.missing = append(r.missing, m)
		}
	}
	return r
}

func printReports(reports []report) error {
	failed := 0
	for _, r := range reports {
		label := fmt.Sprintf("%s key %s", r.provider, r.fingerprint)
		switch {
		case r.err != nil:
			failed++
			fmt.Printf("%s %s: %v\n", color.RedString("FAIL"), label, r.err)
		case len(r.available) == 0:
			failed++
			fmt.Printf("%s %s: none of the configured models are reachable (%s)\n",
				color.RedString("FAIL"), label, strings.Join(r.missing, ", "))
		case len(r.missing) > 0:
			fmt.Printf("%s %s: %s reachable; missing %s\n", color.YellowString("WARN"), label,
				strings.Join(r.available, ", "), strings.Join(r.missing, ", "))
		default:
			fmt.Printf("%s %s: %s\n", color.GreenString("OK"), label, strings.Join(r.available, ", "))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d credentials unusable", failed, len(reports))
	}
	return nil
}
