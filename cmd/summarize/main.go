// Command summarize runs the summary pipeline on local PDF files and prints
// the envelope to stdout.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"medbrief/internal/completion"
	"medbrief/internal/completion/providers"
	"medbrief/internal/config"
	"medbrief/internal/extract"
	"medbrief/internal/logger"
	"medbrief/internal/normalize"
	"medbrief/internal/repository/memory"
	"medbrief/internal/service"
	"medbrief/internal/storage/noop"
)

var (
	labsPath = flag.String("labs", "", "Also write the lab values workbook to this .xlsx path")
	verbose  = flag.Bool("v", false, "Verbose logging")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: summarize [-labs out.xlsx] [-v] report.pdf [more.pdf ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("summarize: %v", err))
		os.Exit(1)
	}
}

func run(paths []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logCfg := config.LogConfig{Level: "warn", Format: "console"}
	if *verbose {
		logCfg.Level = "debug"
	}
	flush, err := logger.Install(logCfg)
	if err != nil {
		return err
	}
	defer flush()

	providers.RegisterAll()
	chain, err := completion.BuildChain(&cfg.Completion)
	if err != nil {
		return err
	}
	normalizer, err := normalize.New()
	if err != nil {
		return err
	}
	repo := memory.NewSummaryRepo(1)
	svc := service.NewSummaryService(extract.NewPDFExtractor(), chain, normalizer, repo,
		noop.NewNoopStorage(), &cfg.Upload, &cfg.Completion)

	files := make([]service.UploadedFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files = append(files, service.UploadedFile{Name: filepath.Base(p), Size: int64(len(data)), Data: data})
	}

	ctx := context.Background()
	result, err := svc.Summarize(ctx, service.SummarizeInput{Files: files})
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result.Body, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(result.Body)
	}
	fmt.Println(pretty.String())

	status := color.GreenString(string(result.Kind))
	if !result.Conforms {
		status = color.YellowString(string(result.Kind))
	}
	fmt.Fprintf(os.Stderr, "%s %s/%s after %d attempt(s), %d page(s)\n",
		status, result.Provider, result.Model, result.Attempts, result.PageCount)

	if *labsPath == "" {
		return nil
	}
	export, err := svc.ExportLabs(ctx, result.ID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*labsPath, export.Data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "lab values written to %s\n", color.CyanString(*labsPath))
	return nil
}
