package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/tooldash/tablesnap/internal/baserow"
	"github.com/tooldash/tablesnap/internal/config"
	"github.com/tooldash/tablesnap/internal/pipeline"
)

func runFetch(opts *FetchOptions) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	specs, err := config.LoadTables(opts.TablesFile)
	if err != nil {
		return err
	}

	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}
	if opts.PageSize > 0 {
		cfg.PageSize = opts.PageSize
	}
	if opts.MaxPages > 0 {
		cfg.MaxPages = opts.MaxPages
	}

	hard := map[string]bool{}
	for _, name := range opts.Hard {
		if !pipeline.KnownCheck(name) {
			return &config.ConfigError{Msg: fmt.Sprintf("unknown check %q for --hard", name)}
		}
		hard[name] = true
	}

	p := &pipeline.Pipeline{
		Fetcher:  baserow.NewClient(cfg),
		Writer:   &pipeline.Writer{Dir: cfg.OutputDir},
		Tables:   specs,
		MaxPages: cfg.MaxPages,
		RowLimit: opts.RowLimit,
		Hard:     hard,
		Parallel: opts.Parallel,
	}

	results, err := p.Run(context.Background())
	pipeline.Summary(results)
	return err
}

func runProcess(opts *ProcessOptions) error {
	t := &pipeline.Transformer{
		InputDir: opts.InputDir,
		Writer:   &pipeline.Writer{Dir: opts.OutputDir},
	}
	return t.Run()
}

// ExitCode maps a command error to the process exit status: 0 success,
// 2 configuration problem, 3 rejected credential, 1 anything else
// (network exhausted, pagination bound, write failure).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var authErr *baserow.AuthError
	if errors.As(err, &authErr) {
		return 3
	}
	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) {
		return 2
	}
	return 1
}
