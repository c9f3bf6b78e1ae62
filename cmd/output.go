package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/jcdickinson/scaladex/internal/config"
	"github.com/jcdickinson/scaladex/internal/docs"
	"github.com/jcdickinson/scaladex/internal/index"
)

var (
	okColor   = color.New(color.FgGreen)
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow)
	dimColor  = color.New(color.Faint)
	addColor  = color.New(color.FgGreen)
	delColor  = color.New(color.FgRed)
)

// setupColor turns colour off when asked to or when stdout is not a terminal.
func setupColor(disable bool) {
	fd := os.Stdout.Fd()
	if disable || os.Getenv("NO_COLOR") != "" || (!isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)) {
		color.NoColor = true
	}
}

// localFetcher reads index files for the daemon-free commands.
func localFetcher() *docs.Fetcher {
	cfg, err := config.Load()
	if err != nil {
		return docs.NewFetcher(0)
	}
	return docs.NewFetcher(cfg.Fetch.Timeout)
}

// loadIndex reads and parses an index from a path, URL, or "@name" for the
// cached copy of an imported source.
func loadIndex(ctx context.Context, f *docs.Fetcher, arg string) (*index.PackageIndex, []byte, error) {
	if name, ok := strings.CutPrefix(arg, "@"); ok {
		data, err := docs.LoadSourceCache(name)
		if err != nil {
			return nil, nil, fmt.Errorf("reading cached source %s: %w", name, err)
		}
		idx, err := index.Parse(data)
		if err != nil {
			return nil, data, fmt.Errorf("parsing cached source %s: %w", name, err)
		}
		return idx, data, nil
	}
	return f.Load(ctx, arg)
}
