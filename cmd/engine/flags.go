package main

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"easyapply-engine/internal/config"
)

// options are the command-line overrides; unset flags leave the config value alone.
type options struct {
	configPath  string
	statusAddr  string
	setPassword string

	set map[string]bool

	keywords        string
	location        string
	workTypes       string
	recency         string
	recencyUnit     string
	predefinedQuery string
	queryFile       string
	topPicks        bool
	headless        bool
	dryRun          bool
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("easyapply", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&o.configPath, "config", "", "config file (default <data dir>/config.yml)")
	fs.StringVar(&o.statusAddr, "status-addr", "", "serve the status API on this address, e.g. 127.0.0.1:38471")
	fs.StringVar(&o.setPassword, "set-password", "", "store a secret in the OS keychain and exit: site, imap or llm")

	fs.StringVar(&o.keywords, "keywords", "", "search keywords")
	fs.StringVar(&o.location, "location", "", "search location; \"remote\" searches everywhere")
	fs.StringVar(&o.workTypes, "work-types", "", "comma-separated work types: remote,onsite,hybrid")
	fs.StringVar(&o.recency, "recency", "", "day, week, month, any, or a number in -recency-unit")
	fs.StringVar(&o.recencyUnit, "recency-unit", "", "unit of a numeric -recency: seconds or minutes")
	fs.StringVar(&o.predefinedQuery, "predefined-query", "", "name of a query under queries: in the config")
	fs.StringVar(&o.queryFile, "query-file", "", "JSON file with {\"query\": \"...\"}")
	fs.BoolVar(&o.topPicks, "top-picks", false, "apply to the site's top picks instead of searching")
	fs.BoolVar(&o.headless, "headless", false, "run the browser without a window")
	fs.BoolVar(&o.dryRun, "dry-run", false, "fill applications but discard them instead of submitting")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	o.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// apply overlays the flags that were given onto cfg.
func (o options) apply(cfg config.Config) config.Config {
	if o.set["keywords"] {
		cfg.Search.Keywords = o.keywords
	}
	if o.set["location"] {
		cfg.Search.Location = o.location
	}
	if o.set["work-types"] {
		cfg.Search.WorkTypes = strings.Split(o.workTypes, ",")
	}
	if o.set["recency"] {
		cfg.Search.Recency = o.recency
	}
	if o.set["recency-unit"] {
		cfg.Search.RecencyUnit = o.recencyUnit
	}
	if o.set["predefined-query"] {
		cfg.Search.PredefinedQuery = o.predefinedQuery
	}
	if o.set["query-file"] {
		// relative to the working directory, unlike paths in the config file
		if abs, err := filepath.Abs(o.queryFile); err == nil {
			cfg.Search.QueryFile = abs
		}
	}
	if o.set["top-picks"] {
		cfg.Search.TopPicks = o.topPicks
	}
	if o.set["headless"] {
		cfg.Browser.Headless = o.headless
	}
	if o.set["dry-run"] {
		cfg.App.DryRun = o.dryRun
	}
	if o.set["status-addr"] {
		cfg.App.StatusAddr = o.statusAddr
	}
	return cfg
}
