// Copyright 2025 The PlumeServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the plume search server and CLI [DBG] application.

PlumeServe answers "Search by Plume ID or Location" autocomplete queries for
methane plume records. Every record is indexed under a composite key made of
its location, most general part first, and its id:

	United States_Texas_Houston_EMIT-20230805T060818-000001

A prefix of that key lists every plume in a country, state or city, and the
chosen key resolves back to its record.

# Usage

Start the server with default settings:

	plumeserve

Use a custom data directory and enable debug mode:

	plumeserve -data /path/to/data -d

Run in CLI mode for interactive testing:

	plumeserve -c -limit 10 -prmin 2

The data directory holds the plume feature collection (plumes.geojson), the
location lookup (locationLookup.json) and the SQLite snapshot of the last
successful load (plumes.sqlite3). When the feature collection is missing the
snapshot is served instead.

# Configuration

Runtime configuration is managed through a TOML file:

	[server]
	max_limit = 64
	default_limit = 10
	min_prefix = 1
	max_prefix = 120

	[index]
	max_records = 0
	separator = "_"
	id_joiner = "-"

	[data]
	features_file = "plumes.geojson"
	locations_file = "locationLookup.json"
	db_file = "plumes.sqlite3"

The config file is created with defaults if it doesn't exist.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout, see package server.

	{"id": "req1", "p": "united states_tex", "l": 20}
	{"id": "rel1", "action": "reload"}

# Command Line Flags

	-data string
	    Directory containing the plume sources (default "data/")
	-config string
	    Path to a config.toml
	-reset-config
	    Rewrite the default config.toml with builtin defaults
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-limit int
	    Number of matches to return in CLI mode
	-prmin int
	    Minimum prefix length
	-prmax int
	    Maximum prefix length
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/plumeserve/internal/cli"
	"github.com/bastiangx/plumeserve/internal/logger"
	"github.com/bastiangx/plumeserve/internal/utils"
	"github.com/bastiangx/plumeserve/pkg/config"
	"github.com/bastiangx/plumeserve/pkg/plume"
	"github.com/bastiangx/plumeserve/pkg/server"
	"github.com/bastiangx/plumeserve/pkg/store"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "plumeserve"
	gh      = "https://github.com/bastiangx/plumeserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		cancel()
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main wires config, data sources and the finder, then hands off to the
// server or the CLI.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigHandler(cancel)

	defaultConfig := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	dataDir := flag.String("data", "data/", "Directory containing the plume sources")
	configFile := flag.String("config", "", "Path to a custom config.toml")
	resetConfig := flag.Bool("reset-config", false, "Rewrite the default config.toml with builtin defaults")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	limit := flag.Int("limit", defaultConfig.CLI.DefaultLimit, "Number of matches to return")
	minPrefix := flag.Int("prmin", defaultConfig.CLI.DefaultMinLen, "Minimum prefix length (0 <= n <= prmax)")
	maxPrefix := flag.Int("prmax", defaultConfig.CLI.DefaultMaxLen, "Maximum prefix length")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger.Setup("", *debugMode)

	if *resetConfig {
		if err := config.RebuildConfigFile(); err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		log.Print("Config rebuilt", "path", config.GetActiveConfigPath(""))
	}

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}

	customConfig := *configFile
	if customConfig == "" {
		if p, err := pathResolver.GetConfigPath("config.toml"); err == nil && utils.FileExists(p) {
			customConfig = p
		}
	}
	appConfig, configPath, err := config.LoadConfigWithPriority(customConfig)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(configPath))

	resolvedDataDir, err := pathResolver.GetDataDir(*dataDir)
	if err != nil {
		log.Fatalf("Failed to resolve data dir:(%v)", err)
	}
	log.Debugf("Using data dir at: %s", resolvedDataDir)

	src := &sources{
		featuresFile:  utils.ResolveIn(resolvedDataDir, appConfig.Data.FeaturesFile),
		locationsFile: utils.ResolveIn(resolvedDataDir, appConfig.Data.LocationsFile),
		dbFile:        utils.ResolveIn(resolvedDataDir, appConfig.Data.DBFile),
	}

	codec := plume.KeyCodec{
		Separator: appConfig.Index.Separator,
		IDJoiner:  appConfig.Index.IDJoiner,
	}
	finder := plume.NewFinder(codec, appConfig.Index.ResultLimit, appConfig.Index.MaxRecords)

	records, err := src.load(ctx)
	if err != nil {
		log.Warnf("Starting with an empty index: %v", err)
	} else if err := finder.Load(records); err != nil {
		log.Fatalf("Failed to index plume records: %v", err)
	}

	if *cliMode {
		log.Debug("Input info:",
			"minPrefix", *minPrefix,
			"maxPrefix", *maxPrefix,
			"limit", *limit)

		inputHandler := cli.NewInputHandler(finder, *minPrefix, *maxPrefix, *limit)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(finder, appConfig, src.load)

	showStartupInfo(resolvedDataDir, finder)

	if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Server error: %v", err)
	}
}

// sources reads plume records from the data directory.
type sources struct {
	featuresFile  string
	locationsFile string
	dbFile        string
}

// load reads the feature collection and location lookup and snapshots them to
// the store. Without a feature collection the last snapshot is returned.
func (s *sources) load(ctx context.Context) ([]plume.Record, error) {
	db, err := store.Open(s.dbFile)
	if err != nil {
		log.Warnf("Record store unavailable: %v", err)
	} else {
		defer db.Close()
	}

	if !utils.FileExists(s.featuresFile) {
		if db == nil {
			return nil, fmt.Errorf("no plume features at %s and no record store", s.featuresFile)
		}
		log.Debugf("No feature collection at %s, using stored snapshot", s.featuresFile)
		return db.Records(ctx)
	}

	records, err := plume.LoadFeatureCollection(s.featuresFile)
	if err != nil {
		return nil, err
	}

	if utils.FileExists(s.locationsFile) {
		lookup, err := plume.LoadLocations(s.locationsFile)
		if err != nil {
			log.Warnf("Ignoring location lookup: %v", err)
		} else {
			plume.ApplyLocations(records, lookup)
		}
	} else {
		plume.ApplyLocations(records, nil)
	}

	if db != nil {
		if err := db.ReplaceRecords(ctx, records); err != nil {
			log.Warnf("Failed to snapshot plume records: %v", err)
		}
	}
	return records, nil
}

func printVersion() {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	l.SetStyles(styles)

	l.Print("")
	l.Print("[ PlumeServe ] Search methane plumes by id or location")
	l.Print("", "version", Version)
	l.Print("")
	l.Print("use -h or --help to see available options")
	l.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process on stderr.
func showStartupInfo(dataDir string, finder *plume.Finder) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	stats := finder.Stats()
	fmt.Fprintln(os.Stderr, "============")
	fmt.Fprintln(os.Stderr, " PlumeServe ")
	fmt.Fprintln(os.Stderr, "============")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("data dir: ( %s )", dataDir)
	log.Infof("records: %d (skipped %d), index version %x", stats["records"], stats["skippedRecords"], finder.Version())
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "============")
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
