// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gofrs/flock"
	hashextract "github.com/hashicorp/go-hashextract"
	"github.com/hashicorp/go-hashextract/imagefs"
	"github.com/hashicorp/go-hashextract/metrics"
	"github.com/hashicorp/go-hashextract/report"
	"github.com/hashicorp/go-hashextract/telemetry"
	"github.com/pkg/errors"
)

// configPaths are the TOML files that provide flag defaults, later files win.
var configPaths = []string{"/etc/hashextract.toml", "~/.hashextract.toml"}

// CLI are the cli parameters for the hashextract binary
type CLI struct {
	Image             string           `arg:"" name:"image" help:"Path to the raw disk image, optionally compressed." type:"existingfile"`
	HashSet           string           `arg:"" name:"hashset" help:"Path to the hash set, one hex digest per line, optionally compressed." type:"existingfile"`
	Algorithm         string           `short:"a" default:"md5" enum:"md5,sha1,sha256,blake3" help:"Digest algorithm of the hash set (${enum})."`
	ChunkSize         int              `optional:"" default:"4096" help:"Bytes requested per read from the image."`
	Dedup             bool             `short:"d" help:"Write every digest and extension only once per scan."`
	EventBus          string           `optional:"" help:"Publish the scan telemetry to this EventBridge bus."`
	EventSource       string           `optional:"" default:"hashextract" help:"Source of published telemetry events."`
	MaxDepth          int              `optional:"" default:"512" help:"Maximum directory depth below the root. (disable check: -1)"`
	MaxExtractionSize int64            `optional:"" default:"-1" help:"Maximum size of all extracted files (in bytes). (disable check: -1)"`
	MaxFiles          int64            `optional:"" default:"-1" help:"Maximum entries that are visited before stop. (disable check: -1)"`
	MaxInputSize      int64            `optional:"" default:"-1" help:"Maximum decompressed size of image and hash set (in bytes). (disable check: -1)"`
	MetricsFile       string           `optional:"" help:"Write Prometheus metrics to this file after the scan."`
	Output            string           `short:"o" default:"output" help:"Output directory for extracted files."`
	Partition         int              `short:"p" default:"0" help:"Partition to read, 0 if the filesystem covers the whole image."`
	Pattern           []string         `optional:"" help:"Only hash files whose name matches one of the patterns."`
	ReportDB          string           `name:"report-db" optional:"" help:"Record the scan in this SQLite database."`
	SkipHeader        bool             `help:"Ignore the first line of the hash set."`
	StopOnError       bool             `short:"S" help:"Stop the scan if a file cannot be read or extracted."`
	Timeout           time.Duration    `optional:"" default:"0" help:"Maximum time the scan may take. (disable check: 0)"`
	Verbose           bool             `short:"v" optional:"" help:"Verbose logging."`
	Version           kong.VersionFlag `short:"V" optional:"" help:"Print release version information."`
	Workers           int              `short:"w" default:"1" help:"Number of goroutines walking sibling directories."`
}

// Run the entrypoint into hashextract as a cli tool
func Run(version, commit, date string) {
	var cli CLI
	kong.Parse(&cli,
		kong.Description("Extract files whose digest is in a known-hash set from a raw disk image"),
		kong.UsageOnError(),
		kong.Configuration(tomlLoader, configPaths...),
		kong.Vars{
			"version": fmt.Sprintf("%s (%s), commit %s, built at %s", filepath.Base(os.Args[0]), version, commit, date),
		},
	)

	logger := newLogger(os.Stderr, cli.Verbose)

	// cancel the scan on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, &cli, os.Stdout, logger); err != nil {
		stop()
		logger.Error("scan failed", "error", err)
		os.Exit(1)
	}
}

// execute runs one scan as configured by cli and prints the summary to stdout.
func execute(ctx context.Context, cli *CLI, stdout io.Writer, logger *slog.Logger) error {
	alg, err := hashextract.ParseAlgorithm(cli.Algorithm)
	if err != nil {
		return errors.Wrap(err, "invalid algorithm")
	}

	if cli.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cli.Timeout)
		defer cancel()
	}

	// only one scan at a time may write to an output directory
	lockPath := filepath.Clean(cli.Output) + ".lock"
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return errors.Wrap(err, "cannot lock output directory")
	}
	if !locked {
		return errors.Errorf("output directory %s is used by another scan", cli.Output)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}()

	inputCfg := hashextract.NewConfig(
		hashextract.WithLogger(logger),
		hashextract.WithMaxInputSize(cli.MaxInputSize),
	)

	hs, err := hashextract.OpenHashSetFile(ctx, cli.HashSet, inputCfg, hashextract.WithSkipHeader(cli.SkipHeader))
	if err != nil {
		return errors.Wrap(err, "cannot load hash set")
	}
	if malformed := hs.Malformed(alg); len(malformed) > 0 {
		logger.Warn("hash set contains entries that are no digests", "algorithm", alg, "count", len(malformed))
	}
	logger.Info("loaded hash set", "path", cli.HashSet, "lines", hs.Lines(), "entries", hs.Len())

	img, err := hashextract.OpenImage(ctx, cli.Image, inputCfg)
	if err != nil {
		return errors.Wrap(err, "cannot open image")
	}
	defer img.Close()

	fsys, err := imagefs.OpenDisk(img.Path, cli.Partition)
	if err != nil {
		return errors.Wrap(err, "cannot open filesystem")
	}
	defer fsys.Close()
	logger.Info("opened filesystem", "image", cli.Image, "partition", fsys.Partition(), "type", fsys.Type())

	// collect hooks
	var (
		td             *hashextract.TelemetryData
		eventHooks     []hashextract.EventHook
		telemetryHooks []hashextract.TelemetryHook
	)
	telemetryHooks = append(telemetryHooks, func(_ context.Context, d *hashextract.TelemetryData) {
		td = d
		logger.Debug("scan finished", "telemetry", d)
	})

	if cli.ReportDB != "" {
		store, err := report.Open(cli.ReportDB)
		if err != nil {
			return errors.Wrap(err, "cannot open report database")
		}
		defer store.Close()
		scan, err := store.BeginScan(ctx, cli.Image, alg, hs.Len())
		if err != nil {
			return errors.Wrap(err, "cannot record scan")
		}
		logger.Info("recording scan", "database", cli.ReportDB, "scan", scan.ID)
		eventHooks = append(eventHooks, store.EventHook(scan.ID, logger))
		telemetryHooks = append(telemetryHooks, store.TelemetryHook(scan.ID, logger))
	}

	var collector *metrics.Collector
	if cli.MetricsFile != "" {
		collector = metrics.New()
		eventHooks = append(eventHooks, collector.EventHook())
		telemetryHooks = append(telemetryHooks, collector.TelemetryHook())
	}

	if cli.EventBus != "" {
		client, err := telemetry.NewEventsClient(ctx, "")
		if err != nil {
			return errors.Wrap(err, "cannot create events client")
		}
		telemetryHooks = append(telemetryHooks, telemetry.NewEventsHook(client, cli.EventBus, cli.EventSource, logger))
	}

	cfg := hashextract.NewConfig(
		hashextract.WithAlgorithm(alg),
		hashextract.WithChunkSize(cli.ChunkSize),
		hashextract.WithContinueOnError(!cli.StopOnError),
		hashextract.WithCreateDestination(true),
		hashextract.WithEventHook(hashextract.ChainEventHooks(eventHooks...)),
		hashextract.WithLogger(logger),
		hashextract.WithMaxDepth(cli.MaxDepth),
		hashextract.WithMaxExtractionSize(cli.MaxExtractionSize),
		hashextract.WithMaxFiles(cli.MaxFiles),
		hashextract.WithMaxInputSize(cli.MaxInputSize),
		hashextract.WithPatterns(cli.Pattern...),
		hashextract.WithSkipDuplicateExtraction(cli.Dedup),
		hashextract.WithTelemetryHook(hashextract.ChainTelemetryHooks(telemetryHooks...)),
		hashextract.WithWorkers(cli.Workers),
	)

	extracted, walkErr := hashextract.Walk(ctx, fsys, hs, cli.Output, cfg)

	if collector != nil {
		if err := collector.WriteTextfile(cli.MetricsFile); err != nil {
			logger.Warn("cannot write metrics", "path", cli.MetricsFile, "error", err)
		}
	}

	printSummary(stdout, hs.Len(), extracted, td)
	if walkErr != nil {
		return errors.Wrap(walkErr, "scan aborted")
	}
	return nil
}
