package main

import (
	"FileLister/internal"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "filelister",
		Usage:     "List every file under a directory tree in parallel",
		ArgsUsage: "<root>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "Only scan top-level folders whose name starts with this prefix (case-insensitive)",
			},
			&cli.IntFlag{
				Name:  "buffer",
				Usage: "Per-worker output buffer flush threshold in lines",
				Value: internal.DefaultFlushLines,
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Output file for the path list",
				Value: "file_list.csv",
			},
			&cli.StringFlag{
				Name:  "filetypes",
				Usage: "Comma-separated extensions to include without dot (e.g. doc,docx,pdf). Empty includes all files",
			},
			&cli.IntFlag{
				Name:  "threads",
				Usage: "Worker count (default scales with CPU)",
			},
			&cli.StringFlag{
				Name:  "encoding",
				Usage: "Output encoding: utf8, utf8bom or utf16le",
				Value: internal.EncodingUTF8,
			},
			&cli.BoolFlag{
				Name:  "archives",
				Usage: "Also list files inside archives (.zip,.tar,.gz,.7z,...)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Global timeout for the scan (e.g. 10m, 1h)",
			},
			&cli.StringFlag{
				Name:  "logfile",
				Usage: "Write logs into file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
				Value: "info",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func run(c *cli.Context) error {
	internal.InitLogger(c.String("logfile"), c.String("log-level"))
	logrus.Info("FileLister started")

	root := c.Args().First()
	if root == "" {
		return cli.Exit("root path is required", 1)
	}
	if st, err := os.Stat(root); err != nil || !st.IsDir() {
		return cli.Exit(fmt.Sprintf("not a directory: %s", root), 1)
	}

	// ctx with timeout + OS signals
	base := context.Background()
	var cancel context.CancelFunc
	if t := c.Duration("timeout"); t > 0 {
		base, cancel = context.WithTimeout(base, t)
	} else {
		base, cancel = context.WithCancel(base)
	}
	defer cancel()

	ctx, stop := signal.NotifyContext(base, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := internal.ScanOptions{
		Root:       root,
		Prefix:     c.String("prefix"),
		FlushLines: c.Int("buffer"),
		Output:     c.String("output"),
		Encoding:   c.String("encoding"),
		Archives:   c.Bool("archives"),
		Threads:    c.Int("threads"),
	}
	if ft := c.String("filetypes"); ft != "" {
		opts.FileTypes = []string{ft}
	}
	if err := opts.Validate(); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	opts.Prepare()

	// the sink must be open before any worker starts; failure here is fatal
	sink, err := internal.NewSink(opts.Output, opts.Encoding)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	logrus.Infof("Scanning %s with %d workers", opts.Root, opts.Threads)

	var stats internal.ScanStats
	scanErr := internal.NewScanner().Scan(ctx, opts, sink, &stats)
	if err := sink.Close(); err != nil {
		logrus.WithError(err).Error("close output")
	}
	if scanErr != nil {
		if ctx.Err() != nil {
			logrus.Warn("Scan cancelled")
		} else {
			return cli.Exit(scanErr.Error(), 1)
		}
	}

	elapsed := stats.Elapsed()
	fmt.Printf(
		"\n======= Scan finished in %s =======\nDirectories scanned: %d\nFiles listed: %d\nErrors: %d\n",
		elapsed, stats.DirsScanned.Load(), stats.FilesMatched.Load(), stats.Errors.Load(),
	)
	if secs := elapsed.Seconds(); secs > 0 {
		fmt.Printf("Average speed: %.2f files/second\n", float64(stats.FilesMatched.Load())/secs)
	}
	return nil
}
