package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/forensickit/carvescan/internal/config"
	"github.com/forensickit/carvescan/internal/observer"
	"github.com/forensickit/carvescan/internal/report"
	"github.com/forensickit/carvescan/pkg/carver"
	"github.com/forensickit/carvescan/pkg/fs"
)

func scanCommand() *Command {
	flags := flag.NewFlagSet("scanner", flag.ContinueOnError)
	flags.SetInterspersed(true)

	reportDir := flags.String("report-dir", ".", "Directory `path` to write forensic_report.{json,csv,html} and recovered/ into")
	blockSize := flags.Int64("block-size", carver.DefaultBlockSize, "Scan window size in `bytes`")
	logLevel := flags.String("log-level", "info", "Log `level`: trace, debug, info, warn, error")
	registryPath := flags.String("registry", "", "Path to a signature-registry JSONC `file`; built-in JPEG/PNG/MP4/ZIP set is used if omitted")
	profileName := flags.String("profile", "balanced", "Scan `profile`: fast, balanced, deep")
	investigator := flags.String("investigator", "", "Investigator `name` recorded in the case report")
	noBlobs := flags.Bool("no-recovered-blobs", false, "Do not materialize recovered blobs under <report-dir>/recovered/")

	return &Command{
		Flags: flags,
		Usage: "<source> [--report-dir <dir>] [--block-size <bytes>] [--log-level <level>]",
		Short: "Carve recognized file types out of a raw disk image or device.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 1 {
				return errMissingSource
			}

			return runScan(ctx, o, scanOptions{
				source:       args[0],
				reportDir:    *reportDir,
				blockSize:    *blockSize,
				logLevel:     *logLevel,
				registryPath: *registryPath,
				profileName:  *profileName,
				investigator: *investigator,
				noBlobs:      *noBlobs,
			})
		},
	}
}

var errMissingSource = fmt.Errorf("exactly one <source> argument is required")

type scanOptions struct {
	source       string
	reportDir    string
	blockSize    int64
	logLevel     string
	registryPath string
	profileName  string
	investigator string
	noBlobs      bool
}

func runScan(ctx context.Context, o *IO, opts scanOptions) error {
	log, err := newLogger(opts.logLevel)
	if err != nil {
		return err
	}

	registryFile := config.DefaultRegistry()

	if opts.registryPath != "" {
		registryFile, err = config.Load(opts.registryPath)
		if err != nil {
			return err
		}
	}

	profile, err := registryFile.Profile(opts.profileName)
	if err != nil {
		return err
	}

	sigs, err := registryFile.Signatures(profile)
	if err != nil {
		return err
	}

	reg, err := carver.NewRegistry(sigs)
	if err != nil {
		return err
	}

	matcher := carver.NewMatcher(reg)

	source, err := carver.OpenSource(opts.source, opts.blockSize)
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	fsys := fs.NewReal()

	if err := fsys.MkdirAll(opts.reportDir, 0o755); err != nil {
		return fmt.Errorf("%w: creating report directory %s: %w", carver.ErrSink, opts.reportDir, err)
	}

	caseInfo := report.NewCase(opts.investigator, time.Now())
	caseInfo.Source = source.Metadata()

	sink := report.NewMultiSink(
		report.NewJSONSink(opts.reportDir, caseInfo),
		report.NewCSVSink(opts.reportDir),
		report.NewHTMLSink(opts.reportDir, caseInfo),
	)

	var blobs carver.BlobWriter

	if !opts.noBlobs {
		blobs, err = report.NewBlobWriter(fsys, opts.reportDir)
		if err != nil {
			return err
		}
	}

	obs := observer.New(log.WithField("case_id", caseInfo.ID))

	driver := carver.NewDriver(source, reg, matcher, profile, sink, obs, blobs, opts.blockSize)

	log.WithFields(logrus.Fields{
		"source":     opts.source,
		"profile":    profile.Name,
		"block_size": opts.blockSize,
	}).Info("scan starting")

	if err := driver.Run(ctx); err != nil {
		return err
	}

	o.Printf("scan complete: reports written to %s\n", opts.reportDir)

	return nil
}

func newLogger(level string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}

	log.SetLevel(parsed)

	return log, nil
}
