package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/trademark-search/internal/application/ingest"
	"github.com/turtacn/trademark-search/internal/config"
	"github.com/turtacn/trademark-search/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-search/internal/infrastructure/storage/minio"
	"github.com/turtacn/trademark-search/pkg/errors"
)

type loadFlags struct {
	object string
}

// NewLoadCmd creates the load command.  The dataset is the file argument, the
// MinIO object named by --object, or ingest.data_file.
func NewLoadCmd() *cobra.Command {
	f := &loadFlags{}
	cmd := &cobra.Command{
		Use:   "load [file]",
		Short: "Load a trademark JSON dataset into the configured backend",
		Example: "  tmsearch load ./data/trademark_sample.json\n" +
			"  tmsearch load --object exports/2024-06.json",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runLoad(cmd, cliCtx, args, f)
		},
	}
	cmd.Flags().StringVar(&f.object, "object", "", "object key in minio.bucket to load instead of a file")
	return cmd
}

func runLoad(cmd *cobra.Command, cliCtx *CLIContext, args []string, f *loadFlags) error {
	cfg, logger := cliCtx.Config, cliCtx.Logger
	if len(args) > 0 && f.object != "" {
		return errors.InvalidParam("a file argument and --object are mutually exclusive")
	}
	if cfg.Search.Backend == config.BackendMemory {
		logger.Warn("The memory backend does not outlive this process; records are loaded for validation only")
	}

	// Loads are not bounded by --timeout; interrupting the command cancels them.
	ctx := cmd.Context()

	app, err := NewApp(ctx, cfg, logger, appOptions{metrics: true})
	if err != nil {
		return err
	}
	defer app.Close()

	src, closeSrc, err := loadSource(ctx, cfg, logger, args, f)
	if err != nil {
		return err
	}
	defer closeSrc()

	stats, err := app.NewLoader().Load(ctx, src)
	if stats != nil {
		if perr := printStats(cmd, cliCtx, stats, err == nil); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

func loadSource(ctx context.Context, cfg *config.Config, logger logging.Logger, args []string, f *loadFlags) (ingest.Source, func(), error) {
	switch {
	case f.object != "":
		store, err := minio.NewClient(cfg.MinIO, logger)
		if err != nil {
			return nil, nil, err
		}
		return ingest.ObjectSource{Store: store, Key: f.object}, func() { _ = store.Close() }, nil
	case len(args) > 0:
		return ingest.FileSource{Path: args[0]}, func() {}, nil
	case cfg.Ingest.DataFile != "":
		return ingest.FileSource{Path: cfg.Ingest.DataFile}, func() {}, nil
	}
	return nil, nil, errors.InvalidParam("no dataset given: pass a file, --object, or set ingest.data_file")
}

func printStats(cmd *cobra.Command, cliCtx *CLIContext, s *ingest.Stats, ok bool) error {
	if cliCtx.OutputFormat == OutputJSON {
		return printJSON(cmd, s)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Source:    %s\n", s.Source)
	fmt.Fprintf(w, "Run:       %s\n", s.RunID)
	fmt.Fprintf(w, "Read:      %d\n", s.Read)
	fmt.Fprintf(w, "Loaded:    %d\n", s.Loaded)
	fmt.Fprintf(w, "Skipped:   %d\n", s.Skipped)
	fmt.Fprintf(w, "Failed:    %d (%d of %d batches)\n", s.Failed, s.FailedBatches, s.Batches)
	fmt.Fprintf(w, "Warnings:  %d\n", s.Warnings)
	fmt.Fprintf(w, "Duration:  %s\n", s.Duration)
	if ok {
		PrintSuccess(cmd, fmt.Sprintf("loaded %d trademarks", s.Loaded))
	}
	return nil
}
