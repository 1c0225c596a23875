package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/factshield/factshield/internal/service"
	"github.com/factshield/factshield/internal/storage/fs"
	"github.com/factshield/factshield/internal/storage/sqlstore"
)

type SweepOptions struct {
	*RootOptions
	SafetyThreshold time.Duration
}

func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SweepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove attachment files no case file references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVar(&opts.SafetyThreshold, "safety-threshold", 0, "minimum file age before deletion (default from config)")
	return cmd
}

func runSweep(ctx context.Context, opts *SweepOptions, out io.Writer) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	threshold := cfg.Public.Sweep.SafetyThreshold
	if opts.SafetyThreshold > 0 {
		threshold = opts.SafetyThreshold
	}

	store, err := sqlstore.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	media, err := fs.New(cfg.Public.UploadDir)
	if err != nil {
		return err
	}

	stats, err := service.NewMediaGarbageCollector(store, media, threshold).RunCleanup(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "scanned %d files, deleted %d of %d orphans, reclaimed %d bytes\n",
		stats.FilesScanned, stats.FilesDeleted, stats.OrphanedFiles, stats.BytesReclaimed)
	for _, e := range stats.Errors {
		fmt.Fprintln(out, e)
	}
	return nil
}
