package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	serverconfig "github.com/inferloop/healthtrack/internal/config"
	"github.com/inferloop/healthtrack/internal/export"
	"github.com/inferloop/healthtrack/internal/storage"
	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/models"
)

type ExportOptions struct {
	UserID       string
	ServerConfig string
	StorageType  string
	From         string
	To           string
	Limit        int
	Format       string
	OutputFile   string
	AllMetrics   bool
}

func NewExportCmd(global *GlobalOptions) *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's records from the server's record store",
		Example: `  # March as CSV, ready for re-import or analysis
  healthtrack-cli export --user u1 --server-config config.yaml --from 2024-03-01 --to 2024-03-31 -o march.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.UserID, "user", "u", "", "User id (required)")
	cmd.Flags().StringVar(&opts.ServerConfig, "server-config", "", "Server configuration file naming the record store")
	cmd.Flags().StringVar(&opts.StorageType, "storage", "", "Override the configured record store type")
	cmd.Flags().StringVar(&opts.From, "from", "", "Earliest record date")
	cmd.Flags().StringVar(&opts.To, "to", "", "Latest record date")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Newest N records only")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", string(export.FormatCSV), "Output format (csv, json)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "Output file (- for stdout)")
	cmd.Flags().BoolVar(&opts.AllMetrics, "all-metrics", false, "Emit a column for every metric")

	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runExport(cmd *cobra.Command, global *GlobalOptions, opts *ExportOptions) error {
	ctx := cmd.Context()

	tr, err := parseWindow(opts.From, opts.To)
	if err != nil {
		return err
	}

	cfg, err := serverconfig.Load(opts.ServerConfig)
	if err != nil {
		return err
	}
	if opts.StorageType != "" {
		cfg.Storage.Type = opts.StorageType
	}

	store, err := storage.NewFactory(newLogger(global)).CreateRecordStore(&cfg.Storage)
	if err != nil {
		return err
	}
	if err := store.Connect(ctx); err != nil {
		return err
	}
	defer store.Close()

	records, err := store.ListRecords(ctx, opts.UserID, tr, opts.Limit)
	if err != nil {
		return err
	}

	// oldest first, the order the records were taken
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	var out io.Writer = cmd.OutOrStdout()
	if opts.OutputFile != "-" {
		f, err := os.Create(opts.OutputFile)
		if err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to create output file")
		}
		defer f.Close()
		out = f
	}

	options := export.DefaultExportOptions()
	options.AllMetrics = opts.AllMetrics
	options.Pretty = true

	return export.Export(ctx, out, export.ExportFormat(opts.Format), records, options)
}

func parseWindow(from, to string) (*models.TimeRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}

	tr := &models.TimeRange{}
	var err error
	if from != "" {
		if tr.Start, err = models.ParseDate(from); err != nil {
			return nil, errors.NewDataError(errors.CodeInvalidDate, "--from is not a valid date").WithDetails(err.Error())
		}
	}
	if to != "" {
		if tr.End, err = models.ParseDate(to); err != nil {
			return nil, errors.NewDataError(errors.CodeInvalidDate, "--to is not a valid date").WithDetails(err.Error())
		}
	}
	if !tr.Valid() {
		return nil, errors.NewValidationError(errors.CodeInvalidTimeRange, errors.ErrInvalidTimeRange.Error())
	}
	return tr, nil
}
