package commands

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	serverconfig "github.com/inferloop/healthtrack/internal/config"
	"github.com/inferloop/healthtrack/internal/storage"
	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/interfaces"
	"github.com/inferloop/healthtrack/pkg/models"
)

type ImportOptions struct {
	InputFile    string
	UserID       string
	ServerConfig string
	StorageType  string
	BatchSize    int
	DryRun       bool
}

// profileWriter is implemented by record stores that persist profiles
type profileWriter interface {
	PutProfile(ctx context.Context, profile *models.UserProfile) error
}

func NewImportCmd(global *GlobalOptions) *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a dataset into the server's record store",
		Long: `Read a JSON dataset or CSV export and append its records to the record
store configured for the server (file, timescaledb or influxdb).`,
		Example: `  # Import a scale export into TimescaleDB
  healthtrack-cli import --input weigh-ins.csv --user u1 --server-config /etc/healthtrack/config.yaml --storage timescaledb

  # Preview what would be written
  healthtrack-cli import --input dataset.json --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "Dataset to import (required)")
	cmd.Flags().StringVarP(&opts.UserID, "user", "u", "", "User id (defaults to the dataset profile)")
	cmd.Flags().StringVar(&opts.ServerConfig, "server-config", "", "Server configuration file naming the record store")
	cmd.Flags().StringVar(&opts.StorageType, "storage", "", "Override the configured record store type")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 500, "Records written per call")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Validate the dataset without writing")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runImport(cmd *cobra.Command, global *GlobalOptions, opts *ImportOptions) error {
	ctx := cmd.Context()
	logger := newLogger(global)

	if opts.BatchSize <= 0 {
		return errors.NewValidationError(errors.CodeInvalidInput, "--batch-size must be positive")
	}

	dataset, err := loadDataset(opts.InputFile)
	if err != nil {
		return err
	}

	userID := opts.UserID
	if userID == "" && dataset.Profile != nil {
		userID = dataset.Profile.UserID
	}
	if userID == "" {
		return errors.NewValidationError(errors.CodeInvalidInput, "no user id: pass --user or include a profile in the dataset")
	}

	for i := range dataset.Records {
		if _, err := dataset.Records[i].Timestamp(); err != nil {
			return errors.NewDataError(errors.CodeInvalidDate, fmt.Sprintf("record %d has an unparseable date", i)).WithDetails(err.Error())
		}
	}

	if opts.DryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "Would import %d records for user %s\n", len(dataset.Records), userID)
		return nil
	}

	cfg, err := serverconfig.Load(opts.ServerConfig)
	if err != nil {
		return err
	}
	if opts.StorageType != "" {
		cfg.Storage.Type = opts.StorageType
	}

	store, err := storage.NewFactory(logger).CreateRecordStore(&cfg.Storage)
	if err != nil {
		return err
	}
	if err := store.Connect(ctx); err != nil {
		return err
	}
	defer store.Close()

	written, err := importRecords(ctx, store, userID, dataset.Records, opts.BatchSize)
	if err != nil {
		return err
	}

	if dataset.Profile != nil {
		if pw, ok := store.(profileWriter); ok {
			profile := *dataset.Profile
			profile.UserID = userID
			if err := pw.PutProfile(ctx, &profile); err != nil {
				return err
			}
		} else {
			logger.WithField("storage", cfg.Storage.Type).Warn("Record store does not accept profiles; profile skipped")
		}
	}

	logger.WithFields(logrus.Fields{
		"user_id": userID,
		"records": written,
		"storage": cfg.Storage.Type,
	}).Info("Import complete")

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records for user %s into %s\n", written, userID, cfg.Storage.Type)
	return nil
}

func importRecords(ctx context.Context, store interfaces.RecordStore, userID string, records []models.MetricRecord, batchSize int) (int, error) {
	writer, ok := store.(interfaces.RecordWriter)
	if !ok {
		return 0, errors.NewValidationError(errors.CodeInvalidInput, "record store is read-only")
	}

	written := 0
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := writer.AddRecords(ctx, userID, records[start:end]); err != nil {
			return written, err
		}
		written = end
	}
	return written, nil
}
