package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inferloop/healthtrack/cmd/cli/config"
	"github.com/inferloop/healthtrack/internal/insights"
	"github.com/inferloop/healthtrack/internal/ml"
	"github.com/inferloop/healthtrack/internal/storage"
	"github.com/inferloop/healthtrack/internal/storage/implementations/file"
	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/models"
)

// GlobalOptions are the persistent root flags every command reads
type GlobalOptions struct {
	ConfigFile string
	Verbose    bool
}

// DataOptions select the dataset a command analyses
type DataOptions struct {
	InputFile string
	UserID    string
	Height    float64
	Now       string
}

func addDataFlags(cmd *cobra.Command, opts *DataOptions) {
	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "Dataset to analyse: JSON dataset or CSV records (required)")
	cmd.Flags().StringVarP(&opts.UserID, "user", "u", "", "User id (defaults to the dataset profile)")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "Height in cm when the dataset has no profile")
	cmd.Flags().StringVar(&opts.Now, "now", "", "Evaluate windows and forecasts as of this date (a bare date means the end of that day)")

	_ = cmd.MarkFlagRequired("input")
}

// parseNow reads the --now flag. A bare date covers the whole day, so
// readings taken later that day stay inside the window.
func parseNow(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if day, err := time.Parse("2006-01-02", value); err == nil {
		return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}
	return models.ParseDate(value)
}

func newLogger(global *GlobalOptions) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if global.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// newService loads the dataset into memory and wires an insights service over it
func newService(ctx context.Context, global *GlobalOptions, opts *DataOptions) (*insights.Service, string, *config.CLIConfig, error) {
	cfg, err := config.LoadConfig(global.ConfigFile)
	if err != nil {
		return nil, "", nil, err
	}

	logger := newLogger(global)

	dataset, err := loadDataset(opts.InputFile)
	if err != nil {
		return nil, "", nil, err
	}

	profile := dataset.Profile
	if profile == nil {
		profile = &models.UserProfile{}
	}
	if opts.UserID != "" {
		profile.UserID = opts.UserID
	}
	if profile.UserID == "" {
		profile.UserID = "local"
	}

	height := opts.Height
	if height == 0 {
		height = cfg.Height
	}
	if height > 0 {
		profile.Height = models.Float(height)
	}

	store := storage.NewMemoryStore(logger)
	store.PutProfile(profile)
	if err := store.AddRecords(ctx, profile.UserID, dataset.Records); err != nil {
		return nil, "", nil, err
	}

	var serviceOpts []insights.Option

	if opts.Now != "" {
		now, err := parseNow(opts.Now)
		if err != nil {
			return nil, "", nil, errors.NewDataError(errors.CodeInvalidDate, "--now is not a valid date").WithDetails(err.Error())
		}
		serviceOpts = append(serviceOpts, insights.WithClock(func() time.Time { return now }))
	}

	if cfg.ArtifactDir != "" {
		artifacts, err := ml.NewLocalModelStorage(cfg.ArtifactDir, logger)
		if err != nil {
			return nil, "", nil, err
		}
		serviceOpts = append(serviceOpts, insights.WithArtifactStore(artifacts))
	}

	logger.WithFields(logrus.Fields{
		"input":   opts.InputFile,
		"user_id": profile.UserID,
		"records": len(dataset.Records),
	}).Debug("Loaded dataset")

	return insights.NewService(store, store, &cfg.Analytics, logger, serviceOpts...), profile.UserID, cfg, nil
}

// loadDataset reads a JSON dataset document or a CSV of records
func loadDataset(path string) (*file.Dataset, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, fmt.Sprintf("Failed to open file: %s", path))
		}
		defer f.Close()

		records, err := file.ReadRecordsCSV(f)
		if err != nil {
			return nil, err
		}
		return &file.Dataset{Records: records}, nil
	}

	return file.ReadDataset(path)
}

// writeOutcome prints the response envelope and returns err so the exit code reflects it
func writeOutcome(w io.Writer, pretty bool, data interface{}, err error) error {
	encoder := json.NewEncoder(w)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	if encErr := encoder.Encode(insights.ToOutcome(data, err)); encErr != nil {
		return encErr
	}
	return err
}
