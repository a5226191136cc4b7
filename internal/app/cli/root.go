// Package cli implements the bmi command line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/adapters/persistence/sqlite"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/adapters/presentation"
	bmiapp "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application"
	bmitypes "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/domain"
	bmiports "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/ports"
	"github.com/Apurer/go-gin-bmi-server/internal/platform/observability"
)

const name = "bmi"

var (
	// overridden during build with ldflags
	version = "dev"
	commit  = "unknown"
)

var errHistoryRequired = errors.New("--history is required for this command")

// Flags are built per command tree because urfave flags keep parsed state.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"o"},
			Value:   string(FormatText),
			Usage:   fmt.Sprintf("Output format (supported values: %s)", strings.Join(SupportedFormats(), ", ")),
		},
		&cli.StringFlag{
			Name:    "history",
			Usage:   "Path to a SQLite file that keeps calculation history",
			Sources: cli.EnvVars("BMI_HISTORY"),
		},
		&cli.StringFlag{
			Name:  "log-level",
			Value: "warn",
			Usage: "log level (debug, info, warn, error)",
		},
	}
}

// New builds the root command writing results to out.
func New(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "Body Mass Index calculator",
		Version:               fmt.Sprintf("%s (%s)", version, commit),
		EnableShellCompletion: true,
		Writer:                out,
		Flags:                 globalFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			var level slog.Level
			if err := level.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
				return ctx, fmt.Errorf("invalid log level %q", cmd.String("log-level"))
			}
			slog.SetDefault(observability.NewLogger(os.Stderr, observability.LoggerOptions{Level: level, Format: "text"}))
			return ctx, nil
		},
		Commands: []*cli.Command{
			calcCmd(),
			categoriesCmd(),
			formCmd(),
			historyCmd(),
		},
	}
}

// Execute runs the tool with process arguments.
func Execute(ctx context.Context) error {
	return New(os.Stdout).Run(ctx, os.Args)
}

func parseOutputFormat(cmd *cli.Command) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(cmd.String("format"))))
	if format.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q", cmd.String("format"))
	}
	return format, nil
}

// openService returns a stateless service, or one backed by the SQLite history when --history is set.
func openService(cmd *cli.Command, required bool) (bmiports.Service, func(), error) {
	path := strings.TrimSpace(cmd.String("history"))
	if path == "" {
		if required {
			return nil, nil, errHistoryRequired
		}
		return bmiapp.NewService(nil), func() {}, nil
	}
	repo, err := sqlite.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history %q: %w", path, err)
	}
	slog.Debug("history opened", slog.String("path", path))
	cleanup := func() {
		if err := repo.Close(); err != nil {
			slog.Warn("failed to close history", slog.String("error", err.Error()))
		}
	}
	return bmiapp.NewService(repo), cleanup, nil
}

func calcCmd() *cli.Command {
	return &cli.Command{
		Name:      "calc",
		Usage:     "Calculate BMI, category and healthy weight range",
		ArgsUsage: "[weight] [height]",
		Description: `Calculates the Body Mass Index for a weight and a height.

Values can be passed as flags or as two positional arguments. Heights above
3 entered in meters are treated as centimeters. When --history is set the
result is recorded.`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "weight", Aliases: []string{"w"}, Usage: "Weight value"},
			&cli.StringFlag{Name: "weight-unit", Value: string(domain.DefaultWeightUnit), Usage: "Weight unit (kg, lb)"},
			&cli.StringFlag{Name: "height", Usage: "Height value"},
			&cli.StringFlag{Name: "height-unit", Value: string(domain.DefaultHeightUnit), Usage: "Height unit (m, cm, in)"},
			&cli.StringFlag{Name: "subject", Usage: "Subject the calculation belongs to"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}
			weight, height := cmd.String("weight"), cmd.String("height")
			if weight == "" {
				weight = cmd.Args().Get(0)
			}
			if height == "" {
				height = cmd.Args().Get(1)
			}
			input := bmitypes.CalculateInput{
				Weight:    bmitypes.RawMeasurement{Value: weight, Unit: cmd.String("weight-unit")},
				Height:    bmitypes.RawMeasurement{Value: height, Unit: cmd.String("height-unit")},
				SubjectID: cmd.String("subject"),
			}

			service, cleanup, err := openService(cmd, false)
			if err != nil {
				return err
			}
			defer cleanup()

			var projection *bmitypes.CalculationProjection
			if strings.TrimSpace(cmd.String("history")) != "" {
				projection, err = service.RecordCalculation(ctx, input)
			} else {
				projection, err = service.Calculate(ctx, input)
			}
			if err != nil {
				return userError(err)
			}
			return writeReport(cmd.Root().Writer, format, toReport(projection))
		},
	}
}

func categoriesCmd() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List the BMI categories",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}
			return writeCategories(cmd.Root().Writer, format, categoryRows(bmiapp.NewService(nil).Categories(ctx)))
		},
	}
}

func formCmd() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Show the empty form with default units",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}
			form := presentation.DefaultForm(bmiapp.NewService(nil).DefaultForm(ctx))
			return writeForm(cmd.Root().Writer, format, form)
		},
	}
}

func historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect and prune recorded calculations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded calculations, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "subject", Usage: "Only show this subject"},
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum number of entries (0 for all)"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					format, err := parseOutputFormat(cmd)
					if err != nil {
						return err
					}
					service, cleanup, err := openService(cmd, true)
					if err != nil {
						return err
					}
					defer cleanup()
					list, err := service.ListCalculations(ctx, bmitypes.ListCalculationsInput{
						SubjectID: cmd.String("subject"),
						Limit:     int(cmd.Int("limit")),
					})
					if err != nil {
						return userError(err)
					}
					reports := make([]report, 0, len(list))
					for _, projection := range list {
						reports = append(reports, toReport(projection))
					}
					return writeHistory(cmd.Root().Writer, format, reports)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete one recorded calculation",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					service, cleanup, err := openService(cmd, true)
					if err != nil {
						return err
					}
					defer cleanup()
					id := cmd.Args().First()
					if err := service.DeleteCalculation(ctx, bmitypes.CalculationIdentifier{ID: id}); err != nil {
						return userError(err)
					}
					_, err = fmt.Fprintf(cmd.Root().Writer, "deleted %s\n", id)
					return err
				},
			},
			{
				Name:  "purge",
				Usage: "Delete calculations older than a duration",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "older-than", Value: 90 * 24 * time.Hour, Usage: "Retention window"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					service, cleanup, err := openService(cmd, true)
					if err != nil {
						return err
					}
					defer cleanup()
					cutoff := time.Now().Add(-cmd.Duration("older-than"))
					removed, err := service.PurgeCalculations(ctx, bmitypes.PurgeCalculationsInput{Before: cutoff})
					if err != nil {
						return userError(err)
					}
					_, err = fmt.Fprintf(cmd.Root().Writer, "removed %d calculation(s)\n", removed)
					return err
				},
			},
		},
	}
}

// userError keeps the message a person should act on and drops wrapping noise.
func userError(err error) error {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		return errors.New(validationMessage(validation))
	case errors.Is(err, bmiports.ErrNotFound):
		return errors.New("calculation not found")
	default:
		return err
	}
}

func validationMessage(err *domain.ValidationError) string {
	if err.Field == domain.FieldHeight {
		return "Please enter a valid height."
	}
	return "Please enter a valid weight."
}
