package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/schemagen/internal/cli/ui"
	"github.com/conduit-lang/schemagen/internal/processor"
	"github.com/conduit-lang/schemagen/internal/schema"
)

func newValidateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check class declarations without writing anything",
		Long: `Load every declaration, register it and run the cross-class checks.
Every collection and index is then built once so that errors only found while
building, such as an incomplete composite primary key, are reported too.`,
		Example: `  schemagen validate
  schemagen validate -d schemas/orders.yml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts)
		},
	}
}

func runValidate(cmd *cobra.Command, opts *rootOptions) error {
	classes, err := opts.loadClasses()
	if err != nil {
		return err
	}

	var problems []string
	registry := schema.NewRegistry()
	for _, c := range classes {
		if err := registry.Register(c); err != nil {
			problems = append(problems, problemLines(err)...)
		}
	}
	if err := registry.ValidateAll(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) == 0 {
		proc := processor.New(registry, processor.WithLogger(opts.logger))
		for _, c := range classes {
			if c.Kind == schema.KindEmbedded {
				continue
			}
			if _, err := proc.Process(c.Ref); err != nil {
				problems = append(problems, err.Error())
			}
		}
	}

	if len(problems) > 0 {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ValidationFailed(problems, opts.noColor))
		return reported(fmt.Errorf("%d problem(s) found", len(problems)))
	}

	for _, warning := range registry.Warnings() {
		fmt.Fprint(cmd.ErrOrStderr(), ui.Warning(warning, opts.noColor))
	}

	opts.logger.Info("declarations valid",
		zap.Int("classes", len(classes)),
		zap.Int("warnings", len(registry.Warnings())),
	)
	ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("%d classes valid", len(classes)), opts.noColor)
	return nil
}

// problemLines expands aggregated validation errors into one line each
func problemLines(err error) []string {
	var verrs schema.ValidationErrors
	if errors.As(err, &verrs) {
		lines := make([]string, 0, len(verrs))
		for _, e := range verrs {
			lines = append(lines, e.Error())
		}
		return lines
	}
	return []string{err.Error()}
}
