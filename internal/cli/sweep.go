package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/senyabanana/funding-service/internal/models"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// SweepCmd возвращает команду однократного закрытия просроченных операций.
func SweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Close every open operation whose deadline has passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := NewLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			if err != nil {
				return err
			}

			app, err := NewApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			closed, err := app.Operations.CloseExpiredOperations(cmd.Context())
			if err != nil {
				return err
			}
			printSweepSummary(cmd.OutOrStdout(), closed, app.Operations.Now())
			return nil
		},
	}

	addConfigFlag(cmd)
	return cmd
}

func printSweepSummary(out io.Writer, closed int64, now time.Time) {
	count := color.New(color.FgYellow).Sprint(closed)
	if closed == 0 {
		count = color.New(color.FgGreen).Sprint(closed)
	}
	fmt.Fprintf(out, "Sweep %s: closed %s expired operation(s)\n", models.DateOf(now).Format(models.DateLayout), count)
}
