package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskmaster/assistant/internal/adapters/legacy"
	"github.com/taskmaster/assistant/internal/application"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
)

// NewImportCommand creates the import-json command
func NewImportCommand() *cobra.Command {
	var (
		dir   string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "import-json",
		Short: "Import the legacy widget JSON documents",
		Long: "Copy notes, todos, events, chat history and pomodoro stats from the JSON data directory " +
			"into the record store. Finished files are recorded in a marker so a second run only retries failures; --force imports everything again.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *application.App, log *logger.Logger) error {
				if dir == "" {
					dir = app.Config.Legacy.Dir
				}

				out := cmd.OutOrStdout()

				previous, err := legacy.ReadMarker(dir)
				if err != nil {
					return err
				}

				names := legacy.Files
				switch {
				case force:
					previous = nil
				case previous == nil:
				case previous.Done():
					fmt.Fprintf(out, "Already imported from %s (remove %s or use --force)\n", dir, legacy.MarkerFile)
					return nil
				default:
					names = previous.Failed
					fmt.Fprintf(out, "Retrying %s from %s\n", strings.Join(names, ", "), dir)
				}

				report, err := app.Importer.ImportFiles(cmd.Context(), dir, names)
				if err != nil {
					return fmt.Errorf("import interrupted: %w", err)
				}

				for _, f := range report.Files {
					app.Metrics.AddImported(f.File, f.Imported)
					switch {
					case f.Missing:
						fmt.Fprintf(out, "%-20s missing\n", f.File)
					case f.Err != nil:
						fmt.Fprintf(out, "%-20s failed, nothing imported: %v\n", f.File, f.Err)
					default:
						fmt.Fprintf(out, "%-20s imported %d, skipped %d\n", f.File, f.Imported, f.Skipped)
					}
				}
				fmt.Fprintf(out, "Imported %d records (run %s)\n", report.Imported(), report.RunID)

				if err := legacy.MarkImported(dir, previous, report, time.Now()); err != nil {
					return err
				}
				if errs := report.Errors(); len(errs) > 0 {
					log.Warnw("Import finished with errors", "run_id", report.RunID, "failed_files", len(errs))
					fmt.Fprintf(out, "%d file(s) failed; run import-json again to retry only those\n", len(errs))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory holding the JSON documents (default from JSON_DATA_DIR)")
	cmd.Flags().BoolVar(&force, "force", false, "import even if the directory was imported before")
	return cmd
}

// NewExportCommand creates the export-json command
func NewExportCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export-json",
		Short: "Write the record store back as legacy JSON documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *application.App, log *logger.Logger) error {
				if dir == "" {
					dir = app.Config.Legacy.Dir
				}
				if err := app.Exporter.Export(cmd.Context(), dir); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d documents to %s\n", len(legacy.Files), dir)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "target directory (default from JSON_DATA_DIR)")
	return cmd
}
