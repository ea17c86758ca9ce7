package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskmaster/assistant/internal/application"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
)

// NewChatCommand creates the chat command. With arguments it sends one
// message; without, it reads messages from stdin until EOF or /quit.
func NewChatCommand() *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *application.App, log *logger.Logger) error {
				if model != "" && !app.Gateway.ChangeModel(model) {
					return fmt.Errorf("invalid model name %q", model)
				}

				if len(args) > 0 {
					return sendMessage(cmd, app, strings.Join(args, " "))
				}
				return chatLoop(cmd, app, cmd.InOrStdin())
			})
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "model to use for this session")

	var limit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Print the stored conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *application.App, log *logger.Logger) error {
				messages, err := app.Chat.History(cmd.Context(), limit)
				if err != nil {
					return err
				}
				for _, msg := range messages {
					fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", msg.CreatedAt.Local().Format("2006-01-02 15:04"), msg.Role, msg.Content)
				}
				return nil
			})
		},
	}
	historyCmd.Flags().IntVar(&limit, "limit", 0, "show only the newest N messages")

	cmd.AddCommand(historyCmd, &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *application.App, log *logger.Logger) error {
				count, err := app.Chat.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d messages\n", count)
				return nil
			})
		},
	})

	return cmd
}

func sendMessage(cmd *cobra.Command, app *application.App, text string) error {
	result := app.Chat.SendAndWait(cmd.Context(), text)
	if result.Err != nil && result.AssistantMessage == nil {
		return result.Err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", result.Reply.Backend, result.Reply.Text)
	return result.Err
}

func chatLoop(cmd *cobra.Command, app *application.App, in io.Reader) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Model: %s. Commands: /model <name>, /clear, /quit\n", app.Gateway.Model())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/clear":
			count, err := app.Chat.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted %d messages\n", count)
		case strings.HasPrefix(line, "/model"):
			name := strings.TrimSpace(strings.TrimPrefix(line, "/model"))
			if !app.Gateway.ChangeModel(name) {
				fmt.Fprintf(out, "Available models: %s\n", strings.Join(app.Gateway.AvailableModels(), ", "))
				continue
			}
			fmt.Fprintf(out, "Model: %s\n", app.Gateway.Model())
		default:
			if err := sendMessage(cmd, app, line); err != nil {
				return err
			}
		}
	}
}

// NewModelCommand creates the model command
func NewModelCommand() *cobra.Command {
	modelCmd := &cobra.Command{
		Use:   "model",
		Short: "Show the configured language models",
	}

	modelCmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the model selected at startup",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *application.App, log *logger.Logger) error {
				fmt.Fprintln(cmd.OutOrStdout(), app.Gateway.Model())
				return nil
			})
		},
	})

	modelCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the models offered for selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *application.App, log *logger.Logger) error {
				current := app.Gateway.Model()
				for _, name := range app.Gateway.AvailableModels() {
					marker := " "
					if name == current {
						marker = "*"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
				}
				return nil
			})
		},
	})

	return modelCmd
}

// NewStatusCommand creates the status command
func NewStatusCommand() *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report configuration problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *application.App, log *logger.Logger) error {
				report := app.Status.Status(cmd.Context(), probe)
				out := cmd.OutOrStdout()

				fmt.Fprintf(out, "Model:            %s\n", report.Model)
				fmt.Fprintf(out, "Cloud API key:    %s\n", yesNo(report.CloudConfigured))
				fmt.Fprintf(out, "Weather API key:  %s\n", yesNo(report.WeatherConfigured))
				if probe {
					local := "unreachable"
					if report.LocalReachable {
						local = "ok (version " + report.LocalVersion + ")"
					}
					fmt.Fprintf(out, "Local server:     %s\n", local)
				}
				for _, issue := range report.Issues {
					fmt.Fprintf(out, "! %s\n", issue)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "also ping the local model server")
	return cmd
}

func yesNo(ok bool) string {
	if ok {
		return "configured"
	}
	return "missing"
}
