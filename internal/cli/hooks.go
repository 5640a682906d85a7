package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	greeting "github.com/openjobspec/ojs-hello-world"
)

func newInvokeCmd(a *app) *cobra.Command {
	var params greeting.JobParams

	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Call the invoke hook and print the result",
		Long: `Build the greeting for a person. Without --language a language is
picked at random. Unknown language codes are not rejected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h := greeting.NewHandler(greeting.WithLogger(a.logger))

			res, err := h.Invoke(cmd.Context(), params, greeting.ExecutionContext{})
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&params.FirstName, "first-name", "", "first name of the person to greet")
	cmd.Flags().StringVar(&params.LastName, "last-name", "", "last name of the person to greet")
	cmd.Flags().StringVar((*string)(&params.Language), "language", "", "language code, e.g. es; random if empty")

	return cmd
}

func newErrorCmd(a *app) *cobra.Command {
	var params greeting.ErrorParams

	cmd := &cobra.Command{
		Use:   "error",
		Short: "Call the error hook with a failure message",
		Long: `Ask the error hook to recover from a failed invoke. Messages that
mention "language" or "greeting" are recovered with the English greeting;
anything else is unrecoverable and exits non-zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h := greeting.NewHandler(greeting.WithLogger(a.logger))

			res, err := h.Error(cmd.Context(), params)
			if err != nil {
				red := color.New(color.FgRed, color.Bold).FprintlnFunc()
				red(cmd.ErrOrStderr(), err.Error())

				cmd.SilenceUsage = true
				cmd.SilenceErrors = true

				return fmt.Errorf("error hook: %w", err)
			}

			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&params.FirstName, "first-name", "", "first name of the person to greet")
	cmd.Flags().StringVar(&params.LastName, "last-name", "", "last name of the person to greet")
	cmd.Flags().StringVar(&params.Error.Message, "message", "", "message of the failure to recover from")
	cmd.Flags().StringVar(&params.Error.Code, "code", "", "optional error code")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func newHaltCmd(a *app) *cobra.Command {
	var params greeting.HaltParams

	cmd := &cobra.Command{
		Use:   "halt",
		Short: "Call the halt hook",
		Long: fmt.Sprintf(`Tell the job it is being terminated. Typical reasons are
%q, %q and %q.`, greeting.HaltReasonTimeout, greeting.HaltReasonCancellation, greeting.HaltReasonSystemShutdown),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h := greeting.NewHandler(greeting.WithLogger(a.logger))
			h.Halt(cmd.Context(), params)

			blue := color.New(color.FgBlue, color.Bold).FprintfFunc()
			blue(cmd.OutOrStdout(), "halted: %s\n", params.Reason)

			return nil
		},
	}

	cmd.Flags().StringVar(&params.Reason, "reason", "", "why the job is halted")
	cmd.Flags().StringVar(&params.FirstName, "first-name", "", "first name of the person being greeted")
	cmd.Flags().StringVar(&params.LastName, "last-name", "", "last name of the person being greeted")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}
