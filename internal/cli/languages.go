package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	greeting "github.com/openjobspec/ojs-hello-world"
)

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "languages",
		Aliases:               []string{"langs"},
		Short:                 "List the supported languages and their greetings",
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		PersistentPreRun:      func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			bold := color.New(color.Bold).FprintfFunc()

			for _, lang := range greeting.Languages() {
				phrase, _ := greeting.Phrase(lang)
				if lang == greeting.DefaultLanguage {
					bold(cmd.OutOrStdout(), "%s  %s (default)\n", lang, phrase)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", lang, phrase)
			}
		},
	}
}
