package commands

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nadzzz/translynk/internal/app"
)

func speakCmd(e *env) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "speak <text...>",
		Short: "Speak text aloud",
		Long: `Speak text in the given language.

Languages with non-Latin scripts use the remote synthesis backend first and
fall back to the local engine; all others use the local engine.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkCodes(lang); err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := e.build(ctx, true, false)
			if err != nil {
				return err
			}
			defer a.Close()

			return speakAndWait(a, strings.Join(args, " "), lang)
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "en", "language code of the text")
	return cmd
}

func speakAndWait(a *app.App, text, lang string) error {
	if a.Speech == nil {
		return errors.New("speech is disabled or no audio player is available")
	}
	a.Pipeline.Speak(text, lang)
	a.WaitSpeech()
	return nil
}

func languagesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the supported languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.build(cmd.Context(), false, false)
			if err != nil {
				return err
			}
			defer a.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tVOICE")
			for _, l := range a.Pipeline.Languages() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", l.Code, l.Name, l.VoiceLocale)
			}
			return w.Flush()
		},
	}
}
