package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nadzzz/translynk/internal/message"
)

func translateCmd(e *env) *cobra.Command {
	var from, to string
	var speak, asJSON bool

	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate text",
		Long: `Translate text from one language to another.

The text is taken from the arguments, or from stdin when none are given.
Use --speak to voice the translation once it arrives.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				text = strings.TrimSpace(string(data))
			}
			if err := checkCodes(from, to); err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := e.build(ctx, speak, false)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.Pipeline.Translate(ctx, message.TextState{SourceLang: from, TargetLang: to, Text: text})
			if err := printResult(cmd.OutOrStdout(), res, asJSON); err != nil {
				return err
			}
			if speak && res.Error == "" {
				if err := speakAndWait(a, res.TranslatedText, res.TargetLang); err != nil {
					return err
				}
			}
			return runError(res)
		},
	}

	cmd.Flags().StringVarP(&from, "from", "f", "", "source language code, or \"auto\" (default from config)")
	cmd.Flags().StringVarP(&to, "to", "t", "", "target language code (default from config)")
	cmd.Flags().BoolVar(&speak, "speak", false, "speak the translation")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func ocrCmd(e *env) *cobra.Command {
	var from, to string
	var speak, asJSON bool

	cmd := &cobra.Command{
		Use:   "ocr <image>",
		Short: "Translate the text in an image",
		Long: `Extract the text from an image file and translate it.

The source language defaults to the configured image source, since text
recognition does not detect languages.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading image: %w", err)
			}
			if err := checkCodes(from, to); err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := e.build(ctx, speak, false)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.Pipeline.TranslateImage(ctx, filepath.Base(args[0]), data, to, from)
			res.ImagePreview = ""
			if err := printResult(cmd.OutOrStdout(), res, asJSON); err != nil {
				return err
			}
			if speak && res.Error == "" {
				if err := speakAndWait(a, res.TranslatedText, res.TargetLang); err != nil {
					return err
				}
			}
			return runError(res)
		},
	}

	cmd.Flags().StringVarP(&from, "from", "f", "", "language of the text in the image (default from config)")
	cmd.Flags().StringVarP(&to, "to", "t", "", "target language code (default from config)")
	cmd.Flags().BoolVar(&speak, "speak", false, "speak the translation")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}
