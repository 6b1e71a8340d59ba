// Package commands provides the translynk CLI commands.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nadzzz/translynk/internal/app"
	"github.com/nadzzz/translynk/internal/config"
	"github.com/nadzzz/translynk/internal/message"
	"github.com/nadzzz/translynk/internal/translate"
)

// env is the state shared by every command once the configuration is loaded.
type env struct {
	configFile string
	cfg        *config.Config
	opts       []app.Option
}

// Root returns the translynk root command.
func Root(version string) *cobra.Command {
	return newRoot(version)
}

func newRoot(version string, opts ...app.Option) *cobra.Command {
	e := &env{opts: opts}

	root := &cobra.Command{
		Use:   "translynk",
		Short: "Text, speech and image translation",
		Long: `translynk translates typed text, microphone recordings and photographed
text, and speaks the results.

Run "translynk serve" for the HTTP and gRPC daemon, or use the one-shot
commands below.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return e.load() },
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&e.configFile, "config", "", "path to config file (e.g. configs/translynk.yaml)")

	root.AddCommand(
		serveCmd(e, version),
		translateCmd(e),
		ocrCmd(e),
		listenCmd(e),
		speakCmd(e),
		languagesCmd(e),
		versionCmd(version),
	)
	return root
}

func (e *env) load() error {
	cfg, err := config.Load(e.configFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	config.SetupLogging(cfg.Logging)
	e.cfg = cfg
	return nil
}

// build assembles the application for a one-shot command. Speech and capture
// stay off unless the command needs them.
func (e *env) build(ctx context.Context, speech, capture bool) (*app.App, error) {
	cfg := *e.cfg
	cfg.TTS.Enabled = cfg.TTS.Enabled && speech
	cfg.Capture.Enabled = cfg.Capture.Enabled && capture
	return app.New(ctx, &cfg, e.opts...)
}

func versionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the version",
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "translynk %s\n", version)
		},
	}
}

// printResult writes res as indented JSON or as a short human-readable report.
func printResult(w io.Writer, res message.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	source := res.SourceLangName
	if source == "" {
		source = res.SourceLang
	}
	if res.SourceText != "" {
		fmt.Fprintf(w, "[%s] %s (%d)\n", source, res.SourceText, res.SourceChars)
	}
	fmt.Fprintf(w, "[%s] %s (%d)\n", res.TargetLangName, res.TranslatedText, res.TranslatedChars)
	return nil
}

// runError turns an inline stage failure into a command error so the exit
// status reflects it.
func runError(res message.Result) error {
	if res.Error != "" {
		return errors.New(res.Error)
	}
	return nil
}

// checkCodes rejects malformed language flags. Empty codes fall back to the
// configured defaults.
func checkCodes(codes ...string) error {
	for _, code := range codes {
		if code != "" && !translate.ValidLanguageCode(code) {
			return fmt.Errorf("invalid language code %q", code)
		}
	}
	return nil
}
