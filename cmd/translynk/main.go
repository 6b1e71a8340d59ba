// Translynk is a device-side translation daemon and CLI. It turns typed text,
// microphone recordings and photographed text into translations, and speaks
// the results.
//
// Usage:
//
//	translynk serve [--config /path/to/translynk.yaml]
//	translynk translate --to ja "Good morning"
//	translynk ocr --to es menu.jpg
//	translynk listen --to fr --duration 5s
//
// @title          translynk API
// @version        1.0
// @description    Text, image and speech translation with spoken output.
// @BasePath       /
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nadzzz/translynk/cmd/translynk/commands"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := commands.Root(version).ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
