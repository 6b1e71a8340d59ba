package commands

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func listenCmd(e *env) *cobra.Command {
	var to string
	var duration time.Duration
	var mute, asJSON bool

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Record from the microphone and translate the speech",
		Long: `Record from the microphone, transcribe the recording and translate it.

Recording stops after --duration, or when Enter is pressed if no duration is
given. The translation is spoken unless --mute is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkCodes(to); err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := e.build(ctx, !mute, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Pipeline.StartRecording(ctx); err != nil {
				return fmt.Errorf("starting recording: %w", err)
			}
			if err := waitForStop(ctx, cmd, duration); err != nil {
				return err
			}

			res := a.Pipeline.StopRecording(ctx, to)
			if err := printResult(cmd.OutOrStdout(), res, asJSON); err != nil {
				return err
			}
			a.WaitSpeech()
			return runError(res)
		},
	}

	cmd.Flags().StringVarP(&to, "to", "t", "", "target language code (default from config)")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "stop recording after this long (default: wait for Enter)")
	cmd.Flags().BoolVar(&mute, "mute", false, "do not speak the translation")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

// waitForStop blocks until the duration elapses, or until a line is read
// from the command's input when d is zero.
func waitForStop(ctx context.Context, cmd *cobra.Command, d time.Duration) error {
	stop := make(chan struct{})
	if d > 0 {
		timer := time.AfterFunc(d, func() { close(stop) })
		defer timer.Stop()
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), "recording, press Enter to stop")
		go func() {
			_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			close(stop)
		}()
	}

	select {
	case <-stop:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
