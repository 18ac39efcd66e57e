package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"studiora/backend/internal/preferences"
	"studiora/backend/internal/timer"
)

const bell = "\a"

func newTimerCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Run the focus timer and manage its settings",
	}
	cmd.AddCommand(newTimerRunCmd(root), newTimerSettingsCmd(root))
	return cmd
}

func newTimerRunCmd(root *rootOptions) *cobra.Command {
	var (
		mode      string
		intervals int
		tick      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Count down in the terminal",
		Long:  "Count down in the terminal. The command returns when an interval ends unless the settings\nauto-start the next one, in which case it keeps cycling until interrupted or --intervals is reached.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open(cmd)
			if err != nil {
				return err
			}
			settings, err := preferences.Load(a.settingsPath)
			if err != nil {
				return err
			}
			startMode, err := timer.ParseMode(mode)
			if err != nil {
				return err
			}

			driver, err := timer.NewDriver(settings, timer.Options{
				TickInterval: tick,
				Logger:       a.logger,
			})
			if err != nil {
				return err
			}
			defer driver.Close()

			events, unsubscribe := driver.Subscribe(64)
			defer unsubscribe()

			if _, err := driver.SetMode(0, startMode); err != nil {
				return err
			}
			snapshot, err := driver.Start(0)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printCountdown(cmd, snapshot.State)
			finished := 0
			for {
				select {
				case <-cmd.Context().Done():
					fmt.Fprintln(out)
					fmt.Fprintln(out, "Timer stopped.")
					return nil
				case event, ok := <-events:
					if !ok {
						return nil
					}
					switch event.Type {
					case timer.EventTick, timer.EventState:
						printCountdown(cmd, event.Snapshot.State)
					case timer.EventNotification:
						fmt.Fprintf(out, "%s\n%s\n", bell, event.Message)
					case timer.EventTransition:
						finished++
						if !event.Transition.Notify {
							fmt.Fprintln(out)
						}
						if !event.Transition.AutoContinue || (intervals > 0 && finished >= intervals) {
							drainNotification(cmd, events, event.Transition.Notify)
							fmt.Fprintf(out, "Next up: %s\n", event.Transition.To)
							return nil
						}
					}
				}
			}
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", string(timer.ModeFocus), "mode to start in (focus, short_break, long_break)")
	cmd.Flags().IntVarP(&intervals, "intervals", "n", 0, "stop after n finished intervals (0 runs until interrupted)")
	cmd.Flags().DurationVar(&tick, "tick", timer.DefaultTickInterval, "length of one timer second")
	_ = cmd.Flags().MarkHidden("tick")
	return cmd
}

// drainNotification prints the notification emitted together with the final
// transition. Both are queued under the same driver lock.
func drainNotification(cmd *cobra.Command, events <-chan timer.Event, expected bool) {
	if !expected {
		return
	}
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Type == timer.EventNotification {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", bell, event.Message)
				return
			}
		default:
			return
		}
	}
}

func printCountdown(cmd *cobra.Command, state timer.State) {
	minutes := state.RemainingSeconds / 60
	seconds := state.RemainingSeconds % 60
	fmt.Fprintf(cmd.OutOrStdout(), "\r%-11s %02d:%02d", state.Mode, minutes, seconds)
}

func newTimerSettingsCmd(root *rootOptions) *cobra.Command {
	var (
		focus, shortBreak, longBreak time.Duration
		interval                     int
		autoBreaks, autoFocus, sound bool
	)

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Print the timer settings, updating any field passed as a flag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open(cmd)
			if err != nil {
				return err
			}
			settings, err := preferences.Load(a.settingsPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			changed := false
			apply := func(name string, set func()) {
				if flags.Changed(name) {
					set()
					changed = true
				}
			}
			apply("focus", func() { settings.FocusSeconds = int(focus / time.Second) })
			apply("short-break", func() { settings.ShortBreakSeconds = int(shortBreak / time.Second) })
			apply("long-break", func() { settings.LongBreakSeconds = int(longBreak / time.Second) })
			apply("long-break-interval", func() { settings.LongBreakInterval = interval })
			apply("auto-start-breaks", func() { settings.AutoStartBreaks = autoBreaks })
			apply("auto-start-focus", func() { settings.AutoStartFocus = autoFocus })
			apply("sound", func() { settings.SoundEnabled = sound })

			if changed {
				if err := preferences.Save(a.settingsPath, settings); err != nil {
					return err
				}
			}

			raw, err := yaml.Marshal(settings)
			if err != nil {
				return fmt.Errorf("marshal settings yaml: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", a.settingsPath, raw)
			return nil
		},
	}
	cmd.Flags().DurationVar(&focus, "focus", 0, "focus length, e.g. 25m")
	cmd.Flags().DurationVar(&shortBreak, "short-break", 0, "short break length")
	cmd.Flags().DurationVar(&longBreak, "long-break", 0, "long break length")
	cmd.Flags().IntVar(&interval, "long-break-interval", 0, "focus intervals per long break")
	cmd.Flags().BoolVar(&autoBreaks, "auto-start-breaks", false, "start breaks automatically")
	cmd.Flags().BoolVar(&autoFocus, "auto-start-focus", false, "start focus automatically after a break")
	cmd.Flags().BoolVar(&sound, "sound", true, "ring the terminal bell when an interval ends")
	return cmd
}
