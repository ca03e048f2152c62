package main

import (
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sweeney/breathwork/internal/tui"
)

func newTUICmd(opts *globalOpts) *cobra.Command {
	var (
		target        int
		chromotherapy bool
		useAudio      bool
		logFile       string
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Run a session interactively in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("target") {
				cfg.TargetSeconds = target
			}
			if cmd.Flags().Changed("chromotherapy") {
				cfg.Chromotherapy.Enabled = chromotherapy
			}
			if cmd.Flags().Changed("audio") {
				cfg.Audio.Enabled = useAudio
			}

			// The alt screen owns the terminal, so logs go to a file or nowhere.
			var w io.Writer = io.Discard
			if logFile != "" {
				f, err := tea.LogToFile(logFile, "breathwork")
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				w = f
			}
			logger, err := newLogger(w, opts.logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			e, err := newEngine(cfg, engineDeps{}, logger)
			if err != nil {
				return err
			}
			defer e.Close()

			model := tui.New(e.manager, tui.Config{
				TargetSeconds: cfg.TargetSeconds,
				Options:       e.startOptions(),
				Chroma:        e.chroma,
			})
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("tui: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&target, "target", 0, "session length in seconds (0 runs until stopped)")
	cmd.Flags().BoolVar(&chromotherapy, "chromotherapy", false, "show the phase colour while the session runs")
	cmd.Flags().BoolVar(&useAudio, "audio", false, "play the selected soundtrack")
	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file")
	return cmd
}
