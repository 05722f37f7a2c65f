package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/vizsync/pkg/loader"
	"github.com/vanderheijden86/vizsync/pkg/timeline"
)

var (
	playFrom   int
	playPeriod time.Duration
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the timeline in real time, printing relative rates per year",
	Long: `Plays the timeline from --from (default: first year) to the last year at
the configured period, printing one line of relative rates per year. Useful
without a terminal UI, for example piped into a log.`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().IntVar(&playFrom, "from", 0, "Start year (default: first year)")
	playCmd.Flags().DurationVar(&playPeriod, "period", 0, "Time per year (default: timeline.period from the config)")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, _, bundle, err := loadAll(ctxOf(cmd))
	if err != nil {
		return err
	}
	table := bundle.Series
	if table == nil {
		return errMissing(bundle, loader.DatasetTimeline)
	}

	period := cfg.Timeline.Period
	if playPeriod > 0 {
		period = playPeriod
	}
	ctrl, err := timeline.NewController(table.MinYear, table.MaxYear, timeline.WithPeriod(period))
	if err != nil {
		return err
	}
	chart := timeline.NewChart(table)
	chart.Bind(ctrl)
	if playFrom != 0 {
		ctrl.SetYear(playFrom)
	} else {
		ctrl.SetYear(table.MinYear)
	}

	ctx, cancel := context.WithCancel(ctxOf(cmd))
	defer cancel()

	w := cmd.OutOrStdout()
	last := 0
	ctrl.Subscribe("cli", func(st timeline.State) {
		if st.Year != last {
			last = st.Year
			fmt.Fprintln(w, rateLine(chart, st.Year))
		}
		if !st.Playing {
			cancel()
		}
	})

	player := timeline.NewPlayer(ctrl)
	done := make(chan error, 1)
	go func() { done <- player.Run(ctx) }()
	ctrl.Play()
	return <-done
}

func rateLine(chart *timeline.Chart, year int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d", year)
	for _, r := range chart.RelativeRates(year) {
		fmt.Fprintf(&sb, "  %s %+.1f%%", r.Key, r.Percent)
	}
	return sb.String()
}
