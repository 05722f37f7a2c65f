package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/vizsync/pkg/config"
	"github.com/vanderheijden86/vizsync/pkg/export"
	"github.com/vanderheijden86/vizsync/pkg/hierarchy"
	"github.com/vanderheijden86/vizsync/pkg/loader"
	"github.com/vanderheijden86/vizsync/pkg/timeline"
)

var (
	renderOut    string
	renderFormat string
	renderTitle  string
	renderZoom   string
	renderYear   int
	renderSeries string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a view to SVG or PNG",
}

var renderSunburstCmd = &cobra.Command{
	Use:   "sunburst",
	Short: "Render the zoomable sunburst",
	Long: `Renders the sunburst focused on --zoom, a slash separated path of node
names starting at the root (for example World/Asia). PNG or SVG is picked
from the --out extension.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, view, err := hierarchyView(cmd, hierarchy.Sunburst, "sunburst.svg")
		if err != nil {
			return err
		}
		return report(cmd, export.SaveSunburst(export.SunburstOptions{
			Path:         renderOut,
			Format:       renderFormat,
			Title:        renderTitle,
			View:         view,
			Width:        cfg.Sunburst.Width,
			Height:       cfg.Sunburst.Height,
			RadiusFactor: cfg.Sunburst.RadiusFactor,
		}))
	},
}

var renderTreemapCmd = &cobra.Command{
	Use:   "treemap",
	Short: "Render the zoomable treemap",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, view, err := hierarchyView(cmd, hierarchy.Treemap, "treemap.svg")
		if err != nil {
			return err
		}
		return report(cmd, export.SaveTreemap(export.TreemapOptions{
			Path:   renderOut,
			Format: renderFormat,
			Title:  renderTitle,
			View:   view,
			Width:  cfg.Treemap.Width,
			Height: cfg.Treemap.Height,
		}))
	},
}

var renderTimelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Render the timeline chart truncated at --year",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if renderOut == "" {
			renderOut = "timeline.svg"
		}
		_, _, bundle, err := loadAll(ctxOf(cmd))
		if err != nil {
			return err
		}
		if bundle.Series == nil {
			return errMissing(bundle, loader.DatasetTimeline)
		}
		chart, err := timelineAt(bundle.Series, renderYear, renderSeries)
		if err != nil {
			return err
		}
		return report(cmd, export.SaveTimeline(export.TimelineOptions{
			Path:   renderOut,
			Format: renderFormat,
			Title:  renderTitle,
			Chart:  chart,
		}))
	},
}

func init() {
	for _, c := range []*cobra.Command{renderSunburstCmd, renderTreemapCmd, renderTimelineCmd} {
		c.Flags().StringVarP(&renderOut, "out", "o", "", "Output file")
		c.Flags().StringVar(&renderFormat, "format", "", "svg or png (default: from --out)")
		c.Flags().StringVar(&renderTitle, "title", "", "Document title")
		renderCmd.AddCommand(c)
	}
	renderSunburstCmd.Flags().StringVar(&renderZoom, "zoom", "", "Focus path, e.g. World/Asia")
	renderTreemapCmd.Flags().StringVar(&renderZoom, "zoom", "", "Focus path, e.g. World/Asia")
	renderTimelineCmd.Flags().IntVar(&renderYear, "year", 0, "Cursor year (default: last year)")
	renderTimelineCmd.Flags().StringVar(&renderSeries, "series", "", "Highlight one series, dimming the rest")
}

// hierarchyView loads the tree and returns a settled view zoomed to
// renderZoom.
func hierarchyView(cmd *cobra.Command, mode hierarchy.Mode, defaultOut string) (config.Config, *hierarchy.View, error) {
	if renderOut == "" {
		renderOut = defaultOut
	}
	cfg, _, bundle, err := loadAll(ctxOf(cmd))
	if err != nil {
		return cfg, nil, err
	}
	if bundle.Tree == nil {
		return cfg, nil, errMissing(bundle, loader.DatasetTree)
	}
	tree, _ := hierarchy.Build(*bundle.Tree)
	view := hierarchy.NewView(tree, cfg.ViewOptions(mode)...)
	if renderZoom != "" {
		if err := view.FocusPath(renderZoom); err != nil {
			return cfg, nil, err
		}
	}
	view.Finish()
	return cfg, view, nil
}

// timelineAt builds a chart bound to a controller parked at year. Zero keeps
// the last year.
func timelineAt(table *loader.SeriesTable, year int, series string) (*timeline.Chart, error) {
	ctrl, err := timeline.NewController(table.MinYear, table.MaxYear)
	if err != nil {
		return nil, err
	}
	chart := timeline.NewChart(table)
	chart.Bind(ctrl)
	if year != 0 {
		if year < table.MinYear || year > table.MaxYear {
			return nil, fmt.Errorf("year %d outside %d-%d", year, table.MinYear, table.MaxYear)
		}
		ctrl.SetYear(year)
	}
	if series != "" {
		if !slices.Contains(table.Keys(), series) {
			return nil, fmt.Errorf("unknown series %q (have %v)", series, table.Keys())
		}
		ctrl.ToggleSeries(series)
	}
	return chart, nil
}

func report(cmd *cobra.Command, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", renderOut)
	return nil
}
