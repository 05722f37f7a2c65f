package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/vizsync/pkg/hierarchy"
	"github.com/vanderheijden86/vizsync/pkg/loader"
	"github.com/vanderheijden86/vizsync/pkg/metrics"
	"github.com/vanderheijden86/vizsync/pkg/network"
)

var inspectTimings bool

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Report dataset sources, rollups and data warnings",
	Args:  cobra.NoArgs,
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectTimings, "timings", false, "Print load and layout timings")
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	paths, sources, err := resolvePaths(cfg)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, "Sources:")
	if len(sources) == 0 {
		fmt.Fprintln(w, "  (none found)")
	}
	for _, s := range sources {
		fmt.Fprintf(w, "  %s\n", s)
	}

	bundle, _ := loader.LoadBundle(ctxOf(cmd), paths, cfg.Timeline.Series)

	if bundle.Tree != nil {
		tree, rep := hierarchy.Build(*bundle.Tree)
		root := tree.Node(tree.Root())
		fmt.Fprintf(w, "\nTree: %d nodes, height %d, total %s\n", tree.Len(), tree.Height(), humanize.Commaf(root.Value))
		for _, id := range tree.Children(root.ID) {
			n := tree.Node(id)
			fmt.Fprintf(w, "  %-24s %s\n", n.Name, humanize.Commaf(n.Value))
		}
		printList(w, "missing values (counted as 0)", rep.Missing)
		printList(w, "values clamped to their children's sum", rep.Clamped)
	}
	if t := bundle.Series; t != nil {
		fmt.Fprintf(w, "\nTimeline: %d-%d, series %v\n", t.MinYear, t.MaxYear, t.Keys())
	}
	if t := bundle.Markers; t != nil {
		fmt.Fprintf(w, "\nMap: %d markers, years %v\n", len(t.Markers), t.Years)
		printStats(w, "region graph", network.RegionGraph(t.Markers, cfg.Network.TopN).Stats())
	}
	if len(bundle.Strains) > 0 {
		fmt.Fprintf(w, "\nGenotype: %d strains\n", len(bundle.Strains))
		printStats(w, "genotype graph", network.GenotypeGraph(bundle.Strains, cfg.Network.MaxDistance).Stats())
	}

	printList(w, "Warnings", bundle.Warnings)
	if len(bundle.Failures) > 0 {
		fmt.Fprintln(w, "\nFailures:")
		for _, err := range bundle.Failures {
			fmt.Fprintf(w, "  %v\n", err)
		}
	}
	if inspectTimings && metrics.Enabled() {
		fmt.Fprintln(w)
		return metrics.WriteTable(w)
	}
	return nil
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, s := range items {
		fmt.Fprintf(w, "  %s\n", s)
	}
}

func printStats(w io.Writer, name string, s network.Stats) {
	fmt.Fprintf(w, "  %s: %d nodes, %d links, %d components\n", name, s.Nodes, s.Links, s.Components)
}
