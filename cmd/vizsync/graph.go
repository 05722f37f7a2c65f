package main

import (
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/vizsync/pkg/export"
	"github.com/vanderheijden86/vizsync/pkg/loader"
	"github.com/vanderheijden86/vizsync/pkg/network"
)

var (
	graphTopN        int
	graphMaxDistance float64
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Write force-directed graph JSON to stdout",
}

var graphRegionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Root, parent regions and their top areas from the geo dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, bundle, err := loadAll(ctxOf(cmd))
		if err != nil {
			return err
		}
		if bundle.Markers == nil {
			return errMissing(bundle, loader.DatasetGeo)
		}
		topN := cfg.Network.TopN
		if cmd.Flags().Changed("top") {
			topN = graphTopN
		}
		return export.WriteGraphJSON(cmd.OutOrStdout(), network.RegionGraph(bundle.Markers.Markers, topN))
	},
}

var graphGenotypeCmd = &cobra.Command{
	Use:   "genotype",
	Short: "Strains linked by species, lineage and match distance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, paths, bundle, err := loadAll(ctxOf(cmd))
		if err != nil {
			return err
		}
		if paths.Genotype == "" || bundle.Failed(loader.DatasetGenotype) {
			return errMissing(bundle, loader.DatasetGenotype)
		}
		maxDistance := cfg.Network.MaxDistance
		if cmd.Flags().Changed("max-distance") {
			maxDistance = graphMaxDistance
		}
		return export.WriteGraphJSON(cmd.OutOrStdout(), network.GenotypeGraph(bundle.Strains, maxDistance))
	},
}

func init() {
	graphRegionsCmd.Flags().IntVar(&graphTopN, "top", network.DefaultTopN, "Children kept per region")
	graphGenotypeCmd.Flags().Float64Var(&graphMaxDistance, "max-distance", 0, "Link strains whose match distances differ by less than this")
	graphCmd.AddCommand(graphRegionsCmd)
	graphCmd.AddCommand(graphGenotypeCmd)
}
