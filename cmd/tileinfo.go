/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/elevd/service"
	"github.com/spf13/cobra"
)

// tileinfoCmd represents the tileinfo command
var tileinfoCmd = &cobra.Command{
	Use:   "tileinfo [tile-id]...",
	Short: "Describe manifest tiles",
	Long: `Loads each tile and prints its raster metadata, value statistics over the
contour sample grid, and the thresholds the default settings would contour at.
With no ids, every manifest tile is described.`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		svc, err := service.Open(elevationConfig)
		if err != nil {
			log.Fatalln(err)
		}
		defer svc.Close()

		if len(args) == 0 {
			for _, desc := range svc.Manifest().All() {
				args = append(args, desc.ID)
			}
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer tw.Flush()
		for _, id := range args {
			info, err := svc.DescribeTile(context.Background(), id)
			if err != nil {
				log.Fatalln(err)
			}
			m, v := info.Meta, info.Values
			fmt.Fprintf(tw, "tile\t%s\t%s\n", info.Descriptor.ID, info.Descriptor.FileRef)
			fmt.Fprintf(tw, "bounds\t%s\n", m.BBox)
			fmt.Fprintf(tw, "raster\t%d x %d\t%s samples\n", m.Width, m.Height, humanize.Comma(int64(m.Width*m.Height)))
			fmt.Fprintf(tw, "resolution\t%.6f x %.6f deg\n", m.ResolutionX, m.ResolutionY)
			if m.HasNoData {
				fmt.Fprintf(tw, "no-data\t%g\n", m.NoData)
			}
			fmt.Fprintf(tw, "sample grid\t%d x %d\t%s valid of %s\n", info.SampleGrid[0], info.SampleGrid[1],
				humanize.Comma(int64(v.Valid)), humanize.Comma(int64(v.Count)))
			fmt.Fprintf(tw, "elevation\tmin %.1f\tmax %.1f\tmean %.1f\tmedian %.1f\tstddev %.1f\n",
				v.Min, v.Max, v.Mean, v.Median, v.StdDev)
			fmt.Fprintf(tw, "percentiles\tp1 %.1f\tp99 %.1f\n", v.P1, v.P99)
			fmt.Fprintf(tw, "thresholds\t%d every %g\t%v\n", len(info.Thresholds), info.Step, info.Thresholds)
			fmt.Fprintln(tw)
		}
	},
}

func init() {
	rootCmd.AddCommand(tileinfoCmd)
}
