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
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/elevd/clip"
	"github.com/rotblauer/elevd/common"
	"github.com/rotblauer/elevd/service"
	"github.com/rotblauer/elevd/types/bounds"
	"github.com/rotblauer/elevd/types/contour"
	"github.com/spf13/cobra"
)

var optBounds string
var optRegionFile string
var optOut string

// contoursCmd represents the contours command
var contoursCmd = &cobra.Command{
	Use:   "contours",
	Short: "Generate contour lines as GeoJSON",
	Long: `Generates the contours of every tile intersecting --bounds south,north,west,east,
or of the polygon in --region (a JSON array of {lat,lng} vertices) clipped to it.

The FeatureCollection is written to --out, or stdout.`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		ctx, cancel := common.InterruptContext(context.Background())
		defer cancel()

		svc, err := service.Open(elevationConfig)
		if err != nil {
			log.Fatalln(err)
		}
		defer svc.Close()

		var fc contour.Collection
		switch {
		case optRegionFile != "":
			data, err := os.ReadFile(optRegionFile)
			if err != nil {
				log.Fatalln(err)
			}
			vertices, err := clip.VerticesFromJSON(data)
			if err != nil {
				log.Fatalln(err)
			}
			fc, err = svc.GetContoursForRegion(ctx, vertices, contour.Settings{})
			if err != nil {
				log.Fatalln(err)
			}
		case optBounds != "":
			b, err := parseBoundsFlag(optBounds)
			if err != nil {
				log.Fatalln(err)
			}
			fc = svc.GetContoursForBounds(ctx, b, contour.Settings{})
		default:
			log.Fatalln("one of --bounds or --region is required")
		}

		var w io.Writer = os.Stdout
		if optOut != "" {
			f, err := os.Create(optOut)
			if err != nil {
				log.Fatalln(err)
			}
			defer f.Close()
			w = f
		}
		if err := json.NewEncoder(w).Encode(fc); err != nil {
			log.Fatalln(err)
		}

		points := 0
		for _, f := range fc.Features {
			points += f.PointCount()
		}
		slog.Info("Contours written", "tiles", len(fc.Tiles),
			"features", humanize.Comma(int64(len(fc.Features))),
			"points", humanize.Comma(int64(points)))
	},
}

// parseBoundsFlag reads "south,north,west,east".
func parseBoundsFlag(s string) (bounds.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return bounds.Bounds{}, fmt.Errorf("%w: want south,north,west,east, got %q", bounds.ErrInvalidBounds, s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return bounds.Bounds{}, fmt.Errorf("%w: %v", bounds.ErrInvalidBounds, err)
		}
		v[i] = f
	}
	return bounds.Normalize(bounds.Bounds{MinLat: v[0], MaxLat: v[1], MinLng: v[2], MaxLng: v[3]})
}

func init() {
	rootCmd.AddCommand(contoursCmd)
	flags := contoursCmd.Flags()
	flags.StringVar(&optBounds, "bounds", "", "Query box as south,north,west,east")
	flags.StringVar(&optRegionFile, "region", "", "JSON file of polygon vertices to clip to")
	flags.StringVar(&optOut, "out", "", "Output file (default stdout)")
}
