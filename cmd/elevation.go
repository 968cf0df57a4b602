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
	"log"
	"os"

	"github.com/rotblauer/elevd/service"
	"github.com/spf13/cobra"
)

var optLat, optLng float64

// elevationCmd represents the elevation command
var elevationCmd = &cobra.Command{
	Use:   "elevation",
	Short: "Sample the elevation at a point",
	Long: `Prints the interpolated elevation at --lat, --lng as JSON:

  {"hasData":true,"elevation":1234,"tileId":"N45W122","lat":45.5,"lng":-121.7}`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		svc, err := service.Open(elevationConfig)
		if err != nil {
			log.Fatalln(err)
		}
		defer svc.Close()

		sample := svc.GetElevation(context.Background(), optLat, optLng)
		if err := json.NewEncoder(os.Stdout).Encode(sample); err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(elevationCmd)
	flags := elevationCmd.Flags()
	flags.Float64Var(&optLat, "lat", 0, "Latitude")
	flags.Float64Var(&optLng, "lng", 0, "Longitude")
	_ = elevationCmd.MarkFlagRequired("lat")
	_ = elevationCmd.MarkFlagRequired("lng")
}
