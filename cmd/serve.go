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
	"log"
	"log/slog"
	"time"

	"github.com/rotblauer/elevd/common"
	"github.com/rotblauer/elevd/daemon/elevd"
	"github.com/rotblauer/elevd/params"
	"github.com/spf13/cobra"
)

var optHTTPAddr string
var optMetricsInterval time.Duration

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the elevation web daemon",
	Long: `Serves elevations and contours as JSON and GeoJSON.

  GET  /ping
  GET  /status
  GET  /elevation?lat=&lng=
  GET  /contours?south=&north=&west=&east=[&step=&sample=&max=]
  GET  /tiles/{tile}/contours[?step=&sample=&max=]
  POST /contours/region   {"vertices": [{"lat","lng"}...], "settings": {...}}
  POST /caches/clear

Metrics are pushed to InfluxDB when INFLUXDB_URL is set.`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		config := params.DefaultWebDaemonConfig()
		config.DataDir = params.DefaultDatadirRoot
		config.ListenerConfig.Address = optHTTPAddr
		config.Elevation = elevationConfig
		config.MetricsExportInterval = optMetricsInterval

		d, err := elevd.NewWebDaemon(config, nil)
		if err != nil {
			log.Fatalln(err)
		}
		if err := d.Start(); err != nil {
			log.Fatalln(err)
		}
		sig := <-common.Interrupted()
		slog.Warn("Received signal", "signal", sig)
		d.Interrupt()
		d.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	defaults := params.DefaultWebDaemonConfig()
	flags := serveCmd.Flags()
	flags.StringVar(&optHTTPAddr, "address", defaults.Address, "HTTP address to listen on")
	flags.DurationVar(&optMetricsInterval, "metrics-interval", defaults.MetricsExportInterval, "InfluxDB metrics export interval")
}
