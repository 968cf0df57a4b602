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

	"github.com/rotblauer/elevd/service"
	"github.com/spf13/cobra"
)

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all persisted contours",
	Long:  `Empties the contour store given by --store, forcing contours to be regenerated.`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		if elevationConfig.StorePath == "" {
			log.Fatalln("no --store configured")
		}
		svc, err := service.Open(elevationConfig)
		if err != nil {
			log.Fatalln(err)
		}
		defer svc.Close()
		before := svc.Stats().StoredContours
		svc.ClearCaches()
		slog.Info("Cleared contour store", "path", elevationConfig.StorePath, "removed", before)
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
