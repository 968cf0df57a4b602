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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/rotblauer/elevd/common"
	"github.com/rotblauer/elevd/params"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string
var optVerbosity int
var optLogFormat string
var optDatadir string

// elevationConfig collects the persistent flags shared by every command.
var elevationConfig = params.DefaultElevationConfig()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "elevd",
	Short: "Elevation sampling and contour generation",
	Long: `elevd samples elevations and generates contour lines from a manifest of
raster tiles (SRTM .hgt) stored on disk, behind HTTP, or in S3.

Every flag can also be set in the config file or as an ELEVD_ environment
variable, eg. ELEVD_BASE_URL=s3://bucket/dem.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyViper(cmd.Flags()); err != nil {
			return err
		}
		return resolveElevationConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pFlags := rootCmd.PersistentFlags()
	pFlags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.elevd.yaml)")
	pFlags.IntVar(&optVerbosity, "verbosity", int(slog.LevelInfo), "Log level (-4 debug, 0 info, 4 warn, 8 error)")
	pFlags.StringVar(&optLogFormat, "log-format", "text", "Log format: text or json")
	pFlags.StringVar(&optDatadir, "datadir", params.DefaultDatadirRoot, "Root directory for the manifest, tiles and contour store")
	pFlags.AddFlagSet(elevationFlagSet(elevationConfig))
}

func elevationFlagSet(c *params.ElevationConfig) *pflag.FlagSet {
	fs := pflag.NewFlagSet("elevation", pflag.ContinueOnError)
	fs.StringVar(&c.BaseURL, "base-url", "", "Tile location prefix: a directory, file://, http(s):// or s3://bucket/prefix (default {datadir}/tiles)")
	fs.StringVar(&c.ManifestPath, "manifest", "", "Tile manifest JSON (default {datadir}/"+params.ManifestFileName+")")
	fs.StringVar(&c.StorePath, "store", "", "Contour store database; 'default' uses {datadir}/"+params.StoreDBName+", empty disables")
	fs.StringVar(&c.Transform, "transform", c.Transform, "Display transform for contour vertices: identity, mercator, gcj02")
	fs.Float64Var(&c.Contours.ThresholdStep, "step", c.Contours.ThresholdStep, "Default contour threshold step")
	fs.IntVar(&c.Contours.SampleSize, "sample", c.Contours.SampleSize, "Default longest edge of the contour sample grid")
	fs.IntVar(&c.Contours.MaxContours, "max-contours", c.Contours.MaxContours, "Default maximum thresholds per tile")
	fs.IntVar(&c.Loader.TileCacheSize, "tile-cache", c.Loader.TileCacheSize, "Number of open tiles kept in memory")
	fs.DurationVar(&c.Loader.LoadTimeout, "load-timeout", c.Loader.LoadTimeout, "Timeout for opening one tile")
	fs.DurationVar(&c.QueryTimeout, "query-timeout", c.QueryTimeout, "Timeout for one query")
	fs.DurationVar(&c.ContourCacheTTL, "contour-cache-ttl", c.ContourCacheTTL, "Contour cache TTL, 0 keeps until cleared")
	fs.Uint64Var(&c.ContourCacheCapacity, "contour-cache-size", c.ContourCacheCapacity, "Contour sets kept in memory, 0 for unbounded")
	fs.IntVar(&c.MaxConcurrentTiles, "concurrency", c.MaxConcurrentTiles, "Tiles contoured in parallel per query")
	fs.StringVar(&c.S3.Region, "s3-region", c.S3.Region, "S3 region")
	fs.StringVar(&c.S3.Endpoint, "s3-endpoint", c.S3.Endpoint, "S3 endpoint override, eg. minio")
	fs.BoolVar(&c.S3.PathStyle, "s3-path-style", c.S3.PathStyle, "Use path-style S3 addressing")
	return fs
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	_ = godotenv.Load(".env")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigName(".elevd")
	}

	viper.SetEnvPrefix("ELEVD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// applyViper sets every flag not given on the command line from the
// config file or environment.
func applyViper(fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || !viper.IsSet(f.Name) {
			return
		}
		if e := fs.Set(f.Name, viper.GetString(f.Name)); e != nil {
			err = fmt.Errorf("config %s: %w", f.Name, e)
		}
	})
	return err
}

// resolveElevationConfig fills datadir-relative defaults and expands ~.
func resolveElevationConfig() error {
	datadir, err := homedir.Expand(optDatadir)
	if err != nil {
		return err
	}
	params.DefaultDatadirRoot = datadir

	c := elevationConfig
	if c.BaseURL == "" {
		c.BaseURL = filepath.Join(datadir, "tiles")
	}
	if c.ManifestPath == "" {
		c.ManifestPath = filepath.Join(datadir, params.ManifestFileName)
	}
	if c.StorePath == "default" {
		c.StorePath = filepath.Join(datadir, params.StoreDBName)
	}
	for _, p := range []*string{&c.BaseURL, &c.ManifestPath, &c.StorePath} {
		if *p == "" || strings.Contains(*p, "://") {
			continue
		}
		if *p, err = homedir.Expand(*p); err != nil {
			return err
		}
	}
	return nil
}

func setDefaultSlog(cmd *cobra.Command, args []string) {
	slog.SetDefault(slog.New(common.NewSlogHandler(os.Stderr, optLogFormat, slog.Level(optVerbosity))))
}
