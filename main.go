/*
 * This file is part of the Go Cesium Point Cloud Tiler distribution (https://github.com/mfbonfigli/gocesiumtiler).
 * Copyright (c) 2019 Massimo Federico Bonfigli - m.federico.bonfigli@gmail.com
 *
 * This program is free software; you can redistribute it and/or modify it
 * under the terms of the GNU Lesser General Public License Version 3 as
 * published by the Free Software Foundation;
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 *
 * This software also uses third party components. You can find information
 * on their credits and licensing in the file LICENSE-3RD-PARTIES.md that
 * you should have received togheter with the source code.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/ecopia-map/las_codec/internal/options"
	"github.com/ecopia-map/las_codec/pkg"
	"github.com/ecopia-map/las_codec/pkg/chain_manager"
	"github.com/ecopia-map/las_codec/pkg/chain_manager/std_chain_manager"
	"github.com/ecopia-map/las_codec/tools"
)

const VERSION = "1.0.0"

const logo = `
  _                              _
 | | __ _ ___  ___ ___   __| | ___  ___
 | |/ _' / __|/ __/ _ \ / _' |/ _ \/ __|
 | | (_| \__ \ (_| (_) | (_| |  __/ (__
 |_|\__,_|___/\___\___/ \__,_|\___|\___|
  A LAS 1.0-1.2 point cloud codec written in golang
  Copyright YYYY
`

func main() {
	// glog writes to stderr unless told otherwise
	_ = flag.Set("logtostderr", "true")

	flagsGlobal := tools.ParseFlagsGlobal()
	defer glog.Flush()

	if *flagsGlobal.Help {
		showHelp()
		return
	}
	if *flagsGlobal.Version {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		glog.Fatal("Please specify a subcommand [info|txt|col|pg].")
	}
	cmd, args := args[0], args[1:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch options.ParseCommand(cmd) {
	case options.CommandInfo:
		mainCommandInfo(ctx, args)
	case options.CommandText:
		mainCommandText(ctx, args)
	case options.CommandColumn:
		mainCommandColumn(ctx, args)
	case options.CommandPg:
		mainCommandPg(ctx, args)
	default:
		glog.Fatalf("Unrecognized command [%q]. Command must be one of [info|txt|col|pg]", cmd)
	}
}

// handleCommonFlags applies help, version and logging flags. It returns
// false when the command should not run.
func handleCommonFlags(flags *tools.CommonFlags, quietLogo bool) bool {
	if *flags.Help {
		showHelp()
		return false
	}
	if *flags.Version {
		printVersion()
		return false
	}

	// set logging and timestamp logging
	if *flags.Silent {
		tools.DisableLogger()
	} else if !quietLogo {
		printLogo()
	}
	if !*flags.LogTimestamp {
		tools.DisableLoggerTimestamp()
	}
	return true
}

// Put the shared args inside an ExportOptions struct
func newExportOptions(command options.Command, flags *tools.CommonFlags) *options.ExportOptions {
	opts := options.NewExportOptions(command)
	opts.Input = tools.ResolvePath(*flags.Input)
	opts.FolderProcessing = *flags.FolderProcessing
	opts.Recursive = *flags.RecursiveFolderProcessing
	opts.Producers = *flags.Producers
	opts.BatchSize = *flags.BatchSize
	opts.FilterOptions = options.FilterOptions{
		Bounds:     *flags.Bounds,
		Classes:    *flags.Classes,
		Returns:    *flags.Returns,
		Color:      *flags.Color,
		Continuous: []string(*flags.Filters),
		Mode:       *flags.FilterMode,
	}
	opts.TransformOptions = options.TransformOptions{
		SourceSrs:      *flags.SourceSrs,
		TargetSrs:      *flags.TargetSrs,
		OutputScale:    *flags.OutputScale,
		EightBitColors: *flags.EightBitColors,
		ZOffset:        *flags.ZOffset,
	}
	return opts
}

func newMortonOptions(flags *tools.MortonFlags) options.MortonOptions {
	return options.MortonOptions{
		Check:         *flags.Check,
		ScaleX:        *flags.ScaleX,
		ScaleY:        *flags.ScaleY,
		GlobalOffsetX: *flags.GlobalOffsetX,
		GlobalOffsetY: *flags.GlobalOffsetY,
	}
}

func mainCommandInfo(ctx context.Context, args []string) {
	flags := tools.ParseFlagsForCommandInfo(args)
	if !handleCommonFlags(&flags.CommonFlags, false) {
		return
	}

	opts := newExportOptions(options.CommandInfo, &flags.CommonFlags)
	opts.InfoOptions = &options.InfoOptions{
		Format:      options.ParseOutputFormat(*flags.Format),
		CheckHeader: *flags.CheckHeader,
	}

	if msg, res := validateOptionsForCommandInfo(opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}

	runCommand(ctx, opts, func(cm chain_manager.ChainManager) pkg.Runner {
		return pkg.NewInfo(tools.NewStandardFileFinder(), cm, os.Stdout)
	})
}

func mainCommandText(ctx context.Context, args []string) {
	flags := tools.ParseFlagsForCommandText(args)
	// the logo would end up in the exported text
	if !handleCommonFlags(&flags.CommonFlags, *flags.Output == "") {
		return
	}

	opts := newExportOptions(options.CommandText, &flags.CommonFlags)
	opts.TextOptions = &options.TextOptions{
		Output:    tools.ResolvePath(*flags.Output),
		Fields:    *flags.Parse,
		Delimiter: *flags.Delimiter,
		Labels:    *flags.Labels,
	}

	if msg, res := validateOptionsForCommandExport(opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}

	runCommand(ctx, opts, func(cm chain_manager.ChainManager) pkg.Runner {
		return pkg.NewTextExporter(tools.NewStandardFileFinder(), cm, os.Stdout)
	})
}

func mainCommandColumn(ctx context.Context, args []string) {
	flags := tools.ParseFlagsForCommandColumn(args)
	if !handleCommonFlags(&flags.CommonFlags, false) {
		return
	}

	opts := newExportOptions(options.CommandColumn, &flags.CommonFlags)
	opts.ColumnOptions = &options.ColumnOptions{
		Prefix:   tools.ResolvePath(*flags.Output),
		Fields:   *flags.Parse,
		Compress: *flags.Compress,
		Morton:   newMortonOptions(&flags.MortonFlags),
	}

	if msg, res := validateOptionsForCommandExport(opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}

	runCommand(ctx, opts, func(cm chain_manager.ChainManager) pkg.Runner {
		return pkg.NewColumnExporter(tools.NewStandardFileFinder(), cm)
	})
}

func mainCommandPg(ctx context.Context, args []string) {
	flags := tools.ParseFlagsForCommandPg(args)
	if !handleCommonFlags(&flags.CommonFlags, *flags.Output == "") {
		return
	}

	opts := newExportOptions(options.CommandPg, &flags.CommonFlags)
	opts.PgOptions = &options.PgOptions{
		Output: tools.ResolvePath(*flags.Output),
		Fields: *flags.Parse,
		Morton: newMortonOptions(&flags.MortonFlags),
	}

	if msg, res := validateOptionsForCommandExport(opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}

	runCommand(ctx, opts, func(cm chain_manager.ChainManager) pkg.Runner {
		return pkg.NewPgExporter(tools.NewStandardFileFinder(), cm, os.Stdout)
	})
}

func runCommand(ctx context.Context, opts *options.ExportOptions, newRunner func(cm chain_manager.ChainManager) pkg.Runner) {
	glog.V(1).Infoln("options", tools.FmtJSONString(opts))

	cm, err := std_chain_manager.NewChainManager(opts)
	if err != nil {
		glog.Fatal("Error parsing input parameters: ", err)
	}

	defer timeTrack(time.Now(), opts.Command.String())
	if err := newRunner(cm).Run(ctx, opts); err != nil {
		glog.Fatal("Error while running ", opts.Command, ": ", err)
	}
	tools.LogOutput("Conversion Completed")
}

// Validates the input options provided to the command line tool checking
// that the input file/folder exists
func validateOptionsForCommandInfo(opts *options.ExportOptions) (string, bool) {
	if opts.Input == "" {
		return "input is required", false
	}
	if _, err := os.Stat(opts.Input); os.IsNotExist(err) {
		return "Input file/folder not found", false
	}
	if opts.InfoOptions.Format == "" {
		return "format should be either TEXT or JSON", false
	}
	if msg, res := validateTransformOptions(opts); !res {
		return msg, res
	}
	return "", true
}

func validateOptionsForCommandExport(opts *options.ExportOptions) (string, bool) {
	if opts.Input == "" {
		return "input is required", false
	}
	if _, err := os.Stat(opts.Input); os.IsNotExist(err) {
		return "Input file/folder not found", false
	}
	if opts.Fields() == "" {
		return "parse needs at least one field", false
	}
	if opts.BatchSize < 0 {
		return "batch-size cannot be negative", false
	}
	if m := opts.Morton(); m != nil {
		if tools.IsFloatEqual(m.ScaleX, 0) || tools.IsFloatEqual(m.ScaleY, 0) || m.ScaleX < 0 || m.ScaleY < 0 {
			return "morton scales must be positive", false
		}
	}
	if msg, res := validateTransformOptions(opts); !res {
		return msg, res
	}
	return "", true
}

func validateTransformOptions(opts *options.ExportOptions) (string, bool) {
	t := opts.TransformOptions
	if t.TargetSrs != "" && t.SourceSrs == "" {
		return "t_srs needs s_srs", false
	}
	if t.OutputScale < 0 {
		return "output-scale cannot be negative", false
	}
	return "", true
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}

func printLogo() {
	fmt.Fprintln(os.Stderr, strings.ReplaceAll(logo, "YYYY", strconv.Itoa(time.Now().Year())))
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("lascodec reads LAS 1.0-1.2 files, summarizes them and exports their points as text, MonetDB binary columns or PostgreSQL binary COPY")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Usage: lascodec [info|txt|col|pg] -h for the flags of a command")
	fmt.Println("")
	fmt.Println("Global flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
