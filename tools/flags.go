package tools

import (
	"flag"
	"runtime"
	"strings"

	"github.com/golang/glog"

	"github.com/ecopia-map/las_codec/internal/io"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

// Flags shared by every command
type CommonFlags struct {
	Input                     *string `json:"input"`
	FolderProcessing          *bool   `json:"folder"`
	RecursiveFolderProcessing *bool   `json:"recursive"`
	Producers                 *int    `json:"producers"`
	BatchSize                 *int    `json:"batch_size"`

	Bounds     *string     `json:"bounds"`
	Classes    *string     `json:"classes"`
	Returns    *string     `json:"returns"`
	Color      *string     `json:"color"`
	Filters    *StringList `json:"filters"`
	FilterMode *string     `json:"filter_mode"`

	SourceSrs      *string  `json:"s_srs"`
	TargetSrs      *string  `json:"t_srs"`
	OutputScale    *float64 `json:"output_scale"`
	EightBitColors *bool    `json:"eight_bit"`
	ZOffset        *float64 `json:"zoffset"`

	Silent       *bool `json:"silent"`
	LogTimestamp *bool `json:"timestamp"`
	Help         *bool `json:"help"`
	Version      *bool `json:"version"`
}

type MortonFlags struct {
	Check         *bool    `json:"check"`
	ScaleX        *float64 `json:"morton_scale_x"`
	ScaleY        *float64 `json:"morton_scale_y"`
	GlobalOffsetX *int64   `json:"global_offset_x"`
	GlobalOffsetY *int64   `json:"global_offset_y"`
}

type FlagsForCommandInfo struct {
	CommonFlags
	Format      *string `json:"format"`
	CheckHeader *bool   `json:"check_header"`
}

type FlagsForCommandText struct {
	CommonFlags
	Output    *string `json:"output"`
	Parse     *string `json:"parse"`
	Delimiter *string `json:"delimiter"`
	Labels    *bool   `json:"labels"`
}

type FlagsForCommandColumn struct {
	CommonFlags
	MortonFlags
	Output   *string `json:"output"`
	Parse    *string `json:"parse"`
	Compress *bool   `json:"compress"`
}

type FlagsForCommandPg struct {
	CommonFlags
	MortonFlags
	Output *string `json:"output"`
	Parse  *string `json:"parse"`
}

// StringList collects the values of a flag given several times
type StringList []string

func (l *StringList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *StringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "", false, "Displays the version of lascodec.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func ParseFlagsForCommandInfo(args []string) FlagsForCommandInfo {
	glog.V(1).Infoln("info args", FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-info", flag.ExitOnError)
	common := defineCommonFlags(flagCommand)
	format := defineStringFlagCommand(flagCommand, "format", "", "TEXT", "Summary output format, can be 'TEXT' or 'JSON'.")
	checkHeader := defineBoolFlagCommand(flagCommand, "check-header", "", false, "Compares the header counts and extents with the values computed from the points.")

	flagCommand.Parse(args)

	return FlagsForCommandInfo{
		CommonFlags: common,
		Format:      format,
		CheckHeader: checkHeader,
	}
}

func ParseFlagsForCommandText(args []string) FlagsForCommandText {
	glog.V(1).Infoln("txt args", FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-txt", flag.ExitOnError)
	common := defineCommonFlags(flagCommand)
	output := defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the output text file. Defaults to stdout.")
	parse := defineStringFlagCommand(flagCommand, "parse", "p", "xyz", "Fields to export, one letter per field (txyzXYZaincCupedRGBMk).")
	delimiter := defineStringFlagCommand(flagCommand, "delimiter", "d", ",", "Field delimiter.")
	labels := defineBoolFlagCommand(flagCommand, "labels", "l", false, "Writes a first line with the field names.")

	flagCommand.Parse(args)

	return FlagsForCommandText{
		CommonFlags: common,
		Output:      output,
		Parse:       parse,
		Delimiter:   delimiter,
		Labels:      labels,
	}
}

func ParseFlagsForCommandColumn(args []string) FlagsForCommandColumn {
	glog.V(1).Infoln("col args", FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-col", flag.ExitOnError)
	common := defineCommonFlags(flagCommand)
	morton := defineMortonFlags(flagCommand)
	output := defineStringFlagCommand(flagCommand, "output", "o", "", "Prefix of the column files, <prefix>_col_<field>.dat.")
	parse := defineStringFlagCommand(flagCommand, "parse", "p", "xyz", "Fields to export, one letter per field (txyzXYZaincupedRGBMk).")
	compress := defineBoolFlagCommand(flagCommand, "compress", "", false, "Compresses every column file with zstd.")

	flagCommand.Parse(args)

	return FlagsForCommandColumn{
		CommonFlags: common,
		MortonFlags: morton,
		Output:      output,
		Parse:       parse,
		Compress:    compress,
	}
}

func ParseFlagsForCommandPg(args []string) FlagsForCommandPg {
	glog.V(1).Infoln("pg args", FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-pg", flag.ExitOnError)
	common := defineCommonFlags(flagCommand)
	morton := defineMortonFlags(flagCommand)
	output := defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the output COPY file. Defaults to stdout.")
	parse := defineStringFlagCommand(flagCommand, "parse", "p", "xyz", "Fields to export, one letter per field (txyzXYZaincupedRGBMk).")

	flagCommand.Parse(args)

	return FlagsForCommandPg{
		CommonFlags: common,
		MortonFlags: morton,
		Output:      output,
		Parse:       parse,
	}
}

func defineCommonFlags(flagCommand *flag.FlagSet) CommonFlags {
	filters := &StringList{}
	flagCommand.Var(filters, "filter", "Keeps points matching an expression like 'Intensity>500'. Can be given several times.")

	return CommonFlags{
		Input:                     defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the input las file/folder."),
		FolderProcessing:          defineBoolFlagCommand(flagCommand, "folder", "f", false, "Enables processing of all las files from input folder. Input must be a folder if specified"),
		RecursiveFolderProcessing: defineBoolFlagCommand(flagCommand, "recursive", "r", false, "Enables recursive lookup for all .las files inside the subfolders"),
		Producers:                 defineIntFlagCommand(flagCommand, "producers", "j", runtime.NumCPU(), "Number of files read concurrently."),
		BatchSize:                 defineIntFlagCommand(flagCommand, "batch-size", "", io.DefaultBatchSize, "Number of points handed to the writers at once."),

		Bounds:     defineStringFlagCommand(flagCommand, "bounds", "", "", "Keeps points inside minx,miny,maxx,maxy[,minz,maxz]."),
		Classes:    defineStringFlagCommand(flagCommand, "classes", "", "", "Keeps points of the comma separated classes."),
		Returns:    defineStringFlagCommand(flagCommand, "returns", "", "", "Keeps points of the comma separated return numbers, 'last' selects last returns."),
		Color:      defineStringFlagCommand(flagCommand, "color", "", "", "Keeps points whose color lies in r,g,b,r,g,b."),
		Filters:    filters,
		FilterMode: defineStringFlagCommand(flagCommand, "filter-mode", "", "include", "'include' keeps the matching points, 'exclude' drops them."),

		SourceSrs:      defineStringFlagCommand(flagCommand, "s_srs", "", "", "Projection of the input points, EPSG:<code> or a proj4 string."),
		TargetSrs:      defineStringFlagCommand(flagCommand, "t_srs", "", "", "Reprojects the points to this projection."),
		OutputScale:    defineFloat64FlagCommand(flagCommand, "output-scale", "", 0, "X/Y scale of reprojected coordinates. 0 keeps the input scale."),
		EightBitColors: defineBoolFlagCommand(flagCommand, "8bit", "b", false, "Assumes the input LAS has colors encoded in eight bit format. Default is false (LAS has 16 bit color depth)"),
		ZOffset:        defineFloat64FlagCommand(flagCommand, "zoffset", "z", 0, "Vertical offset to apply to points, in meters."),

		Silent:       defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages."),
		LogTimestamp: defineBoolFlagCommand(flagCommand, "timestamp", "t", false, "Adds timestamp to log messages."),
		Help:         defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help."),
		Version:      defineBoolFlagCommand(flagCommand, "version", "v", false, "Displays the version of lascodec."),
	}
}

func defineMortonFlags(flagCommand *flag.FlagSet) MortonFlags {
	return MortonFlags{
		Check:         defineBoolFlagCommand(flagCommand, "check", "", false, "Verifies before writing that every input fits the Morton frame."),
		ScaleX:        defineFloat64FlagCommand(flagCommand, "morton-scale-x", "", 0.01, "X scale every input must share for Morton keys."),
		ScaleY:        defineFloat64FlagCommand(flagCommand, "morton-scale-y", "", 0.01, "Y scale every input must share for Morton keys."),
		GlobalOffsetX: defineInt64FlagCommand(flagCommand, "global-offset-x", "", 0, "X origin of the Morton frame, in scale units."),
		GlobalOffsetY: defineInt64FlagCommand(flagCommand, "global-offset-y", "", 0, "Y origin of the Morton frame, in scale units."),
	}
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineInt64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int64, usage string) *int64 {
	var output int64
	flagCommand.Int64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Int64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineFloat64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
