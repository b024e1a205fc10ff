package options

import (
	"runtime"
	"strings"
)

type Command string
type OutputFormat string

const (
	CommandInfo   Command = "info"
	CommandText   Command = "txt"
	CommandColumn Command = "col"
	CommandPg     Command = "pg"
)

const (
	// Summary printed as indented lines
	OutputFormatText OutputFormat = "TEXT"

	// Summary printed as a single JSON document
	OutputFormatJSON OutputFormat = "JSON"
)

func (c Command) String() string {
	return string(c)
}

func ParseCommand(value string) Command {
	switch Command(strings.Trim(strings.ToLower(value), " ")) {
	case CommandInfo:
		return CommandInfo
	case CommandText:
		return CommandText
	case CommandColumn:
		return CommandColumn
	case CommandPg:
		return CommandPg
	}
	return ""
}

func ParseOutputFormat(value string) OutputFormat {
	normalizedValue := strings.Trim(strings.ToUpper(value), " ")
	if normalizedValue == "TEXT" {
		return OutputFormatText
	} else if normalizedValue == "JSON" {
		return OutputFormatJSON
	}
	return ""
}

// Contains the options shared by every command
type ExportOptions struct {
	Input            string // Input LAS file/folder
	FolderProcessing bool   // Enables the processing of all LAS files in folder
	Recursive        bool   // Recursive lookup of LAS files in subfolders
	Command          Command

	Producers int // Number of files read concurrently
	BatchSize int // Points per work unit

	FilterOptions    FilterOptions
	TransformOptions TransformOptions

	InfoOptions   *InfoOptions
	TextOptions   *TextOptions
	ColumnOptions *ColumnOptions
	PgOptions     *PgOptions
}

// Point filters, empty values are disabled
type FilterOptions struct {
	Bounds     string   // minx,miny,maxx,maxy[,minz,maxz]
	Classes    string   // comma separated class indices
	Returns    string   // comma separated return numbers or "last"
	Color      string   // r,g,b,r,g,b low and high channel values
	Continuous []string // expressions like Intensity>500
	Mode       string   // include or exclude
}

type TransformOptions struct {
	SourceSrs      string  // projection of the input points
	TargetSrs      string  // reprojection target, disabled when empty
	OutputScale    float64 // scale of the reprojected coordinates, 0 keeps the input scale
	EightBitColors bool    // if true assume that LAS uses 8bit color depth
	ZOffset        float64 // Z Offset in meters to apply to points during conversion
}

type InfoOptions struct {
	Format      OutputFormat
	CheckHeader bool // compare the header against the points
}

type TextOptions struct {
	Output    string // output file, stdout when empty
	Fields    string // --parse codes
	Delimiter string
	Labels    bool
}

type ColumnOptions struct {
	Prefix   string // output prefix of the column files
	Fields   string
	Compress bool
	Morton   MortonOptions
}

type PgOptions struct {
	Output string
	Fields string
	Morton MortonOptions
}

// MortonOptions configures the k field and the --check pre-flight
type MortonOptions struct {
	Check         bool
	ScaleX        float64
	ScaleY        float64
	GlobalOffsetX int64
	GlobalOffsetY int64
}

func NewExportOptions(command Command) *ExportOptions {
	return &ExportOptions{
		Command:   command,
		Producers: runtime.NumCPU(),
		FilterOptions: FilterOptions{
			Mode: "include",
		},
	}
}

// Fields returns the field codes of the selected exporter
func (opt *ExportOptions) Fields() string {
	switch {
	case opt.TextOptions != nil:
		return opt.TextOptions.Fields
	case opt.ColumnOptions != nil:
		return opt.ColumnOptions.Fields
	case opt.PgOptions != nil:
		return opt.PgOptions.Fields
	}
	return ""
}

// Morton returns the Morton settings of the selected exporter, nil if it has none
func (opt *ExportOptions) Morton() *MortonOptions {
	switch {
	case opt.ColumnOptions != nil:
		return &opt.ColumnOptions.Morton
	case opt.PgOptions != nil:
		return &opt.PgOptions.Morton
	}
	return nil
}

func (opt *ExportOptions) Copy() *ExportOptions {
	newOpt := *opt
	newOpt.FilterOptions.Continuous = append([]string(nil), opt.FilterOptions.Continuous...)
	newOpt.InfoOptions = nil
	newOpt.TextOptions = nil
	newOpt.ColumnOptions = nil
	newOpt.PgOptions = nil

	if opt.InfoOptions != nil {
		infoOpt := *opt.InfoOptions
		newOpt.InfoOptions = &infoOpt
	}

	if opt.TextOptions != nil {
		textOpt := *opt.TextOptions
		newOpt.TextOptions = &textOpt
	}

	if opt.ColumnOptions != nil {
		columnOpt := *opt.ColumnOptions
		newOpt.ColumnOptions = &columnOpt
	}

	if opt.PgOptions != nil {
		pgOpt := *opt.PgOptions
		newOpt.PgOptions = &pgOpt
	}

	return &newOpt
}
