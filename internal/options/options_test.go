package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	assert.Equal(t, CommandInfo, ParseCommand("info"))
	assert.Equal(t, CommandText, ParseCommand(" TXT "))
	assert.Equal(t, CommandColumn, ParseCommand("col"))
	assert.Equal(t, CommandPg, ParseCommand("pg"))
	assert.Equal(t, Command(""), ParseCommand("index"))
}

func TestParseOutputFormat(t *testing.T) {
	assert.Equal(t, OutputFormatJSON, ParseOutputFormat("json"))
	assert.Equal(t, OutputFormatText, ParseOutputFormat(" Text"))
	assert.Equal(t, OutputFormat(""), ParseOutputFormat("xml"))
}

func TestCopyIsDeep(t *testing.T) {
	opt := NewExportOptions(CommandColumn)
	opt.FilterOptions.Continuous = []string{"Intensity>10"}
	opt.ColumnOptions = &ColumnOptions{Prefix: "out", Fields: "xyzk", Morton: MortonOptions{ScaleX: 0.01}}

	cp := opt.Copy()
	require.NotSame(t, opt, cp)
	cp.Input = "other.las"
	cp.FilterOptions.Continuous[0] = "Intensity<10"
	cp.ColumnOptions.Morton.ScaleX = 1

	assert.Empty(t, opt.Input)
	assert.Equal(t, "Intensity>10", opt.FilterOptions.Continuous[0])
	assert.Equal(t, 0.01, opt.ColumnOptions.Morton.ScaleX)
	assert.Nil(t, cp.TextOptions)
	assert.Equal(t, "xyzk", cp.Fields())
}

func TestSelectedExporter(t *testing.T) {
	opt := NewExportOptions(CommandPg)
	assert.Nil(t, opt.Morton())
	assert.Equal(t, "", opt.Fields())

	opt.PgOptions = &PgOptions{Fields: "xyzM"}
	assert.Equal(t, "xyzM", opt.Fields())
	opt.Morton().Check = true
	assert.True(t, opt.PgOptions.Morton.Check)
}
