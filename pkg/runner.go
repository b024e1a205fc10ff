package pkg

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ecopia-map/las_codec/internal/options"
	"github.com/ecopia-map/las_codec/pkg/chain_manager"
	"github.com/ecopia-map/las_codec/tools"
)

// Runner executes one command over the files selected by the options
type Runner interface {
	Run(ctx context.Context, opts *options.ExportOptions) error
}

// listFiles resolves the input files and fails when there are none
func listFiles(fileFinder tools.FileFinder, opts *options.ExportOptions) ([]string, error) {
	lasFiles, err := fileFinder.GetLasFilesToProcess(opts)
	if err != nil {
		return nil, err
	}
	if len(lasFiles) == 0 {
		return nil, fmt.Errorf("no las files found in %s", opts.Input)
	}
	for i, filePath := range lasFiles {
		tools.LogOutput(fmt.Sprintf("las_file path %d/%d [%s]", i+1, len(lasFiles), filepath.Base(filePath)))
	}
	return lasFiles, nil
}

func cleanup(chainManager chain_manager.ChainManager) {
	if cc := chainManager.GetCoordinateConverterAlgorithm(); cc != nil {
		cc.Cleanup()
	}
}

func getFilenameWithoutExtension(filePath string) string {
	nameWext := filepath.Base(filePath)
	extension := filepath.Ext(nameWext)
	return nameWext[0 : len(nameWext)-len(extension)]
}

// createOutput opens path for writing, creating its folder. An empty path
// selects stdout, which is never closed.
func createOutput(path string, stdout io.Writer) (io.Writer, error) {
	if path == "" {
		return struct{ io.Writer }{stdout}, nil
	}
	if err := tools.CreateDirectoryIfDoesNotExist(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return os.Create(path)
}
