package tools

import (
	"os"
	"path/filepath"

	"github.com/golang/glog"
)

// WorkDirEnv overrides the folder relative input and output paths are resolved against
const WorkDirEnv = "LASCODEC_WORKDIR"

func OpenFileOrFail(filePath string) *os.File {
	file, err := os.Open(filePath)
	if err != nil {
		glog.Fatal(err)
	}

	return file
}

func GetRootFolder() string {
	if workDir := os.Getenv(WorkDirEnv); workDir != "" {
		return workDir
	}
	wd, err := os.Getwd()
	if err != nil {
		glog.Fatal("cannot retrieve working directory", err)
	}
	return wd
}

// ResolvePath joins relative paths to the root folder. Empty paths stay empty.
func ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(GetRootFolder(), path)
}

func CreateDirectoryIfDoesNotExist(directory string) error {
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		err := os.MkdirAll(directory, 0777)
		if err != nil {
			return err
		}
	}
	return nil
}
