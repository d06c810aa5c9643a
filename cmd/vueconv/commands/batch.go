package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/vueconv/pkg/convert"
)

// ErrNoInputs reports a walk that found no convertible files.
var ErrNoInputs = errors.New("no input files")

// fileReport is the outcome of converting one file.
type fileReport struct {
	Path   string          `json:"path"`
	Size   int             `json:"size"`
	Source string          `json:"-"`
	Result *convert.Result `json:"result,omitempty"`
	Err    error           `json:"-"`
	Error  string          `json:"error,omitempty"`
}

// collectFiles expands directories into the files with one of extensions,
// skipping directories named in exclude. Explicit file arguments are kept
// whatever their extension.
func collectFiles(args, extensions, exclude []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		walkErr := filepath.WalkDir(arg, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if entry.IsDir() {
				if path != arg && slices.Contains(exclude, entry.Name()) {
					return filepath.SkipDir
				}

				return nil
			}

			if path == arg || slices.Contains(extensions, strings.ToLower(filepath.Ext(path))) {
				files = append(files, path)
			}

			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, walkErr)
		}
	}

	if len(files) == 0 {
		return nil, ErrNoInputs
	}

	return files, nil
}

// convertFiles converts files with up to workers goroutines. Per-file
// failures are reported, not returned; the error is the context's.
func convertFiles(ctx context.Context, conv *convert.Converter, files []string, workers int) ([]fileReport, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	reports := make([]fileReport, len(files))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for i, path := range files {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			reports[i] = convertFile(groupCtx, conv, path)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return reports, fmt.Errorf("convert files: %w", err)
	}

	return reports, nil
}

func convertFile(ctx context.Context, conv *convert.Converter, path string) fileReport {
	report := fileReport{Path: path}

	src, _, err := safeReadFile(path)
	if err != nil {
		report.Err = err
		report.Error = err.Error()

		return report
	}

	report.Size = len(src)
	report.Source = string(src)

	result, err := conv.Convert(ctx, path, src)
	if err != nil {
		report.Err = err
		report.Error = err.Error()

		return report
	}

	report.Result = result

	return report
}
