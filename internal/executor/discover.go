package executor

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PierreBx/ariane-xml-sub000/internal/errs"
)

// Discover resolves fromPath to an ordered list of input files: a regular
// file is a one-element list; a directory is enumerated for its immediate
// *.xml entries (case-insensitive), sorted by filename.
func Discover(fromPath string) ([]string, *errs.Err) {
	info, err := os.Stat(fromPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.ErrFileNotFound.New()
		}
		if os.IsPermission(err) {
			return nil, errs.ErrFilePermission.New()
		}
		return nil, errs.ErrFileRead.New().WithCause(err)
	}

	if !info.IsDir() {
		return []string{fromPath}, nil
	}

	entries, err := os.ReadDir(fromPath)
	if err != nil {
		if os.IsPermission(err) {
			return nil, errs.ErrFilePermission.New()
		}
		return nil, errs.ErrFileRead.New().WithCause(err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			continue
		}
		files = append(files, filepath.Join(fromPath, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
