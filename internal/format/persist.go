package format

import (
	"encoding/json"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/PierreBx/ariane-xml-sub000/internal/errs"
	"github.com/PierreBx/ariane-xml-sub000/internal/executor"
)

// WriteToDest persists both representations of rs under destDir
// (<name>.txt, <name>.json), each written atomically: a temp file in the
// same directory, synced, then renamed over the target, mirroring aretext's
// own renameio-based save path.
func WriteToDest(rs *executor.ResultSet, destDir, name string) *errs.Err {
	if err := writeAtomic(filepath.Join(destDir, name+".txt"), []byte(PlainText(rs))); err != nil {
		return err
	}

	cols, rows := Structured(rs)
	payload, jerr := json.MarshalIndent(struct {
		Columns []string `json:"columns"`
		Rows    []Row    `json:"rows"`
	}{cols, rows}, "", "  ")
	if jerr != nil {
		return errs.ErrProcessing.New().WithCause(jerr)
	}
	return writeAtomic(filepath.Join(destDir, name+".json"), payload)
}

func writeAtomic(path string, data []byte) *errs.Err {
	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644), renameio.WithExistingPermissions())
	if err != nil {
		return errs.ErrFileRead.New().WithCause(err)
	}
	defer pf.Cleanup()

	if _, err := pf.Write(data); err != nil {
		return errs.ErrFileRead.New().WithCause(err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return errs.ErrFileRead.New().WithCause(err)
	}
	return nil
}
