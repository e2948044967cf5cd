// Package appctx implements the process-wide mutable AppContext:
// constructed at process start, mutated only by SET commands, read by
// SHOW/DESCRIBE, destroyed at process exit.
package appctx

import (
	"os"
	"sync"

	"github.com/PierreBx/ariane-xml-sub000/internal/dsn"
	"github.com/PierreBx/ariane-xml-sub000/internal/query"
)

// AppContext is the single mutex-guarded struct holding process-wide query
// mode, DSN schema version/path, destination path, and verbosity state.
type AppContext struct {
	mu sync.RWMutex

	mode       query.Mode
	dsnVersion query.DSNVersion
	xsdPath    string
	destPath   string
	verbose    bool
	schema     *dsn.Schema
}

// New returns an AppContext in its default state: STANDARD mode, AUTO DSN
// version, nothing else set.
func New() *AppContext {
	return &AppContext{mode: query.ModeStandard, dsnVersion: query.DSNVersionAuto}
}

func (c *AppContext) Mode() query.Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

func (c *AppContext) SetMode(m query.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = m
}

func (c *AppContext) DSNVersion() query.DSNVersion {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dsnVersion
}

func (c *AppContext) SetDSNVersion(v query.DSNVersion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dsnVersion = v
}

func (c *AppContext) XSDPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.xsdPath
}

// SetXSDPath records the path and, in DSN mode with a directory path, loads
// the schema immediately.
func (c *AppContext) SetXSDPath(path string) ([]error, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.xsdPath = path

	if c.mode != query.ModeDSN {
		return nil, nil
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, nil
	}
	schema, warnings, err := dsn.LoadCached(path, string(c.dsnVersion))
	if err != nil {
		return nil, err
	}
	c.schema = schema
	errs := make([]error, len(warnings))
	for i, w := range warnings {
		errs[i] = w
	}
	return errs, nil
}

func (c *AppContext) Schema() *dsn.Schema {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.schema
}

func (c *AppContext) DestPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.destPath
}

// SetDestPath records the output directory for SET DEST, creating it if
// absent.
func (c *AppContext) SetDestPath(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	c.destPath = path
	return nil
}

func (c *AppContext) Verbose() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.verbose
}

func (c *AppContext) SetVerbose(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verbose = v
}
