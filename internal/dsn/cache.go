package dsn

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"

	"github.com/PierreBx/ariane-xml-sub000/internal/errs"
)

var cacheBucket = []byte("schemas")

// cacheEntry is what gets gob-encoded into the bolt cache; Schema's map
// fields are unexported so we flatten to a serializable shape around them.
type cacheEntry struct {
	Version string
	Mtime   int64
	Attrs   []Attribute
	Blocs   map[string]*Bloc
}

// LoadWithDiskCache behaves like Load, but first consults a boltdb-backed
// cache keyed by DSN version and the schema directory's modification time,
// extending the "loaded once" schema lifetime across process restarts. A
// cache miss or corrupt cache entry is non-fatal: it falls back to Load and
// rewrites the cache entry.
func LoadWithDiskCache(dir, version, cachePath string) (*Schema, []*errs.Err, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, errs.ErrFileRead.New().WithCause(err)
	}
	mtime := info.ModTime().Unix()

	if s, ok := tryReadCache(cachePath, dir, version, mtime); ok {
		return s, nil, nil
	}

	s, warnings, err := Load(dir, version)
	if err != nil {
		return nil, warnings, err
	}
	_ = writeCache(cachePath, dir, version, mtime, s)
	return s, warnings, nil
}

func tryReadCache(cachePath, dir, version string, mtime int64) (*Schema, bool) {
	if cachePath == "" {
		return nil, false
	}
	db, err := bolt.Open(cachePath, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, false
	}
	defer db.Close()

	var entry cacheEntry
	found := false
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(cacheBucket)
		if b == nil {
			return nil
		}
		raw := b.Get(cacheKey(dir, version))
		if raw == nil {
			return nil
		}
		dec := gob.NewDecoder(bytes.NewReader(raw))
		if err := dec.Decode(&entry); err != nil {
			return nil // corrupt entry: non-fatal, treat as miss
		}
		found = true
		return nil
	})
	if err != nil || !found || entry.Mtime != mtime {
		return nil, false
	}
	return inflateSchema(&entry), true
}

func writeCache(cachePath, dir, version string, mtime int64, s *Schema) error {
	if cachePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return err
	}
	db, err := bolt.Open(cachePath, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return err
	}
	defer db.Close()

	entry := flattenSchema(s, mtime)
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(cacheBucket)
		if err != nil {
			return err
		}
		return b.Put(cacheKey(dir, version), buf.Bytes())
	})
}

func cacheKey(dir, version string) []byte {
	return []byte(version + "|" + dir)
}

func flattenSchema(s *Schema, mtime int64) *cacheEntry {
	e := &cacheEntry{Version: s.Version, Mtime: mtime, Blocs: s.byBloc}
	seen := map[string]bool{}
	for _, a := range s.byFull {
		if seen[a.FullName] {
			continue
		}
		seen[a.FullName] = true
		e.Attrs = append(e.Attrs, *a)
	}
	return e
}

func inflateSchema(e *cacheEntry) *Schema {
	s := &Schema{
		Version:   e.Version,
		byShortID: map[string][]*Attribute{},
		byFull:    map[string]*Attribute{},
		byBloc:    e.Blocs,
	}
	if s.byBloc == nil {
		s.byBloc = map[string]*Bloc{}
	}
	for i := range e.Attrs {
		a := &e.Attrs[i]
		s.byFull[a.FullName] = a
		if a.ShortID != "" {
			s.byShortID[a.ShortID] = append(s.byShortID[a.ShortID], a)
		}
	}
	return s
}
