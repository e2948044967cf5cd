// Package dsn loads the DSN shortcut schema from a directory of
// XML-Schema files and resolves shortcut tokens like "30.002" against it.
package dsn

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/PierreBx/ariane-xml-sub000/internal/errs"
)

// ShortIDPattern is the regex a DSN field-path component must match before
// the rewrite pass attempts to resolve it.
var ShortIDPattern = regexp.MustCompile(`^\d{2,}[._]\d{3,}$`)

// Attribute is one leaf element of a DSN schema.
type Attribute struct {
	FullName    string
	ShortID     string
	Bloc        string
	Description string
	Type        string
	Mandatory   bool
	MinOccurs   int
	MaxOccurs   int
	Versions    []string
}

// Bloc is a containing group of attributes, in declaration order.
type Bloc struct {
	Name       string
	Attributes []string // full names, in schema order
}

// String renders an attribute for DESCRIBE.
func (a *Attribute) String() string {
	mandatory := "optional"
	if a.Mandatory {
		mandatory = "mandatory"
	}
	desc := a.Description
	if desc == "" {
		desc = "(no description)"
	}
	return fmt.Sprintf("%s bloc=%s short=%s type=%s %s - %s",
		a.FullName, a.Bloc, a.ShortID, a.Type, mandatory, desc)
}

// String renders a bloc's attribute list for DESCRIBE.
func (b *Bloc) String() string {
	return fmt.Sprintf("%s: %s", b.Name, strings.Join(b.Attributes, ", "))
}

// Schema is a read-only shortcut-to-attribute mapping, built once per XSD
// directory and safe for concurrent lookups (the executor's worker pool
// reads it from many goroutines; see internal/executor).
type Schema struct {
	Version   string
	byShortID map[string][]*Attribute
	byFull    map[string]*Attribute
	byBloc    map[string]*Bloc
}

// ShortIDs reports the shortcuts a schema resolves, for DESCRIBE and tests.
func (s *Schema) ShortIDs(shortID string) []*Attribute {
	return s.byShortID[shortID]
}

// FullName looks up an attribute by its fully qualified name.
func (s *Schema) FullName(full string) (*Attribute, bool) {
	a, ok := s.byFull[full]
	return a, ok
}

// BlocByName looks up a bloc by name.
func (s *Schema) BlocByName(name string) (*Bloc, bool) {
	b, ok := s.byBloc[name]
	return b, ok
}

// xsdSchema and xsdElement model just enough of the XML-Schema grammar to
// recover the DSN attribute/bloc structure; this is the one
// place a typed encoding/xml unmarshal is appropriate, because an XSD's own
// grammar (unlike arbitrary customer XML) is fixed.
type xsdSchema struct {
	XMLName  xml.Name     `xml:"schema"`
	Elements []xsdElement `xml:"element"`
}

type xsdElement struct {
	Name        string       `xml:"name,attr"`
	Type        string       `xml:"type,attr"`
	MinOccurs   string       `xml:"minOccurs,attr"`
	MaxOccurs   string       `xml:"maxOccurs,attr"`
	Annotation  string       `xml:"annotation>documentation"`
	Elements    []xsdElement `xml:"complexType>sequence>element"`
}

// Load walks dir for *.xsd files and builds a Schema tagged with version.
// Per-file parse failures are collected and returned as warnings; a
// directory with zero usable files is a hard error.
func Load(dir, version string) (*Schema, []*errs.Err, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, errs.ErrFileRead.New().WithCause(err)
	}

	s := &Schema{
		Version:   version,
		byShortID: map[string][]*Attribute{},
		byFull:    map[string]*Attribute{},
		byBloc:    map[string]*Bloc{},
	}
	var warnings []*errs.Err
	loaded := 0

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xsd") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			warnings = append(warnings, errs.ErrFileRead.New().WithCause(fmt.Errorf("%s: %w", path, err)))
			continue
		}
		var x xsdSchema
		if err := xml.Unmarshal(data, &x); err != nil {
			warnings = append(warnings, errs.ErrXMLParse.New().WithCause(fmt.Errorf("%s: %w", path, err)))
			continue
		}
		blocName := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		s.ingestBloc(blocName, x.Elements)
		loaded++
	}

	if loaded == 0 {
		return nil, warnings, errs.ErrFileNotFound.New().WithCause(fmt.Errorf("directory: %s", dir))
	}
	return s, warnings, nil
}

func (s *Schema) ingestBloc(blocName string, elements []xsdElement) {
	bloc := &Bloc{Name: blocName}
	for _, el := range elements {
		full := el.Name
		short := shortIDFromFullName(full)
		attr := &Attribute{
			FullName:    full,
			ShortID:     short,
			Bloc:        blocName,
			Description: strings.TrimSpace(el.Annotation),
			Type:        el.Type,
			Mandatory:   el.MinOccurs != "0",
			MinOccurs:   parseOccurs(el.MinOccurs, 1),
			MaxOccurs:   parseOccurs(el.MaxOccurs, 1),
			Versions:    []string{s.Version},
		}
		s.byFull[full] = attr
		bloc.Attributes = append(bloc.Attributes, full)
		if short != "" {
			s.byShortID[short] = append(s.byShortID[short], attr)
		}
		for _, child := range el.Elements {
			s.ingestBloc(blocName, []xsdElement{child})
		}
	}
	s.byBloc[blocName] = bloc
}

// shortIDFromFullName recovers "30_001" from "S21_G00_30_001" by taking the
// last two underscore-delimited numeric groups.
func shortIDFromFullName(full string) string {
	parts := strings.Split(full, "_")
	if len(parts) < 2 {
		return ""
	}
	last2 := parts[len(parts)-2:]
	candidate := strings.Join(last2, "_")
	if ShortIDPattern.MatchString(candidate) {
		return candidate
	}
	return ""
}

func parseOccurs(s string, def int) int {
	if s == "" {
		return def
	}
	if s == "unbounded" {
		return -1
	}
	n := 0
	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil {
		return def
	}
	return n
}

// RewriteResult is the outcome of resolving one shortcut component against a
// loaded schema.
type RewriteResult struct {
	FullName   string
	Ambiguous  bool
	Candidates []string
	Resolved   bool
}

// Resolve applies the DSN rewrite pass rules for a single path component.
// priorComponent is the component immediately preceding this one in the
// field path, if any (used by rule 2 to disambiguate by containing bloc).
func (s *Schema) Resolve(component, priorComponent string) RewriteResult {
	if !ShortIDPattern.MatchString(component) {
		return RewriteResult{FullName: component}
	}
	shortID := normalizeShortID(component)
	matches := s.byShortID[shortID]

	switch len(matches) {
	case 0:
		// Rule 4: no match, leave as-is.
		return RewriteResult{FullName: component}
	case 1:
		// Rule 1: exactly one match.
		return RewriteResult{FullName: matches[0].FullName, Resolved: true}
	}

	if priorComponent != "" {
		for _, m := range matches {
			if strings.HasPrefix(m.FullName, priorComponent) {
				// Rule 2: prefer the attribute whose full name starts with
				// the previous component.
				return RewriteResult{FullName: m.FullName, Resolved: true}
			}
		}
	}

	// Rule 3: still ambiguous, warn and take the alphabetically first
	// candidate full name.
	candidates := make([]string, len(matches))
	for i, m := range matches {
		candidates[i] = m.FullName
	}
	sort.Strings(candidates)
	return RewriteResult{
		FullName:   candidates[0],
		Resolved:   true,
		Ambiguous:  true,
		Candidates: candidates,
	}
}

// normalizeShortID converts the dot-delimited form ("30.002") to the
// underscore-delimited form the schema indexes attributes under, since both
// forms denote the same shortcut.
func normalizeShortID(s string) string {
	return strings.ReplaceAll(s, ".", "_")
}

// loader caches a loaded Schema by (dir, version) so repeated SET XSD
// commands against the same directory in the same process don't re-walk the
// filesystem; this is the in-process half of the cache, the on-disk half
// lives in cache.go.
type loader struct {
	mu    sync.Mutex
	cache map[string]*Schema
}

var defaultLoader = &loader{cache: map[string]*Schema{}}

// LoadCached is Load, memoized per (dir, version) for the lifetime of the
// process; callers that want the on-disk cache across processes should use
// LoadWithDiskCache in cache.go instead.
func LoadCached(dir, version string) (*Schema, []*errs.Err, error) {
	key := dir + "|" + version
	defaultLoader.mu.Lock()
	if s, ok := defaultLoader.cache[key]; ok {
		defaultLoader.mu.Unlock()
		return s, nil, nil
	}
	defaultLoader.mu.Unlock()

	s, warnings, err := Load(dir, version)
	if err != nil {
		return nil, warnings, err
	}

	defaultLoader.mu.Lock()
	defaultLoader.cache[key] = s
	defaultLoader.mu.Unlock()
	return s, warnings, nil
}
