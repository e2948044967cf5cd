package appctx

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/PierreBx/ariane-xml-sub000/internal/query"
)

// Defaults is the optional process-start configuration: initial DSN version, default XSD
// path, default DEST directory. Its absence never blocks query execution.
type Defaults struct {
	DSNVersion string `yaml:"dsn_version"`
	XSDPath    string `yaml:"xsd_path"`
	DestPath   string `yaml:"dest_path"`
}

// ConfigPath locates the config file via XDG base-directory discovery, the
// way aretext locates its own config.yaml.
func ConfigPath() (string, error) {
	return xdg.ConfigFile(filepath.Join("ariane-xml", "config.yaml"))
}

// LoadDefaults reads and decodes the config file if present. A missing file
// is not an error: defaults are a convenience, not a requirement.
func LoadDefaults() (*Defaults, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Defaults{}, nil
	}
	if err != nil {
		return nil, err
	}
	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ApplyDefaults seeds an AppContext from loaded Defaults, skipping any field
// left blank.
func ApplyDefaults(c *AppContext, d *Defaults) {
	if d == nil {
		return
	}
	if d.DSNVersion != "" {
		c.SetDSNVersion(query.DSNVersion(d.DSNVersion))
	}
	if d.XSDPath != "" {
		_, _ = c.SetXSDPath(d.XSDPath)
	}
	if d.DestPath != "" {
		_ = c.SetDestPath(d.DestPath)
	}
}
