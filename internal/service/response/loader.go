package response

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/mindease/backend/internal/analysis/emotion"
)

// tableFile is the on-disk shape of a reply table.
type tableFile struct {
	Default   string            `yaml:"default" toml:"default"`
	FollowUp  string            `yaml:"follow_up" toml:"follow_up"`
	Failure   string            `yaml:"failure" toml:"failure"`
	Responses map[string]string `yaml:"responses" toml:"responses"`
}

// LoadFile reads a YAML or TOML reply table and overlays it on DefaultTable.
// An empty path returns DefaultTable unchanged.
func LoadFile(path string) (Table, error) {
	base := DefaultTable()
	if strings.TrimSpace(path) == "" {
		return base, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read response table %s: %w", path, err)
	}

	var file tableFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return Table{}, fmt.Errorf("parse response table %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(raw), &file); err != nil {
			return Table{}, fmt.Errorf("parse response table %s: %w", path, err)
		}
	default:
		return Table{}, fmt.Errorf("unsupported response table format %q", ext)
	}

	overlay := Table{
		Entries:  make(map[emotion.Label]string, len(file.Responses)),
		Default:  strings.TrimSpace(file.Default),
		FollowUp: strings.TrimSpace(file.FollowUp),
		Failure:  strings.TrimSpace(file.Failure),
	}
	for label, msg := range file.Responses {
		overlay.Entries[emotion.Normalize(label)] = strings.TrimSpace(msg)
	}

	return base.Merge(overlay), nil
}
