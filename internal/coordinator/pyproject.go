package coordinator

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// pyprojectName reads the project name from pyproject.toml, if present.
// Both PEP 621 ([project]) and poetry ([tool.poetry]) layouts are checked.
func pyprojectName(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		return ""
	}

	var meta struct {
		Project struct {
			Name string `toml:"name"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Name string `toml:"name"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &meta); err != nil {
		return ""
	}
	if meta.Project.Name != "" {
		return meta.Project.Name
	}
	return meta.Tool.Poetry.Name
}
