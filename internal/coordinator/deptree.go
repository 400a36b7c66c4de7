package coordinator

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pylens/pylens/internal/types"
)

// stdlibModules lists Python standard-library top-level modules (plus
// pytest, which projects rarely mean as an external runtime dependency)
// used when filtering to external dependencies.
var stdlibModules = map[string]bool{
	"os": true, "sys": true, "re": true, "json": true, "typing": true,
	"pathlib": true, "asyncio": true, "logging": true, "datetime": true,
	"collections": true, "functools": true, "itertools": true,
	"contextlib": true, "dataclasses": true, "abc": true, "io": true,
	"math": true, "random": true, "time": true, "threading": true,
	"multiprocessing": true, "subprocess": true, "shutil": true,
	"tempfile": true, "unittest": true, "pytest": true, "argparse": true,
	"copy": true, "hashlib": true, "base64": true, "socket": true,
	"http": true, "urllib": true, "email": true, "html": true, "xml": true,
	"csv": true, "pickle": true, "sqlite3": true, "queue": true,
	"enum": true, "warnings": true, "traceback": true, "inspect": true,
	"dis": true, "gc": true, "weakref": true, "atexit": true,
	"signal": true, "fcntl": true, "termios": true, "tty": true,
	"pty": true, "crypt": true, "grp": true, "pwd": true, "spwd": true,
	"struct": true, "codecs": true, "unicodedata": true, "locale": true,
	"gettext": true, "textwrap": true, "difflib": true, "operator": true,
	"array": true, "heapq": true, "bisect": true, "graphlib": true,
	"pprint": true, "reprlib": true, "types": true, "string": true,
	"secrets": true, "hmac": true, "zlib": true, "gzip": true,
	"bz2": true, "lzma": true, "tarfile": true, "zipfile": true,
	"configparser": true, "tomllib": true, "netrc": true,
	"plistlib": true, "calendar": true, "fractions": true,
	"decimal": true, "statistics": true, "cmath": true,
}

// DependencyTree builds the per-file import/export view of a project and
// classifies every imported module as internal or external.
func (c *Coordinator) DependencyTree(ref string) (*types.DependencyTree, error) {
	project, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}

	tree := &types.DependencyTree{
		Project: project.Root,
		Files:   make(map[string]types.FileDependencies),
	}
	external := make(map[string]bool)
	internal := make(map[string]bool)

	project.mu.RLock()
	for path, result := range project.analyses {
		rel, err := filepath.Rel(project.Root, path)
		if err != nil {
			rel = path
		}

		entry := types.FileDependencies{
			Imports: []types.FileImport{},
			Exports: []types.FileExport{},
		}
		for _, dep := range result.Dependencies {
			entry.Imports = append(entry.Imports, types.FileImport{
				Name:          dep.Name,
				FromImport:    dep.IsFromImport,
				ImportedNames: dep.ImportedNames,
			})
			if strings.HasPrefix(dep.Name, ".") || isInternalModule(dep.Name, project.Root) {
				internal[dep.Name] = true
			} else {
				external[dep.Name] = true
			}
		}
		for _, symbol := range result.Symbols {
			if symbol.IsPublic() {
				entry.Exports = append(entry.Exports, types.FileExport{
					Name: symbol.Name,
					Kind: symbol.Kind,
				})
			}
		}
		tree.Files[rel] = entry
	}
	project.mu.RUnlock()

	tree.ExternalDependencies = sortedKeys(external)
	tree.InternalModules = sortedKeys(internal)
	return tree, nil
}

// isInternalModule reports whether a dotted module name resolves to a file
// or package inside the project root.
func isInternalModule(name, root string) bool {
	parts := strings.Split(name, ".")

	pkg := filepath.Join(append([]string{root}, parts...)...)
	if info, err := os.Stat(pkg); err == nil && info.IsDir() {
		if _, err := os.Stat(filepath.Join(pkg, "__init__.py")); err == nil {
			return true
		}
	}

	module := filepath.Join(append([]string{root}, parts[:len(parts)-1]...)...)
	module = filepath.Join(module, parts[len(parts)-1]+".py")
	if _, err := os.Stat(module); err == nil {
		return true
	}
	return false
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
