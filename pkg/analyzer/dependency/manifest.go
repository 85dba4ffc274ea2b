package dependency

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/knadh/koanf/parsers/json"
	"github.com/pelletier/go-toml"
)

// Manifest file names, in lookup order.
const (
	PackageJSON = "package.json"
	CargoToml   = "Cargo.toml"
)

// Lockfiles are the file names whose presence counts as a pinned
// dependency set.
var Lockfiles = []string{
	"package-lock.json",
	"npm-shrinkwrap.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"bun.lockb",
	"Cargo.lock",
}

var manifestParsers = []struct {
	name  string
	parse func([]byte) ([]Record, error)
}{
	{PackageJSON, parsePackageJSON},
	{CargoToml, parseCargoToml},
}

// errNoManifest means none of the known manifests exist.
var errNoManifest = errors.New("no manifest found")

// ParseManifest reads the first known manifest in fsys. It returns the
// manifest name with its records sorted prod first, then by name. When the
// manifest exists but cannot be parsed the name is still returned.
func ParseManifest(fsys fs.FS) (string, []Record, error) {
	for _, m := range manifestParsers {
		data, err := fs.ReadFile(fsys, m.name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return m.name, nil, fmt.Errorf("read %s: %w", m.name, err)
		}
		records, err := m.parse(data)
		if err != nil {
			return m.name, nil, fmt.Errorf("parse %s: %w", m.name, err)
		}
		sortRecords(records)
		return m.name, records, nil
	}
	return "", nil, errNoManifest
}

// HasLockfile reports whether any known lockfile exists in fsys.
func HasLockfile(fsys fs.FS) bool {
	for _, name := range Lockfiles {
		if _, err := fs.Stat(fsys, name); err == nil {
			return true
		}
	}
	return false
}

func sortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Type != records[j].Type {
			return records[i].Type == Prod
		}
		return records[i].Name < records[j].Name
	})
}

func parsePackageJSON(data []byte) ([]Record, error) {
	doc, err := json.Parser().Unmarshal(data)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, section := range []struct {
		key string
		typ Type
	}{
		{"dependencies", Prod},
		{"devDependencies", Dev},
	} {
		deps, ok := doc[section.key].(map[string]interface{})
		if !ok {
			continue
		}
		for name, v := range deps {
			version, _ := v.(string)
			records = append(records, Record{Name: name, Version: version, Type: section.typ})
		}
	}
	return records, nil
}

func parseCargoToml(data []byte) ([]Record, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, section := range []struct {
		key string
		typ Type
	}{
		{"dependencies", Prod},
		{"dev-dependencies", Dev},
	} {
		sub, ok := tree.Get(section.key).(*toml.Tree)
		if !ok {
			continue
		}
		for name, v := range sub.ToMap() {
			records = append(records, Record{Name: name, Version: cargoVersion(v), Type: section.typ})
		}
	}
	return records, nil
}

// cargoVersion accepts both `name = "1.0"` and `name = { version = "1.0" }`.
// Path and git dependencies without a version report "*".
func cargoVersion(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]interface{}:
		if s, ok := val["version"].(string); ok {
			return s
		}
	}
	return "*"
}
