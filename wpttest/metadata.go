package wpttest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Reset is the sentinel atom that, when present in a layer's tag list or
// pref map, discards everything accumulated from outer layers before that
// layer's remaining values are merged in. It models "this test overrides all
// inherited config".
const Reset = "@Reset"

// MetadataFilename is the per-directory metadata file applied to every test
// below that directory.
const MetadataFilename = "meta.yaml"

// Metadata is one override layer. Layers are ordered outermost (global)
// first; the test's own metadata comes last.
type Metadata struct {
	// Expected maps a subtest name to its expected status. The empty key
	// holds the harness-level expectation.
	Expected     map[string]Status `yaml:"expected,omitempty"`
	Disabled     *string           `yaml:"disabled,omitempty"`
	RestartAfter *bool             `yaml:"restart_after,omitempty"`
	Tags         []string          `yaml:"tags,omitempty"`
	Prefs        map[string]string `yaml:"prefs,omitempty"`
}

// ResolveTags folds tag lists across layers, outermost first. A Reset
// sentinel in a layer clears everything accumulated so far.
func ResolveTags(layers []Metadata) []string {
	var acc []string
	seen := make(map[string]bool)
	for _, layer := range layers {
		if len(layer.Tags) == 0 {
			continue
		}
		rest := layer.Tags
		if idx := indexOf(layer.Tags, Reset); idx >= 0 {
			acc = acc[:0]
			seen = make(map[string]bool)
			rest = withoutIndex(layer.Tags, idx)
		}
		for _, tag := range rest {
			if !seen[tag] {
				seen[tag] = true
				acc = append(acc, tag)
			}
		}
	}
	return acc
}

// ResolvePrefs folds pref maps across layers, outermost first. A Reset key in
// a layer clears everything accumulated so far; later layers override earlier
// values for the same key.
func ResolvePrefs(layers []Metadata) map[string]string {
	acc := make(map[string]string)
	for _, layer := range layers {
		if len(layer.Prefs) == 0 {
			continue
		}
		if _, ok := layer.Prefs[Reset]; ok {
			acc = make(map[string]string)
		}
		for k, v := range layer.Prefs {
			if k == Reset {
				continue
			}
			acc[k] = v
		}
	}
	return acc
}

// firstExpected scans layers in inheritance order and returns the first
// expectation defined for the given subtest ("" for the harness level).
func firstExpected(layers []Metadata, subtest string) (Status, bool) {
	for _, layer := range layers {
		if layer.Expected == nil {
			continue
		}
		if status, ok := layer.Expected[subtest]; ok {
			return status, true
		}
	}
	return "", false
}

// firstDisabled returns the first non-missing disabled reason.
func firstDisabled(layers []Metadata) *string {
	for _, layer := range layers {
		if layer.Disabled != nil {
			return layer.Disabled
		}
	}
	return nil
}

// firstRestartAfter returns the first non-missing restart_after value.
func firstRestartAfter(layers []Metadata) *bool {
	for _, layer := range layers {
		if layer.RestartAfter != nil {
			return layer.RestartAfter
		}
	}
	return nil
}

// LoadChain loads the metadata layers that apply to the test file at relPath
// under root: one meta.yaml per directory from the root down, then an
// optional <filename>.meta.yaml next to the test itself. Outermost first.
// Missing files are skipped; a malformed file is an error.
func LoadChain(root string, relPath string) ([]Metadata, error) {
	var layers []Metadata

	dirs := []string{""}
	dir := filepath.Dir(relPath)
	if dir != "." {
		parts := strings.Split(filepath.ToSlash(dir), "/")
		for i := range parts {
			dirs = append(dirs, filepath.Join(parts[:i+1]...))
		}
	}

	for _, d := range dirs {
		layer, ok, err := loadFile(filepath.Join(root, d, MetadataFilename))
		if err != nil {
			return nil, err
		}
		if ok {
			layers = append(layers, layer)
		}
	}

	own, ok, err := loadFile(filepath.Join(root, relPath+".meta.yaml"))
	if err != nil {
		return nil, err
	}
	if ok {
		layers = append(layers, own)
	}

	return layers, nil
}

func loadFile(path string) (Metadata, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Metadata{}, false, nil
	}
	if err != nil {
		return Metadata{}, false, fmt.Errorf("reading metadata file %s: %w", path, err)
	}

	var m Metadata
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Metadata{}, false, fmt.Errorf("parsing metadata file %s: %w", path, err)
	}
	return m, true, nil
}

func indexOf(s []string, v string) int {
	for i, e := range s {
		if e == v {
			return i
		}
	}
	return -1
}

func withoutIndex(s []string, idx int) []string {
	out := make([]string, 0, len(s)-1)
	out = append(out, s[:idx]...)
	out = append(out, s[idx+1:]...)
	return out
}
