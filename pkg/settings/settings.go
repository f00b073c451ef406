// Package settings implements the per-script settings file: a companion YAML
// document next to a script module, organized in sections of key/value pairs.
//
//	general:
//	  enabled: true
//	  greeting: hello
//	keys:
//	  toggle: [F5, F6]
//
// Lookups are case-insensitive. A key may hold a list; Get* returns its first
// element and GetAll every element. Conversion failures yield the default.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Settings is safe for concurrent use.
type Settings struct {
	path string

	mu     sync.RWMutex
	values map[string]map[string][]string
}

// CompanionPath returns the settings file path for a module: the module path
// with its extension replaced by ".yaml".
func CompanionPath(module string) string {
	return strings.TrimSuffix(module, filepath.Ext(module)) + ".yaml"
}

// New returns empty settings bound to path. Nothing is read.
func New(path string) *Settings {
	return &Settings{path: path, values: make(map[string]map[string][]string)}
}

// Load reads the file at path. A missing file yields empty settings bound to
// path, so a later Save creates it.
func Load(path string) (*Settings, error) {
	s := New(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read settings %s: %w", path, err)
	}

	var raw map[string]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return s, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	for section, kv := range raw {
		for key, v := range kv {
			s.values[norm(section)] = ensure(s.values[norm(section)])
			s.values[norm(section)][norm(key)] = toStrings(v)
		}
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Settings) Path() string { return s.path }

func (s *Settings) lookup(section, key string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[norm(section)][norm(key)]
	if !ok || len(v) == 0 {
		return nil, false
	}
	return v, true
}

// GetString returns the value or def when absent.
func (s *Settings) GetString(section, key, def string) string {
	v, ok := s.lookup(section, key)
	if !ok {
		return def
	}
	return v[0]
}

// GetInt returns the value converted to int, or def when absent or not numeric.
func (s *Settings) GetInt(section, key string, def int) int {
	v, ok := s.lookup(section, key)
	if !ok {
		return def
	}
	n, err := cast.ToIntE(strings.TrimSpace(v[0]))
	if err != nil {
		return def
	}
	return n
}

// GetBool returns the value converted to bool, or def when absent or invalid.
func (s *Settings) GetBool(section, key string, def bool) bool {
	v, ok := s.lookup(section, key)
	if !ok {
		return def
	}
	b, err := cast.ToBoolE(strings.TrimSpace(v[0]))
	if err != nil {
		return def
	}
	return b
}

// GetFloat returns the value converted to float64, or def when absent or not numeric.
func (s *Settings) GetFloat(section, key string, def float64) float64 {
	v, ok := s.lookup(section, key)
	if !ok {
		return def
	}
	f, err := cast.ToFloat64E(strings.TrimSpace(v[0]))
	if err != nil {
		return def
	}
	return f
}

// GetAll returns every value stored under key, or nil.
func (s *Settings) GetAll(section, key string) []string {
	v, _ := s.lookup(section, key)
	return slices.Clone(v)
}

// Set replaces the value of key. Non-string values are converted with cast.
func (s *Settings) Set(section, key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[norm(section)] = ensure(s.values[norm(section)])
	s.values[norm(section)][norm(key)] = toStrings(value)
}

// Save writes the settings back to Path.
func (s *Settings) Save() error {
	s.mu.RLock()
	out := make(map[string]map[string]any, len(s.values))
	for section, kv := range s.values {
		out[section] = make(map[string]any, len(kv))
		for key, v := range kv {
			if len(v) == 1 {
				out[section][key] = v[0]
			} else {
				out[section][key] = slices.Clone(v)
			}
		}
	}
	s.mu.RUnlock()

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings %s: %w", s.path, err)
	}
	return nil
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func ensure(m map[string][]string) map[string][]string {
	if m == nil {
		return make(map[string][]string)
	}
	return m
}

func toStrings(v any) []string {
	switch vv := v.(type) {
	case nil:
		return []string{""}
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			out = append(out, cast.ToString(item))
		}
		return out
	case []string:
		return slices.Clone(vv)
	default:
		return []string{cast.ToString(vv)}
	}
}
