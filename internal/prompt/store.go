package prompt

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/rvdzwet/invoice-validator-sub003/internal/shared/telemetry"
)

// Store indexes prompt templates by their declared metadata name.
type Store struct {
	root string

	mu        sync.RWMutex
	templates map[string]Template
}

// NewStore creates a store reading templates under root. Call Load before Get.
func NewStore(root string) *Store {
	return &Store{
		root:      root,
		templates: make(map[string]Template),
	}
}

// Load scans the template root recursively for YAML template documents and
// indexes them by metadata.name. The first successfully parsed template for a
// name wins; later duplicates are logged and ignored. A file that fails to
// parse is logged and skipped without aborting the rest of the load.
func (s *Store) Load() error {
	loaded := make(map[string]Template)
	var parsed, skipped, duplicates int

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isTemplateFile(path) {
			return nil
		}

		tpl, err := parseTemplateFile(path)
		if err != nil {
			skipped++
			telemetry.Warn("prompt.template.skip", map[string]any{
				"path":  path,
				"error": err.Error(),
			})
			return nil
		}

		if existing, ok := loaded[tpl.Metadata.Name]; ok {
			duplicates++
			telemetry.Warn("prompt.template.duplicate", map[string]any{
				"name":     tpl.Metadata.Name,
				"kept":     existing.Path,
				"ignored":  path,
			})
			return nil
		}
		loaded[tpl.Metadata.Name] = tpl
		parsed++
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan template root %s: %w", s.root, err)
	}

	s.mu.Lock()
	s.templates = loaded
	s.mu.Unlock()

	telemetry.Info("prompt.templates.loaded", map[string]any{
		"root":       s.root,
		"parsed":     parsed,
		"skipped":    skipped,
		"duplicates": duplicates,
	})
	return nil
}

// Reload clears the index and re-runs Load.
func (s *Store) Reload() error {
	s.mu.Lock()
	s.templates = make(map[string]Template)
	s.mu.Unlock()
	return s.Load()
}

// Get returns the template registered under name.
func (s *Store) Get(name string) (Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tpl, ok := s.templates[name]
	return tpl, ok
}

// Len returns the number of loaded templates.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates)
}

func isTemplateFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func parseTemplateFile(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("read: %w", err)
	}
	var tpl Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return Template{}, fmt.Errorf("parse: %w", err)
	}
	if strings.TrimSpace(tpl.Metadata.Name) == "" {
		return Template{}, fmt.Errorf("missing metadata.name")
	}
	tpl.Path = path
	return tpl, nil
}
