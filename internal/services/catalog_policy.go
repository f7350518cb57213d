package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// CatalogPolicyFile is the on-disk shape of the catalog policy.
//
//	disabled:
//	  - approve_ddr
//	  - session_kfr
type CatalogPolicyFile struct {
	Disabled []string `yaml:"disabled"`
}

// CatalogPolicy hides and refuses the tools an operator has disabled.
// The zero value disables nothing.
type CatalogPolicy struct {
	path     string
	mu       sync.RWMutex
	disabled map[string]bool
}

// NewCatalogPolicy loads the policy file at path. An empty path yields a
// policy that disables nothing.
func NewCatalogPolicy(path string) (*CatalogPolicy, error) {
	p := &CatalogPolicy{path: path, disabled: map[string]bool{}}
	if path == "" {
		return p, nil
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// IsDisabled reports whether the named tool is disabled. Names compare case-insensitively.
func (p *CatalogPolicy) IsDisabled(name string) bool {
	if p == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.disabled[strings.ToLower(name)]
}

// Disabled returns the disabled tool names, lowercased and sorted
func (p *CatalogPolicy) Disabled() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.disabled))
	for name := range p.disabled {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reload re-reads the policy file. On error the previous policy stays in force.
func (p *CatalogPolicy) Reload() error {
	if p.path == "" {
		return nil
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("failed to read catalog policy %s: %w", p.path, err)
	}

	var file CatalogPolicyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse catalog policy %s: %w", p.path, err)
	}

	disabled := make(map[string]bool, len(file.Disabled))
	for _, name := range file.Disabled {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			disabled[name] = true
		}
	}

	p.mu.Lock()
	p.disabled = disabled
	p.mu.Unlock()

	log.Printf("📋 [CATALOG] Policy loaded from %s (%d tools disabled)", p.path, len(disabled))
	return nil
}

// Watch reloads the policy whenever the file changes, until ctx is done.
func (p *CatalogPolicy) Watch(ctx context.Context) error {
	if p.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	absPath, err := filepath.Abs(p.path)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("failed to get absolute path for %s: %w", p.path, err)
	}

	// Watch the directory containing the file (more reliable than watching the file directly)
	dir := filepath.Dir(absPath)
	filename := filepath.Base(absPath)

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	log.Printf("👁️  Watching %s for changes (hot-reload enabled)", p.path)

	go func() {
		defer watcher.Close()

		var debounceTimer *time.Timer
		debounceDuration := 200 * time.Millisecond

		for {
			select {
			case <-ctx.Done():
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filename {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					if err := p.Reload(); err != nil {
						log.Printf("❌ [CATALOG] Keeping previous policy: %v", err)
					}
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️  File watcher error: %v", err)
			}
		}
	}()

	return nil
}
