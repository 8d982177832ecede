// Package persona maps slash-trigger tokens to persona names by scanning a
// directory of persona definition files inside the vault. "Zeus.md" yields
// the trigger "/zeus" for persona "Zeus".
package persona

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Mode controls catalog freshness.
type Mode string

const (
	// ModeRescan rebuilds the catalog on every Resolve call. Persona files can
	// change without a restart, so this is the default.
	ModeRescan Mode = "rescan"
	// ModeStartup scans once at construction; a directory watcher (see
	// Watcher) refreshes the cache when files change.
	ModeStartup Mode = "startup"
)

type trigger struct {
	token   string // "/zeus", lowercase
	persona string // "Zeus"
}

// Catalog resolves persona triggers against message bodies. Safe for
// concurrent use.
type Catalog struct {
	dir  string
	mode Mode

	mu       sync.RWMutex
	triggers []trigger
}

// NewCatalog creates a catalog over dir. In ModeStartup the directory is
// scanned immediately; in ModeRescan every Resolve rescans.
func NewCatalog(dir string, mode Mode) *Catalog {
	if mode == "" {
		mode = ModeRescan
	}
	c := &Catalog{dir: dir, mode: mode}
	if mode == ModeStartup {
		c.Reload()
	}
	return c
}

// Reload rescans the persona directory and replaces the cached trigger list.
func (c *Catalog) Reload() {
	triggers := scan(c.dir)

	c.mu.Lock()
	c.triggers = triggers
	c.mu.Unlock()

	slog.Debug("persona catalog reloaded", "dir", c.dir, "count", len(triggers))
}

// Resolve matches the leading trigger token of body, case-insensitively.
// On a match it returns the persona name and the body with the trigger
// stripped. Triggers are tried in lexicographic persona-name order so
// resolution is deterministic regardless of filesystem enumeration order.
func (c *Catalog) Resolve(body string) (persona, remainder string, matched bool) {
	var triggers []trigger
	if c.mode == ModeRescan {
		triggers = scan(c.dir)
	} else {
		c.mu.RLock()
		triggers = c.triggers
		c.mu.RUnlock()
	}

	lower := strings.ToLower(body)
	for _, t := range triggers {
		if strings.HasPrefix(lower, t.token) {
			return t.persona, strings.TrimSpace(body[len(t.token):]), true
		}
	}
	return "", body, false
}

// Personas returns the known persona names in lexicographic order.
func (c *Catalog) Personas() []string {
	var triggers []trigger
	if c.mode == ModeRescan {
		triggers = scan(c.dir)
	} else {
		c.mu.RLock()
		triggers = c.triggers
		c.mu.RUnlock()
	}

	names := make([]string, 0, len(triggers))
	for _, t := range triggers {
		names = append(names, t.persona)
	}
	return names
}

func scan(dir string) []trigger {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Debug("persona directory unreadable", "dir", dir, "error", err)
		return nil
	}

	var triggers []trigger
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".md")
		if name == "" {
			continue
		}
		triggers = append(triggers, trigger{
			token:   "/" + strings.ToLower(name),
			persona: name,
		})
	}

	// Directory listing order is filesystem-dependent; sort by persona name
	// so first-match-wins is stable.
	sort.Slice(triggers, func(i, j int) bool { return triggers[i].persona < triggers[j].persona })
	return triggers
}
