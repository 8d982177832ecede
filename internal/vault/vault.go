package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Vault is the shared working directory the agent process operates in.
// Personas, the system prompt and staged attachments all live under it.
type Vault struct {
	Root string
}

// New ensures the vault root and its attachments directory exist.
func New(root string) (*Vault, error) {
	v := &Vault{Root: root}
	for _, dir := range []string{root, filepath.Join(root, "Attachments")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure vault dir %s: %w", dir, err)
		}
	}
	return v, nil
}

// Path resolves a vault-relative path.
func (v *Vault) Path(rel string) string {
	return filepath.Join(v.Root, rel)
}

// StageAttachment writes data under Attachments/ with a collision-free name
// and returns the vault-relative path, suitable for referencing in prompts.
// The timestamp keeps listings chronological; the uuid fragment disambiguates
// same-named files staged within the same second.
func (v *Vault) StageAttachment(filename string, data []byte) (string, error) {
	name := sanitizeName(filename)
	if name == "" {
		name = "file"
	}
	rel := filepath.Join("Attachments", fmt.Sprintf("%s-%s-%s",
		time.Now().Format("20060102-150405"), uuid.NewString()[:8], name))
	if err := os.WriteFile(v.Path(rel), data, 0o644); err != nil {
		return "", fmt.Errorf("stage attachment: %w", err)
	}
	return rel, nil
}

// sanitizeName strips path separators and control characters so an inbound
// filename cannot escape the attachments directory.
func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == '/', r == '\\', r == ':':
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(strings.Trim(name, "."))
}
