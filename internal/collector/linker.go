package collector

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/dagaz/internal/archive"
	"github.com/starford/dagaz/internal/storage"
)

// Link scans every archive file under the given dirs for parent
// declarations and expands the {Auto-generated} placeholder in each parent
// file into the sorted list of its children. Files without the placeholder
// are never touched, so a second run writes nothing.
func Link(store storage.Provider, logger *slog.Logger, dirs ...string) (int, error) {
	type doc struct {
		path string
		key  string
		data []byte
	}

	var docs []doc
	children := make(map[string][]string)

	for _, dir := range dirs {
		metas, err := store.List(dir)
		if err != nil {
			return 0, fmt.Errorf("linker: list %s: %w", dir, err)
		}
		for _, m := range metas {
			data, err := store.Read(m.Path)
			if err != nil {
				return 0, fmt.Errorf("linker: read %s: %w", m.Path, err)
			}
			key := keyFromPath(m.Path)
			docs = append(docs, doc{path: m.Path, key: key, data: data})
			if parent := archive.Parent(data); parent != "" {
				children[parent] = append(children[parent], key)
			}
		}
	}

	changed := 0
	for _, d := range docs {
		out, ok := archive.ExpandChildren(d.data, children[d.key])
		if !ok {
			continue
		}
		if err := store.Write(d.path, out); err != nil {
			return changed, fmt.Errorf("linker: write %s: %w", d.path, err)
		}
		changed++
		logger.Debug("linker: expanded children",
			slog.String("path", d.path),
			slog.Int("children", len(children[d.key])))
	}

	if changed > 0 {
		logger.Info("linker: updated parent files", slog.Int("files", changed))
	}
	return changed, nil
}

// keyFromPath derives the fully-qualified key from an archive filename.
func keyFromPath(p string) string {
	return strings.TrimSuffix(path.Base(p), ".md")
}
