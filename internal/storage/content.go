package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Kalaith/nightmare-shift-sub000/pkg/guideline"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
)

// Content reads guideline and passenger JSON from a data directory. Each
// file holds either a single object or an array of objects. Results are
// cached after the first successful read.
type Content struct {
	dataDir string
	logger  *slog.Logger
	// Strict rejects unknown fields and unreadable files instead of skipping them.
	Strict bool

	mu         sync.Mutex
	guidelines []guideline.Guideline
	passengers []passenger.Passenger
}

func NewContent(dataDir string, logger *slog.Logger) *Content {
	if dataDir == "" {
		dataDir = "./data"
	}
	return &Content{dataDir: dataDir, logger: logger}
}

// Guidelines returns all guidelines under DATA_DIR/guidelines.
func (c *Content) Guidelines(ctx context.Context) ([]guideline.Guideline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.guidelines != nil {
		return c.guidelines, nil
	}

	out, err := readDir[guideline.Guideline](ctx, c, "guidelines")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.guidelines = out
	return out, nil
}

// Passengers returns all passengers under DATA_DIR/passengers.
func (c *Content) Passengers(ctx context.Context) ([]passenger.Passenger, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.passengers != nil {
		return c.passengers, nil
	}

	out, err := readDir[passenger.Passenger](ctx, c, "passengers")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.passengers = out
	return out, nil
}

func readDir[T any](ctx context.Context, c *Content, sub string) ([]T, error) {
	dir := filepath.Join(c.dataDir, sub)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("failed to read %s directory: %w", sub, err)
	}

	out := make([]T, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		items, err := DecodeFile[T](path, c.Strict)
		if err != nil {
			if c.Strict {
				return nil, err
			}
			c.logger.Warn("Skipping unreadable content file", "path", path, "error", err)
			continue
		}
		out = append(out, items...)
	}
	return out, nil
}

// DecodeFile reads one content file holding an object or an array.
func DecodeFile[T any](path string, strict bool) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := decode(trimmed, &items, strict); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return items, nil
	}

	var item T
	if err := decode(trimmed, &item, strict); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return []T{item}, nil
}

func decode(data []byte, v any, strict bool) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if strict {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(v)
}
