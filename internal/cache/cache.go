// Package cache persists dissection stores next to their capture files so
// repeated runs can skip re-dissection.
//
// Every cache entry is wrapped in a leading format version and a fingerprint
// of the source identity plus all dissection options. A version mismatch is a
// hard, distinct error: silently re-dissecting while the caller believed
// historical state was authoritative could hide behavior changes in the
// engine itself. A fingerprint mismatch or a missing file is only a miss.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"capdiff/internal/dissect"
	"capdiff/internal/logging"
)

// FormatVersion is bumped whenever the store shape or dissection semantics
// change incompatibly. Readers reject anything else outright.
const FormatVersion = 4

// ErrVersionMismatch marks a cache entry written by an incompatible engine
// version. Callers must fall back to re-dissection explicitly or abort.
var ErrVersionMismatch = errors.New("cache format version mismatch")

// Fingerprint identifies what a cached store was derived from: the capture
// plus every option that shapes the dissection.
type Fingerprint struct {
	SourceFile   string        `json:"source_file"`
	Level        dissect.Level `json:"level"`
	BinSize      int64         `json:"bin_size"`
	MaximumCount int           `json:"maximum_count"`
	Filter       string        `json:"filter"`
}

// NewFingerprint derives the fingerprint for a capture and its options.
func NewFingerprint(sourceFile string, opts dissect.Options) Fingerprint {
	return Fingerprint{
		SourceFile:   sourceFile,
		Level:        opts.Level,
		BinSize:      opts.BinSize,
		MaximumCount: opts.MaximumCount,
		Filter:       opts.Filter,
	}
}

// entry is the on-disk wrapper. format_version leads so readers can gate on
// it before trusting anything else.
type entry struct {
	FormatVersion int                 `json:"format_version"`
	Fingerprint   Fingerprint         `json:"fingerprint"`
	Dissection    *dissect.Dissection `json:"dissection"`
}

// Gate wraps cache load/store around a dissection run.
type Gate struct {
	suffix string
	log    *logging.Logger
}

// NewGate returns a gate writing cache files as <capture><suffix>.
func NewGate(suffix string, log *logging.Logger) *Gate {
	if suffix == "" {
		suffix = ".taffy"
	}
	if suffix[0] != '.' {
		suffix = "." + suffix
	}
	return &Gate{suffix: suffix, log: log}
}

// Path returns the cache file path for a capture file.
func (g *Gate) Path(sourceFile string) string {
	return sourceFile + g.suffix
}

// TryLoad returns the cached store for the fingerprint, or (nil, nil) on a
// miss. A format version mismatch returns ErrVersionMismatch; a mismatched
// fingerprint is logged and treated as a miss, never reinterpreted.
func (g *Gate) TryLoad(fp Fingerprint) (*dissect.Dissection, error) {
	path := g.Path(fp.SourceFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", path, err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", path, err)
	}
	if e.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: %s has version %d, engine version %d",
			ErrVersionMismatch, path, e.FormatVersion, FormatVersion)
	}
	if e.Fingerprint != fp {
		g.log.Info("cached results for %s were made with different options, re-dissecting", fp.SourceFile)
		return nil, nil
	}

	g.log.Info("loading cached pcap contents from %s", path)
	e.Dissection.Freeze()
	return e.Dissection, nil
}

// Store writes a frozen store under its fingerprint.
func (g *Gate) Store(fp Fingerprint, dis *dissect.Dissection) error {
	path := g.Path(fp.SourceFile)
	data, err := json.Marshal(entry{
		FormatVersion: FormatVersion,
		Fingerprint:   fp,
		Dissection:    dis,
	})
	if err != nil {
		return fmt.Errorf("encode cache for %s: %w", fp.SourceFile, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write cache %s: %w", path, err)
	}
	g.log.Info("cached pcap data to %s", path)
	return nil
}

// Info describes a cache file without loading it through the gate, for the
// cache-info command.
type Info struct {
	Path          string
	FormatVersion int
	Fingerprint   Fingerprint
	Meta          dissect.Metadata
	Buckets       []int64
}

// Inspect reads a cache file's metadata. Unlike TryLoad it tolerates any
// fingerprint but still rejects unknown format versions.
func Inspect(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", path, err)
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", path, err)
	}
	if e.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: %s has version %d, engine version %d",
			ErrVersionMismatch, path, e.FormatVersion, FormatVersion)
	}
	return &Info{
		Path:          path,
		FormatVersion: e.FormatVersion,
		Fingerprint:   e.Fingerprint,
		Meta:          e.Dissection.Meta,
		Buckets:       e.Dissection.Buckets(),
	}, nil
}
