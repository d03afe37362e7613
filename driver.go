package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/goguard/bridgelower/goload"
	"github.com/goguard/bridgelower/hierarchy"
	"github.com/goguard/bridgelower/ir"
	"github.com/goguard/bridgelower/irfb"
	"github.com/goguard/bridgelower/lower"
)

// LowerResult is a lowered unit plus what the lowering did to it.
type LowerResult struct {
	Unit    *ir.Unit     `json:"unit"`
	Stats   *lower.Stats `json:"stats"`
	Version string       `json:"version"`
}

// Source selects the unit to lower: a JSON file, or Go packages.
type Source struct {
	InputPath string
	Dir       string
	Patterns  []string
}

func (s Source) describe() []string {
	if s.InputPath != "" {
		return []string{s.InputPath}
	}
	return append([]string{s.Dir}, s.Patterns...)
}

// Lower runs the bridge lowering over a linked unit.
func Lower(ctx context.Context, unit *ir.Unit, cfg *Config, log *slog.Logger) (*LowerResult, error) {
	stats, err := lower.Run(ctx, unit, hierarchy.New(unit), lower.Options{
		Parallelism: cfg.Lowering.Parallelism,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}
	return &LowerResult{Unit: unit, Stats: stats, Version: Version}, nil
}

// LowerJSON decodes a JSON unit and lowers it.
func LowerJSON(ctx context.Context, data []byte, cfg *Config, log *slog.Logger) (*LowerResult, error) {
	unit, err := ir.DecodeUnit(data)
	if err != nil {
		return nil, err
	}
	return Lower(ctx, unit, cfg, log)
}

// LowerGo loads Go packages and lowers the unit built from them.
func LowerGo(ctx context.Context, dir string, patterns []string, cfg *Config, log *slog.Logger) (*LowerResult, error) {
	unit, err := goload.Load(dir, patterns)
	if err != nil {
		return nil, err
	}
	return Lower(ctx, unit, cfg, log)
}

// Encode renders a result in the given output format.
func Encode(result *LowerResult, format string) ([]byte, error) {
	switch format {
	case FormatFlatBuffers:
		return irfb.Encode(result.Unit, result.Stats), nil
	case FormatJSON:
		return json.Marshal(result)
	case FormatText:
		var b strings.Builder
		if err := ir.Dump(&b, result.Unit); err != nil {
			return nil, err
		}
		fmt.Fprintf(&b, "# classes=%d bridges=%d rewritten=%d virtual=%d\n",
			result.Stats.Classes, result.Stats.BridgesAdded, result.Stats.CallsRewritten, result.Stats.CallsVirtual)
		return []byte(b.String()), nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// LowerWithCache lowers src and encodes the result, consulting the cache
// in cfg.Cache.Dir first. An empty cache dir disables caching.
func LowerWithCache(ctx context.Context, src Source, cfg *Config, log *slog.Logger) ([]byte, error) {
	format := cfg.Output.Format

	var input []byte
	if src.InputPath != "" {
		data, err := os.ReadFile(src.InputPath)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		input = data
	}
	run := func() ([]byte, error) {
		var (
			result *LowerResult
			err    error
		)
		if src.InputPath != "" {
			result, err = LowerJSON(ctx, input, cfg, log)
		} else {
			result, err = LowerGo(ctx, src.Dir, src.Patterns, cfg, log)
		}
		if err != nil {
			return nil, err
		}
		return Encode(result, format)
	}

	if cfg.Cache.Dir == "" {
		return run()
	}
	cache := &Cache{Dir: cfg.Cache.Dir, MaxEntries: cfg.Cache.MaxEntries, Logger: log}

	var fingerprint string
	if src.InputPath != "" {
		fingerprint = FingerprintInput(input, format)
	} else {
		fp, err := FingerprintTree(src.Dir, src.Patterns, format)
		if err != nil {
			log.Warn("cache fingerprint failed", "err", err)
			return run()
		}
		fingerprint = fp
	}

	if payload, ok := cache.Get(fingerprint); ok {
		log.Info("cache hit", "fingerprint", fingerprint[:12])
		return payload, nil
	}
	log.Info("cache miss, lowering", "fingerprint", fingerprint[:12])

	payload, err := run()
	if err != nil {
		return nil, err
	}
	if putErr := cache.Put(fingerprint, payload, format, src.describe()); putErr != nil {
		log.Warn("cache store failed", "err", putErr)
	}
	return payload, nil
}
