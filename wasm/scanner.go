//go:build wasm

package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"syscall/js"

	"github.com/praetorian-inc/wildscan/pkg/scanner"
	"github.com/praetorian-inc/wildscan/pkg/wildcard"
)

// Aliases so callers of this package (and its tests) see the wire types.
type (
	ContentItem     = scanner.ContentItem
	ScanResult      = scanner.ScanResult
	BatchScanResult = scanner.BatchScanResult
)

var (
	scanners   = make(map[int]*scanner.Core)
	scannersMu sync.RWMutex
	nextID     int

	discard = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func errorResult(msg string) map[string]any {
	return map[string]any{"error": msg}
}

// newScanner creates a scanner from a patterns document.
// JS: WildscanNewScanner(patterns) -> {handle} or {error}
// patterns is "builtin" (or empty) for the embedded set, otherwise a
// YAML or JSON document with a top-level "patterns" list.
func newScanner(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult("patterns argument required")
	}

	cfg := scanner.Config{Logger: discard}
	if doc := args[0].String(); doc != "" && doc != "builtin" {
		cfg.PatternsYAML = doc
	}

	core, err := scanner.NewCore(cfg)
	if err != nil {
		return errorResult("failed to create scanner: " + err.Error())
	}

	scannersMu.Lock()
	id := nextID
	nextID++
	scanners[id] = core
	scannersMu.Unlock()

	return map[string]any{"handle": id}
}

func lookup(handle int) (*scanner.Core, bool) {
	scannersMu.RLock()
	defer scannersMu.RUnlock()
	core, ok := scanners[handle]
	return core, ok
}

func marshal(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult("failed to marshal results: " + err.Error())
	}
	return string(data)
}

// scan scans a single content string.
// JS: WildscanScan(handle, content, source) -> JSON ScanResult or {error}
func scan(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return errorResult("handle and content arguments required")
	}

	core, ok := lookup(args[0].Int())
	if !ok {
		return errorResult("invalid scanner handle")
	}
	source := ""
	if len(args) > 2 {
		source = args[2].String()
	}

	result, err := core.Scan(args[1].String(), source)
	if err != nil {
		return errorResult("scan failed: " + err.Error())
	}
	return marshal(result)
}

// scanBatch scans a JSON array of content items.
// JS: WildscanScanBatch(handle, itemsJSON) -> JSON BatchScanResult or {error}
func scanBatch(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return errorResult("handle and itemsJSON arguments required")
	}

	core, ok := lookup(args[0].Int())
	if !ok {
		return errorResult("invalid scanner handle")
	}

	var items []ContentItem
	if err := json.Unmarshal([]byte(args[1].String()), &items); err != nil {
		return errorResult("failed to parse items JSON: " + err.Error())
	}

	result, err := core.ScanBatch(items)
	if err != nil {
		return errorResult("batch scan failed: " + err.Error())
	}
	return marshal(result)
}

// match runs one ad-hoc pattern without a scanner.
// JS: WildscanMatch(pattern, text, wildcard?) -> JSON {count, offsets} or {error}
func match(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return errorResult("pattern and text arguments required")
	}

	wc := wildcard.DefaultWildcard
	if len(args) > 2 {
		var err error
		if wc, err = wildcard.ParseWildcard(args[2].String()); err != nil {
			return errorResult(err.Error())
		}
	}

	offsets := wildcard.FindFuzzyMatches(args[0].String(), args[1].String(), wc)
	if offsets == nil {
		offsets = []int{}
	}
	return marshal(map[string]any{"count": len(offsets), "offsets": offsets})
}

// closeScanner releases a scanner.
// JS: WildscanCloseScanner(handle)
func closeScanner(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult("handle argument required")
	}

	handle := args[0].Int()
	scannersMu.Lock()
	core, ok := scanners[handle]
	delete(scanners, handle)
	scannersMu.Unlock()

	if !ok {
		return errorResult("invalid scanner handle")
	}
	core.Close()
	return nil
}

// getBuiltinPatterns returns the embedded patterns as JSON.
// JS: WildscanGetBuiltinPatterns() -> JSON array
func getBuiltinPatterns(this js.Value, args []js.Value) any {
	patterns, err := scanner.GetBuiltinPatterns()
	if err != nil {
		return errorResult("failed to load builtin patterns: " + err.Error())
	}
	return marshal(patterns)
}
