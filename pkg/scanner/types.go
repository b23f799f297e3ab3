package scanner

import "github.com/praetorian-inc/wildscan/pkg/types"

// ContentItem is one piece of content submitted for scanning.
type ContentItem struct {
	Source   string            `json:"source"`  // e.g. "script:inline:1", "file:config.ini"
	Content  string            `json:"content"` // the text to scan
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ScanResult holds the matches for a single item.
type ScanResult struct {
	Source  string         `json:"source"`
	Matches []*types.Match `json:"matches"`
	Error   string         `json:"error,omitempty"`
}

// BatchScanResult holds the results for a batch of items.
type BatchScanResult struct {
	Results []ScanResult `json:"results"`
	Total   int          `json:"total"`
}
