package serve

import (
	"encoding/json"

	"github.com/praetorian-inc/wildscan/pkg/scanner"
)

// Request is one NDJSON line read from the client.
type Request struct {
	Type    string          `json:"type"` // "scan" | "scan_batch" | "match" | "close"
	Payload json.RawMessage `json:"payload"`
}

// ScanPayload is the payload for "scan" requests.
type ScanPayload struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// ScanBatchPayload is the payload for "scan_batch" requests.
type ScanBatchPayload struct {
	Items []scanner.ContentItem `json:"items"`
}

// MatchPayload is the payload for "match" requests: an ad-hoc pattern run
// against a single text without touching the loaded pattern set.
type MatchPayload struct {
	Pattern  string `json:"pattern"`
	Text     string `json:"text"`
	Wildcard string `json:"wildcard,omitempty"` // defaults to "?"
}

// MatchData is the data field for "match" responses.
type MatchData struct {
	Count   int   `json:"count"`
	Offsets []int `json:"offsets"`
}

// Response is one NDJSON line written to the client.
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"`              // "ready" | "scan" | "scan_batch" | "match" | "error"
	Request string          `json:"request,omitempty"` // request type an error refers to
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is the data field for "ready" responses.
type ReadyData struct {
	Version  string `json:"version"`
	Patterns int    `json:"patterns"`
}
