// Package serve exposes a scanner.Core over a newline-delimited JSON
// protocol on a pair of streams, typically stdin and stdout.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/praetorian-inc/wildscan/pkg/scanner"
	"github.com/praetorian-inc/wildscan/pkg/wildcard"
)

// Version is the server protocol version.
const Version = "1.1.0"

// Server answers NDJSON requests with a scanner.Core.
type Server struct {
	core    *scanner.Core
	encoder *json.Encoder
	decoder *json.Decoder
	logger  *slog.Logger
}

// NewServer creates a server reading requests from in and writing
// responses to out.
func NewServer(core *scanner.Core, in io.Reader, out io.Writer) *Server {
	return &Server{
		core:    core,
		encoder: json.NewEncoder(out),
		decoder: json.NewDecoder(bufio.NewReader(in)),
		logger:  slog.Default(),
	}
}

// WithLogger sets the logger used for request diagnostics.
func (s *Server) WithLogger(logger *slog.Logger) *Server {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Run sends the ready signal and serves requests until the input ends, a
// close request arrives, or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.respond("ready", ReadyData{Version: Version, Patterns: len(s.core.Patterns())})

	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// A request decoded just before EOF may still be queued.
			select {
			case req := <-reqChan:
				if s.processRequest(req) {
					return nil
				}
			default:
			}
			if !errors.Is(err, io.EOF) {
				s.fail("decode", err)
			}
			return nil
		case req := <-reqChan:
			if s.processRequest(req) {
				return nil
			}
		}
	}
}

// processRequest handles one request and reports whether to stop.
func (s *Server) processRequest(req Request) bool {
	s.logger.Debug("request", "type", req.Type, "bytes", len(req.Payload))

	switch req.Type {
	case "scan":
		var p ScanPayload
		if s.decode(req, &p) {
			s.reply(req.Type)(s.core.Scan(p.Content, p.Source))
		}
	case "scan_batch":
		var p ScanBatchPayload
		if s.decode(req, &p) {
			s.reply(req.Type)(s.core.ScanBatch(p.Items))
		}
	case "match":
		var p MatchPayload
		if s.decode(req, &p) {
			s.reply(req.Type)(handleMatch(p))
		}
	case "close":
		return true
	default:
		s.fail(req.Type, errors.New("unknown request type: "+req.Type))
	}
	return false
}

func handleMatch(p MatchPayload) (*MatchData, error) {
	wc := wildcard.DefaultWildcard
	if p.Wildcard != "" {
		var err error
		if wc, err = wildcard.ParseWildcard(p.Wildcard); err != nil {
			return nil, err
		}
	}
	offsets := wildcard.FindFuzzyMatches(p.Pattern, p.Text, wc)
	if offsets == nil {
		offsets = []int{}
	}
	return &MatchData{Count: len(offsets), Offsets: offsets}, nil
}

func (s *Server) decode(req Request, v any) bool {
	if err := json.Unmarshal(req.Payload, v); err != nil {
		s.fail(req.Type, err)
		return false
	}
	return true
}

// reply returns a function that sends either the result or the error.
func (s *Server) reply(reqType string) func(any, error) {
	return func(v any, err error) {
		if err != nil {
			s.fail(reqType, err)
			return
		}
		s.respond(reqType, v)
	}
}

func (s *Server) respond(typ string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.fail(typ, err)
		return
	}
	s.write(Response{Success: true, Type: typ, Data: data})
}

func (s *Server) fail(reqType string, err error) {
	s.logger.Debug("request failed", "type", reqType, "error", err)
	s.write(Response{Success: false, Type: "error", Request: reqType, Error: err.Error()})
}

func (s *Server) write(resp Response) {
	if err := s.encoder.Encode(resp); err != nil {
		s.logger.Error("writing response", "type", resp.Type, "error", err)
	}
}
