package types

// OffsetSpan is the byte range [Start, End).
type OffsetSpan struct {
	Start int64
	End   int64
}

// Len returns the number of bytes covered by the span.
func (s OffsetSpan) Len() int64 {
	return s.End - s.Start
}

// SourcePoint is a 1-based line:column position.
type SourcePoint struct {
	Line   int
	Column int
}

// SourceSpan is a start-end line:column range.
type SourceSpan struct {
	Start SourcePoint
	End   SourcePoint
}

// Location combines byte offsets and source positions.
type Location struct {
	Offset OffsetSpan
	Source SourceSpan
}

// NewLocation builds the Location of content[start:end]. The source end
// points at the last matched byte.
func NewLocation(content []byte, start, end int) Location {
	startLine, startCol := ComputeLineColumn(content, start)
	last := end - 1
	if last < start {
		last = start
	}
	endLine, endCol := ComputeLineColumn(content, last)

	return Location{
		Offset: OffsetSpan{Start: int64(start), End: int64(end)},
		Source: SourceSpan{
			Start: SourcePoint{Line: startLine, Column: startCol},
			End:   SourcePoint{Line: endLine, Column: endCol},
		},
	}
}

// ComputeLineColumn returns the 1-based line and column of byteOffset.
func ComputeLineColumn(content []byte, byteOffset int) (line, column int) {
	line, column = 1, 1
	for i := 0; i < byteOffset && i < len(content); i++ {
		if content[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}

// Snippet contains context around a match.
type Snippet struct {
	Before   []byte
	Matching []byte
	After    []byte
}
