package matcher

import "bytes"

// ExtractContext returns up to lines full lines before content[start:end]
// (plus the part of the match's first line preceding start) and up to lines
// lines after it. The returned slices are copies, so keeping them does not
// pin content in memory.
func ExtractContext(content []byte, start, end int, lines int) (before, after []byte) {
	if lines <= 0 || start < 0 || end > len(content) || start > end {
		return nil, nil
	}

	if b := linesBefore(content, start, lines); len(b) > 0 {
		before = bytes.Clone(b)
	}
	if a := linesAfter(content, end, lines); len(a) > 0 {
		after = bytes.Clone(a)
	}
	return before, after
}

func linesBefore(content []byte, start, lines int) []byte {
	cut := start
	for k := 0; k <= lines; k++ {
		idx := bytes.LastIndexByte(content[:cut], '\n')
		if idx < 0 {
			return content[:start]
		}
		cut = idx
	}
	return content[cut+1 : start]
}

func linesAfter(content []byte, end, lines int) []byte {
	if end >= len(content) {
		return nil
	}

	// A newline right after the match terminates the match's own line.
	from := end
	if content[end] == '\n' {
		from++
	}

	cut := from
	for k := 0; k < lines; k++ {
		idx := bytes.IndexByte(content[cut:], '\n')
		if idx < 0 {
			return content[from:]
		}
		cut += idx + 1
	}
	return content[from:cut]
}
