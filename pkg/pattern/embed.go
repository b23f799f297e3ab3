package pattern

import "embed"

// builtinFS holds the builtin patterns and pattern sets.
//
//go:embed patterns/*.yml patternsets/*.yml
var builtinFS embed.FS
