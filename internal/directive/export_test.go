package directive

import "go/token"

// Add exports the ability to add an entry to IgnoreMap for external tests.
// File-level entries (line = -1) start as used, like BuildIgnoreMap makes them.
func (m IgnoreMap) Add(line int, pos token.Pos) {
	m[line] = &ignoreEntry{pos: pos, used: line == fileLevel}
}
