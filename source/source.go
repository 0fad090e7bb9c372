// Package source holds the source text being compiled, along with a
// line-indexed view used to slice diagnostic excerpts.
//
// This is the idiomatic-Go translation of original_source/src/source.rs's
// streaming position tracker: since a Go diagnostic needs random access
// into source text that has already been read in full (rather than a
// byte-at-a-time InputStream), the line table is built once up front and
// looked up by binary search instead of advanced incrementally.
package source

import (
	"sort"

	"github.com/skx/animationled-compiler/token"
)

// File is an immutable, named source text plus its line-start index.
type File struct {
	Name  string
	Text  string
	lines []int // byte offset of the start of each line; lines[0] == 0
}

// New builds a File, indexing the byte offset of every line start.
func New(name, text string) *File {
	f := &File{Name: name, Text: text, lines: []int{0}}
	for i, c := range text {
		if c == '\n' {
			f.lines = append(f.lines, i+1)
		}
	}
	return f
}

// LineCount returns the number of lines in the file.
func (f *File) LineCount() int {
	return len(f.lines)
}

// Line returns the text of the given 1-based line number, without its
// trailing newline. An out-of-range line returns "".
func (f *File) Line(n int) string {
	if n < 1 || n > len(f.lines) {
		return ""
	}
	start := f.lines[n-1]
	end := len(f.Text)
	if n < len(f.lines) {
		end = f.lines[n] - 1
	}
	if end > len(f.Text) {
		end = len(f.Text)
	}
	if start > end {
		return ""
	}
	return f.Text[start:end]
}

// PositionAt converts a byte offset into a Position, by binary-searching
// the line table.
func (f *File) PositionAt(offset int) token.Position {
	idx := sort.Search(len(f.lines), func(i int) bool { return f.lines[i] > offset }) - 1
	if idx < 0 {
		idx = 0
	}
	return token.Position{Line: idx + 1, Col: offset - f.lines[idx] + 1}
}

// EOF returns the position just past the end of the file.
func (f *File) EOF() token.Position {
	return f.PositionAt(len(f.Text))
}
