// Package reader turns raw .evt source into semicolon-terminated statement
// chunks. It runs in two stages: a line-oriented preprocessor evaluating
// @-directives, followed by a block reader that tracks comment and string
// state so that ';' and '#' inside string literals are not misread as
// terminators or comment starts.
package reader

import (
	"bufio"
	"io"
	"strings"

	compilererrors "github.com/evtlang/evtc/internal/compiler/errors"
)

type readerState int

const (
	stateDefault readerState = iota
	stateInComment
	stateInString
)

// BlockReader produces trimmed, semicolon-terminated chunks from a
// character stream. Each call to Next advances the shared line counter so
// that diagnostics can point at the chunk's terminating line.
type BlockReader struct {
	r    *bufio.Reader
	line int
}

// NewBlockReader creates a block reader starting at line 1.
func NewBlockReader(r io.Reader) *BlockReader {
	return &BlockReader{r: bufio.NewReader(r), line: 1}
}

// Line returns the current line number.
func (br *BlockReader) Line() int { return br.line }

// Next returns the next chunk including its terminating ';'. At a clean end
// of input it returns ("", io.EOF). Input ending with a non-empty pending
// chunk is an "unexpected end of file" error; a ';' with nothing before it
// is an "empty block" error.
func (br *BlockReader) Next() (string, error) {
	var chunk strings.Builder
	state := stateDefault
	prev := byte(0)

	for {
		cur, err := br.r.ReadByte()
		if err == io.EOF {
			if strings.TrimSpace(chunk.String()) == "" {
				return "", io.EOF
			}
			return "", compilererrors.NewSyntax(compilererrors.CodeUnexpectedEOF, "unexpected end of file")
		}
		if err != nil {
			return "", err
		}

		switch state {
		case stateDefault:
			if cur == '"' && prev != '\\' {
				state = stateInString
			}

			if cur == '#' && prev != '\\' {
				state = stateInComment
				continue
			}

			if cur == '\n' {
				br.line++
			}

			if cur == ';' {
				trimmed := strings.TrimSpace(chunk.String())
				if trimmed == "" {
					return "", compilererrors.NewSyntax(compilererrors.CodeEmptyBlock, "empty block")
				}
				return trimmed + ";", nil
			}

		case stateInString:
			if cur == '"' && prev != '\\' {
				state = stateDefault
			}

			if cur == '\n' {
				br.line++
			}

		case stateInComment:
			if cur != '\n' {
				continue
			}
			state = stateDefault
			br.line++
		}

		chunk.WriteByte(cur)
		prev = cur
	}
}
