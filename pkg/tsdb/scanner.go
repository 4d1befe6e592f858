package tsdb

// lineScanner wraps a blockReader and filters out comment/blank lines,
// tracking a 1-based line number counted in iteration direction (negative
// when the underlying reader runs backward) so a *ParseError raised by a
// caller can report a stable position regardless of scan direction.
type lineScanner struct {
	br      *blockReader
	reverse bool
	lineNo  int
}

func newLineScanner(br *blockReader, reverse bool) *lineScanner {
	return &lineScanner{br: br, reverse: reverse}
}

// next returns the next non-comment, non-blank line, its signed line
// number, and whether a line was available.
func (s *lineScanner) next() (string, int, bool, error) {
	for {
		line, ok, err := s.br.Next()
		if err != nil {
			return "", 0, false, err
		}

		if !ok {
			return "", 0, false, nil
		}

		s.lineNo++

		if isCommentOrBlank(line) {
			continue
		}

		lineNo := s.lineNo
		if s.reverse {
			lineNo = -lineNo
		}

		return line, lineNo, true, nil
	}
}
