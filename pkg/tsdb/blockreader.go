package tsdb

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding"
)

// DefaultBlockSize is the number of bytes read per block when no override is
// configured on the Driver.
const DefaultBlockSize = 8192

// blockReader streams the lines of an open file forward or backward in
// fixed-size block reads, in constant memory, independent of file size. It
// is the Go rendering of the source's generator-based `_read_lines`: a
// pull-based iterator rather than a channel, so a caller (Cursor) can stop
// reading mid-file without leaking anything.
type blockReader struct {
	f         *os.File
	blockSize int
	reverse   bool
	enc       encoding.Encoding // nil means the bytes are already UTF-8/ASCII.

	started   bool
	offset    int64 // reverse mode: next read ends here.
	remainder []byte
	pending   [][]byte // lines ready to be yielded, most-recent-first pop.
	done      bool
}

// newBlockReader constructs a blockReader over f. blockSize <= 0 uses
// DefaultBlockSize.
func newBlockReader(f *os.File, reverse bool, blockSize int, enc encoding.Encoding) *blockReader {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	return &blockReader{f: f, blockSize: blockSize, reverse: reverse, enc: enc}
}

// Next returns the next line (newline excluded, blank lines skipped) in the
// reader's direction. ok is false once the file is exhausted.
func (r *blockReader) Next() (line string, ok bool, err error) {
	for {
		if len(r.pending) > 0 {
			n := len(r.pending) - 1
			raw := r.pending[n]
			r.pending = r.pending[:n]

			if len(raw) == 0 {
				continue
			}

			decoded, derr := r.decode(raw)
			if derr != nil {
				return "", false, derr
			}

			return decoded, true, nil
		}

		if r.done {
			return "", false, nil
		}

		if err := r.fillBlock(); err != nil {
			return "", false, err
		}
	}
}

// fillBlock reads the next block (if any remain) and splits it into
// pending lines, handling the straddling remainder exactly as the source
// does for both directions.
func (r *blockReader) fillBlock() error {
	if !r.started {
		r.started = true

		if r.reverse {
			end, err := r.f.Seek(0, io.SeekEnd)
			if err != nil {
				return fmt.Errorf("error seeking to end: %w", err)
			}

			r.offset = end
		} else {
			if _, err := r.f.Seek(0, io.SeekStart); err != nil {
				return fmt.Errorf("error seeking to start: %w", err)
			}
		}
	}

	block, ok, err := r.readNextBlock()
	if err != nil {
		return err
	}

	if !ok {
		r.done = true

		if len(r.remainder) > 0 {
			rem := r.remainder
			r.remainder = nil
			r.pending = [][]byte{rem}
		}

		return nil
	}

	parts := bytes.Split(block, []byte("\n"))

	if r.remainder != nil {
		if !r.reverse {
			parts[0] = append(append([]byte{}, r.remainder...), parts[0]...)
		} else {
			last := len(parts) - 1
			parts[last] = append(append([]byte{}, parts[last]...), r.remainder...)
		}
	}

	if !r.reverse {
		last := len(parts) - 1
		r.remainder = parts[last]

		body := parts[:last]
		r.pending = make([][]byte, len(body))
		for i, p := range body {
			r.pending[len(body)-1-i] = p
		}
	} else {
		r.remainder = parts[0]

		body := parts[1:]
		r.pending = make([][]byte, len(body))
		copy(r.pending, body)
	}

	return nil
}

// readNextBlock reads the next block of raw bytes in the reader's
// direction. ok is false when there is nothing left to read.
func (r *blockReader) readNextBlock() ([]byte, bool, error) {
	if r.reverse {
		if r.offset <= 0 {
			return nil, false, nil
		}

		size := int64(r.blockSize)
		if size > r.offset {
			size = r.offset
		}

		r.offset -= size

		buf := make([]byte, size)
		if _, err := r.f.ReadAt(buf, r.offset); err != nil && err != io.EOF {
			return nil, false, fmt.Errorf("error reading block: %w", err)
		}

		return buf, true, nil
	}

	buf := make([]byte, r.blockSize)

	n, err := r.f.Read(buf)
	if n == 0 {
		if err != nil && err != io.EOF {
			return nil, false, fmt.Errorf("error reading block: %w", err)
		}

		return nil, false, nil
	}

	return buf[:n], true, nil
}

func (r *blockReader) decode(raw []byte) (string, error) {
	if r.enc == nil {
		return string(raw), nil
	}

	decoded, err := r.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("error decoding line: %w", err)
	}

	return string(decoded), nil
}
