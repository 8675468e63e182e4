package testjson

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
)

const maxLine = 1 << 20

// ParseStream reads r to EOF and returns the collected results and the
// number of lines that were not JSON events.
func ParseStream(r io.Reader) ([]TestPackageResult, int, error) {
	c := NewCollector()
	malformed, err := Stream(context.Background(), r, c.Add)
	if err != nil {
		return nil, malformed, err
	}
	return c.Results(), malformed, nil
}

type scanned struct {
	line []byte
	err  error
}

// Stream calls fn for every event in r until EOF or ctx is done, and
// returns the number of malformed lines skipped.
//
// The reader is scanned on its own goroutine. When ctx ends, r is closed
// if it is an io.Closer; otherwise the caller must close the source so
// the goroutine can exit.
func Stream(ctx context.Context, r io.Reader, fn ProcessFunc) (int, error) {
	lines := make(chan scanned)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLine)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- scanned{line: line}:
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			select {
			case lines <- scanned{err: err}:
			case <-ctx.Done():
			}
		}
	}()

	malformed := 0
	for {
		select {
		case <-ctx.Done():
			if c, ok := r.(io.Closer); ok {
				_ = c.Close()
			}
			return malformed, ctx.Err()
		case s, ok := <-lines:
			switch {
			case !ok:
				return malformed, nil
			case s.err != nil:
				return malformed, s.err
			case len(s.line) == 0:
				continue
			}
			var e TestEvent
			if err := json.Unmarshal(s.line, &e); err != nil {
				malformed++
				continue
			}
			fn(e)
		}
	}
}
