package httpserver

import (
	"fmt"
	"io"
)

// chunkedWriter frames each Write call as one HTTP/1.1 chunked-transfer-
// encoding chunk. Used for the "Chunked" framing mode of spec.md §4.3's
// table; the "Fixed huge" mode writes straight to the connection instead.
type chunkedWriter struct {
	w io.Writer
}

func (c chunkedWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if _, err := fmt.Fprintf(c.w, "%x\r\n", len(p)); err != nil {
		return 0, err
	}
	if _, err := c.w.Write(p); err != nil {
		return 0, err
	}
	if _, err := io.WriteString(c.w, "\r\n"); err != nil {
		return 0, err
	}
	return len(p), nil
}

// close writes the terminating zero-length chunk. Callers that error out
// mid-stream (renderer disconnected) should not bother calling this.
func (c chunkedWriter) close() error {
	_, err := io.WriteString(c.w, "0\r\n\r\n")
	return err
}
