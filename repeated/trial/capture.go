package trial

import (
	"bytes"
	"io"
	"os"
	"sync"
)

// captureMu serialises redirection of the process-wide output streams.
var captureMu sync.Mutex

// captureOutput runs fn with os.Stdout and os.Stderr redirected into a pipe
// and returns what was written. The original streams are restored when fn
// returns or panics.
func captureOutput(fn func()) (output string) {
	captureMu.Lock()
	defer captureMu.Unlock()

	r, w, err := os.Pipe()
	if err != nil {
		fn()
		return ""
	}

	var (
		buf  bytes.Buffer
		done = make(chan struct{})
	)
	go func() {
		defer close(done)
		_, _ = io.Copy(&buf, r)
	}()

	stdout, stderr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = w, w
	defer func() {
		os.Stdout, os.Stderr = stdout, stderr
		_ = w.Close()
		<-done
		_ = r.Close()
		output = buf.String()
	}()

	fn()
	return ""
}
