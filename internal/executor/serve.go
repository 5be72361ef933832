package executor

import (
	"bufio"
	"io"
	"strings"
)

// maxControlLine is the maximum control-stream line length, including the
// trailing line feed (§6).
const maxControlLine = 511

// Serve runs the command dispatcher loop (§4.5) against r until end-of-input
// or a "quit" command, then runs the shutdown controller (§4.6). It returns
// once shutdown has completed.
func (e *Executor) Serve(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, maxControlLine), maxControlLine)

	for scanner.Scan() {
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || tokens[0] == "" {
			e.router.setBusy()
			e.router.setIdleAndDrain()
			continue
		}

		e.router.setBusy()
		quit := e.dispatch(tokens)
		e.router.setIdleAndDrain()

		if quit {
			break
		}
	}

	return e.shutdown()
}
