package executor

import (
	"bufio"
	"io"

	"github.com/rpelka/taskexec/internal/log"
)

// runReader drains r line-by-line, publishing each complete line via publish.
// Lines are truncated to maxLine bytes as they are scanned. Any I/O failure
// on the pipe is treated as ordinary end-of-stream: the reader never
// propagates an error, it only logs at debug level and returns.
func runReader(r io.Reader, maxLine int, logger *log.Logger, label string, publish func(string)) {
	// The scan buffer is sized independently of maxLine: truncation to
	// maxLine happens below, after a full line has been read, so a line
	// longer than maxLine does not cut the stream short. A line longer than
	// the 1 MiB scan buffer makes Scan stop with bufio.ErrTooLong, which is
	// handled like any other stream error: the reader returns.
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	for scanner.Scan() {
		line := scanner.Text()
		if len(line) > maxLine {
			line = line[:maxLine]
		}
		publish(line)
	}

	if err := scanner.Err(); err != nil {
		logger.Debugf("%s stream ended: %s", label, err)
	}
}
