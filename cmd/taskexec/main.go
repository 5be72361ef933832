// Command taskexec is the interactive task executor's entry point: it reads
// commands from stdin, spawns child processes as tasks, and reports their
// lifecycle on stdout.
package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rpelka/taskexec/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], signalTerminatedStdin(), os.Stdout))
}

// signalTerminatedStdin wraps os.Stdin so that delivery of SIGINT or SIGTERM
// to this process is treated as end-of-input by the dispatcher loop,
// triggering the same shutdown controller path as the "quit" command. This
// makes the executor well-behaved under a process supervisor without
// changing the stdin protocol itself.
func signalTerminatedStdin() io.Reader {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	pr, pw := io.Pipe()
	go func() {
		io.Copy(pw, os.Stdin)
		pw.Close()
	}()
	go func() {
		<-sigCh
		pw.CloseWithError(io.EOF)
	}()

	return pr
}
