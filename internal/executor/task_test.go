package executor

import (
	"os/exec"
	"testing"
)

func TestTaskPublishOut(t *testing.T) {
	tests := map[string]struct {
		lines    []string
		capacity int
		expLast  string
		expTail  []string
	}{
		"single line":       {lines: []string{"hello"}, capacity: 20, expLast: "hello", expTail: []string{"hello"}},
		"empty line ignored": {lines: []string{"a", "", "b"}, capacity: 20, expLast: "b", expTail: []string{"a", "b"}},
		"tail bounded":       {lines: []string{"a", "b", "c"}, capacity: 2, expLast: "c", expTail: []string{"b", "c"}},
		"tail disabled":      {lines: []string{"a", "b"}, capacity: 0, expLast: "b", expTail: nil},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			tsk := newTask(0, 1, &exec.Cmd{}, nil)
			for _, line := range test.lines {
				tsk.publishOut(line, test.capacity)
			}

			if got := tsk.snapshotOut(); got != test.expLast {
				t.Fatalf("snapshotOut() = %q, want %q", got, test.expLast)
			}

			got := tsk.snapshotTail()
			if len(got) != len(test.expTail) {
				t.Fatalf("snapshotTail() = %v, want %v", got, test.expTail)
			}
			for i := range got {
				if got[i] != test.expTail[i] {
					t.Fatalf("snapshotTail()[%d] = %q, want %q", i, got[i], test.expTail[i])
				}
			}
		})
	}
}

func TestTaskPublishErr(t *testing.T) {
	tsk := newTask(0, 1, &exec.Cmd{}, nil)

	if got := tsk.snapshotErr(); got != "" {
		t.Fatalf("snapshotErr() on fresh task = %q, want empty", got)
	}

	tsk.publishErr("boom")
	if got := tsk.snapshotErr(); got != "boom" {
		t.Fatalf("snapshotErr() = %q, want %q", got, "boom")
	}

	tsk.publishErr("")
	if got := tsk.snapshotErr(); got != "boom" {
		t.Fatalf("snapshotErr() after empty publish = %q, want unchanged %q", got, "boom")
	}
}
