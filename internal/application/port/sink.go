package port

import "time"

type Sink interface {
	// Live line: overwrite the current line (no newline)
	WriteLive(line string) error
	// Snapshot line: timestamped history line, followed by an empty line the next live redraw can reuse
	WriteSnapshot(ts time.Time, line string) error
	// Plain newline, used before exit
	NewLine() error
}
