package worldgen

import (
	"runtime"
	"strings"
)

// workerFrame identifies goroutines running a generation task.
const workerFrame = "worldgen.(*Scheduler).execute"

// allStacks returns the stack traces of every goroutine.
func allStacks() string {
	buf := make([]byte, 64<<10)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return string(buf[:n])
		}
		if len(buf) >= 64<<20 {
			return string(buf[:n])
		}
		buf = make([]byte, len(buf)*2)
	}
}

// workerStacks returns the stack traces of generation worker goroutines,
// separated by blank lines, and how many there were.
func workerStacks() (string, int) {
	var kept []string
	for _, g := range strings.Split(allStacks(), "\n\n") {
		if strings.Contains(g, workerFrame) {
			kept = append(kept, g)
		}
	}
	return strings.Join(kept, "\n\n"), len(kept)
}
