// Command embedview exercises the embedview runtime from the command line.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/go-drift/embedview/cmd/embedview/cmd"
)

func init() {
	// Keep main on the process main thread so it can pump main-thread
	// work on platforms that require it.
	runtime.LockOSThread()
}

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
