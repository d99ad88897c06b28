// Command funcagent runs the function-calling loop against a configured
// backend with a small calculator tool set.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(appOptions{}).Execute(); err != nil {
		os.Exit(1)
	}
}
