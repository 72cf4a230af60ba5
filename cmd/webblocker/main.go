// Author @gajzzs
package main

import (
	"fmt"
	"os"

	"github.com/gajzzs/webblocker/internal/app"
	"github.com/gajzzs/webblocker/internal/privilege"
)

func main() {
	if err := app.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := privilege.Hint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
