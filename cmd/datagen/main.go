package main

import (
	"fmt"
	"os"
)

func main() {
	root, a := newRootCommand()
	err := root.Execute()
	if closeErr := a.close(); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "datagen: %v\n", err)
		os.Exit(1)
	}
}
