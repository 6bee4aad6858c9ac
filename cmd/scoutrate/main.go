// Command scoutrate validates scouting observations against consensus and
// official results and maintains the scouters' accuracy ratings.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "scoutrate:", err)
		os.Exit(1)
	}
}
