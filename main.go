package main

import (
	"fmt"
	"os"

	"github.com/carwyn987/Drone-Avoidance/benchmarks"
)

func main() {
	rootCommand := benchmarks.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
