package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/openrung/rung"
)

func printResult(result rung.Result) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	for _, name := range result.Reverted {
		green.Printf("  reverted  %s\n", name)
	}
	for _, name := range result.Applied {
		green.Printf("  applied   %s\n", name)
	}

	switch result.Outcome {
	case rung.OutcomeApplied:
		fmt.Printf("Applied %d migration(s) in batch %d.\n", len(result.Applied), result.Batch)
	case rung.OutcomeReverted:
		fmt.Printf("Reverted %d migration(s).\n", len(result.Reverted))
	case rung.OutcomeNothingToDo:
		fmt.Println("Nothing to do.")
	case rung.OutcomeFailed:
		red.Println("Migration run halted.")
	}
}
