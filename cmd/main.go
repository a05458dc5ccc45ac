package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "prediction-scoreboard",
	Short: "A CLI for managing the prediction scoring and leaderboard services",
	Long:  `Prediction Scoreboard ingests script-generated predictions, reconciles them against realized market outcomes, and ranks users by predictive accuracy.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'", err)
		os.Exit(1)
	}
}
