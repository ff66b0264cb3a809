package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heartlinehq/heartline/internal/risk"
)

var assessLexiconPath string

var assessCmd = &cobra.Command{
	Use:   "assess <message>",
	Short: "Score a message with the risk assessor",
	Long: `Run the risk assessor over a message and print the verdict.

Uses the shipped lexicon unless --lexicon points at a YAML override file.
The verdict is exactly what the server would compute for the same text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lex := risk.DefaultLexicon()
		if assessLexiconPath != "" {
			var err error
			lex, err = risk.LoadLexicon(assessLexiconPath)
			if err != nil {
				return err
			}
		}

		message := strings.Join(args, " ")
		a := risk.NewAssessor(lex).Assess(message)

		fmt.Printf("Level:      %s\n", a.Level)
		fmt.Printf("Score:      %d\n", a.Score)
		fmt.Printf("Categories: %s\n", orDash(strings.Join(a.Categories, ", ")))
		fmt.Printf("Keywords:   %s\n", orDash(strings.Join(a.Keywords, ", ")))
		fmt.Printf("Immediate intervention: %s\n", yesNo(a.RequiresImmediateIntervention))

		if len(a.Resources) > 0 {
			fmt.Println("\nResources:")
			for _, r := range a.Resources {
				fmt.Printf("  %s: %s\n", r.Name, r.Contact)
			}
		}
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	rootCmd.AddCommand(assessCmd)
	assessCmd.Flags().StringVar(&assessLexiconPath, "lexicon", "", "YAML file replacing the shipped risk lexicon")
}
