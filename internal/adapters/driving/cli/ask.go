package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question against the indexed corpus",
	Long: `Retrieves the most relevant indexed chunks for the question and asks
the configured language model for a grounded answer. Sources are listed
below the answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	question := strings.Join(args, " ")

	answer, err := answerService.Ask(context.Background(), question)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(answer.Text)

	if len(answer.Sources) > 0 {
		cmd.Println("\nSources:")
		for i, src := range answer.Sources {
			label := src.Title
			if label == "" {
				label = src.DocumentID
			}
			if src.URL != "" {
				cmd.Printf("  [%d] %s (%s) score=%.2f\n", i+1, label, src.URL, src.Score)
			} else {
				cmd.Printf("  [%d] %s score=%.2f\n", i+1, label, src.Score)
			}
		}
	}
	return nil
}
