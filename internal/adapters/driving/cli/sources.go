package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured crawl sources",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if sourceRegistry == nil {
			return errors.New("source registry not configured")
		}

		sources := sourceRegistry.List()
		if len(sources) == 0 {
			cmd.Println("No sources configured.")
			return nil
		}

		for _, source := range sources {
			target := source.ListURL
			if target == "" && len(source.Pages) > 0 {
				target = source.Pages[0]
			}
			cmd.Printf("%s\t%s\t%s\n", source.ID, source.Name, target)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
