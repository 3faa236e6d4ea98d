package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List data source connections",
	Long: `Lists the connector-level connections that documents were ingested
under, with their document counts.`,
	RunE: runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	conns, err := rawStore.ListConnections(ctx)
	if err != nil {
		return err
	}
	if len(conns) == 0 {
		cmd.Println("No sources.")
		return nil
	}

	for _, conn := range conns {
		docs, err := documentService.ListDocuments(ctx, conn.ID)
		if err != nil {
			return err
		}
		path, _ := conn.Configuration["path"].(string)
		if path == "" {
			path = "-"
		}
		cmd.Printf("  %s  %s  %s (%d documents)\n", conn.ID, conn.ConnectorName, path, len(docs))
	}
	return nil
}
