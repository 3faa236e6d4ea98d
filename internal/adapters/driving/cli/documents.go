package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	documentsConnectionID string
	deleteIndexedData     bool
	deleteDocumentsFlag   bool
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage ingested documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	RunE:  runDocumentsList,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [id...]",
	Short: "Delete ingested documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDocumentsDelete,
}

var connectionsDeleteCmd = &cobra.Command{
	Use:   "delete-connection [id]",
	Short: "Delete a connection and optionally its documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runConnectionDelete,
}

func init() {
	documentsListCmd.Flags().StringVar(&documentsConnectionID, "connection", "", "filter by connection ID")
	documentsDeleteCmd.Flags().BoolVar(&deleteIndexedData, "delete-indexed-data", false, "also delete indexed chunks")
	connectionsDeleteCmd.Flags().BoolVar(&deleteDocumentsFlag, "delete-documents", false, "also delete the connection's documents")
	connectionsDeleteCmd.Flags().BoolVar(&deleteIndexedData, "delete-indexed-data", false, "also delete indexed chunks")

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	documentsCmd.AddCommand(connectionsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	docs, err := documentService.ListDocuments(ctx, documentsConnectionID)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		cmd.Println("No documents.")
		return nil
	}

	for _, doc := range docs {
		count, err := documentService.IndexedDocumentCount(ctx, []string{doc.ID})
		if err != nil {
			return fmt.Errorf("count indexed chunks for %s: %w", doc.ID, err)
		}
		cmd.Printf("  %s  %s (%d bytes, %d chunks indexed)\n", doc.ID, doc.Name, doc.Size, count)
	}
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if err := documentService.RemoveDocuments(context.Background(), args, deleteIndexedData); err != nil {
		return err
	}
	cmd.Printf("Deleted %d documents.\n", len(args))
	return nil
}

func runConnectionDelete(cmd *cobra.Command, args []string) error {
	err := documentService.RemoveConnection(context.Background(), args[0], deleteDocumentsFlag, deleteIndexedData)
	if err != nil {
		return err
	}
	cmd.Printf("Deleted connection %s.\n", args[0])
	return nil
}
