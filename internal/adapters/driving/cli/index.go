package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/keepsake-labs/memoir-cli/internal/connectors/chatexport"
	"github.com/keepsake-labs/memoir-cli/internal/connectors/textfiles"
	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driven"
)

var (
	indexChat       bool
	indexImportance bool
	indexWatch      bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Ingest and index personal data",
	Long: `Ingests documents from a path and indexes them into the vector store.
With --chat the path is treated as a normalized chat export; otherwise it
is a directory of text files. With --watch the directory is watched and
changed files are re-indexed until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexChat, "chat", false, "treat the path as a chat export")
	indexCmd.Flags().BoolVar(&indexImportance, "importance", false, "compute importance scores eagerly")
	indexCmd.Flags().BoolVar(&indexWatch, "watch", false, "watch the directory and re-index changes")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := context.Background()

	var connector driven.Connector
	if indexChat {
		connector = chatexport.New(path)
	} else {
		connector = textfiles.New(path)
	}
	defer connector.Close()

	if err := connector.Validate(ctx); err != nil {
		return err
	}

	docs, err := connector.Fetch(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		cmd.Println("Nothing to index.")
		return nil
	}

	conn := &domain.DocumentConnection{
		ConnectorName: connector.Name(),
		Configuration: map[string]any{"path": path},
	}
	indexed, err := ingestAndIndex(ctx, conn, docs)
	if err != nil {
		return err
	}
	cmd.Printf("Indexed %d chunks from %d documents.\n", indexed, len(docs))

	if indexWatch {
		return watchAndReindex(cmd, connector, conn)
	}
	return nil
}

// ingestAndIndex stores raw documents and indexes their chunks, returning
// the chunk count.
func ingestAndIndex(ctx context.Context, conn *domain.DocumentConnection, docs []domain.RawDocument) (int, error) {
	saved, err := documentService.Ingest(ctx, conn, docs)
	if err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(saved))
	for _, doc := range saved {
		ids = append(ids, doc.ID)
	}

	indexed, err := documentService.IndexDocuments(ctx, ids, indexChat, indexImportance)
	if err != nil {
		return 0, err
	}
	return len(indexed), nil
}

// watchAndReindex re-ingests documents as the connector reports changes,
// until interrupted.
func watchAndReindex(cmd *cobra.Command, connector driven.Connector, conn *domain.DocumentConnection) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	changes, err := connector.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	cmd.Println("Watching for changes; press Ctrl+C to stop.")
	for doc := range changes {
		// A changed file replaces its earlier version: reuse the stored
		// document and drop its stale chunks before re-indexing.
		if id, err := findDocumentID(ctx, conn.ID, doc.Name); err == nil && id != "" {
			doc.ID = id
			if _, err := documentService.UnindexDocuments(ctx, []string{id}); err != nil {
				cmd.PrintErrf("Failed to unindex %s: %v\n", doc.Name, err)
				continue
			}
		}

		indexed, err := ingestAndIndex(ctx, conn, []domain.RawDocument{doc})
		if err != nil {
			cmd.PrintErrf("Failed to re-index %s: %v\n", doc.Name, err)
			continue
		}
		cmd.Printf("Re-indexed %s (%d chunks).\n", doc.Name, indexed)
	}
	return nil
}

// findDocumentID resolves a stored document by name within a connection.
func findDocumentID(ctx context.Context, connectionID, name string) (string, error) {
	docs, err := documentService.ListDocuments(ctx, connectionID)
	if err != nil {
		return "", err
	}
	for _, doc := range docs {
		if doc.Name == name {
			return doc.ID, nil
		}
	}
	return "", nil
}
