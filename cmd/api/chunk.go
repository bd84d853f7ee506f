package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/botgpt/internal/core/ingestion_engine"
)

var (
	chunkSize    int
	chunkOverlap int
)

var chunkCmd = &cobra.Command{
	Use:   "chunk <file>",
	Short: "Extract a local file and print the chunks it would be stored as",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunk,
}

func init() {
	chunkCmd.Flags().IntVar(&chunkSize, "size", ingestion_engine.DefaultChunkSize, "chunk size in characters")
	chunkCmd.Flags().IntVar(&chunkOverlap, "overlap", ingestion_engine.DefaultChunkOverlap, "overlap between chunks in characters")
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	chunker, err := ingestion_engine.NewChunker(chunkSize, chunkOverlap)
	if err != nil {
		return err
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text, err := ingestion_engine.NewDocconvExtractor(false).
		ExtractText(cmd.Context(), data, mime.TypeByExtension(filepath.Ext(path)), filepath.Base(path))
	if err != nil {
		return fmt.Errorf("extracting %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	spans := chunker.Split(text)
	for i, s := range spans {
		fmt.Fprintf(out, "--- chunk %d [%d, %d) %d chars\n%s\n", i, s.Start, s.End, s.End-s.Start, s.Content)
	}
	fmt.Fprintf(out, "%d chunks\n", len(spans))
	return nil
}
