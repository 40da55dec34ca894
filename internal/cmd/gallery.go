package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/MeKo-Tech/landscape/internal/encode"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Inspect a render gallery",
}

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored renders, newest first",
	RunE:  runGalleryList,
}

var galleryExportCmd = &cobra.Command{
	Use:   "export <key>",
	Short: "Write a stored render to a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runGalleryExport,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
	galleryCmd.AddCommand(galleryListCmd, galleryExportCmd)

	galleryCmd.PersistentFlags().String("file", "gallery.db", "Gallery database path")
	galleryExportCmd.Flags().StringP("output", "o", "", "Output file (default: <key>.<ext>)")

	if err := viper.BindPFlag("gallery.file", galleryCmd.PersistentFlags().Lookup("file")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

func runGalleryList(cmd *cobra.Command, args []string) error {
	store, err := openGallery(viper.GetString("gallery.file"))
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(context.Background())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tFORMAT\tSIZE\tSEED\tCREATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%d\t%s\n",
			e.Key, e.Format, e.Width, e.Height, e.Seed, e.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func runGalleryExport(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	store, err := openGallery(viper.GetString("gallery.file"))
	if err != nil {
		return err
	}
	defer store.Close()

	key := args[0]
	entry, err := store.Get(context.Background(), key)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		ext := ".png"
		if f, err := encode.ParseFormat(entry.Format); err == nil {
			ext = f.Extension()
		}
		output = key + ext
	}
	if err := os.WriteFile(output, entry.Data, 0644); err != nil {
		return fmt.Errorf("failed to write render: %w", err)
	}
	logger.Info("Render exported", "key", key, "path", output, "bytes", len(entry.Data))
	return nil
}
