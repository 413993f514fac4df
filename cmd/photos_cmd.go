package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func photosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photos",
		Short: "Upload and list photos for a form session",
	}
	cmd.AddCommand(photosUploadCmd())
	cmd.AddCommand(photosPendingCmd())
	return cmd
}

func photosUploadCmd() *cobra.Command {
	var fieldName string

	cmd := &cobra.Command{
		Use:   "upload <formSessionId> <file>",
		Short: "Upload a captured photo to the paired device's form session",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			app := buildApp()
			defer app.close()

			f, err := os.Open(args[1])
			if err != nil {
				fatalf("Error: %s", err)
			}
			defer f.Close()

			err = app.gateway.UploadPhoto(context.Background(), args[0], fieldName, filepath.Base(args[1]), f)
			if err != nil {
				fatalf("Error: %s", err)
			}
			fmt.Printf("Uploaded %s as %s.\n", args[1], fieldName)
		},
	}

	cmd.Flags().StringVar(&fieldName, "field", "front_image", "target field (front_image or back_image)")
	return cmd
}

func photosPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending <formSessionId>",
		Short: "List photos the server is holding for a form session",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			app := buildApp()
			defer app.close()

			photos, err := app.gateway.PendingPhotos(context.Background(), args[0])
			if err != nil {
				fatalf("Error: %s", err)
			}
			if len(photos) == 0 {
				fmt.Println("No pending photos.")
				return
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PHOTO ID\tFIELD\tURL")
			for _, p := range photos {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.PhotoID, p.FieldName, p.ImageURL)
			}
			w.Flush()
		},
	}
}
