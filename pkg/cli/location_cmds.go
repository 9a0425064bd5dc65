package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newLocateCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "locate <latitude> <longitude>",
		Short: "Upload your current position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid latitude %q: %w", args[0], err)
			}
			lon, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid longitude %q: %w", args[1], err)
			}

			if err := client.UploadLocation(cmd.Context(), lat, lon); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]interface{}{
					"latitude": lat, "longitude": lon, "uploaded": true,
				})
			}
			fmt.Fprintf(os.Stdout, "Uploaded position %.5f, %.5f\n", lat, lon)
			return nil
		},
	}
}

func newLocationsCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "List the locations visible to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			locations, err := client.Locations(cmd.Context())
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, locations)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tLATITUDE\tLONGITUDE\tCAPTURED")
			for _, l := range locations {
				captured := time.UnixMilli(l.Timestamp).Format(time.RFC3339)
				fmt.Fprintf(w, "%s\t%.5f\t%.5f\t%s\n", l.Name, l.Latitude, l.Longitude, captured)
			}
			return w.Flush()
		},
	}
}
