package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newSharesCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "shares",
		Short: "Show who can see your location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entry, err := client.Shares(cmd.Context())
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, entry)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Sharing:\t%v\n", entry.IsSharing)
			fmt.Fprintf(w, "Shared with:\t%s\n", strings.Join(entry.SharedWith, ", "))
			fmt.Fprintf(w, "Last updated:\t%s\n", time.UnixMilli(entry.LastUpdated).Format(time.RFC3339))
			return w.Flush()
		},
	}
}

func newShareCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "share <grantee>",
		Short: "Share your location with another user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Share(cmd.Context(), args[0]); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]interface{}{"grantee": args[0], "shared": true})
			}
			fmt.Fprintf(os.Stdout, "Now sharing your location with %s\n", args[0])
			return nil
		},
	}
}

func newUnshareCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "unshare <grantee>",
		Short: "Stop sharing your location with another user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Unshare(cmd.Context(), args[0]); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]interface{}{"grantee": args[0], "shared": false})
			}
			fmt.Fprintf(os.Stdout, "No longer sharing your location with %s\n", args[0])
			return nil
		},
	}
}

func newSharingCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "sharing <on|off>",
		Short: "Turn location sharing on or off",
		Long:  "Turn location sharing on or off. Turning it off also removes your stored location.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch strings.ToLower(args[0]) {
			case "on", "true":
				enabled = true
			case "off", "false":
				enabled = false
			default:
				return fmt.Errorf("expected 'on' or 'off', got %q", args[0])
			}

			if err := client.SetSharing(cmd.Context(), enabled); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]interface{}{"sharing": enabled})
			}
			if enabled {
				fmt.Fprintln(os.Stdout, "Location sharing is on")
			} else {
				fmt.Fprintln(os.Stdout, "Location sharing is off")
			}
			return nil
		},
	}
}
