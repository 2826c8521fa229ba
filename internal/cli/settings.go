package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change runtime settings",
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show current settings",
		Run: func(cmd *cobra.Command, args []string) {
			var out json.RawMessage
			if err := getJSON("/settings", &out); err != nil {
				exitErr("get settings", err)
			}
			printJSON(out)
		},
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle-approval",
		Short: "Flip the approval gate",
		Run: func(cmd *cobra.Command, args []string) {
			var out map[string]bool
			if err := postJSON("/settings/approval/toggle", nil, &out); err != nil {
				exitErr("toggle approval", err)
			}
			printJSON(out)
		},
	}

	settingsCmd.AddCommand(getCmd, toggleCmd)
	RootCmd.AddCommand(settingsCmd)

	notificationsCmd := &cobra.Command{
		Use:   "notifications",
		Short: "Fetch and clear operator notifications",
		Run: func(cmd *cobra.Command, args []string) {
			var out json.RawMessage
			if err := getJSON("/notifications", &out); err != nil {
				exitErr("notifications", err)
			}
			printJSON(out)
		},
	}
	RootCmd.AddCommand(notificationsCmd)

	importCmd := &cobra.Command{
		Use:   "import <jid> <file>",
		Short: "Import an exported chat transcript",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			selfLabel, _ := cmd.Flags().GetString("self-label")
			dayFirst, _ := cmd.Flags().GetBool("day-first")
			raw, err := os.ReadFile(args[1])
			if err != nil {
				exitErr("read transcript", err)
			}
			var out json.RawMessage
			err = postJSON("/import/transcript", map[string]any{
				"jid":        args[0],
				"text":       string(raw),
				"self_label": selfLabel,
				"day_first":  dayFirst,
			}, &out)
			if err != nil {
				exitErr("import transcript", err)
			}
			printJSON(out)
		},
	}
	importCmd.Flags().String("self-label", "", "Sender label that maps to the assistant role")
	importCmd.Flags().Bool("day-first", false, "Parse dates as day/month/year")
	RootCmd.AddCommand(importCmd)
}
