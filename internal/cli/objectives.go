package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func init() {
	objectivesCmd := &cobra.Command{
		Use:   "objectives",
		Short: "Manage per-contact conversational goals",
	}

	addCmd := &cobra.Command{
		Use:   "add <jid> <description>",
		Short: "Add an objective (a strategy is generated automatically)",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			objType, _ := cmd.Flags().GetString("type")
			minDays, _ := cmd.Flags().GetInt("min-days")
			maxDays, _ := cmd.Flags().GetInt("max-days")
			var out json.RawMessage
			err := postJSON("/contacts/"+args[0]+"/objectives", map[string]any{
				"type":        objType,
				"description": args[1],
				"min_days":    minDays,
				"max_days":    maxDays,
			}, &out)
			if err != nil {
				exitErr("add objective", err)
			}
			printJSON(out)
		},
	}
	addCmd.Flags().String("type", "linguistic", "Objective type: linguistic or behavioral")
	addCmd.Flags().Int("min-days", 7, "Earliest completion window in days")
	addCmd.Flags().Int("max-days", 14, "Latest completion window in days")

	completeCmd := &cobra.Command{
		Use:   "complete <jid> <id>",
		Short: "Manually mark an objective completed",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			if err := postJSON("/contacts/"+args[0]+"/objectives/"+args[1]+"/complete", nil, nil); err != nil {
				exitErr("complete objective", err)
			}
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <jid> <id>",
		Short: "Delete an objective",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			if err := deleteJSON("/contacts/" + args[0] + "/objectives/" + args[1]); err != nil {
				exitErr("delete objective", err)
			}
		},
	}

	objectivesCmd.AddCommand(addCmd, completeCmd, rmCmd)
	RootCmd.AddCommand(objectivesCmd)
}
