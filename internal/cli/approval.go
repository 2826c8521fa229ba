package cli

import (
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	approvalCmd := &cobra.Command{
		Use:   "approval",
		Short: "Review and release queued replies",
	}

	pendingCmd := &cobra.Command{
		Use:   "pending",
		Short: "List replies awaiting approval",
		Run: func(cmd *cobra.Command, args []string) {
			var out json.RawMessage
			if err := getJSON("/approval/pending", &out); err != nil {
				exitErr("list pending", err)
			}
			printJSON(out)
		},
	}

	approveCmd := &cobra.Command{
		Use:   "approve <idx>",
		Short: "Approve a pending reply, optionally with an edit",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			idx := mustIndex(args[0])
			edit, _ := cmd.Flags().GetString("edit")
			err := postJSON("/approval/pending/"+strconv.Itoa(idx)+"/approve",
				map[string]string{"edited_reply": edit}, nil)
			if err != nil {
				exitErr("approve", err)
			}
		},
	}
	approveCmd.Flags().String("edit", "", "Replace the reply text before approving")

	rejectCmd := &cobra.Command{
		Use:   "reject <idx>",
		Short: "Discard a pending reply",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			idx := mustIndex(args[0])
			if err := postJSON("/approval/pending/"+strconv.Itoa(idx)+"/reject", nil, nil); err != nil {
				exitErr("reject", err)
			}
		},
	}

	regenCmd := &cobra.Command{
		Use:   "regenerate <idx> <instruction>",
		Short: "Regenerate a pending reply with guidance",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			idx := mustIndex(args[0])
			err := postJSON("/approval/pending/"+strconv.Itoa(idx)+"/regenerate",
				map[string]string{"instruction": args[1]}, nil)
			if err != nil {
				exitErr("regenerate", err)
			}
		},
	}

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Drain the approved queue",
		Run: func(cmd *cobra.Command, args []string) {
			var out json.RawMessage
			if err := getJSON("/approval/batch", &out); err != nil {
				exitErr("drain batch", err)
			}
			printJSON(out)
		},
	}

	approvalCmd.AddCommand(pendingCmd, approveCmd, rejectCmd, regenCmd, batchCmd)
	RootCmd.AddCommand(approvalCmd)
}

func mustIndex(s string) int {
	idx, err := strconv.Atoi(s)
	if err != nil || idx < 0 {
		exitErr("parse index", err)
	}
	return idx
}
