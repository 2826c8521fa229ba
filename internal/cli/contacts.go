package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func init() {
	contactsCmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage the contact roster",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List contacts",
		Run: func(cmd *cobra.Command, args []string) {
			var out []json.RawMessage
			if err := getJSON("/contacts", &out); err != nil {
				exitErr("list contacts", err)
			}
			printJSON(out)
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <jid>",
		Short: "Add a contact",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			name, _ := cmd.Flags().GetString("name")
			var out json.RawMessage
			err := postJSON("/contacts", map[string]string{"jid": args[0], "name": name}, &out)
			if err != nil {
				exitErr("add contact", err)
			}
			printJSON(out)
		},
	}
	addCmd.Flags().String("name", "", "Display name")

	rmCmd := &cobra.Command{
		Use:   "rm <jid>",
		Short: "Remove a contact and all its state",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := deleteJSON("/contacts/" + args[0]); err != nil {
				exitErr("remove contact", err)
			}
		},
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle <jid>",
		Short: "Enable or disable a contact",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var out map[string]bool
			if err := postJSON("/contacts/"+args[0]+"/toggle", nil, &out); err != nil {
				exitErr("toggle contact", err)
			}
			printJSON(out)
		},
	}

	mediaCmd := &cobra.Command{
		Use:   "media-dir <jid> <dir>",
		Short: "Point a contact at a media directory",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			if err := postJSON("/contacts/"+args[0]+"/media-dir", map[string]string{"dir": args[1]}, nil); err != nil {
				exitErr("set media dir", err)
			}
		},
	}

	summarizeCmd := &cobra.Command{
		Use:   "summarize <jid>",
		Short: "Generate a relationship summary",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var out map[string]string
			if err := postJSON("/contacts/"+args[0]+"/summarize", nil, &out); err != nil {
				exitErr("summarize", err)
			}
			printJSON(out)
		},
	}

	contactsCmd.AddCommand(listCmd, addCmd, rmCmd, toggleCmd, mediaCmd, summarizeCmd)
	RootCmd.AddCommand(contactsCmd)
}
