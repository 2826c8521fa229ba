package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	personaCmd := &cobra.Command{
		Use:   "persona",
		Short: "Manage the operator persona",
	}

	personaCmd.AddCommand(
		entryCommands("facts", "persona facts"),
		entryCommands("traits", "personality traits"),
	)

	gapsCmd := &cobra.Command{
		Use:   "gaps",
		Short: "List open knowledge gaps",
		Run: func(cmd *cobra.Command, args []string) {
			var out []string
			if err := getJSON("/persona/gaps", &out); err != nil {
				exitErr("list gaps", err)
			}
			printJSON(out)
		},
	}

	fillCmd := &cobra.Command{
		Use:   "fill <gap> <value>",
		Short: "Fill a knowledge gap and regenerate blocked replies",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			target, _ := cmd.Flags().GetString("target")
			err := postJSON("/persona/gaps", map[string]string{
				"gap":    args[0],
				"value":  args[1],
				"target": target,
			}, nil)
			if err != nil {
				exitErr("fill gap", err)
			}
		},
	}
	fillCmd.Flags().String("target", "facts", "Where to store the answer: facts or personality")

	personaCmd.AddCommand(gapsCmd, fillCmd)
	RootCmd.AddCommand(personaCmd)
}

// entryCommands builds the list/add/set/rm subtree shared by facts and traits.
func entryCommands(kind, short string) *cobra.Command {
	base := "/persona/" + kind
	cmd := &cobra.Command{
		Use:   kind,
		Short: "Manage " + short,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List " + short,
			Run: func(cmd *cobra.Command, args []string) {
				var out []string
				if err := getJSON(base, &out); err != nil {
					exitErr("list "+kind, err)
				}
				printJSON(out)
			},
		},
		&cobra.Command{
			Use:   "add <entry>",
			Short: "Add an entry",
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				if err := postJSON(base, map[string]string{"entry": args[0]}, nil); err != nil {
					exitErr("add "+kind, err)
				}
			},
		},
		&cobra.Command{
			Use:   "set <idx> <entry>",
			Short: "Replace an entry",
			Args:  cobra.ExactArgs(2),
			Run: func(cmd *cobra.Command, args []string) {
				idx := mustIndex(args[0])
				if err := putJSON(base+"/"+strconv.Itoa(idx), map[string]string{"entry": args[1]}, nil); err != nil {
					exitErr("update "+kind, err)
				}
			},
		},
		&cobra.Command{
			Use:   "rm <idx>",
			Short: "Remove an entry",
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				idx := mustIndex(args[0])
				if err := deleteJSON(base + "/" + strconv.Itoa(idx)); err != nil {
					exitErr("remove "+kind, err)
				}
			},
		},
	)
	return cmd
}
