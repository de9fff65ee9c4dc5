package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/notepid/postboard/internal/account"
	"github.com/notepid/postboard/internal/app"
	"github.com/notepid/postboard/internal/message"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print all accounts and messages as tables",
	Args:  cobra.NoArgs,
	RunE:  runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	a, cleanup, err := app.New(cmd.Context(), configPath, os.Stderr)
	if err != nil {
		return err
	}
	defer cleanup()

	accounts, err := a.Accounts.List(cmd.Context())
	if err != nil {
		return err
	}
	messages, err := a.Messages.GetAllMessages(cmd.Context())
	if err != nil {
		return err
	}

	renderDump(cmd.OutOrStdout(), accounts, messages)
	return nil
}

func renderDump(w io.Writer, accounts []*account.Record, messages []*message.Message) {
	names := lo.SliceToMap(accounts, func(r *account.Record) (int, string) {
		return r.ID, r.Username
	})

	fmt.Fprintf(w, "Accounts (%d)\n", len(accounts))
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Username", "Created", "Messages"})
	table.SetAutoWrapText(false)
	counts := lo.CountValuesBy(messages, func(m *message.Message) int { return m.PostedBy })
	table.AppendBulk(lo.Map(accounts, func(r *account.Record, _ int) []string {
		return []string{
			strconv.Itoa(r.ID),
			r.Username,
			r.CreatedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(counts[r.ID]),
		}
	}))
	table.Render()

	fmt.Fprintf(w, "\nMessages (%d)\n", len(messages))
	table = tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Author", "Posted", "Text"})
	table.SetAutoWrapText(false)
	table.AppendBulk(lo.Map(messages, func(m *message.Message, _ int) []string {
		author := names[m.PostedBy]
		if author == "" {
			author = "#" + strconv.Itoa(m.PostedBy)
		}
		return []string{
			strconv.Itoa(m.ID),
			author,
			time.Unix(m.TimePostedEpoch, 0).UTC().Format(time.RFC3339),
			lo.Ellipsis(m.Text, 60),
		}
	}))
	table.Render()
}
