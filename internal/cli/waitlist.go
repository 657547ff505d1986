package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Lordkro/nullupload/internal/models"
	"github.com/Lordkro/nullupload/internal/waitlist"
)

type waitlistView struct {
	Email    string `json:"email" yaml:"email"`
	JoinedAt string `json:"joinedAt" yaml:"joinedAt"`
}

func newWaitlistCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waitlist",
		Short: "Manage the pro tier waitlist",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <email>",
		Short: "Join the waitlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := waitlist.New(r.store).Add(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view := waitlistView{Email: entry.Email, JoinedAt: entry.JoinedAt.Format(models.DateLayout)}
			return r.print(view, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Added %s to the waitlist\n", entry.Email)
				return err
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List waitlist entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := waitlist.New(r.store).All(cmd.Context())
			if err != nil {
				return err
			}
			views := make([]waitlistView, 0, len(entries))
			for _, e := range entries {
				views = append(views, waitlistView{Email: e.Email, JoinedAt: e.JoinedAt.Format(models.DateLayout)})
			}
			return r.print(views, func(w io.Writer) error {
				t := newTable("EMAIL", "JOINED")
				for _, v := range views {
					t.addRow(v.Email, v.JoinedAt)
				}
				return t.render(w)
			})
		},
	})
	return cmd
}
