package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lordkro/nullupload/internal/client"
	"github.com/Lordkro/nullupload/internal/models"
)

type statusView struct {
	Tier             models.Tier `json:"tier" yaml:"tier"`
	Status           string      `json:"status,omitempty" yaml:"status,omitempty"`
	CurrentPeriodEnd *time.Time  `json:"currentPeriodEnd,omitempty" yaml:"currentPeriodEnd,omitempty"`
}

type urlView struct {
	URL string `json:"url" yaml:"url"`
}

func newStatusCmd(r *runner) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the subscription tier",
		Long: `Show the visitor's subscription tier. Pass --session-id with the
checkout session id from the success redirect to link a new subscription.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r.refreshTier(cmd.Context(), sessionID)

			view := statusView{Tier: r.session.Tier()}
			if sub := r.session.Subscription(); sub != nil {
				view.Status = sub.Status
				end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
				view.CurrentPeriodEnd = &end
			}
			return r.print(view, func(w io.Writer) error {
				t := newTable("TIER", "STATUS", "RENEWS")
				renews := "-"
				if view.CurrentPeriodEnd != nil {
					renews = view.CurrentPeriodEnd.Format(models.DateLayout)
				}
				status := view.Status
				if status == "" {
					status = "-"
				}
				t.addRow(string(view.Tier), status, renews)
				return t.render(w)
			})
		},
	}
	cmd.Flags().StringVar(&sessionID, "session-id", "", "checkout session id returned by Stripe")
	return cmd
}

func newCheckoutCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Create a Stripe checkout session for the pro tier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if r.opts.offline {
				return errOffline
			}
			url, err := r.session.Checkout(cmd.Context())
			if err != nil {
				return err
			}
			return r.printURL(url, "Open this page to subscribe:")
		},
	}
}

func newPortalCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "portal",
		Short: "Open the Stripe billing portal for the current subscription",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if r.opts.offline {
				return errOffline
			}
			url, err := r.session.OpenPortal(cmd.Context())
			if client.IsUnauthorized(err) {
				return fmt.Errorf("no subscription linked to this visitor, run `nullupload checkout` first: %w", err)
			}
			if err != nil {
				return err
			}
			return r.printURL(url, "Manage your subscription at:")
		},
	}
}

func (r *runner) printURL(url, caption string) error {
	return r.print(urlView{URL: url}, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s\n  %s\n", caption, url)
		return err
	})
}
