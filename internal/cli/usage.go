package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-playground/validator"
	"github.com/spf13/cobra"

	"github.com/Lordkro/nullupload/internal/lib/sl"
	"github.com/Lordkro/nullupload/internal/models"
	"github.com/Lordkro/nullupload/internal/usage"
)

var errOffline = errors.New("this command needs the billing server, drop --offline")

type toolUsage struct {
	Tool         string `json:"tool" yaml:"tool"`
	Used         int    `json:"used" yaml:"used"`
	Remaining    *int   `json:"remaining" yaml:"remaining"`
	LimitReached bool   `json:"limitReached" yaml:"limitReached"`
}

type usageView struct {
	Tier  models.Tier `json:"tier" yaml:"tier"`
	Date  string      `json:"date" yaml:"date"`
	Daily *int        `json:"dailyLimit" yaml:"dailyLimit"`
	Batch *int        `json:"batchLimit" yaml:"batchLimit"`
	Tools []toolUsage `json:"tools" yaml:"tools"`
}

type recordArgs struct {
	Tool  string `validate:"required"`
	Count int    `validate:"gt=0"`
}

// limitValue возвращает nil для pro, чтобы в JSON безлимит выглядел как null.
func limitValue(v int) *int {
	if v == usage.Unlimited {
		return nil
	}
	return &v
}

func formatLimit(v *int) string {
	if v == nil {
		return "unlimited"
	}
	return strconv.Itoa(*v)
}

func (r *runner) gate(ctx context.Context, onChange func(models.UsageData)) (*usage.Gate, error) {
	kv, err := r.usageKV(ctx)
	if err != nil {
		return nil, err
	}
	r.refreshTier(ctx, "")
	return usage.New(ctx, r.log, usage.NewKVStore(kv, r.log), r.session, usage.Options{
		Limits:   usage.Limits{Daily: r.cfg.Usage.DailyLimit, Batch: r.cfg.Usage.BatchLimit},
		Location: r.cfg.Usage.Location(),
		OnChange: onChange,
	}), nil
}

// toolsArg возвращает инструмент из аргумента или все инструменты.
func toolsArg(args []string) ([]string, error) {
	if len(args) == 0 {
		return models.Tools, nil
	}
	if err := checkTool(args[0]); err != nil {
		return nil, err
	}
	return args[:1], nil
}

func (r *runner) printUsage(g *usage.Gate, tools []string) error {
	view := usageView{
		Tier:  r.session.Tier(),
		Date:  g.Today(),
		Daily: limitValue(g.DailyLimit()),
		Batch: limitValue(g.BatchLimit()),
	}
	for _, id := range tools {
		view.Tools = append(view.Tools, toolUsage{
			Tool:         id,
			Used:         g.UsedToday(id),
			Remaining:    limitValue(g.Remaining(id)),
			LimitReached: g.LimitReached(id),
		})
	}

	return r.print(view, func(w io.Writer) error {
		fmt.Fprintf(w, "Tier: %s  Date: %s  Daily limit: %s  Batch limit: %s\n\n",
			view.Tier, view.Date, formatLimit(view.Daily), formatLimit(view.Batch))
		t := newTable("TOOL", "USED", "REMAINING", "")
		for _, u := range view.Tools {
			note := ""
			if u.LimitReached {
				note = "limit reached"
			}
			t.addRow(u.Tool, strconv.Itoa(u.Used), formatLimit(u.Remaining), note)
		}
		return t.render(w)
	})
}

func checkTool(id string) error {
	if !models.IsKnownTool(id) {
		return fmt.Errorf("unknown tool %q, expected one of %v", id, models.Tools)
	}
	return nil
}

func newUsageCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show and record daily tool usage",
	}
	cmd.AddCommand(newUsageShowCmd(r))
	cmd.AddCommand(newUsageRecordCmd(r))
	cmd.AddCommand(newUsageWatchCmd(r))
	return cmd
}

func newUsageShowCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "show [tool]",
		Short: "Show today's usage per tool",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := toolsArg(args)
			if err != nil {
				return err
			}
			g, err := r.gate(cmd.Context(), nil)
			if err != nil {
				return err
			}
			return r.printUsage(g, tools)
		},
	}
}

func newUsageWatchCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [tool]",
		Short: "Show today's usage and print it again whenever another writer changes it",
		Long: `Watch prints today's usage, then follows the store (the local file or,
with --redis, the visitor's pub/sub channel) and prints the table again on
every change made by another process. Stop it with Ctrl+C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := toolsArg(args)
			if err != nil {
				return err
			}
			var g *usage.Gate
			g, err = r.gate(cmd.Context(), func(models.UsageData) {
				if err := r.printUsage(g, tools); err != nil {
					r.log.Warn("failed to print usage", sl.Err(err))
				}
			})
			if err != nil {
				return err
			}
			if err := r.printUsage(g, tools); err != nil {
				return err
			}
			return g.Watch(cmd.Context())
		},
	}
}

func newUsageRecordCmd(r *runner) *cobra.Command {
	validate := validator.New()
	return &cobra.Command{
		Use:   "record <tool> <count>",
		Short: "Record processed files against today's limit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("count must be a number: %w", err)
			}
			in := recordArgs{Tool: args[0], Count: count}
			if err := validate.Struct(in); err != nil {
				return fmt.Errorf("invalid arguments: %w", err)
			}
			if err := checkTool(in.Tool); err != nil {
				return err
			}

			g, err := r.gate(cmd.Context(), nil)
			if err != nil {
				return err
			}
			if clamped := g.ClampBatch(in.Tool, in.Count); clamped < in.Count {
				return fmt.Errorf("batch of %d exceeds the free tier limit of %d files per action", in.Count, clamped)
			}
			if err := g.RecordUsage(cmd.Context(), in.Tool, in.Count); err != nil {
				return err
			}

			view := toolUsage{
				Tool:         in.Tool,
				Used:         g.UsedToday(in.Tool),
				Remaining:    limitValue(g.Remaining(in.Tool)),
				LimitReached: g.LimitReached(in.Tool),
			}
			return r.print(view, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Recorded %d for %s: used %d today, remaining %s\n",
					in.Count, in.Tool, view.Used, formatLimit(view.Remaining))
				return err
			})
		},
	}
}
