package commands

import (
	"encoding/json"
	"fmt"

	"github.com/boddenberg/ledger-client-go/internal/domain"
	"github.com/boddenberg/ledger-client-go/internal/render"
	"github.com/boddenberg/ledger-client-go/internal/service"

	"github.com/spf13/cobra"
)

// outputOptions select how a result is printed.
type outputOptions struct {
	format string // terminal, markdown, html, json
	style  string // glamour style for terminal output
	width  int
}

func (o *outputOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", "terminal", "output format: terminal, markdown, html, json")
	cmd.Flags().StringVar(&o.style, "style", "auto", "terminal style: auto, dark, light, notty")
	cmd.Flags().IntVar(&o.width, "width", 100, "terminal word wrap width")
}

func (o *outputOptions) print(cmd *cobra.Command, md string, v any) error {
	out := cmd.OutOrStdout()
	switch o.format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "markdown", "md":
		_, err := fmt.Fprint(out, md)
		return err
	case "html":
		page, err := render.HTML("Ledger", md)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, page)
		return err
	case "terminal", "":
		styled, err := render.Terminal(md, o.style, o.width)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, styled)
		return err
	default:
		return &domain.ErrValidation{Field: "format", Message: fmt.Sprintf("unknown format %q", o.format)}
	}
}

// openBoard restores the session and returns its board, not yet loaded.
func openBoard(cmd *cobra.Command, rt *runtime) (*service.Board, error) {
	view, err := rt.app.Start(cmd.Context())
	if err != nil {
		return nil, err
	}
	if view == domain.ViewAuth {
		return nil, &domain.ErrUnauthorized{Message: "not logged in, run `ledger login` first"}
	}
	return rt.app.Board(cmd.Context())
}

// loadBoard opens the board and fetches its entries; a failed fetch is
// the command's error.
func loadBoard(cmd *cobra.Command, rt *runtime) (*service.Board, error) {
	board, err := openBoard(cmd, rt)
	if err != nil {
		return nil, err
	}
	if err := board.Load(cmd.Context()); err != nil {
		return nil, err
	}
	return board, nil
}

// mutableBoard opens the board for add or delete. A failed fetch leaves
// the list empty and is only reported, so the mutation still runs.
func mutableBoard(cmd *cobra.Command, rt *runtime) (*service.Board, error) {
	board, err := openBoard(cmd, rt)
	if err != nil {
		return nil, err
	}
	if err := board.Load(cmd.Context()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Could not load entries: %v\n", err)
	}
	return board, nil
}

func newEntriesCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List, add and delete ledger entries",
	}
	cmd.AddCommand(
		newEntriesListCommand(opts),
		newEntriesAddCommand(opts),
		newEntriesDeleteCommand(opts),
	)
	return cmd
}

func newEntriesListCommand(opts *globalOptions) *cobra.Command {
	out := &outputOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(opts, func(rt *runtime) error {
				board, err := loadBoard(cmd, rt)
				if err != nil {
					return err
				}
				entries := board.Entries()
				return out.print(cmd, render.EntriesMarkdown(entries), entries)
			})
		},
	}
	out.register(cmd)
	return cmd
}

func newEntriesAddCommand(opts *globalOptions) *cobra.Command {
	var form domain.EntryForm
	var typ string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a credit or debit entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(opts, func(rt *runtime) error {
				board, err := mutableBoard(cmd, rt)
				if err != nil {
					return err
				}

				form.Type = domain.EntryType(typ)
				if form.Date == "" {
					form.Date = board.Form().Date
				}
				board.SetForm(form)

				entry, err := board.Add(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s%s (%s)\n",
					entry.Type, entry.Type.Sign(), render.Amount(entry.Amount), entry.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&typ, "type", "t", string(domain.EntryCredit), "entry type: credit or debit")
	cmd.Flags().StringVarP(&form.Amount, "amount", "a", "", "amount, greater than zero")
	cmd.Flags().StringVarP(&form.Note, "note", "n", "", "optional note")
	cmd.Flags().StringVarP(&form.Date, "date", "d", "", "date as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newEntriesDeleteCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(opts, func(rt *runtime) error {
				board, err := mutableBoard(cmd, rt)
				if err != nil {
					return err
				}
				if err := board.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newTotalsCommand(opts *globalOptions) *cobra.Command {
	out := &outputOptions{}

	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Show credit, debit and balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(opts, func(rt *runtime) error {
				board, err := loadBoard(cmd, rt)
				if err != nil {
					return err
				}
				totals := board.Totals()
				return out.print(cmd, render.TotalsMarkdown(totals), totals)
			})
		},
	}
	out.register(cmd)
	return cmd
}

func newDashboardCommand(opts *globalOptions) *cobra.Command {
	out := &outputOptions{}

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show greeting, totals and entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(opts, func(rt *runtime) error {
				board, err := loadBoard(cmd, rt)
				if err != nil {
					return err
				}
				d := board.Dashboard()
				return out.print(cmd, render.Markdown(d), d)
			})
		},
	}
	out.register(cmd)
	return cmd
}
