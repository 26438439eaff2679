package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/objstore/internal/config"
	"github.com/roach88/objstore/internal/ir"
	"github.com/roach88/objstore/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Sender   string // optional - principal label or 0x address
	Object   string // optional - 0x record identifier
}

// TraceTx is one journaled transaction with its events.
type TraceTx struct {
	ir.TxRecord
	Events []ir.Event `json:"events"`
}

// TraceResult holds the trace output.
type TraceResult struct {
	Transactions []TraceTx  `json:"transactions,omitempty"`
	History      []ir.Event `json:"history,omitempty"` // events naming --object
	Stats        store.Stats `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show journaled transactions and events",
		Long: `Read the SQLite journal and print transactions in sequence order with
the events each one emitted. Aborted transactions are listed with their
abort code; they never carry events.

With --object, print the event history of a single record instead.

Examples:
  objstore trace --db ./objstore.db
  objstore trace --db ./objstore.db --sender alice
  objstore trace --db ./objstore.db --object 0x3f...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (overrides config)")
	cmd.Flags().StringVar(&opts.Sender, "sender", "", "only transactions sent by this principal")
	cmd.Flags().StringVar(&opts.Object, "object", "", "history of one record")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd)

	db := opts.Database
	if db == "" {
		db = opts.Config.Database
	}
	if db == "" {
		return NewExitError(ExitCommandError, "no journal: pass --db or set database in the config")
	}
	if _, err := os.Stat(db); err != nil {
		return WrapExitError(ExitCommandError, "journal not found", err)
	}
	st, err := store.Open(db)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	var result TraceResult
	if result.Stats, err = st.Stats(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	if opts.Object != "" {
		id, err := ir.ParseID(opts.Object)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --object", err)
		}
		if result.History, err = st.ObjectHistory(ctx, id); err != nil {
			return WrapExitError(ExitCommandError, "failed to read history", err)
		}
		return formatter.Success(result, func(w io.Writer) {
			for _, ev := range result.History {
				writeEvent(w, "", ev)
			}
			fmt.Fprintf(w, "%d event(s)\n", len(result.History))
		})
	}

	var txs []ir.TxRecord
	if opts.Sender != "" {
		sender, err := config.Principal(opts.Sender)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --sender", err)
		}
		txs, err = st.ReadTransactionsBySender(ctx, sender)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
	} else if txs, err = st.ReadTransactions(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	for _, rec := range txs {
		events, err := st.ReadEvents(ctx, rec.Digest)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read events", err)
		}
		result.Transactions = append(result.Transactions, TraceTx{TxRecord: rec, Events: events})
	}

	return formatter.Success(result, func(w io.Writer) {
		for _, tx := range result.Transactions {
			fmt.Fprintf(w, "#%d %s %s %s", tx.Seq, tx.Digest, tx.Sender.Short(), tx.Status)
			if tx.AbortCode != "" {
				fmt.Fprintf(w, " %s", tx.AbortCode)
			}
			if tx.Message != "" {
				fmt.Fprintf(w, ": %s", tx.Message)
			}
			fmt.Fprintln(w)
			for _, ev := range tx.Events {
				writeEvent(w, "    ", ev)
			}
		}
		s := result.Stats
		fmt.Fprintf(w, "%d committed, %d aborted, %d events\n", s.Committed, s.Aborted, s.Events)
	})
}

func writeEvent(w io.Writer, indent string, ev ir.Event) {
	fmt.Fprintf(w, "%s%d %s %s\n", indent, ev.Seq, ev.Kind, ev.Object.Short())
}
