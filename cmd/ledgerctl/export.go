package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/models/reports"
)

type exportCmd struct {
	format   string
	out      string
	detailed bool
	period   string
	txType   string
	start    string
	end      string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export transactions as csv or xlsx" }
func (*exportCmd) Usage() string {
	return `ledgerctl export [-format csv|xlsx] [-out <file>] [-detailed] [-period <period>] [-type buying|selling] [-start <date>] [-end <date>]

  Writes the filtered transactions, newest first. Without -out the file is
  named after today's date; "-" writes to stdout.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "csv", "Output format: csv or xlsx.")
	f.StringVar(&c.out, "out", "", "Output file.")
	f.BoolVar(&c.detailed, "detailed", false, "Include weight breakdown, rate and creator columns (csv only; xlsx is always detailed).")
	f.StringVar(&c.period, "period", "all", "Predefined period: all, this_month, last_month, last_3_months, this_year.")
	f.StringVar(&c.txType, "type", "all", "Transaction type filter.")
	f.StringVar(&c.start, "start", "", "Start date (YYYY-MM-DD); overrides -period.")
	f.StringVar(&c.end, "end", "", "End date (YYYY-MM-DD), inclusive.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.format != "csv" && c.format != "xlsx" {
		return fail("invalid format %q", c.format)
	}
	if err := connect(); err != nil {
		return fail("%v", err)
	}

	now := time.Now().UTC()
	filter, err := models.ParseTransactionFilter(models.TransactionQuery{
		Type:      c.txType,
		StartDate: c.start,
		EndDate:   c.end,
		Period:    c.period,
	}, now)
	if err != nil {
		return fail("%v", err)
	}
	filter.OrderBy = models.OrderByDateDesc

	views, err := models.ListTransactionViews(ctx, filter)
	if err != nil {
		return fail("list transactions: %v", err)
	}
	if c.detailed || c.format == "xlsx" {
		if err := fillCreatorEmails(ctx, views); err != nil {
			return fail("load creators: %v", err)
		}
	}

	out := c.out
	if out == "" {
		prefix := "transactions"
		if c.detailed {
			prefix = "transactions_report"
		}
		out = reports.ExportFilename(prefix, now, c.format)
	}
	var w io.Writer = os.Stdout
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fail("%v", err)
		}
		defer f.Close()
		w = f
	}

	if c.format == "xlsx" {
		err = reports.WriteTransactionsExcel(w, views)
	} else {
		err = reports.WriteTransactionsCSV(w, views, c.detailed)
	}
	if err != nil {
		return fail("write %s: %v", c.format, err)
	}
	if out != "-" {
		fmt.Fprintf(os.Stderr, "wrote %d transactions to %s\n", len(views), out)
	}
	return subcommands.ExitSuccess
}

func fillCreatorEmails(ctx context.Context, views []*models.TransactionView) error {
	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.CreatedBy)
	}
	users, err := models.GetUsersByIds(ctx, ids)
	if err != nil {
		return err
	}
	emails := make(map[string]string, len(users))
	for _, u := range users {
		emails[u.ID] = u.Email
	}
	for _, v := range views {
		v.CreatedByEmail = emails[v.CreatedBy]
	}
	return nil
}
