package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jszwec/csvutil"
	"github.com/peterbourgon/ff/v4"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/client"
)

// billRow is one line of list output
type billRow struct {
	Date    string `csv:"date"`
	Type    string `csv:"type"`
	Name    string `csv:"name"`
	Amount  int    `csv:"amount"`
	Status  string `csv:"status"`
	FileURL string `csv:"file_url"`
}

func newListCommand(parent *ff.FlagSet, cfg rootConfig, stdout, stderr io.Writer) *ff.Command {
	fs := ff.NewFlagSet("list").SetParent(parent)
	asCSV := fs.BoolLong("csv", "Print bills as CSV")

	return &ff.Command{
		Name:      "list",
		Usage:     "billed list [FLAGS]",
		ShortHelp: "list submitted bills, most recent first",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			store := client.New(cfg.clientConfig())
			controller := bill.NewListController(store, bill.Session{Email: *cfg.email})

			bills, err := controller.FetchBills(ctx)
			if err != nil {
				var fetchErr *bill.FetchError
				if errors.As(err, &fetchErr) {
					fmt.Fprintln(stderr, fetchErr.Message)
				}
				return err
			}

			rows := make([]billRow, 0, len(bills))
			for _, b := range bills {
				rows = append(rows, billRow{
					Date:    b.DisplayDate,
					Type:    b.Type,
					Name:    b.Name,
					Amount:  b.Amount,
					Status:  b.DisplayStatus,
					FileURL: store.FileURL(b.FileURL),
				})
			}
			if *asCSV {
				return writeCSV(stdout, rows)
			}
			return writeTable(stdout, rows)
		},
	}
}

func writeCSV(w io.Writer, rows []billRow) error {
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encoding csv: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func writeTable(w io.Writer, rows []billRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTYPE\tNAME\tAMOUNT\tSTATUS\tRECEIPT")
	for _, r := range rows {
		receipt := r.FileURL
		if receipt == "" {
			receipt = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d €\t%s\t%s\n", r.Date, r.Type, r.Name, r.Amount, r.Status, receipt)
	}
	return tw.Flush()
}
