package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterbourgon/ff/v4"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/client"
)

func newSubmitCommand(parent *ff.FlagSet, cfg rootConfig, stdout, stderr io.Writer) *ff.Command {
	fs := ff.NewFlagSet("submit").SetParent(parent)
	var (
		filePath   = fs.StringLong("file", "", "Receipt image (JPEG or PNG)")
		billType   = fs.StringLong("type", "", "Expense type, e.g. Transports")
		name       = fs.StringLong("name", "", "Expense name")
		date       = fs.StringLong("date", "", "Expense date (YYYY-MM-DD)")
		amount     = fs.StringLong("amount", "", "Amount in euros")
		vat        = fs.StringLong("vat", "", "VAT amount")
		pct        = fs.StringLong("pct", "", "VAT percentage (default 20)")
		commentary = fs.StringLong("commentary", "", "Free-form comment")
	)

	return &ff.Command{
		Name:      "submit",
		Usage:     "billed submit --file FILE --type TYPE --date DATE --amount AMOUNT [FLAGS]",
		ShortHelp: "upload a receipt and submit a new bill",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			store := client.New(cfg.clientConfig())
			session := bill.Session{
				Email: *cfg.email,
				Navigate: func(r bill.Route) {
					fmt.Fprintf(stdout, "-> %s\n", r)
				},
			}
			events := bill.EventFuncs{
				OnFileRejected: func(file bill.FileSelection, err error) {
					fmt.Fprintf(stderr, "file rejected: %s: %v\n", file.Name, err)
				},
				OnValidationBlocked: func(err error) {
					fmt.Fprintf(stderr, "please complete the form: %v\n", err)
				},
				OnSubmitted: func(b bill.Bill) {
					fmt.Fprintf(stdout, "bill %s submitted (%s)\n", b.ID, bill.FormatStatus(b.Status))
				},
				OnSubmissionFailed: func(err error) {
					fmt.Fprintf(stderr, "submission failed: %v\n", err)
				},
			}
			controller := bill.NewSubmissionController(store, session, events)

			if *filePath != "" {
				file, err := readSelection(*filePath)
				if err != nil {
					return err
				}
				if err := controller.SelectFile(file); err != nil {
					return err
				}
			}

			draft, err := draftFromFlags(*billType, *name, *date, *amount, *vat, *pct, *commentary)
			if err != nil {
				events.ValidationBlocked(err)
				return err
			}
			_, err = controller.Submit(ctx, draft)
			return err
		},
	}
}

// readSelection loads a receipt, deriving its MIME type from the extension
func readSelection(path string) (bill.FileSelection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return bill.FileSelection{}, fmt.Errorf("reading receipt: %w", err)
	}
	return bill.FileSelection{
		Name:        filepath.Base(path),
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Data:        data,
	}, nil
}

// optionalInt parses a flag value, returning nil when it is empty
func optionalInt(field, value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, &bill.ValidationError{Field: field, Reason: "must be a whole number"}
	}
	return &n, nil
}

func draftFromFlags(billType, name, date, amount, vat, pct, commentary string) (bill.Draft, error) {
	amountValue, err := optionalInt("amount", amount)
	if err != nil {
		return bill.Draft{}, err
	}
	pctValue, err := optionalInt("pct", pct)
	if err != nil {
		return bill.Draft{}, err
	}
	return bill.Draft{
		Type:       billType,
		Name:       name,
		Date:       date,
		Amount:     amountValue,
		VAT:        vat,
		Pct:        pctValue,
		Commentary: commentary,
	}, nil
}
