package bill

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
)

// ListController fetches bills and prepares them for display
type ListController struct {
	store   Store
	session Session
}

// NewListController creates a ListController reading from store
func NewListController(store Store, session Session) *ListController {
	return &ListController{
		store:   store,
		session: session,
	}
}

// FetchBills returns every bill from the store, most recent first.
// Failures are returned as *FetchError.
func (c *ListController) FetchBills(ctx context.Context) ([]Bill, error) {
	raw, err := c.store.List(ctx)
	if err != nil {
		fetchErr := newFetchError(err)
		slog.Warn("Failed to fetch bills", "class", fetchErr.Class, "error", err)
		return nil, fetchErr
	}

	bills := make([]Bill, 0, len(raw))
	for _, b := range raw {
		normalized, err := normalize(b)
		if err != nil {
			slog.Warn("Keeping bill with malformed date", "id", b.ID, "date", b.Date)
		}
		bills = append(bills, normalized)
	}

	SortBills(bills)
	return bills, nil
}

// HandleClickNewBill sends the user to the new bill form
func (c *ListController) HandleClickNewBill() {
	c.session.navigate(RouteNewBill)
}

// SortBills orders bills by date, most recent first. Bills sharing a date keep
// their relative order. The canonical date format sorts lexicographically, so
// the raw strings are compared.
func SortBills(bills []Bill) {
	slices.SortStableFunc(bills, func(a, b Bill) int {
		return cmp.Compare(b.Date, a.Date)
	})
}

func newFetchError(err error) *FetchError {
	class := Classify(err)
	msg := err.Error()
	if msg == "" {
		msg = string(class)
	}
	return &FetchError{
		Class:   class,
		Message: msg,
		Err:     err,
	}
}
