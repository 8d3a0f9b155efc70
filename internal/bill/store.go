package bill

import "context"

// Store is the persistence capability the controllers are built on
type Store interface {
	// List returns every bill visible to the current user
	List(ctx context.Context) ([]Bill, error)

	// UploadFile stores a receipt and returns a reference to it
	UploadFile(ctx context.Context, email string, file FileSelection) (*FileRef, error)

	// CreateBill persists a new bill
	CreateBill(ctx context.Context, b Bill) (*Bill, error)

	// UpdateBill persists b under key, creating the record if the key
	// only names an uploaded receipt
	UpdateBill(ctx context.Context, key string, b Bill) (*Bill, error)
}

// Route names a navigation target handed to Session.Navigate
type Route string

const (
	RouteBills   Route = "#employee/bills"
	RouteNewBill Route = "#employee/bill/new"
)

// Session is the caller context a controller is constructed with
type Session struct {
	Email    string
	Navigate func(Route)
}

func (s Session) navigate(r Route) {
	if s.Navigate != nil {
		s.Navigate(r)
	}
}
