package bill

// Status is the review state of a submitted bill. It is set by the service.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

// DateLayout is the canonical wire format of Bill.Date
const DateLayout = "2006-01-02"

// Bill represents one expense claim
type Bill struct {
	ID         string `json:"id,omitempty"`
	Email      string `json:"email"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	VAT        string `json:"vat"`
	Amount     int    `json:"amount"`
	Pct        int    `json:"pct"`
	Commentary string `json:"commentary"`
	Date       string `json:"date"`
	Status     Status `json:"status,omitempty"`
	FileURL    string `json:"fileUrl,omitempty"`
	FileName   string `json:"fileName,omitempty"`

	// Derived by the list controller for display
	DisplayDate   string `json:"-"`
	DisplayStatus string `json:"-"`
}

// IsDraft reports whether the bill has not yet been issued an id or file reference
func (b Bill) IsDraft() bool {
	return b.ID == "" && b.FileURL == ""
}

// IsSubmitted reports whether the bill has been persisted by the store
func (b Bill) IsSubmitted() bool {
	return b.ID != "" && b.FileURL != "" && b.Status != ""
}

// FileSelection is the receipt chosen for one submission attempt
type FileSelection struct {
	Name        string
	ContentType string
	Data        []byte
}

// FileRef is what the store hands back for an uploaded receipt
type FileRef struct {
	URL  string `json:"fileUrl"`
	Name string `json:"fileName"`
	Key  string `json:"key"`
}
