package bill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"sync"
	"time"
)

// DefaultPct is applied when a draft leaves the percentage unset
const DefaultPct = 20

// State is the position of a SubmissionController in its lifecycle
type State int

const (
	StateEmpty State = iota
	StateFileStaged
	StateSubmitting
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateFileStaged:
		return "file_staged"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// allowedContentTypes are the receipt formats accepted for upload
var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// IsAllowedContentType reports whether a receipt of the given MIME type may be uploaded
func IsAllowedContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return allowedContentTypes[strings.ToLower(mediaType)]
}

// Events receives the outcome of each controller transition
type Events interface {
	FileRejected(file FileSelection, err error)
	ValidationBlocked(err error)
	Submitted(b Bill)
	SubmissionFailed(err error)
}

// EventFuncs adapts optional callbacks to Events. Nil callbacks are skipped.
type EventFuncs struct {
	OnFileRejected      func(file FileSelection, err error)
	OnValidationBlocked func(err error)
	OnSubmitted         func(b Bill)
	OnSubmissionFailed  func(err error)
}

func (e EventFuncs) FileRejected(file FileSelection, err error) {
	if e.OnFileRejected != nil {
		e.OnFileRejected(file, err)
	}
}

func (e EventFuncs) ValidationBlocked(err error) {
	if e.OnValidationBlocked != nil {
		e.OnValidationBlocked(err)
	}
}

func (e EventFuncs) Submitted(b Bill) {
	if e.OnSubmitted != nil {
		e.OnSubmitted(b)
	}
}

func (e EventFuncs) SubmissionFailed(err error) {
	if e.OnSubmissionFailed != nil {
		e.OnSubmissionFailed(err)
	}
}

// Draft holds the form fields of a bill being written.
// Amount and Pct are nil when the user left them empty.
type Draft struct {
	Type       string
	Name       string
	Date       string
	Amount     *int
	VAT        string
	Pct        *int
	Commentary string
}

// SubmissionController owns one in-progress bill and its receipt
type SubmissionController struct {
	store   Store
	session Session
	events  Events

	mu     sync.Mutex
	state  State
	staged *FileSelection
}

// NewSubmissionController creates a controller in the Empty state.
// events may be nil.
func NewSubmissionController(store Store, session Session, events Events) *SubmissionController {
	if events == nil {
		events = EventFuncs{}
	}
	return &SubmissionController{
		store:   store,
		session: session,
		events:  events,
	}
}

// State returns the current lifecycle state
func (c *SubmissionController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Staged returns the staged receipt, if any
func (c *SubmissionController) Staged() (FileSelection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.staged == nil {
		return FileSelection{}, false
	}
	return *c.staged, true
}

// Reset discards the staged receipt and returns to Empty
func (c *SubmissionController) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSubmitting {
		return ErrSubmissionInProgress
	}
	c.state = StateEmpty
	c.staged = nil
	return nil
}

// SelectFile stages a receipt. A selection replaces any previously staged file.
// A file whose type is not an accepted image format is discarded and the
// controller returns to Empty.
func (c *SubmissionController) SelectFile(file FileSelection) error {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return ErrSubmissionInProgress
	}

	if !IsAllowedContentType(file.ContentType) {
		c.state = StateEmpty
		c.staged = nil
		c.mu.Unlock()

		err := &ValidationError{
			Field:  "file",
			Reason: fmt.Sprintf("unsupported file type %q, expected a JPEG or PNG image", file.ContentType),
		}
		slog.Warn("Rejected receipt file", "filename", file.Name, "content_type", file.ContentType)
		c.events.FileRejected(file, err)
		return err
	}

	c.staged = &file
	c.state = StateFileStaged
	c.mu.Unlock()
	return nil
}

// Submit uploads the staged receipt then persists the bill referencing it.
// Missing fields block the submission before any store call.
func (c *SubmissionController) Submit(ctx context.Context, d Draft) (*Bill, error) {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return nil, ErrSubmissionInProgress
	}
	if err := c.validate(d); err != nil {
		c.mu.Unlock()
		c.events.ValidationBlocked(err)
		return nil, err
	}
	file := *c.staged
	c.state = StateSubmitting
	c.mu.Unlock()

	ref, err := c.store.UploadFile(ctx, c.session.Email, file)
	if err == nil && ref == nil {
		err = errors.New("store returned no file reference")
	}
	if err != nil {
		return nil, c.fail(PhaseUpload, err)
	}

	b := c.billFromDraft(d, ref)
	var saved *Bill
	if ref.Key != "" {
		saved, err = c.store.UpdateBill(ctx, ref.Key, b)
	} else {
		saved, err = c.store.CreateBill(ctx, b)
	}
	if err == nil && saved == nil {
		saved = &b
	}
	if err != nil {
		return nil, c.fail(PhaseFinalize, err)
	}

	c.mu.Lock()
	c.state = StateCompleted
	c.staged = nil
	c.mu.Unlock()

	c.events.Submitted(*saved)
	c.session.navigate(RouteBills)
	return saved, nil
}

// validate must be called with c.mu held
func (c *SubmissionController) validate(d Draft) error {
	if strings.TrimSpace(d.Date) == "" {
		return &ValidationError{Field: "date", Reason: "is required"}
	}
	if _, err := time.Parse(DateLayout, d.Date); err != nil {
		return &ValidationError{Field: "date", Reason: "must be a YYYY-MM-DD date"}
	}
	if d.Amount == nil {
		return &ValidationError{Field: "amount", Reason: "is required"}
	}
	if strings.TrimSpace(d.Type) == "" {
		return &ValidationError{Field: "type", Reason: "is required"}
	}
	if c.staged == nil {
		return &ValidationError{Field: "file", Reason: "a receipt is required"}
	}
	return nil
}

func (c *SubmissionController) billFromDraft(d Draft, ref *FileRef) Bill {
	pct := DefaultPct
	if d.Pct != nil {
		pct = *d.Pct
	}
	return Bill{
		Email:      c.session.Email,
		Type:       d.Type,
		Name:       d.Name,
		VAT:        d.VAT,
		Amount:     *d.Amount,
		Pct:        pct,
		Commentary: d.Commentary,
		Date:       d.Date,
		Status:     StatusPending,
		FileURL:    ref.URL,
		FileName:   ref.Name,
	}
}

func (c *SubmissionController) fail(phase Phase, err error) error {
	c.mu.Lock()
	c.state = StateFailed
	c.staged = nil
	c.mu.Unlock()

	subErr := &SubmissionError{Phase: phase, Err: err}
	slog.Error("Bill submission failed", "phase", phase, "error", err)
	c.events.SubmissionFailed(subErr)
	return subErr
}
