package billstore

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/billed/internal/bill"
)

// IDGenerator generates unique keys for uploads and bills
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles bill and receipt operations
type Service struct {
	db          DB
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with a UUID generator and the wall clock
func NewService(db DB, storage Storage) *Service {
	return NewServiceWithDeps(db, storage, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename strips special characters and truncates long phone-generated names
func sanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}
	return base + ext
}

// FileURL is the path a stored receipt is served from
func FileURL(key string) string {
	return "/api/files/" + key
}

// Upload stores a receipt file ahead of its bill
func (s *Service) Upload(email, filename string, data []byte, contentType string) (*bill.FileRef, error) {
	if !bill.IsAllowedContentType(contentType) {
		return nil, &bill.ValidationError{Field: "file", Reason: fmt.Sprintf("unsupported file type %q", contentType)}
	}
	if len(data) == 0 {
		return nil, &bill.ValidationError{Field: "file", Reason: "is empty"}
	}

	key := s.idGenerator.Generate()
	cleanFilename := sanitizeFilename(filename)

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", key, cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	upload := &Upload{
		Key:         key,
		Email:       email,
		FileName:    cleanFilename,
		Path:        savedPath,
		ContentType: contentType,
		CreatedAt:   s.timeSource.Now(),
	}
	if err := s.db.SaveUpload(upload); err != nil {
		// Clean up file if database save fails
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving upload to database: %w", err)
	}

	return &bill.FileRef{
		URL:  FileURL(key),
		Name: cleanFilename,
		Key:  key,
	}, nil
}

func validateBill(b *bill.Bill) error {
	if strings.TrimSpace(b.Type) == "" {
		return &bill.ValidationError{Field: "type", Reason: "is required"}
	}
	if _, err := time.Parse(bill.DateLayout, b.Date); err != nil {
		return &bill.ValidationError{Field: "date", Reason: "must be a YYYY-MM-DD date"}
	}
	return nil
}

// CreateBill persists a new pending bill under a fresh id
func (s *Service) CreateBill(b bill.Bill) (*bill.Bill, error) {
	if err := validateBill(&b); err != nil {
		return nil, err
	}

	b.ID = s.idGenerator.Generate()
	b.Status = bill.StatusPending
	if err := s.db.SaveBill(&b); err != nil {
		return nil, fmt.Errorf("saving bill: %w", err)
	}
	return &b, nil
}

// UpdateBill saves b under key. An existing bill keeps its id and status.
// A key that only names an upload becomes a new pending bill referencing
// that receipt.
func (s *Service) UpdateBill(key string, b bill.Bill) (*bill.Bill, error) {
	if err := validateBill(&b); err != nil {
		return nil, err
	}

	existing, err := s.db.GetBill(key)
	switch {
	case err == nil:
		b.ID = existing.ID
		b.Status = existing.Status
		if b.FileURL == "" {
			b.FileURL = existing.FileURL
			b.FileName = existing.FileName
		}
	case errors.Is(err, ErrNotFound):
		upload, err := s.db.GetUpload(key)
		if err != nil {
			return nil, fmt.Errorf("getting upload: %w", err)
		}
		b.ID = upload.Key
		b.Status = bill.StatusPending
		b.FileURL = FileURL(upload.Key)
		b.FileName = upload.FileName
		if b.Email == "" {
			b.Email = upload.Email
		}
	default:
		return nil, fmt.Errorf("getting bill: %w", err)
	}

	if err := s.db.SaveBill(&b); err != nil {
		return nil, fmt.Errorf("saving bill: %w", err)
	}
	return &b, nil
}

// GetBill retrieves a bill by ID
func (s *Service) GetBill(id string) (*bill.Bill, error) {
	b, err := s.db.GetBill(id)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}
	return b, nil
}

// ListBills returns all bills, restricted to one employee when email is set
func (s *Service) ListBills(email string) ([]*bill.Bill, error) {
	bills, err := s.db.ListBills()
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	if email == "" {
		return bills, nil
	}

	filtered := make([]*bill.Bill, 0, len(bills))
	for _, b := range bills {
		if b.Email == email {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}

// DeleteBill removes a bill and, when it has one, its receipt
func (s *Service) DeleteBill(id string) error {
	if err := s.db.DeleteBill(id); err != nil {
		return fmt.Errorf("deleting bill from database: %w", err)
	}

	upload, err := s.db.GetUpload(id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("getting upload: %w", err)
	}
	if err := s.storage.Delete(upload.Path); err != nil {
		// Log error, the bill itself is gone
		slog.Warn("Failed to delete receipt file", "path", upload.Path, "error", err)
	}
	// The upload must go too, or UpdateBill would promote it back into a bill
	if err := s.db.DeleteUpload(id); err != nil {
		return fmt.Errorf("deleting upload from database: %w", err)
	}
	return nil
}

// GetFile retrieves the receipt stored under key
func (s *Service) GetFile(key string) ([]byte, string, error) {
	upload, err := s.db.GetUpload(key)
	if err != nil {
		return nil, "", fmt.Errorf("getting upload: %w", err)
	}

	data, err := s.storage.Get(upload.Path)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}
	return data, upload.ContentType, nil
}
