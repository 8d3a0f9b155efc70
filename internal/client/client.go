package client

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/go-resty/resty/v2"

	"github.com/zombor/billed/internal/bill"
)

// Config holds the connection settings for the bill service
type Config struct {
	BaseURL  string
	Email    string
	Username string
	Password string
}

// Store implements bill.Store against the bill service HTTP API
type Store struct {
	http  *resty.Client
	email string
}

// New creates a Store talking to cfg.BaseURL. List is scoped to cfg.Email when set.
func New(cfg Config) *Store {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json")
	if cfg.Username != "" || cfg.Password != "" {
		c.SetBasicAuth(cfg.Username, cfg.Password)
	}
	return &Store{
		http:  c,
		email: cfg.Email,
	}
}

// statusError turns a transport failure or a non-2xx answer into a *bill.ServiceError
func statusError(resp *resty.Response, err error) error {
	if err != nil {
		return &bill.ServiceError{Message: err.Error()}
	}
	if resp.IsError() {
		return &bill.ServiceError{
			Status:  resp.StatusCode(),
			Message: fmt.Sprintf("Erreur %d", resp.StatusCode()),
		}
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]bill.Bill, error) {
	var bills []bill.Bill
	req := s.http.R().
		SetContext(ctx).
		SetResult(&bills)
	if s.email != "" {
		req.SetQueryParam("email", s.email)
	}

	resp, err := req.Get("/api/bills")
	if err := statusError(resp, err); err != nil {
		return nil, err
	}
	return bills, nil
}

func (s *Store) UploadFile(ctx context.Context, email string, file bill.FileSelection) (*bill.FileRef, error) {
	var ref bill.FileRef
	resp, err := s.http.R().
		SetContext(ctx).
		SetMultipartField("file", file.Name, file.ContentType, bytes.NewReader(file.Data)).
		SetMultipartFormData(map[string]string{"email": email}).
		SetResult(&ref).
		Post("/api/bills/files")
	if err := statusError(resp, err); err != nil {
		return nil, err
	}
	return &ref, nil
}

func (s *Store) CreateBill(ctx context.Context, b bill.Bill) (*bill.Bill, error) {
	var created bill.Bill
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(b).
		SetResult(&created).
		Post("/api/bills")
	if err := statusError(resp, err); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) UpdateBill(ctx context.Context, key string, b bill.Bill) (*bill.Bill, error) {
	var updated bill.Bill
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(b).
		SetResult(&updated).
		Patch("/api/bills/" + url.PathEscape(key))
	if err := statusError(resp, err); err != nil {
		return nil, err
	}
	return &updated, nil
}

// FileURL resolves a receipt reference against the service base URL
func (s *Store) FileURL(ref string) string {
	if ref == "" {
		return ""
	}
	base, err := url.Parse(s.http.BaseURL)
	if err != nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

var _ bill.Store = (*Store)(nil)

