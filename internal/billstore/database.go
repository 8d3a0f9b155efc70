package billstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/zombor/billed/internal/bill"
)

const (
	billsBucketName   = "bills"
	uploadsBucketName = "uploads"
)

// ErrNotFound is returned when a bill or upload does not exist
var ErrNotFound = errors.New("not found")

// Upload records a receipt file stored ahead of its bill
type Upload struct {
	Key         string    `json:"key"`
	Email       string    `json:"email"`
	FileName    string    `json:"file_name"`
	Path        string    `json:"path"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// DB defines the interface for database operations
type DB interface {
	// SaveBill saves a bill to the database
	SaveBill(b *bill.Bill) error

	// GetBill retrieves a bill by ID
	GetBill(id string) (*bill.Bill, error)

	// ListBills returns all bills
	ListBills() ([]*bill.Bill, error)

	// DeleteBill removes a bill from the database
	DeleteBill(id string) error

	// SaveUpload records an uploaded receipt
	SaveUpload(u *Upload) error

	// GetUpload retrieves an upload by key
	GetUpload(key string) (*Upload, error)

	// DeleteUpload removes an upload record
	DeleteUpload(key string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(billsBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(uploadsBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveBill saves a bill to the database
func (b *BoltDB) SaveBill(record *bill.Bill) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(billsBucketName))
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling bill: %w", err)
		}
		return bucket.Put([]byte(record.ID), data)
	})
}

// GetBill retrieves a bill by ID
func (b *BoltDB) GetBill(id string) (*bill.Bill, error) {
	var record *bill.Bill
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(billsBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("bill %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListBills returns all bills
func (b *BoltDB) ListBills() ([]*bill.Bill, error) {
	bills := make([]*bill.Bill, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(billsBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var record bill.Bill
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("unmarshaling bill: %w", err)
			}
			bills = append(bills, &record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return bills, nil
}

// DeleteBill removes a bill from the database
func (b *BoltDB) DeleteBill(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(billsBucketName))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("bill %s: %w", id, ErrNotFound)
		}
		return bucket.Delete([]byte(id))
	})
}

// SaveUpload records an uploaded receipt
func (b *BoltDB) SaveUpload(u *Upload) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(uploadsBucketName))
		data, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("marshaling upload: %w", err)
		}
		return bucket.Put([]byte(u.Key), data)
	})
}

// GetUpload retrieves an upload by key
func (b *BoltDB) GetUpload(key string) (*Upload, error) {
	var upload *Upload
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(uploadsBucketName))
		data := bucket.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("upload %s: %w", key, ErrNotFound)
		}
		return json.Unmarshal(data, &upload)
	})
	if err != nil {
		return nil, err
	}
	return upload, nil
}

// DeleteUpload removes an upload record, returning ErrNotFound when it is missing
func (b *BoltDB) DeleteUpload(key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(uploadsBucketName))
		if bucket.Get([]byte(key)) == nil {
			return fmt.Errorf("upload %s: %w", key, ErrNotFound)
		}
		return bucket.Delete([]byte(key))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
