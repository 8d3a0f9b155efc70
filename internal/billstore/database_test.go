package billstore

import (
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/billed/internal/bill"
)

var _ = Describe("BoltDB", func() {
	var (
		db *BoltDB
	)

	BeforeEach(func() {
		var err error
		db, err = NewBoltDB(filepath.Join(GinkgoT().TempDir(), "test.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveBill and GetBill", func() {
		var record *bill.Bill

		BeforeEach(func() {
			record = &bill.Bill{
				ID:       "test-id",
				Email:    "a@a",
				Type:     "Transports",
				Date:     "2024-01-15",
				Amount:   26,
				Pct:      20,
				Status:   bill.StatusPending,
				FileURL:  "/api/files/test-id",
				FileName: "test.jpg",
			}
			Expect(db.SaveBill(record)).To(Succeed())
		})

		It("should round trip the bill", func() {
			saved, err := db.GetBill("test-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved).To(Equal(record))
		})

		It("should overwrite on a second save", func() {
			record.Name = "renamed"
			Expect(db.SaveBill(record)).To(Succeed())
			saved, err := db.GetBill("test-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Name).To(Equal("renamed"))
		})

		It("returns ErrNotFound for an unknown id", func() {
			_, err := db.GetBill("missing")
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
		})
	})

	Describe("ListBills", func() {
		When("the database is empty", func() {
			It("should return an empty slice", func() {
				bills, err := db.ListBills()
				Expect(err).NotTo(HaveOccurred())
				Expect(bills).NotTo(BeNil())
				Expect(bills).To(BeEmpty())
			})
		})

		When("bills and uploads exist", func() {
			BeforeEach(func() {
				Expect(db.SaveBill(&bill.Bill{ID: "1", Date: "2024-01-01"})).To(Succeed())
				Expect(db.SaveBill(&bill.Bill{ID: "2", Date: "2024-01-02"})).To(Succeed())
				Expect(db.SaveUpload(&Upload{Key: "3"})).To(Succeed())
			})

			It("should return only the bills", func() {
				bills, err := db.ListBills()
				Expect(err).NotTo(HaveOccurred())
				Expect(bills).To(HaveLen(2))
			})
		})
	})

	Describe("DeleteBill", func() {
		It("should remove the bill", func() {
			Expect(db.SaveBill(&bill.Bill{ID: "1"})).To(Succeed())
			Expect(db.DeleteBill("1")).To(Succeed())
			_, err := db.GetBill("1")
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
		})

		It("returns ErrNotFound for an unknown id", func() {
			Expect(errors.Is(db.DeleteBill("missing"), ErrNotFound)).To(BeTrue())
		})
	})

	Describe("SaveUpload and GetUpload", func() {
		It("should round trip the upload", func() {
			created := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
			Expect(db.SaveUpload(&Upload{Key: "k", Email: "a@a", FileName: "r.png", Path: "k_r.png", ContentType: "image/png", CreatedAt: created})).To(Succeed())

			u, err := db.GetUpload("k")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Path).To(Equal("k_r.png"))
			Expect(u.CreatedAt.Equal(created)).To(BeTrue())
		})

		It("returns ErrNotFound for an unknown key", func() {
			_, err := db.GetUpload("missing")
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
		})
	})

	Describe("DeleteUpload", func() {
		It("should remove the upload", func() {
			Expect(db.SaveUpload(&Upload{Key: "k", Path: "k_r.png"})).To(Succeed())
			Expect(db.DeleteUpload("k")).To(Succeed())
			_, err := db.GetUpload("k")
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
		})

		It("returns ErrNotFound for an unknown key", func() {
			Expect(errors.Is(db.DeleteUpload("missing"), ErrNotFound)).To(BeTrue())
		})
	})

	Describe("NewBoltDB", func() {
		It("should fail when the path is a directory", func() {
			_, err := NewBoltDB(GinkgoT().TempDir())
			Expect(err).To(MatchError(ContainSubstring("opening boltdb")))
		})
	})
})
