package bill

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ListController", func() {
	var (
		store      *mockStore
		navigated  []Route
		controller *ListController
	)

	BeforeEach(func() {
		store = newMockStore()
		navigated = nil
		controller = NewListController(store, Session{
			Email:    "a@a",
			Navigate: func(r Route) { navigated = append(navigated, r) },
		})
	})

	Describe("FetchBills", func() {
		var (
			bills []Bill
			err   error
		)

		JustBeforeEach(func() {
			bills, err = controller.FetchBills(context.Background())
		})

		When("the store returns four bills", func() {
			BeforeEach(func() {
				store.bills = fixtureBills()
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return all four bills", func() {
				Expect(bills).To(HaveLen(4))
			})

			It("should order them most recent first", func() {
				dates := make([]string, 0, len(bills))
				for _, b := range bills {
					dates = append(dates, b.Date)
				}
				Expect(dates).To(Equal([]string{"2004-04-04", "2003-03-03", "2002-02-02", "2001-01-01"}))
			})

			It("should format display dates", func() {
				Expect(bills[0].DisplayDate).To(Equal("4 Avr. 04"))
				Expect(bills[3].DisplayDate).To(Equal("1 Jan. 01"))
			})

			It("should format display statuses", func() {
				Expect(bills[0].DisplayStatus).To(Equal("En attente"))
				Expect(bills[1].DisplayStatus).To(Equal("Accepté"))
				Expect(bills[2].DisplayStatus).To(Equal("Refused"))
			})

			It("should leave the canonical date untouched", func() {
				Expect(bills[0].Date).To(Equal("2004-04-04"))
			})

			It("should call the store exactly once", func() {
				Expect(store.calls).To(Equal([]string{"list"}))
			})
		})

		When("bills share a date", func() {
			BeforeEach(func() {
				store.bills = []Bill{
					{ID: "first", Date: "2022-05-01"},
					{ID: "newest", Date: "2023-01-01"},
					{ID: "second", Date: "2022-05-01"},
					{ID: "third", Date: "2022-05-01"},
				}
			})

			It("should keep their fetch order", func() {
				ids := make([]string, 0, len(bills))
				for _, b := range bills {
					ids = append(ids, b.ID)
				}
				Expect(ids).To(Equal([]string{"newest", "first", "second", "third"}))
			})
		})

		When("a bill has a malformed date", func() {
			BeforeEach(func() {
				store.bills = []Bill{
					{ID: "good", Date: "2021-06-15"},
					{ID: "bad", Date: "not-a-date"},
					{ID: "empty", Date: ""},
				}
			})

			It("should keep every record", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(bills).To(HaveLen(3))
			})

			It("should display the raw date string", func() {
				var bad Bill
				for _, b := range bills {
					if b.ID == "bad" {
						bad = b
					}
				}
				Expect(bad.DisplayDate).To(Equal("not-a-date"))
			})
		})

		When("the store has no bills", func() {
			It("should return an empty sequence", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(bills).To(BeEmpty())
			})
		})

		When("the store fails with a 404", func() {
			BeforeEach(func() {
				store.listErr = &ServiceError{Status: 404, Message: "Erreur 404"}
			})

			It("should report NotFound", func() {
				var fetchErr *FetchError
				Expect(errors.As(err, &fetchErr)).To(BeTrue())
				Expect(fetchErr.Class).To(Equal(ClassNotFound))
				Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
			})

			It("should pass the message through", func() {
				Expect(err.Error()).To(Equal("Erreur 404"))
			})

			It("should not return bills", func() {
				Expect(bills).To(BeNil())
			})
		})

		When("the store fails with a 500", func() {
			BeforeEach(func() {
				store.listErr = &ServiceError{Status: 500, Message: "Erreur 500"}
			})

			It("should report ServiceUnavailable", func() {
				var fetchErr *FetchError
				Expect(errors.As(err, &fetchErr)).To(BeTrue())
				Expect(fetchErr.Class).To(Equal(ClassServiceUnavailable))
				Expect(errors.Is(err, ErrServiceUnavailable)).To(BeTrue())
			})

			It("should pass the message through", func() {
				Expect(err.Error()).To(Equal("Erreur 500"))
			})
		})

		When("the store fails without a status", func() {
			BeforeEach(func() {
				store.listErr = errors.New("connection refused")
			})

			It("should report ServiceUnavailable", func() {
				Expect(errors.Is(err, ErrServiceUnavailable)).To(BeTrue())
				Expect(err.Error()).To(Equal("connection refused"))
			})

			It("should keep the underlying error", func() {
				Expect(errors.Unwrap(err)).To(MatchError("connection refused"))
			})
		})
	})

	Describe("HandleClickNewBill", func() {
		It("should navigate to the new bill form", func() {
			controller.HandleClickNewBill()
			Expect(navigated).To(Equal([]Route{RouteNewBill}))
		})
	})
})

var _ = Describe("FormatDate", func() {
	It("should use the short french month", func() {
		Expect(FormatDate("2021-12-25")).To(Equal("25 Déc. 21"))
		Expect(FormatDate("2019-02-09")).To(Equal("9 Fév. 19"))
	})

	It("should reject non ISO dates", func() {
		_, err := FormatDate("25/12/2021")
		Expect(err).To(HaveOccurred())
	})
})
