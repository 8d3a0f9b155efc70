package billstore

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		It("should write the file and return its name", func() {
			path, err := storage.Save("test.jpg", []byte("content"))
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal("test.jpg"))
			Expect(filepath.Join(tmpDir, "test.jpg")).To(BeAnExistingFile())
		})

		It("should keep files inside the base directory", func() {
			path, err := storage.Save("../escape.jpg", []byte("content"))
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal("escape.jpg"))
			Expect(filepath.Join(tmpDir, "escape.jpg")).To(BeAnExistingFile())
		})
	})

	Describe("Get", func() {
		It("should return saved data", func() {
			_, err := storage.Save("test.jpg", []byte("test file content"))
			Expect(err).NotTo(HaveOccurred())

			data, err := storage.Get("test.jpg")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("test file content"))
		})

		It("returns the error for a missing file", func() {
			_, err := storage.Get("nonexistent.jpg")
			Expect(err).To(MatchError(ContainSubstring("reading file")))
		})
	})

	Describe("Delete", func() {
		It("should remove the file", func() {
			_, err := storage.Save("test.jpg", []byte("content"))
			Expect(err).NotTo(HaveOccurred())

			Expect(storage.Delete("test.jpg")).To(Succeed())
			Expect(filepath.Join(tmpDir, "test.jpg")).NotTo(BeAnExistingFile())
		})

		It("returns the error for a missing file", func() {
			Expect(storage.Delete("nonexistent.jpg")).To(MatchError(ContainSubstring("deleting file")))
		})
	})

	Describe("NewLocalStorage", func() {
		It("should create a missing directory", func() {
			path := filepath.Join(GinkgoT().TempDir(), "receipts")
			_, err := NewLocalStorage(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(BeADirectory())
		})
	})
})
