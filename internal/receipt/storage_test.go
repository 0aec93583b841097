package receipt

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		basePath string
		storage  *LocalStorage
	)

	BeforeEach(func() {
		basePath = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(basePath)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should create the base directory if missing", func() {
		nested := filepath.Join(basePath, "a", "b")
		_, err := NewLocalStorage(nested)
		Expect(err).NotTo(HaveOccurred())
		Expect(nested).To(BeADirectory())
	})

	Describe("Save", func() {
		It("should write the file and return its name", func() {
			path, err := storage.Save("nota.jpg", []byte("image data"))
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal("nota.jpg"))

			data, err := os.ReadFile(filepath.Join(basePath, "nota.jpg"))
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("image data")))
		})
	})

	Describe("Get", func() {
		It("should return stored bytes", func() {
			_, err := storage.Save("nota.jpg", []byte("image data"))
			Expect(err).NotTo(HaveOccurred())

			data, err := storage.Get("nota.jpg")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("image data")))
		})

		It("should error for missing files", func() {
			_, err := storage.Get("missing.jpg")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		It("should remove the file", func() {
			_, err := storage.Save("nota.jpg", []byte("image data"))
			Expect(err).NotTo(HaveOccurred())

			Expect(storage.Delete("nota.jpg")).To(Succeed())
			Expect(filepath.Join(basePath, "nota.jpg")).NotTo(BeAnExistingFile())
		})

		It("should error for missing files", func() {
			Expect(storage.Delete("missing.jpg")).NotTo(Succeed())
		})
	})
})
