package storage_test

import (
	"context"
	b64 "encoding/base64"
	"io/ioutil"
	"os"
	"path/filepath"

	. "github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared/mocks"
	. "github.com/ShayanAhmad11606/FYP-autismart-sub001/common/storage"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalFilesystem", func() {

	var (
		storage             *LocalStorage
		mockStringGenerator *MockStringGenerator
		root                string
		ctx                 = context.Background()
		jpegBytes           = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	)

	BeforeEach(func() {
		var err error
		root, err = ioutil.TempDir("", "autismart-storage")
		Expect(err).To(BeNil())

		mockStringGenerator = &MockStringGenerator{}
		mockStringGenerator.On("GenerateUuid").Return("aze3215fe-513df")

		storage = &LocalStorage{
			Root:            root,
			PublicUrlPrefix: "http://localhost:8080/images/",
			StringGenerator: mockStringGenerator,
		}
	})

	AfterEach(func() {
		os.RemoveAll(root)
	})

	Context("Store", func() {

		var (
			image         string
			returnedError error
			fileName      string
		)

		JustBeforeEach(func() {
			fileName, returnedError = storage.Store(ctx, image, "children/childid-1")
		})

		Context("with a jpeg data uri", func() {
			BeforeEach(func() {
				image = "data:image/jpeg;base64," + b64.StdEncoding.EncodeToString(jpegBytes)
			})

			It("should not return an error", func() {
				Expect(returnedError).To(BeNil())
			})

			It("should return the object name inside the folder", func() {
				Expect(fileName).To(Equal("children/childid-1/aze3215fe-513df.jpg"))
			})

			It("should write the decoded image", func() {
				content, err := ioutil.ReadFile(filepath.Join(root, "children", "childid-1", "aze3215fe-513df.jpg"))
				Expect(err).To(BeNil())
				Expect(content).To(Equal(jpegBytes))
			})
		})

		Context("with a png data uri", func() {
			BeforeEach(func() {
				image = "data:image/png;base64," + b64.StdEncoding.EncodeToString(jpegBytes)
			})

			It("should reject the format", func() {
				Expect(returnedError).To(Equal(ErrUnsupportedFileFormat))
			})
		})

		Context("with an empty image", func() {
			BeforeEach(func() {
				image = ""
			})

			It("should store nothing", func() {
				Expect(returnedError).To(BeNil())
				Expect(fileName).To(BeEmpty())
			})
		})
	})

	Context("Get and Delete", func() {

		It("should build a public url and tolerate missing files", func() {
			uri, err := storage.Get(ctx, "children/a.jpg")
			Expect(err).To(BeNil())
			Expect(uri).To(Equal("http://localhost:8080/images/children/a.jpg"))

			Expect(storage.Delete(ctx, "children/a.jpg")).To(Succeed())
		})
	})

	It("should recognise data uris", func() {
		Expect(IsDataUri("data:image/jpeg;base64,AAAA")).To(BeTrue())
		Expect(IsDataUri("children/a.jpg")).To(BeFalse())
	})
})
