package api_test

import (
	"io/ioutil"
	"os"
	"path/filepath"

	. "github.com/ShayanAhmad11606/FYP-autismart-sub001/common/api"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("SessionStore", func() {

	session := Session{Token: "token-1", User: UserTransport{Id: "id-caregiver-1", Name: "Catelyn Stark", Role: "caregiver"}}

	Describe("memory", func() {

		It("should save, load and clear", func() {
			store := &MemorySessionStore{}
			loaded, err := store.Load()
			Expect(err).To(BeNil())
			Expect(loaded.IsZero()).To(BeTrue())

			Expect(store.Save(session)).To(Succeed())
			Expect(store.Load()).To(Equal(session))

			Expect(store.Clear()).To(Succeed())
			loaded, _ = store.Load()
			Expect(loaded.IsZero()).To(BeTrue())
		})
	})

	Describe("file", func() {

		var (
			dir   string
			store *FileSessionStore
		)

		BeforeEach(func() {
			var err error
			dir, err = ioutil.TempDir("", "autismart-session")
			Expect(err).To(BeNil())
			store = &FileSessionStore{Path: filepath.Join(dir, "nested", "session.json")}
		})

		AfterEach(func() {
			os.RemoveAll(dir)
		})

		It("should return an empty session when nothing was saved", func() {
			loaded, err := store.Load()
			Expect(err).To(BeNil())
			Expect(loaded.IsZero()).To(BeTrue())
		})

		It("should persist the session for another store on the same file", func() {
			Expect(store.Save(session)).To(Succeed())

			other := &FileSessionStore{Path: store.Path}
			Expect(other.Load()).To(Equal(session))

			info, err := os.Stat(store.Path)
			Expect(err).To(BeNil())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0600)))
		})

		It("should clear twice without error", func() {
			Expect(store.Save(session)).To(Succeed())
			Expect(store.Clear()).To(Succeed())
			Expect(store.Clear()).To(Succeed())
			_, err := os.Stat(store.Path)
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("should fail on a corrupted file", func() {
			Expect(os.MkdirAll(filepath.Dir(store.Path), 0700)).To(Succeed())
			Expect(ioutil.WriteFile(store.Path, []byte("{"), 0600)).To(Succeed())
			_, err := store.Load()
			Expect(err).NotTo(BeNil())
		})
	})
})
