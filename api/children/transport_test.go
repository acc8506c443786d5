package children_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/authentication"
	. "github.com/ShayanAhmad11606/FYP-autismart-sub001/api/children"
	. "github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared/mocks"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/api"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/claims"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/log"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/roles"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/storage"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/storage/mocks"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/store"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/store/storetest"

	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

const jpegDataUri = "data:image/jpeg;base64,/9j/4AAQSkZJRgABAQ=="

var _ = Describe("Transport", func() {

	var (
		router   *mux.Router
		recorder *httptest.ResponseRecorder

		concreteStore       *store.Store
		concreteDb          *gorm.DB
		mockStringGenerator *MockStringGenerator
		mockStorage         *mocks.MockStorage

		userIdToUse                                       string
		roleToUse                                         roles.Role
		httpMethodToUse, httpEndpointToUse, httpBodyToUse string
	)

	var (
		readEnvelope = func() envelope {
			env := envelope{}
			Expect(json.Unmarshal(recorder.Body.Bytes(), &env)).To(Succeed())
			return env
		}

		readChild = func() api.ChildTransport {
			child := api.ChildTransport{}
			Expect(json.Unmarshal(readEnvelope().Data, &child)).To(Succeed())
			return child
		}

		assertHttpCode = func(code int) {
			It(fmt.Sprintf("should respond with status code %d", code), func() {
				Expect(recorder.Code).To(Equal(code))
			})
		}

		assertReturnedChildrenWithIds = func(ids ...string) {
			It(fmt.Sprintf("should respond %d children", len(ids)), func() {
				children := []api.ChildTransport{}
				Expect(json.Unmarshal(readEnvelope().Data, &children)).To(Succeed())
				returned := []string{}
				for _, child := range children {
					returned = append(returned, child.Id)
				}
				Expect(returned).To(ConsistOf(ids))
			})
		}

		asCaregiver = func(userId string) {
			userIdToUse = userId
			roleToUse = roles.ROLE_CAREGIVER
		}
	)

	BeforeEach(func() {
		concreteDb = storetest.NewDbInstance(false)
		storetest.SetDbInitialState(concreteDb)

		mockStringGenerator = &MockStringGenerator{}
		mockStringGenerator.On("GenerateUuid").Return("childid-new")
		concreteStore = &store.Store{
			Db:              concreteDb,
			StringGenerator: mockStringGenerator,
		}

		mockStorage = &mocks.MockStorage{}
		mockStorage.On("Store", mock.Anything, jpegDataUri, mock.Anything).Return("children/new.jpg", nil)
		mockStorage.On("Store", mock.Anything, mock.Anything, mock.Anything).Return("", storage.ErrUnsupportedFileFormat)
		mockStorage.On("Get", mock.Anything, mock.Anything).Return("https://storage.googleapis.com/signed.jpg", nil)
		mockStorage.On("Delete", mock.Anything, mock.Anything).Return(nil)

		logger := log.NewLogger("autismart-test")
		childService := &ChildService{
			Store:   concreteStore,
			Guard:   &Guard{Store: concreteStore},
			Storage: mockStorage,
			Logger:  logger,
		}
		authenticator := &authentication.Authenticator{Logger: logger}
		handlerFactory := HandlerFactory{Service: childService}

		opts := []kithttp.ServerOption{
			kithttp.ServerErrorEncoder(EncodeError),
		}

		router = mux.NewRouter()
		router.Handle("/api/caregiver/children", authenticator.Roles(handlerFactory.Add(opts), roles.ROLE_CAREGIVER)).Methods(http.MethodPost)
		router.Handle("/api/caregiver/children", authenticator.Roles(handlerFactory.List(opts), roles.All...)).Methods(http.MethodGet)
		router.Handle("/api/caregiver/children/{childId}", authenticator.Roles(handlerFactory.Get(opts), roles.All...)).Methods(http.MethodGet)
		router.Handle("/api/caregiver/children/{childId}", authenticator.Roles(handlerFactory.Update(opts), roles.All...)).Methods(http.MethodPut)
		router.Handle("/api/caregiver/children/{childId}", authenticator.Roles(handlerFactory.Delete(opts), roles.All...)).Methods(http.MethodDelete)

		asCaregiver("id-caregiver-1")
		httpMethodToUse = http.MethodGet
		httpEndpointToUse = "/api/caregiver/children/childid-1"
		httpBodyToUse = ""
	})

	AfterEach(func() {
		concreteDb.Close()
	})

	JustBeforeEach(func() {
		req, _ := http.NewRequest(httpMethodToUse, httpEndpointToUse, strings.NewReader(httpBodyToUse))
		req = req.WithContext(claims.WithClaims(req.Context(), claims.New(userIdToUse, roleToUse)))
		recorder = httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
	})

	Describe("LIST", func() {

		BeforeEach(func() {
			httpEndpointToUse = "/api/caregiver/children"
		})

		Context("as a caregiver", func() {
			assertHttpCode(http.StatusOK)
			assertReturnedChildrenWithIds("childid-1")
		})

		Context("as a caregiver without children", func() {
			BeforeEach(func() {
				asCaregiver("id-phone")
			})
			assertHttpCode(http.StatusOK)

			It("should respond an empty list", func() {
				Expect(string(readEnvelope().Data)).To(Equal("[]"))
			})
		})

		Context("as an expert", func() {
			BeforeEach(func() {
				userIdToUse = "id-expert"
				roleToUse = roles.ROLE_EXPERT
			})
			assertHttpCode(http.StatusOK)
			assertReturnedChildrenWithIds("childid-1", "childid-2")
		})
	})

	Describe("ADD", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodPost
			httpEndpointToUse = "/api/caregiver/children"
		})

		Context("with a complete profile", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"name": "Bran", "age": 10, "gender": "Male", "dateOfBirth": "2015-03-12", "diagnosis": "ASD level 2", "specialNeeds": "wheelchair"}`
			})
			assertHttpCode(http.StatusCreated)

			It("should own the child", func() {
				child := readChild()
				Expect(child.Id).To(Equal("childid-new"))
				Expect(child.CaregiverId).To(Equal("id-caregiver-1"))
				Expect(child.Gender).To(Equal("male"))
				Expect(child.DateOfBirth).To(Equal("2015-03-12"))
				Expect(child.ImageUri).To(BeEmpty())
			})
		})

		Context("with a profile image", func() {
			BeforeEach(func() {
				httpBodyToUse = fmt.Sprintf(`{"name": "Bran", "age": 10, "imageUri": "%s"}`, jpegDataUri)
			})
			assertHttpCode(http.StatusCreated)
			It("should store the image in children/childid-new", func() {
				calls := mockStorage.CallsForMethod("Store")
				Expect(calls).To(HaveLen(1))
				Expect(calls[0].Arguments.String(2)).To(Equal("children/childid-new"))
			})

			It("should persist the object name and answer a signed url", func() {
				Expect(readChild().ImageUri).To(Equal("https://storage.googleapis.com/signed.jpg"))
				stored, _ := concreteStore.GetChild(nil, "childid-new")
				Expect(stored.ImageUri.String).To(Equal("children/new.jpg"))
			})
		})

		Context("with an image which is not a jpeg", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"name": "Bran", "age": 10, "imageUri": "data:image/png;base64,iVBORw0KGgo="}`
			})
			assertHttpCode(http.StatusBadRequest)

			It("should not keep the child", func() {
				_, err := concreteStore.GetChild(nil, "childid-new")
				Expect(err).To(Equal(store.ErrChildNotFound))
			})
		})

		Context("without age", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"name": "Bran"}`
			})
			assertHttpCode(http.StatusBadRequest)
		})

		Context("with an age out of bounds", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"name": "Bran", "age": 19}`
			})
			assertHttpCode(http.StatusBadRequest)

			It("should explain the bounds", func() {
				Expect(readEnvelope().Error).To(Equal("age must be between 1 and 18"))
			})
		})

		Context("with an unknown gender", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"name": "Bran", "age": 10, "gender": "wolf"}`
			})
			assertHttpCode(http.StatusBadRequest)
		})

		Context("with an invalid date of birth", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"name": "Bran", "age": 10, "dateOfBirth": "the long night"}`
			})
			assertHttpCode(http.StatusBadRequest)
		})

		Context("as an expert", func() {
			BeforeEach(func() {
				userIdToUse = "id-expert"
				roleToUse = roles.ROLE_EXPERT
				httpBodyToUse = `{"name": "Bran", "age": 10}`
			})
			assertHttpCode(http.StatusForbidden)
		})
	})

	Describe("GET", func() {

		Context("as the owner", func() {
			assertHttpCode(http.StatusOK)

			It("should return the profile", func() {
				child := readChild()
				Expect(child.Name).To(Equal("Rickon"))
				Expect(child.Age).To(Equal(7))
				Expect(child.DateOfBirth).To(Equal("2016-05-04"))
			})
		})

		Context("as another caregiver", func() {
			BeforeEach(func() {
				asCaregiver("id-caregiver-2")
			})
			assertHttpCode(http.StatusForbidden)
		})

		Context("as an expert", func() {
			BeforeEach(func() {
				userIdToUse = "id-expert"
				roleToUse = roles.ROLE_EXPERT
			})
			assertHttpCode(http.StatusOK)
		})

		Context("an unknown child", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/caregiver/children/unknown"
			})
			assertHttpCode(http.StatusNotFound)
		})
	})

	Describe("UPDATE", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodPut
			httpBodyToUse = `{"name": "Rickon Stark", "caregiverId": "id-caregiver-2"}`
		})

		Context("as the owner", func() {
			assertHttpCode(http.StatusOK)

			It("should update the given fields only", func() {
				child := readChild()
				Expect(child.Name).To(Equal("Rickon Stark"))
				Expect(child.CaregiverId).To(Equal("id-caregiver-1"))
				Expect(child.Notes).To(Equal("likes wolves"))
			})
		})

		Context("as an admin", func() {
			BeforeEach(func() {
				userIdToUse = "id-admin"
				roleToUse = roles.ROLE_ADMIN
			})
			assertHttpCode(http.StatusOK)
		})

		Context("as an expert", func() {
			BeforeEach(func() {
				userIdToUse = "id-expert"
				roleToUse = roles.ROLE_EXPERT
			})
			assertHttpCode(http.StatusForbidden)
		})

		Context("with an invalid age", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"age": 0}`
			})
			assertHttpCode(http.StatusBadRequest)
		})

		Context("with a new image", func() {
			BeforeEach(func() {
				_, err := concreteStore.UpdateChild(nil, store.Child{ChildId: store.DbNullString("childid-1"), ImageUri: store.DbNullString("children/childid-1/old.jpg")})
				Expect(err).To(BeNil())
				httpBodyToUse = fmt.Sprintf(`{"imageUri": "%s"}`, jpegDataUri)
			})
			assertHttpCode(http.StatusOK)
			It("should store the image in children/childid-1", func() {
				calls := mockStorage.CallsForMethod("Store")
				Expect(calls).To(HaveLen(1))
				Expect(calls[0].Arguments.String(2)).To(Equal("children/childid-1"))
			})
			It("should delete children/childid-1/old.jpg", func() {
				calls := mockStorage.CallsForMethod("Delete")
				Expect(calls).To(HaveLen(1))
				Expect(calls[0].Arguments.String(1)).To(Equal("children/childid-1/old.jpg"))
			})
		})

		Context("an unknown child", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/caregiver/children/unknown"
			})
			assertHttpCode(http.StatusNotFound)
		})
	})

	Describe("DELETE", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodDelete
		})

		Context("as the owner", func() {
			BeforeEach(func() {
				_, err := concreteStore.UpdateChild(nil, store.Child{ChildId: store.DbNullString("childid-1"), ImageUri: store.DbNullString("children/childid-1/rickon.jpg")})
				Expect(err).To(BeNil())
			})
			assertHttpCode(http.StatusOK)
			It("should delete children/childid-1/rickon.jpg", func() {
				calls := mockStorage.CallsForMethod("Delete")
				Expect(calls).To(HaveLen(1))
				Expect(calls[0].Arguments.String(1)).To(Equal("children/childid-1/rickon.jpg"))
			})

			It("should delete the child and its activities", func() {
				_, err := concreteStore.GetChild(nil, "childid-1")
				Expect(err).To(Equal(store.ErrChildNotFound))
				activities, _ := concreteStore.ListActivities(nil, "childid-1", 0)
				Expect(activities).To(BeEmpty())
			})
		})

		Context("as another caregiver", func() {
			BeforeEach(func() {
				asCaregiver("id-caregiver-2")
			})
			assertHttpCode(http.StatusForbidden)

			It("should keep the activities", func() {
				activities, _ := concreteStore.ListActivities(nil, "childid-1", 0)
				Expect(activities).To(HaveLen(3))
			})
		})

		Context("an unknown child", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/caregiver/children/unknown"
			})
			assertHttpCode(http.StatusNotFound)
		})
	})
})
