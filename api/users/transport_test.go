package users_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/authentication"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared"
	. "github.com/ShayanAhmad11606/FYP-autismart-sub001/api/users"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/api"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/claims"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/generator"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/log"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/roles"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/store"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/store/storetest"

	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

var _ = Describe("Transport", func() {

	var (
		router   *mux.Router
		recorder *httptest.ResponseRecorder

		concreteStore *store.Store
		concreteDb    *gorm.DB

		userIdToUse, roleToUse                            string
		httpMethodToUse, httpEndpointToUse, httpBodyToUse string
	)

	var (
		readEnvelope = func() envelope {
			env := envelope{}
			Expect(json.Unmarshal(recorder.Body.Bytes(), &env)).To(Succeed())
			return env
		}

		readUser = func() api.UserTransport {
			user := api.UserTransport{}
			Expect(json.Unmarshal(readEnvelope().Data, &user)).To(Succeed())
			return user
		}

		assertHttpCode = func(code int) {
			It(fmt.Sprintf("should respond with status code %d", code), func() {
				Expect(recorder.Code).To(Equal(code))
			})
		}

		assertReturnedUsersWithIds = func(ids ...string) {
			It(fmt.Sprintf("should respond %d users", len(ids)), func() {
				users := []api.UserTransport{}
				Expect(json.Unmarshal(readEnvelope().Data, &users)).To(Succeed())

				returned := []string{}
				for _, user := range users {
					returned = append(returned, user.Id)
				}
				Expect(returned).To(ConsistOf(ids))
			})
		}
	)

	BeforeEach(func() {
		concreteDb = storetest.NewDbInstance(false)
		storetest.SetDbInitialState(concreteDb)
		concreteStore = &store.Store{
			Db:              concreteDb,
			StringGenerator: &generator.StringGenerator{},
		}
		logger := log.NewLogger("autismart-test")

		userService := &UserService{
			Store:  concreteStore,
			Config: &shared.AppConfig{BcryptCost: bcrypt.MinCost},
			Logger: logger,
		}
		authenticator := &authentication.Authenticator{Logger: logger}
		handlerFactory := HandlerFactory{Service: userService}

		opts := []kithttp.ServerOption{
			kithttp.ServerErrorEncoder(EncodeError),
		}

		router = mux.NewRouter()
		router.Handle("/api/admin/stats", authenticator.Roles(handlerFactory.Stats(opts), roles.ROLE_ADMIN)).Methods(http.MethodGet)
		router.Handle("/api/admin/users", authenticator.Roles(handlerFactory.List(opts), roles.ROLE_ADMIN)).Methods(http.MethodGet)
		router.Handle("/api/admin/users", authenticator.Roles(handlerFactory.Add(opts), roles.ROLE_ADMIN)).Methods(http.MethodPost)
		router.Handle("/api/admin/users/{userId}", authenticator.Roles(handlerFactory.Get(opts), roles.ROLE_ADMIN)).Methods(http.MethodGet)
		router.Handle("/api/admin/users/{userId}", authenticator.Roles(handlerFactory.Update(opts), roles.ROLE_ADMIN)).Methods(http.MethodPut)
		router.Handle("/api/admin/users/{userId}", authenticator.Roles(handlerFactory.Delete(opts), roles.ROLE_ADMIN)).Methods(http.MethodDelete)

		userIdToUse = "id-admin"
		roleToUse = roles.ROLE_ADMIN.String()
		httpMethodToUse = http.MethodGet
		httpEndpointToUse = ""
		httpBodyToUse = ""
	})

	AfterEach(func() {
		concreteDb.Close()
	})

	JustBeforeEach(func() {
		role, _ := roles.Parse(roleToUse)
		req, _ := http.NewRequest(httpMethodToUse, httpEndpointToUse, strings.NewReader(httpBodyToUse))
		req = req.WithContext(claims.WithClaims(req.Context(), claims.New(userIdToUse, role)))
		recorder = httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
	})

	Describe("LIST", func() {

		BeforeEach(func() {
			httpEndpointToUse = "/api/admin/users"
		})

		Context("without filter", func() {
			assertHttpCode(http.StatusOK)
			assertReturnedUsersWithIds("id-admin", "id-expert", "id-caregiver-1", "id-caregiver-2", "id-phone", "id-unverified")
		})

		Context("filtered by role", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/admin/users?role=expert"
			})
			assertHttpCode(http.StatusOK)
			assertReturnedUsersWithIds("id-expert")
		})

		Context("filtered by phone verification", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/admin/users?isPhoneVerified=true"
			})
			assertHttpCode(http.StatusOK)
			assertReturnedUsersWithIds("id-phone")
		})

		Context("with an unknown role", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/admin/users?role=wizard"
			})
			assertHttpCode(http.StatusBadRequest)
		})

		Context("with a malformed flag", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/admin/users?isEmailVerified=maybe"
			})
			assertHttpCode(http.StatusBadRequest)
		})

		Context("as a caregiver", func() {
			BeforeEach(func() {
				userIdToUse = "id-caregiver-1"
				roleToUse = roles.ROLE_CAREGIVER.String()
			})
			assertHttpCode(http.StatusForbidden)
		})

		Context("as an expert", func() {
			BeforeEach(func() {
				userIdToUse = "id-expert"
				roleToUse = roles.ROLE_EXPERT.String()
			})
			assertHttpCode(http.StatusForbidden)
		})
	})

	Describe("ADD", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodPost
			httpEndpointToUse = "/api/admin/users"
		})

		Context("with an expert", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"name": "Qyburn", "email": "QYBURN@citadel.io", "password": "experiments", "role": "expert"}`
			})
			assertHttpCode(http.StatusCreated)

			It("should create a verified expert", func() {
				user := readUser()
				Expect(user.Email).To(Equal("qyburn@citadel.io"))
				Expect(user.Role).To(Equal("expert"))
				Expect(user.IsEmailVerified).To(BeTrue())

				stored, err := concreteStore.GetUser(nil, user.Id)
				Expect(err).To(BeNil())
				Expect(bcrypt.CompareHashAndPassword([]byte(stored.Password.String), []byte("experiments"))).To(Succeed())
			})
		})

		Context("with explicit verification flags", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"name": "Hodor", "phoneNumber": "+15550000042", "role": "caregiver", "isPhoneVerified": false}`
			})
			assertHttpCode(http.StatusCreated)

			It("should honor them", func() {
				Expect(readUser().IsPhoneVerified).To(BeFalse())
			})
		})

		Context("without role", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"name": "Qyburn", "email": "qyburn@citadel.io", "password": "experiments"}`
			})
			assertHttpCode(http.StatusBadRequest)
		})

		Context("with an email already registered", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"name": "Ned", "email": "ned@stark.io", "password": "experiments", "role": "admin"}`
			})
			assertHttpCode(http.StatusBadRequest)

			It("should say which field is taken", func() {
				Expect(readEnvelope().Error).To(ContainSubstring("email is already registered"))
			})
		})

		Context("with an email but no password", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"name": "Qyburn", "email": "qyburn@citadel.io", "role": "expert"}`
			})
			assertHttpCode(http.StatusBadRequest)
		})
	})

	Describe("GET", func() {

		Context("an existing user", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/admin/users/id-caregiver-1"
			})
			assertHttpCode(http.StatusOK)

			It("should not expose secrets", func() {
				Expect(recorder.Body.String()).NotTo(ContainSubstring("password"))
				Expect(recorder.Body.String()).NotTo(ContainSubstring("otp"))
				Expect(readUser().Name).To(Equal("Catelyn Stark"))
			})
		})

		Context("an unknown user", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/admin/users/nobody"
			})
			assertHttpCode(http.StatusNotFound)
		})
	})

	Describe("UPDATE", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodPut
			httpEndpointToUse = "/api/admin/users/id-unverified"
		})

		Context("with a new role and verification", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"role": "expert", "isEmailVerified": true, "password": "ladyofwinterfell"}`
			})
			assertHttpCode(http.StatusOK)

			It("should update only the given fields", func() {
				user := readUser()
				Expect(user.Role).To(Equal("expert"))
				Expect(user.IsEmailVerified).To(BeTrue())
				Expect(user.Name).To(Equal("Sansa Stark"))

				stored, _ := concreteStore.GetUser(nil, "id-unverified")
				Expect(shared.CheckPassword(stored.Password.String, "ladyofwinterfell")).To(BeTrue())
			})
		})

		Context("with an email used by someone else", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"email": "ned@stark.io"}`
			})
			assertHttpCode(http.StatusBadRequest)
		})

		Context("with a short password", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"password": "abc"}`
			})
			assertHttpCode(http.StatusBadRequest)

			It("should leave the user untouched", func() {
				stored, _ := concreteStore.GetUser(nil, "id-unverified")
				Expect(shared.CheckPassword(stored.Password.String, storetest.FixturePassword)).To(BeTrue())
			})
		})

		Context("an unknown user", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/admin/users/nobody"
				httpBodyToUse = `{"name": "Nobody"}`
			})
			assertHttpCode(http.StatusNotFound)
		})
	})

	Describe("DELETE", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodDelete
		})

		Context("another user", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/admin/users/id-unverified"
			})
			assertHttpCode(http.StatusOK)

			It("should remove the user", func() {
				Expect(readEnvelope().Message).To(Equal("User deleted"))
				_, err := concreteStore.GetUser(nil, "id-unverified")
				Expect(err).To(Equal(store.ErrUserNotFound))
			})
		})

		Context("a caregiver who still owns children", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/admin/users/id-caregiver-1"
			})
			assertHttpCode(http.StatusConflict)

			It("should name the reason and keep the account and its children", func() {
				Expect(readEnvelope().Error).To(ContainSubstring("still owns children"))
				_, err := concreteStore.GetUser(nil, "id-caregiver-1")
				Expect(err).To(BeNil())
				_, err = concreteStore.GetChild(nil, "childid-1")
				Expect(err).To(BeNil())
			})
		})

		Context("a caregiver whose children were removed", func() {
			BeforeEach(func() {
				Expect(concreteStore.DeleteChild(nil, "childid-2")).To(Succeed())
				httpEndpointToUse = "/api/admin/users/id-caregiver-2"
			})
			assertHttpCode(http.StatusOK)
		})

		Context("oneself", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/admin/users/id-admin"
			})
			assertHttpCode(http.StatusBadRequest)

			It("should keep the account", func() {
				_, err := concreteStore.GetUser(nil, "id-admin")
				Expect(err).To(BeNil())
			})
		})

		Context("an unknown user", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/admin/users/nobody"
			})
			assertHttpCode(http.StatusNotFound)
		})
	})

	Describe("STATS", func() {

		BeforeEach(func() {
			httpEndpointToUse = "/api/admin/stats"
		})

		assertHttpCode(http.StatusOK)

		It("should count users, children and assessments", func() {
			stats := api.UserStatsTransport{}
			Expect(json.Unmarshal(readEnvelope().Data, &stats)).To(Succeed())
			Expect(stats.TotalUsers).To(Equal(6))
			Expect(stats.ByRole).To(Equal(map[string]int{"admin": 1, "expert": 1, "caregiver": 4}))
			Expect(stats.VerifiedEmail).To(Equal(4))
			Expect(stats.VerifiedPhone).To(Equal(1))
			Expect(stats.TotalChildren).To(Equal(2))
			Expect(stats.TotalAssessments).To(Equal(0))
		})
	})
})
