package activities_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/ShayanAhmad11606/FYP-autismart-sub001/api/activities"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/authentication"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/children"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared"
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
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

var _ = Describe("Percentage", func() {

	DescribeTable("derives a bounded percentage",
		func(score, maxScore, expected float64) {
			Expect(Percentage(score, maxScore)).To(BeNumerically("~", expected, 0.001))
		},
		Entry("regular score", 8.0, 10.0, 80.0),
		Entry("rounded to two decimals", 2.0, 3.0, 66.67),
		Entry("above the maximum", 12.0, 10.0, 100.0),
		Entry("no maximum", 5.0, 0.0, 0.0),
	)
})

var _ = Describe("Transport", func() {

	var (
		router   *mux.Router
		recorder *httptest.ResponseRecorder

		concreteStore *store.Store
		concreteDb    *gorm.DB

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

		readActivity = func() api.ActivityTransport {
			activity := api.ActivityTransport{}
			Expect(json.Unmarshal(readEnvelope().Data, &activity)).To(Succeed())
			return activity
		}

		readActivities = func() []api.ActivityTransport {
			activities := []api.ActivityTransport{}
			Expect(json.Unmarshal(readEnvelope().Data, &activities)).To(Succeed())
			return activities
		}

		assertHttpCode = func(code int) {
			It(fmt.Sprintf("should respond with status code %d", code), func() {
				Expect(recorder.Code).To(Equal(code))
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
		activityService := &ActivityService{
			Store:  concreteStore,
			Guard:  &children.Guard{Store: concreteStore},
			Config: &shared.AppConfig{ActivityScanLimit: 1000},
			Logger: logger,
		}
		authenticator := &authentication.Authenticator{Logger: logger}
		handlerFactory := HandlerFactory{Service: activityService}

		opts := []kithttp.ServerOption{
			kithttp.ServerErrorEncoder(EncodeError),
		}

		router = mux.NewRouter()
		router.Handle("/api/caregiver/children/{childId}/activities", authenticator.Roles(handlerFactory.Record(opts), roles.ROLE_CAREGIVER)).Methods(http.MethodPost)
		router.Handle("/api/caregiver/children/{childId}/activities", authenticator.Roles(handlerFactory.List(opts), roles.All...)).Methods(http.MethodGet)

		userIdToUse = "id-caregiver-1"
		roleToUse = roles.ROLE_CAREGIVER
		httpMethodToUse = http.MethodPost
		httpEndpointToUse = "/api/caregiver/children/childid-1/activities"
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

	Describe("RECORD", func() {

		Context("a game with a score", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"activityType": "game", "activityName": "Memory Match", "score": 7, "maxScore": 8, "duration": 65, "details": {"level": 3}}`
			})
			assertHttpCode(http.StatusCreated)

			It("should derive the percentage", func() {
				activity := readActivity()
				Expect(*activity.Percentage).To(BeNumerically("~", 87.5, 0.001))
				Expect(activity.CaregiverId).To(Equal("id-caregiver-1"))
				Expect(activity.ChildId).To(Equal("childid-1"))
				Expect(string(activity.Details)).To(MatchJSON(`{"level": 3}`))
			})

			It("should default completedAt to now", func() {
				Expect(readActivity().CompletedAt).To(BeTemporally("~", time.Now(), 5*time.Second))
			})
		})

		Context("with an explicit percentage and date", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"activityType": "therapy", "activityName": "Speech session", "score": 1, "maxScore": 10, "percentage": 55, "completedAt": "2024-02-01T10:00:00Z"}`
			})
			assertHttpCode(http.StatusCreated)

			It("should keep them", func() {
				activity := readActivity()
				Expect(*activity.Percentage).To(Equal(55.0))
				Expect(activity.CompletedAt).To(Equal(time.Date(2024, time.February, 1, 10, 0, 0, 0, time.UTC)))
			})
		})

		Context("without score", func() {
			BeforeEach(func() {
				httpBodyToUse = `{"activityType": "therapy", "activityName": "Sensory play"}`
			})
			assertHttpCode(http.StatusCreated)

			It("should leave the percentage empty", func() {
				Expect(readActivity().Percentage).To(BeNil())
			})
		})

		DescribeTable("rejects invalid activities",
			func(body, message string) {
				req, _ := http.NewRequest(http.MethodPost, "/api/caregiver/children/childid-1/activities", strings.NewReader(body))
				req = req.WithContext(claims.WithClaims(req.Context(), claims.New("id-caregiver-1", roles.ROLE_CAREGIVER)))
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, req)
				Expect(rec.Code).To(Equal(http.StatusBadRequest))
				Expect(rec.Body.String()).To(ContainSubstring(message))
			},
			Entry("unknown type", `{"activityType": "sport", "activityName": "Run"}`, "activityType"),
			Entry("missing name", `{"activityType": "game"}`, "activityName"),
			Entry("negative score", `{"activityType": "game", "activityName": "Run", "score": -1}`, "score"),
			Entry("zero max score", `{"activityType": "game", "activityName": "Run", "maxScore": 0}`, "maxScore"),
			Entry("percentage above 100", `{"activityType": "game", "activityName": "Run", "percentage": 120}`, "percentage"),
			Entry("negative duration", `{"activityType": "game", "activityName": "Run", "duration": -3}`, "duration"),
			Entry("invalid date", `{"activityType": "game", "activityName": "Run", "completedAt": "yesterday-ish"}`, "completedAt"),
		)

		Context("for a child of another caregiver", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/caregiver/children/childid-2/activities"
				httpBodyToUse = `{"activityType": "game", "activityName": "Memory Match"}`
			})
			assertHttpCode(http.StatusForbidden)
		})

		Context("for an unknown child", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/caregiver/children/unknown/activities"
				httpBodyToUse = `{"activityType": "game", "activityName": "Memory Match"}`
			})
			assertHttpCode(http.StatusNotFound)
		})

		Context("as an expert", func() {
			BeforeEach(func() {
				userIdToUse = "id-expert"
				roleToUse = roles.ROLE_EXPERT
				httpBodyToUse = `{"activityType": "game", "activityName": "Memory Match"}`
			})
			assertHttpCode(http.StatusForbidden)
		})
	})

	Describe("LIST", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodGet
		})

		Context("as the owner", func() {
			assertHttpCode(http.StatusOK)

			It("should list newest first", func() {
				activities := readActivities()
				Expect(activities).To(HaveLen(3))
				Expect(activities[0].Id).To(Equal("activityid-3"))
				Expect(*activities[0].Percentage).To(Equal(50.0))
				Expect(activities[0].Difficulty).To(Equal("easy"))
			})
		})

		Context("with a limit", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/caregiver/children/childid-1/activities?limit=1"
			})
			assertHttpCode(http.StatusOK)

			It("should honor it", func() {
				Expect(readActivities()).To(HaveLen(1))
			})
		})

		Context("with an invalid limit", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/caregiver/children/childid-1/activities?limit=-2"
			})
			assertHttpCode(http.StatusBadRequest)
		})

		Context("as another caregiver", func() {
			BeforeEach(func() {
				userIdToUse = "id-caregiver-2"
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

		Context("for a child without activities", func() {
			BeforeEach(func() {
				userIdToUse = "id-caregiver-2"
				httpEndpointToUse = "/api/caregiver/children/childid-2/activities"
			})
			assertHttpCode(http.StatusOK)

			It("should respond an empty list", func() {
				Expect(string(readEnvelope().Data)).To(Equal("[]"))
			})
		})
	})
})
