package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/ShayanAhmad11606/FYP-autismart-sub001/common/api"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

func writeEnvelope(w http.ResponseWriter, code int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	body := map[string]interface{}{"success": code < 400}
	if code < 400 {
		body["data"] = data
	} else {
		body["error"] = message
	}
	json.NewEncoder(w).Encode(body)
}

var _ = Describe("Client", func() {

	var (
		server   *httptest.Server
		sessions *MemorySessionStore
		client   *DefaultClient
		ctx      = context.Background()

		lastAuthorization string
		lastQuery         string
	)

	BeforeEach(func() {
		lastAuthorization = ""
		lastQuery = ""

		mux := http.NewServeMux()
		mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
			request := LoginRequest{}
			json.NewDecoder(r.Body).Decode(&request)
			if request.Password != "winteriscoming" {
				writeEnvelope(w, http.StatusUnauthorized, nil, "invalid credentials")
				return
			}
			writeEnvelope(w, http.StatusOK, SessionTransport{Token: "token-1", User: UserTransport{Id: "id-caregiver-1", Email: request.Email}}, "")
		})
		mux.HandleFunc("/api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
			lastAuthorization = r.Header.Get("Authorization")
			if lastAuthorization == "Bearer expired" {
				writeEnvelope(w, http.StatusUnauthorized, nil, "token expired")
				return
			}
			writeEnvelope(w, http.StatusOK, UserTransport{Id: "id-caregiver-1", Name: "Catelyn Stark"}, "")
		})
		mux.HandleFunc("/api/caregiver/children/childid-1/activities", func(w http.ResponseWriter, r *http.Request) {
			lastAuthorization = r.Header.Get("Authorization")
			lastQuery = r.URL.RawQuery
			writeEnvelope(w, http.StatusOK, []ActivityTransport{{Id: "activityid-3"}, {Id: "activityid-2"}}, "")
		})
		mux.HandleFunc("/api/caregiver/children/childid-2", func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusForbidden, nil, "you are not the caregiver of this child")
		})
		mux.HandleFunc("/api/caregiver/children/childid-1/report/download", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.3"))
		})
		server = httptest.NewServer(mux)

		sessions = &MemorySessionStore{}
		var err error
		client, err = NewDefaultClient(server.URL, sessions, nil)
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		server.Close()
	})

	Context("without a session", func() {

		It("should not call authenticated routes", func() {
			_, err := client.Profile(ctx)
			Expect(err).To(Equal(ErrNoSession))
			Expect(lastAuthorization).To(BeEmpty())
		})
	})

	Context("after login", func() {

		BeforeEach(func() {
			_, err := client.Login(ctx, LoginRequest{Email: "catelyn@stark.io", Password: "winteriscoming"})
			Expect(err).To(BeNil())
		})

		It("should save the session", func() {
			session, _ := sessions.Load()
			Expect(session.Token).To(Equal("token-1"))
			Expect(session.User.Email).To(Equal("catelyn@stark.io"))
		})

		It("should send the bearer token", func() {
			user, err := client.Profile(ctx)
			Expect(err).To(BeNil())
			Expect(user.Name).To(Equal("Catelyn Stark"))
			Expect(lastAuthorization).To(Equal("Bearer token-1"))
		})

		It("should pass the limit in the query", func() {
			activities, err := client.ListActivities(ctx, "childid-1", 2)
			Expect(err).To(BeNil())
			Expect(activities).To(HaveLen(2))
			Expect(lastQuery).To(Equal("limit=2"))
		})

		It("should surface the error message of the server", func() {
			_, err := client.GetChild(ctx, "childid-2")
			Expect(errors.Cause(err)).To(Equal(ErrServerForbidden))
			Expect(err.Error()).To(ContainSubstring("you are not the caregiver of this child"))
		})

		It("should download the raw report", func() {
			pdf, err := client.DownloadReport(ctx, "childid-1")
			Expect(err).To(BeNil())
			Expect(string(pdf)).To(Equal("%PDF-1.3"))
		})

		It("should forget the session on logout", func() {
			Expect(client.Logout(ctx)).To(Succeed())
			_, err := client.Profile(ctx)
			Expect(err).To(Equal(ErrNoSession))
		})
	})

	Context("with an expired session", func() {

		BeforeEach(func() {
			sessions.Save(Session{Token: "expired"})
		})

		It("should drop the stored session", func() {
			_, err := client.Profile(ctx)
			Expect(errors.Cause(err)).To(Equal(ErrServerUnauthorized))
			session, _ := sessions.Load()
			Expect(session.IsZero()).To(BeTrue())
		})
	})

	Context("with wrong credentials", func() {

		It("should not save a session", func() {
			_, err := client.Login(ctx, LoginRequest{Email: "catelyn@stark.io", Password: "summer"})
			Expect(errors.Cause(err)).To(Equal(ErrServerUnauthorized))
			session, _ := sessions.Load()
			Expect(session.IsZero()).To(BeTrue())
		})
	})
})
