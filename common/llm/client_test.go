package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/ShayanAhmad11606/FYP-autismart-sub001/common/llm"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

type receivedRequest struct {
	Path          string
	Authorization string
	ContentType   string
	Body          map[string]interface{}
}

var _ = Describe("Client", func() {

	var (
		server   *httptest.Server
		received receivedRequest
		status   int
		answer   string
		client   *Client
	)

	BeforeEach(func() {
		received = receivedRequest{}
		status = http.StatusOK
		answer = `{"model":"gpt-4o-mini-2024","choices":[{"message":{"role":"assistant","content":"  Rickon enjoys memory games.  "}}]}`

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received.Path = r.URL.Path
			received.Authorization = r.Header.Get("Authorization")
			received.ContentType = r.Header.Get("Content-Type")
			json.NewDecoder(r.Body).Decode(&received.Body)
			w.WriteHeader(status)
			w.Write([]byte(answer))
		}))

		var err error
		client, err = NewClient(Options{ApiKey: "sk-test", BaseUrl: server.URL + "/v1/", Model: "gpt-4o-mini", Timeout: time.Second})
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		server.Close()
	})

	Context("when the provider answers", func() {

		It("should post a chat completion and trim the answer", func() {
			completion, err := client.Complete(context.Background(), "be kind", "summarize")
			Expect(err).To(BeNil())
			Expect(completion.Text).To(Equal("Rickon enjoys memory games."))
			Expect(completion.Model).To(Equal("gpt-4o-mini-2024"))

			Expect(received.Path).To(Equal("/v1/chat/completions"))
			Expect(received.Authorization).To(Equal("Bearer sk-test"))
			Expect(received.ContentType).To(Equal("application/json"))
			Expect(received.Body["model"]).To(Equal("gpt-4o-mini"))
			messages := received.Body["messages"].([]interface{})
			Expect(messages).To(HaveLen(2))
			Expect(messages[0]).To(HaveKeyWithValue("role", "system"))
			Expect(messages[0]).To(HaveKeyWithValue("content", "be kind"))
			Expect(messages[1]).To(HaveKeyWithValue("role", "user"))
			Expect(messages[1]).To(HaveKeyWithValue("content", "summarize"))
		})
	})

	Context("when the provider fails", func() {

		BeforeEach(func() {
			status = http.StatusTooManyRequests
			answer = `{"error":{"message":"rate limited"}}`
		})

		It("should return ErrUpstream with the provider message", func() {
			_, err := client.Complete(context.Background(), "be kind", "summarize")
			Expect(errors.Cause(err)).To(Equal(ErrUpstream))
			Expect(err.Error()).To(ContainSubstring("status 429"))
			Expect(err.Error()).To(ContainSubstring("rate limited"))
		})
	})

	Context("when the provider returns no choices", func() {

		BeforeEach(func() {
			answer = `{"choices":[]}`
		})

		It("should return ErrEmptyCompletion", func() {
			_, err := client.Complete(context.Background(), "be kind", "summarize")
			Expect(err).To(Equal(ErrEmptyCompletion))
		})
	})

	Context("when the provider is unreachable", func() {

		It("should return ErrUpstream", func() {
			server.Close()
			_, err := client.Complete(context.Background(), "be kind", "summarize")
			Expect(errors.Cause(err)).To(Equal(ErrUpstream))
		})
	})

	Context("without an api key", func() {

		It("should not call the provider", func() {
			unconfigured, err := NewClient(Options{BaseUrl: server.URL})
			Expect(err).To(BeNil())
			_, err = unconfigured.Complete(context.Background(), "be kind", "summarize")
			Expect(err).To(Equal(ErrNotConfigured))
			Expect(received.Path).To(BeEmpty())
		})
	})

	Context("with a full completions url", func() {

		It("should not append the path twice", func() {
			full, err := NewClient(Options{ApiKey: "sk-test", BaseUrl: server.URL + "/chat/completions"})
			Expect(err).To(BeNil())
			_, err = full.Complete(context.Background(), "be kind", "summarize")
			Expect(err).To(BeNil())
			Expect(received.Path).To(Equal("/chat/completions"))
		})
	})
})
