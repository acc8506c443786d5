package firebase_test

import (
	"context"

	. "github.com/ShayanAhmad11606/FYP-autismart-sub001/common/firebase"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/firebase/mocks"

	"firebase.google.com/go/auth"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
)

var _ = Describe("Client", func() {

	var (
		ctx    = context.Background()
		client *Client
	)

	BeforeEach(func() {
		authClient := &mocks.MockAuthClient{}
		authClient.On("VerifyIDToken", mock.Anything, "good").Return(&auth.Token{UID: "uid-1", Claims: map[string]interface{}{"phone_number": "+15550000001"}}, nil)
		authClient.On("VerifyIDToken", mock.Anything, "no-phone").Return(&auth.Token{UID: "uid-2", Claims: map[string]interface{}{}}, nil)
		authClient.On("VerifyIDToken", mock.Anything, "bad").Return(nil, errors.New("signature mismatch"))
		client = &Client{FirebaseClient: authClient}
	})

	It("should return the phone identity of a valid token", func() {
		identity, err := client.VerifyPhoneToken(ctx, "good")
		Expect(err).To(BeNil())
		Expect(identity).To(Equal(PhoneIdentity{Uid: "uid-1", PhoneNumber: "+15550000001"}))
	})

	It("should refuse a token without phone number", func() {
		_, err := client.VerifyPhoneToken(ctx, "no-phone")
		Expect(err).To(Equal(ErrNoPhoneNumber))
	})

	It("should refuse an invalid token", func() {
		_, err := client.VerifyPhoneToken(ctx, "bad")
		Expect(errors.Cause(err)).To(Equal(ErrInvalidIdToken))
	})

	Context("when phone sign-in is disabled", func() {

		It("should answer ErrNotConfigured", func() {
			_, err := (&Client{FirebaseClient: Disabled{}}).VerifyPhoneToken(ctx, "good")
			Expect(err).To(Equal(ErrNotConfigured))
		})

		It("should answer ErrNotConfigured without auth client", func() {
			_, err := (&Client{}).VerifyPhoneToken(ctx, "good")
			Expect(err).To(Equal(ErrNotConfigured))
		})
	})
})
