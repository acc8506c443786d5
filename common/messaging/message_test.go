package messaging_test

import (
	"encoding/json"

	. "github.com/ShayanAhmad11606/FYP-autismart-sub001/common/messaging"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Message", func() {

	It("should carry the event type and its json payload", func() {
		msg, err := NewEvent("otp.sms", map[string]string{"phoneNumber": "+15550000001"})
		Expect(err).To(BeNil())
		Expect(msg.Type()).To(Equal("otp.sms"))

		payload := map[string]string{}
		Expect(json.Unmarshal(msg.Data, &payload)).To(Succeed())
		Expect(payload["phoneNumber"]).To(Equal("+15550000001"))
	})

	It("should ignore ack and nack until callbacks are registered", func() {
		msg := Message{}
		Expect(msg.Ack()).To(Succeed())
		Expect(msg.Nack()).To(Succeed())
	})

	It("should call the registered callbacks", func() {
		acked, nacked := false, false
		msg := Message{}
		msg.RegisterAck(func() error { acked = true; return nil })
		msg.RegisterNack(func() error { nacked = true; return nil })

		Expect(msg.Ack()).To(Succeed())
		Expect(msg.Nack()).To(Succeed())
		Expect(acked).To(BeTrue())
		Expect(nacked).To(BeTrue())
	})
})
