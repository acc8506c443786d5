package generator

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/Pallinder/go-randomdata"
	"github.com/satori/go.uuid"
)

const otpDigits = 6

type StringGenerator struct {
}

// GenerateRandomName gives phone-only accounts a readable display name.
func (n *StringGenerator) GenerateRandomName() string {
	return strings.Title(randomdata.SillyName())
}

func (n *StringGenerator) GenerateUuid() string {
	id, err := uuid.NewV4()
	if err != nil {
		panic(err)
	}
	return id.String()
}

func (n *StringGenerator) GenerateOtp() string {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	value, err := rand.Int(rand.Reader, max)
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%0*d", otpDigits, value.Int64())
}
