package shared

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const CONFIG_PREFIX = "EVENT_MANAGER"

type AppConfig struct {
	ListenAddress string `split_words:"true" default:"0.0.0.0:8081"`

	GcpProjectID         string        `split_words:"true" default:"autismart"`
	PubsubServiceAccount string        `split_words:"true" default:"./secrets/pubsub-sa.json"`
	PubsubTopic          string        `split_words:"true" default:"notifications"`
	PubsubSubscription   string        `split_words:"true" default:"notifications-sms"`
	PubsubAckDeadline    time.Duration `split_words:"true" default:"20s"`

	AwsRegion   string `split_words:"true" default:"us-east-1"`
	SmsSenderId string `split_words:"true" default:"AutiSmart"`

	OtelEnabled      bool    `split_words:"true" default:"false"`
	OtelEndpoint     string  `split_words:"true"`
	OtelSampleRatio  float64 `split_words:"true" default:"0.1"`
	OtelEnvironment  string  `split_words:"true" default:"development"`
	OtelStdoutExport bool    `split_words:"true" default:"false"`
}

func InitAppConfiguration() (config *AppConfig, err error) {
	config = &AppConfig{}

	if err := envconfig.Process(CONFIG_PREFIX, config); err != nil {
		return nil, fmt.Errorf("failed to parse env vars: %v", err)
	}

	return
}
