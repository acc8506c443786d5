package shared

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const CONFIG_PREFIX = "AUTISMART"

type AppConfig struct {
	ListenAddress string `split_words:"true" default:"0.0.0.0:8080"`
	Debug         bool   `split_words:"true" default:"false"`

	PgUsername             string `split_words:"true" default:"postgres"`
	PgPassword             string `split_words:"true" default:"postgres"`
	PgContactPoint         string `split_words:"true" default:"127.0.0.1"`
	PgContactPort          string `split_words:"true" default:"5432"`
	PgDbName               string `split_words:"true" default:"autismart"`
	SqlMigrationsSourceDir string `split_words:"true" default:"./sql"`
	StartupMigration       bool   `split_words:"true" default:"false"`

	JwtSecret  string        `split_words:"true" default:"autismart-dev-secret"`
	JwtTtl     time.Duration `split_words:"true" default:"168h"`
	OtpTtl     time.Duration `split_words:"true" default:"10m"`
	BcryptCost int           `split_words:"true" default:"10"`

	GcpProjectID           string `split_words:"true" default:"autismart"`
	FirebaseServiceAccount string `split_words:"true" default:"./secrets/firebase-sa.json"`
	FirebaseEnabled        bool   `split_words:"true" default:"true"`

	BucketImagesName      string `split_words:"true" default:"autismart-profiles"`
	BucketServiceAccount  string `split_words:"true" default:"./secrets/bucket-sa.json"`
	LocalStoragePath      string `split_words:"true"`
	LocalStorageUrlPrefix string `split_words:"true" default:"/uploads"`

	AwsRegion    string `split_words:"true" default:"us-east-1"`
	SesFromEmail string `split_words:"true"`
	SesFromName  string `split_words:"true" default:"AutiSmart"`
	SmsTransport string `split_words:"true" default:"sns"`
	SmsSenderId  string `split_words:"true" default:"AutiSmart"`

	PubsubServiceAccount string `split_words:"true" default:"./secrets/pubsub-sa.json"`
	PubsubTopic          string `split_words:"true" default:"notifications"`

	RedisAddress        string        `split_words:"true"`
	RedisPassword       string        `split_words:"true"`
	OtpResendWindow     time.Duration `split_words:"true" default:"60s"`
	OtpAttemptsMax      int64         `split_words:"true" default:"5"`
	LoginAttemptsWindow time.Duration `split_words:"true" default:"15m"`
	LoginAttemptsMax    int64         `split_words:"true" default:"10"`

	OpenaiApiKey  string        `split_words:"true"`
	OpenaiBaseUrl string        `split_words:"true" default:"https://api.openai.com/v1"`
	OpenaiModel   string        `split_words:"true" default:"gpt-4o-mini"`
	OpenaiTimeout time.Duration `split_words:"true" default:"30s"`

	AssessmentSeedFile string `split_words:"true" default:"./api/.seed/assessments.yaml"`
	ActivityScanLimit  int    `split_words:"true" default:"1000"`

	OtelEnabled      bool    `split_words:"true" default:"false"`
	OtelEndpoint     string  `split_words:"true"`
	OtelSampleRatio  float64 `split_words:"true" default:"0.1"`
	OtelEnvironment  string  `split_words:"true" default:"development"`
	OtelServiceName  string  `split_words:"true" default:"autismart-api"`
	OtelStdoutExport bool    `split_words:"true" default:"false"`
}

func InitAppConfiguration() (config *AppConfig, err error) {
	config = &AppConfig{}
	if err := envconfig.Process(CONFIG_PREFIX, config); err != nil {
		return nil, fmt.Errorf("failed to parse env vars: %v", err)
	}

	return
}
