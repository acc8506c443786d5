package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/activities"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/assessments"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/authentication"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/children"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/insights"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/reports"
	. "github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/users"
	autismartFirebase "github.com/ShayanAhmad11606/FYP-autismart-sub001/common/firebase"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/generator"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/llm"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/log"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/messaging"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/notification"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/reporting/document"
	. "github.com/ShayanAhmad11606/FYP-autismart-sub001/common/roles"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/storage"
	. "github.com/ShayanAhmad11606/FYP-autismart-sub001/common/store"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/store/migrations"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/throttle"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/tracing"

	"firebase.google.com/go"
	"firebase.google.com/go/auth"
	"github.com/facebookgo/inject"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

var (
	ctx             = context.Background()
	logger          = log.NewLogger("autismart")
	config          *AppConfig
	db              *gorm.DB
	stringGenerator = &generator.StringGenerator{}
	shutdownTracing func(context.Context) error

	authenticationService = &authentication.AuthenticationService{}
	userService           = &users.UserService{}
	childService          = &children.ChildService{}
	activityService       = &activities.ActivityService{}
	assessmentService     = &assessments.AssessmentService{}
	reportService         = &reports.ReportService{}
	insightService        = &insights.InsightService{}

	authenticationHandlerFactory = &authentication.HandlerFactory{}
	userHandlerFactory           = &users.HandlerFactory{}
	childrenHandlerFactory       = &children.HandlerFactory{}
	activitiesHandlerFactory     = &activities.HandlerFactory{}
	assessmentsHandlerFactory    = &assessments.HandlerFactory{}
	reportsHandlerFactory        = &reports.HandlerFactory{}
	insightsHandlerFactory       = &insights.HandlerFactory{}

	autismartFirebaseClient = &autismartFirebase.Client{}
	firebaseClient          *auth.Client

	dbStore       = &Store{}
	imageStorage  storage.Storage
	childGuard    = &children.Guard{}
	renderer      = &document.Renderer{}
	tokenSigner   *authentication.TokenSigner
	authenticator = &authentication.Authenticator{}

	emailSender    *notification.SesEmailSender
	smsSender      notification.SmsSender
	pubSubClient   *messaging.Client
	otpThrottler        throttle.Throttler
	otpAttemptThrottler throttle.Throttler
	loginThrottler      throttle.Throttler
	llmClient           *llm.Client
)

func init() {
	checkErrAndExit(initAppConfiguration())
	checkErrAndExit(initTracing())
	checkErrAndExit(initStorage())
	checkErrAndExit(initPostgresConnection())
	checkErrAndExit(initFirebase())
	checkErrAndExit(initNotifications())
	checkErrAndExit(initThrottlers())
	checkErrAndExit(initLlm())
	checkErrAndExit(initApplicationGraph())
}

func initAppConfiguration() (err error) {
	config, err = InitAppConfiguration()
	if err != nil {
		return
	}
	VerboseErrors = config.Debug
	tokenSigner = &authentication.TokenSigner{Secret: []byte(config.JwtSecret), Ttl: config.JwtTtl}
	return
}

func initTracing() (err error) {
	shutdownTracing, err = tracing.Init(ctx, logger, tracing.Options{
		Enabled:     config.OtelEnabled,
		ServiceName: config.OtelServiceName,
		Environment: config.OtelEnvironment,
		Endpoint:    config.OtelEndpoint,
		SampleRatio: config.OtelSampleRatio,
		Stdout:      config.OtelStdoutExport,
	})
	return
}

func initStorage() (err error) {
	if config.LocalStoragePath != "" {
		logger.Info(ctx, "storing images on the local filesystem", "path", config.LocalStoragePath)
		imageStorage = &storage.LocalStorage{
			Root:            config.LocalStoragePath,
			PublicUrlPrefix: localStoragePrefix() + "/",
		}
		return
	}
	imageStorage, err = storage.New(ctx, storage.Options{
		BucketName:      config.BucketImagesName,
		CredentialsFile: config.BucketServiceAccount,
	})
	return
}

func localStoragePrefix() string {
	return "/" + strings.Trim(config.LocalStorageUrlPrefix, "/")
}

func initPostgresConnection() (err error) {
	connectString := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		config.PgContactPoint,
		config.PgContactPort,
		config.PgUsername,
		config.PgPassword,
		config.PgDbName)
	db, err = gorm.Open("postgres", connectString)
	if err != nil {
		return
	}

	db.LogMode(config.Debug)
	db.SetLogger(logger)
	return
}

func initFirebase() error {
	if !config.FirebaseEnabled {
		logger.Warn(ctx, "firebase phone sign-in is disabled")
		autismartFirebaseClient.FirebaseClient = autismartFirebase.Disabled{}
		return nil
	}

	opt := option.WithCredentialsFile(config.FirebaseServiceAccount)
	firebaseConfig := &firebase.Config{ProjectID: config.GcpProjectID}

	firebaseApp, err := firebase.NewApp(ctx, firebaseConfig, opt)
	if err != nil {
		return err
	}

	firebaseClient, err = firebaseApp.Auth(ctx)
	if err != nil {
		return errors.Wrap(err, "error getting Auth client")
	}
	autismartFirebaseClient.FirebaseClient = firebaseClient
	return nil
}

func initNotifications() (err error) {
	emailSender, err = notification.NewSesEmailSender(ctx, config.AwsRegion, config.SesFromEmail, config.SesFromName, config.Debug)
	if err != nil {
		return
	}
	if !emailSender.IsEnabled() {
		if config.Debug {
			logger.Warn(ctx, "no ses sender address, email codes are written to the debug log")
		} else {
			logger.Warn(ctx, "no ses sender address, email registration and password reset are unavailable")
		}
	}

	switch config.SmsTransport {
	case "pubsub":
		pubSubClient, err = messaging.New(ctx, messaging.ClientOptions{
			ProjectID:      config.GcpProjectID,
			Topic:          config.PubsubTopic,
			CredentialPath: config.PubsubServiceAccount,
		})
		if err != nil {
			return
		}
		if err = pubSubClient.EnsureTopicAndSubscription(ctx, 20*time.Second); err != nil {
			return
		}
		smsSender = &notification.PubSubSmsSender{}
	case "sns":
		smsSender, err = notification.NewSnsSmsSender(ctx, config.AwsRegion, config.SmsSenderId)
	default:
		err = fmt.Errorf("unknown sms transport %q, must be sns or pubsub", config.SmsTransport)
	}
	return
}

func initThrottlers() error {
	if config.RedisAddress == "" {
		logger.Warn(ctx, "no redis address, throttling counters are kept per instance")
		otpThrottler = throttle.NewMemoryThrottler(config.OtpResendWindow, 1)
		otpAttemptThrottler = throttle.NewMemoryThrottler(config.OtpTtl, config.OtpAttemptsMax)
		loginThrottler = throttle.NewMemoryThrottler(config.LoginAttemptsWindow, config.LoginAttemptsMax)
		return nil
	}
	redisClient, err := throttle.NewRedisClient(ctx, config.RedisAddress, config.RedisPassword)
	if err != nil {
		return err
	}
	otpThrottler = throttle.NewRedisThrottler(redisClient, "otp", config.OtpResendWindow, 1)
	otpAttemptThrottler = throttle.NewRedisThrottler(redisClient, "otp-check", config.OtpTtl, config.OtpAttemptsMax)
	loginThrottler = throttle.NewRedisThrottler(redisClient, "login", config.LoginAttemptsWindow, config.LoginAttemptsMax)
	return nil
}

func initLlm() (err error) {
	llmClient, err = llm.NewClient(llm.Options{
		ApiKey:  config.OpenaiApiKey,
		BaseUrl: config.OpenaiBaseUrl,
		Model:   config.OpenaiModel,
		Timeout: config.OpenaiTimeout,
	})
	if err == nil && config.OpenaiApiKey == "" {
		logger.Warn(ctx, "no openai api key, insights are disabled")
	}
	return
}

func initApplicationGraph() error {
	objects := []*inject.Object{
		{Value: config},
		{Value: db},
		{Value: logger},
		{Value: stringGenerator},
		{Value: dbStore},
		{Value: imageStorage},
		{Value: tokenSigner},
		{Value: authenticator},
		{Value: childGuard},
		{Value: renderer},
		{Value: emailSender},
		{Value: smsSender},
		{Value: llmClient},
		{Value: autismartFirebaseClient, Name: "autismartFirebaseClient"},
		{Value: otpThrottler, Name: "otpThrottler"},
		{Value: otpAttemptThrottler, Name: "otpAttemptThrottler"},
		{Value: loginThrottler, Name: "loginThrottler"},

		{Value: authenticationService},
		{Value: userService},
		{Value: childService},
		{Value: activityService},
		{Value: assessmentService},
		{Value: reportService},
		{Value: insightService},

		{Value: authenticationHandlerFactory},
		{Value: userHandlerFactory},
		{Value: childrenHandlerFactory},
		{Value: activitiesHandlerFactory},
		{Value: assessmentsHandlerFactory},
		{Value: reportsHandlerFactory},
		{Value: insightsHandlerFactory},
	}
	if pubSubClient != nil {
		objects = append(objects, &inject.Object{Value: pubSubClient})
	}

	g := inject.Graph{}
	if err := g.Provide(objects...); err != nil {
		return errors.Wrap(err, "failed to provide")
	}
	if err := g.Populate(); err != nil {
		return errors.Wrap(err, "failed to populate")
	}
	return nil
}

func main() {
	if config.StartupMigration {
		applySqlSchemaMigrations(ctx)
	}
	seedAssessments(ctx)
	startHttpServer(ctx)
}

func applySqlSchemaMigrations(ctx context.Context) {
	logger.Info(ctx, "applying sql schema migrations")
	migrationResult := migrations.Up(migrations.ApplyOptions{
		SourceURL: fmt.Sprintf("file://%s", config.SqlMigrationsSourceDir),
		DatabaseURL: fmt.Sprintf("postgres://%v:%v/%v?sslmode=disable&user=%s&password=%s",
			config.PgContactPoint, config.PgContactPort, config.PgDbName, config.PgUsername, config.PgPassword),
	})
	checkErrAndExit(migrationResult.Err)
	if !migrationResult.Changes {
		logger.Info(ctx, "no new migrations applied", "version", migrationResult.Version)
	}
}

func seedAssessments(ctx context.Context) {
	seeded, err := assessmentService.Seed(ctx, config.AssessmentSeedFile)
	if err != nil {
		logger.Err(ctx, "failed to seed assessments", "err", err)
		return
	}
	if seeded > 0 {
		logger.Info(ctx, "assessments seeded", "count", seeded)
	}
}

func startHttpServer(ctx context.Context) {
	errorLogger := kithttp.ServerErrorLogger(logger)
	authenticationOpts := []kithttp.ServerOption{errorLogger, kithttp.ServerErrorEncoder(authentication.EncodeError)}
	userOpts := []kithttp.ServerOption{errorLogger, kithttp.ServerErrorEncoder(users.EncodeError)}
	childrenOpts := []kithttp.ServerOption{errorLogger, kithttp.ServerErrorEncoder(children.EncodeError)}
	activitiesOpts := []kithttp.ServerOption{errorLogger, kithttp.ServerErrorEncoder(activities.EncodeError)}
	assessmentsOpts := []kithttp.ServerOption{errorLogger, kithttp.ServerErrorEncoder(assessments.EncodeError)}
	reportsOpts := []kithttp.ServerOption{errorLogger, kithttp.ServerErrorEncoder(reports.EncodeError)}
	insightsOpts := []kithttp.ServerOption{errorLogger, kithttp.ServerErrorEncoder(insights.EncodeError)}

	router := mux.NewRouter()
	router.Use(tracing.Middleware)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	router.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.DB().PingContext(r.Context()); err != nil {
			logger.Warn(r.Context(), "database is not reachable", "err", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	authRouter := router.PathPrefix("/api/auth").Subrouter()
	authRouter.Handle("/register", authenticationHandlerFactory.Register(authenticationOpts)).Methods(http.MethodPost)
	authRouter.Handle("/verify-otp", authenticationHandlerFactory.VerifyOtp(authenticationOpts)).Methods(http.MethodPost)
	authRouter.Handle("/login", authenticationHandlerFactory.Login(authenticationOpts)).Methods(http.MethodPost)
	authRouter.Handle("/resend-otp", authenticationHandlerFactory.ResendOtp(authenticationOpts)).Methods(http.MethodPost)
	authRouter.Handle("/forgot-password", authenticationHandlerFactory.ForgotPassword(authenticationOpts)).Methods(http.MethodPost)
	authRouter.Handle("/reset-password", authenticationHandlerFactory.ResetPassword(authenticationOpts)).Methods(http.MethodPost)
	authRouter.Handle("/firebase-login", authenticationHandlerFactory.FirebaseLogin(authenticationOpts)).Methods(http.MethodPost)
	authRouter.Handle("/profile", authenticator.Roles(authenticationHandlerFactory.Profile(authenticationOpts), All...)).Methods(http.MethodGet)
	authRouter.Handle("/change-password", authenticator.Roles(authenticationHandlerFactory.ChangePassword(authenticationOpts), All...)).Methods(http.MethodPut)

	adminRouter := router.PathPrefix("/api/admin").Subrouter()
	adminRouter.Handle("/users", authenticator.Roles(userHandlerFactory.List(userOpts), ROLE_ADMIN)).Methods(http.MethodGet)
	adminRouter.Handle("/users", authenticator.Roles(userHandlerFactory.Add(userOpts), ROLE_ADMIN)).Methods(http.MethodPost)
	adminRouter.Handle("/users/{userId}", authenticator.Roles(userHandlerFactory.Get(userOpts), ROLE_ADMIN)).Methods(http.MethodGet)
	adminRouter.Handle("/users/{userId}", authenticator.Roles(userHandlerFactory.Update(userOpts), ROLE_ADMIN)).Methods(http.MethodPut)
	adminRouter.Handle("/users/{userId}", authenticator.Roles(userHandlerFactory.Delete(userOpts), ROLE_ADMIN)).Methods(http.MethodDelete)
	adminRouter.Handle("/stats", authenticator.Roles(userHandlerFactory.Stats(userOpts), ROLE_ADMIN)).Methods(http.MethodGet)
	adminRouter.Handle("/assessments", authenticator.Roles(assessmentsHandlerFactory.ListAll(assessmentsOpts), ROLE_ADMIN)).Methods(http.MethodGet)
	adminRouter.Handle("/assessments", authenticator.Roles(assessmentsHandlerFactory.Add(assessmentsOpts), ROLE_ADMIN)).Methods(http.MethodPost)
	adminRouter.Handle("/assessments/{assessmentId}", authenticator.Roles(assessmentsHandlerFactory.Update(assessmentsOpts), ROLE_ADMIN)).Methods(http.MethodPut)
	adminRouter.Handle("/assessments/{assessmentId}", authenticator.Roles(assessmentsHandlerFactory.Delete(assessmentsOpts), ROLE_ADMIN)).Methods(http.MethodDelete)
	adminRouter.Handle("/assessments/{assessmentId}/toggle", authenticator.Roles(assessmentsHandlerFactory.Toggle(assessmentsOpts), ROLE_ADMIN)).Methods(http.MethodPatch)

	router.Handle("/api/assessments", authenticator.Roles(assessmentsHandlerFactory.ListActive(assessmentsOpts), All...)).Methods(http.MethodGet)
	router.Handle("/api/assessments/{level}", authenticator.Roles(assessmentsHandlerFactory.GetByLevel(assessmentsOpts), All...)).Methods(http.MethodGet)

	caregiverRouter := router.PathPrefix("/api/caregiver").Subrouter()
	caregiverRouter.Handle("/children", authenticator.Roles(childrenHandlerFactory.Add(childrenOpts), ROLE_CAREGIVER)).Methods(http.MethodPost)
	caregiverRouter.Handle("/children", authenticator.Roles(childrenHandlerFactory.List(childrenOpts), All...)).Methods(http.MethodGet)
	caregiverRouter.Handle("/children/{childId}", authenticator.Roles(childrenHandlerFactory.Get(childrenOpts), All...)).Methods(http.MethodGet)
	caregiverRouter.Handle("/children/{childId}", authenticator.Roles(childrenHandlerFactory.Update(childrenOpts), All...)).Methods(http.MethodPut)
	caregiverRouter.Handle("/children/{childId}", authenticator.Roles(childrenHandlerFactory.Delete(childrenOpts), All...)).Methods(http.MethodDelete)
	caregiverRouter.Handle("/children/{childId}/activities", authenticator.Roles(activitiesHandlerFactory.Record(activitiesOpts), ROLE_CAREGIVER)).Methods(http.MethodPost)
	caregiverRouter.Handle("/children/{childId}/activities", authenticator.Roles(activitiesHandlerFactory.List(activitiesOpts), All...)).Methods(http.MethodGet)
	caregiverRouter.Handle("/children/{childId}/report", authenticator.Roles(reportsHandlerFactory.Report(reportsOpts), All...)).Methods(http.MethodGet)
	caregiverRouter.Handle("/children/{childId}/report/download", authenticator.Roles(reportsHandlerFactory.Download(reportsOpts), All...)).Methods(http.MethodGet)

	router.Handle("/api/ai/generate-insight/{childId}", authenticator.Roles(insightsHandlerFactory.Generate(insightsOpts), All...)).Methods(http.MethodPost)

	publicPaths := []string{
		"/healthz",
		"/readyz",
		"/api/auth/register",
		"/api/auth/verify-otp",
		"/api/auth/login",
		"/api/auth/resend-otp",
		"/api/auth/forgot-password",
		"/api/auth/reset-password",
		"/api/auth/firebase-login",
	}

	root := mux.NewRouter()
	if config.LocalStoragePath != "" {
		prefix := localStoragePrefix()
		root.PathPrefix(prefix + "/").Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(config.LocalStoragePath)))).Methods(http.MethodGet)
	}
	root.PathPrefix("/").Handler(authenticator.Session(router, publicPaths))

	server := &http.Server{
		Addr:              config.ListenAddress,
		Handler:           logger.RequestLoggerMiddleware(root),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info(ctx, "api listening", "address", config.ListenAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			checkErrAndExit(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
	shutdownTracing(shutdownCtx)
	if pubSubClient != nil {
		pubSubClient.Close()
	}
	db.Close()
}

func checkErrAndExit(err error) {
	if err == nil {
		return
	}
	fmt.Println(err.Error())
	os.Exit(1)
}
