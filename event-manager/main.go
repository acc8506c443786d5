package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/log"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/messaging"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/notification"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/tracing"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/event-manager/consumers"
	. "github.com/ShayanAhmad11606/FYP-autismart-sub001/event-manager/shared"

	"github.com/facebookgo/inject"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

var (
	ctx, cancel = context.WithCancel(context.Background())
	logger      = log.NewLogger("event-manager")
	config      *AppConfig

	shutdownTracing func(context.Context) error

	pubSubClient *messaging.Client
	smsSender    *notification.SnsSmsSender

	consumer      *consumers.Consumer
	otpSmsHandler *consumers.OtpSmsHandler
)

func init() {
	checkErrAndExit(initAppConfiguration())
	checkErrAndExit(initTracing())
	checkErrAndExit(initSmsSender())
	checkErrAndExit(initPubSubClient())
	checkErrAndExit(initConsumer())
	checkErrAndExit(initApplicationGraph())
}

func initAppConfiguration() (err error) {
	config, err = InitAppConfiguration()
	return
}

func initTracing() (err error) {
	shutdownTracing, err = tracing.Init(ctx, logger, tracing.Options{
		Enabled:     config.OtelEnabled,
		ServiceName: "autismart-event-manager",
		Environment: config.OtelEnvironment,
		Endpoint:    config.OtelEndpoint,
		SampleRatio: config.OtelSampleRatio,
		Stdout:      config.OtelStdoutExport,
	})
	return
}

func initSmsSender() (err error) {
	smsSender, err = notification.NewSnsSmsSender(ctx, config.AwsRegion, config.SmsSenderId)
	return
}

func initPubSubClient() (err error) {
	pubSubClient, err = messaging.New(ctx, messaging.ClientOptions{
		ProjectID:      config.GcpProjectID,
		Topic:          config.PubsubTopic,
		Subscription:   config.PubsubSubscription,
		CredentialPath: config.PubsubServiceAccount,
	})
	if err != nil {
		return err
	}

	for {
		err := pubSubClient.EnsureTopicAndSubscription(ctx, config.PubsubAckDeadline)
		if err == nil {
			logger.Info(ctx, "subscription ready", "topic", config.PubsubTopic, "subscription", config.PubsubSubscription)
			return nil
		}
		logger.Err(ctx, "failed to prepare the subscription, retrying", "err", err)
		time.Sleep(time.Second)
	}
}

func initConsumer() (err error) {
	otpSmsHandler = &consumers.OtpSmsHandler{}
	consumer = &consumers.Consumer{}
	consumer.EventHandlers = append(consumer.EventHandlers, otpSmsHandler)
	return
}

func initApplicationGraph() error {
	g := inject.Graph{}
	g.Provide(
		&inject.Object{Value: config},
		&inject.Object{Value: logger},
		&inject.Object{Value: pubSubClient},
		&inject.Object{Value: smsSender, Name: "smsSender"},
		&inject.Object{Value: otpSmsHandler},
		&inject.Object{Value: consumer},
	)
	if err := g.Populate(); err != nil {
		return errors.Wrap(err, "failed to populate")
	}
	return nil
}

func main() {
	go consumer.Start(ctx)

	server := &http.Server{Addr: config.ListenAddress, Handler: router()}
	go func() {
		logger.Info(ctx, "probes listening", "address", config.ListenAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			checkErrAndExit(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info(ctx, "shutting down")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
	shutdownTracing(shutdownCtx)
	pubSubClient.Close()
}

func router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	router.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	return router
}

func checkErrAndExit(err error) {
	if err == nil {
		return
	}
	fmt.Println(err.Error())
	os.Exit(1)
}
