package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	_ "github.com/lib/pq"

	"github.com/relabs-tech/fleet-registry/config"
	"github.com/relabs-tech/fleet-registry/core/csql"
	"github.com/relabs-tech/fleet-registry/core/logger"
	"github.com/relabs-tech/fleet-registry/httpapi"
	"github.com/relabs-tech/fleet-registry/journal"
	"github.com/relabs-tech/fleet-registry/registry"
	"github.com/relabs-tech/fleet-registry/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.InitLogger(level)

	hostname := cfg.Hostname
	if hostname == "" {
		hostname, err = os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
	}

	var journalWriter journal.Writer = journal.NoopWriter{}
	if cfg.Postgres != "" {
		db := csql.OpenWithSchema(cfg.Postgres, cfg.PostgresPassword, "registry")
		defer db.Close()
		journalWriter = journal.MustNewPostgresWriter(db)
	}

	reg := registry.New(journalWriter)
	reg.Enabled = cfg.Enabled

	var publisher telemetry.Publisher = telemetry.LogPublisher{}
	if cfg.KafkaBrokers != "" {
		brokers := strings.Split(cfg.KafkaBrokers, ",")
		kafkaPublisher := telemetry.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	router := mux.NewRouter()
	logger.AddRequestID(router)

	httpapi.New(&httpapi.Builder{
		Registry:      reg,
		Router:        router,
		Hostname:      hostname,
		MachineGUID:   cfg.MachineGUID,
		AnnouncedURL:  cfg.AnnouncedURL,
		CookieDomain:  cfg.CookieDomain,
		CookieMaxAge:  cfg.CookieMaxAge,
		VerifyCookies: cfg.VerifyCookies,
		Publisher:     publisher,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go telemetry.Run(ctx, reg, publisher, time.Duration(cfg.TelemetryInterval)*time.Second)

	log.Println("listen on", cfg.ListenAddress)
	log.Fatal(http.ListenAndServe(cfg.ListenAddress, router))
}
