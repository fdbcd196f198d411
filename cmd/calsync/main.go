package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/dataacq/calsync/internal/app"
	"github.com/dataacq/calsync/internal/fetcher"
	"github.com/dataacq/calsync/internal/logger"
	"github.com/dataacq/calsync/internal/rabbit"
	"github.com/dataacq/calsync/internal/storage"
	"github.com/dataacq/calsync/internal/storagebuilder"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/config.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()
	_ = godotenv.Load()

	config, err := NewConfig(configFile)
	if err != nil {
		log.Errorf("failed to start: %v", err)
		os.Exit(1)
	}
	err = logger.PrepareLogger(config.Logger)
	if err != nil {
		log.Errorf("failed to start: %v", err)
		os.Exit(1)
	}

	timeMin, err := time.Parse(time.RFC3339, config.Calendar.TimeMin)
	if err != nil {
		log.Errorf("invalid calendar.timeMin %q: %v", config.Calendar.TimeMin, err)
		os.Exit(1)
	}
	timeMax, err := time.Parse(time.RFC3339, config.Calendar.TimeMax)
	if err != nil {
		log.Errorf("invalid calendar.timeMax %q: %v", config.Calendar.TimeMax, err)
		os.Exit(1)
	}

	ctx := context.Background()

	f, err := fetcher.New(ctx, fetcher.Config{
		CalendarID:      config.Calendar.ID,
		TimeMin:         timeMin,
		TimeMax:         timeMax,
		PageSize:        config.Calendar.PageSize,
		CredentialsFile: config.Calendar.CredentialsFile,
	})
	if err != nil {
		log.Errorf("failed to create fetcher: %v", err)
		os.Exit(1)
	}

	log.Info("connecting to storage...")
	stor, err := storagebuilder.New(config.Storage)
	if err != nil {
		log.Errorf("failed to connect to storage: %v", err)
		os.Exit(1)
	}

	report, err := app.New(config.Calendar.ID, f, stor).Sync(ctx)
	if err != nil {
		log.Errorf("sync failed: %v", err)
		closeStorage(stor)
		os.Exit(1)
	}

	if config.Rabbit.Queue != "" {
		if err := publishReport(config.Rabbit, report); err != nil {
			log.Errorf("failed to publish report: %v", err)
			closeStorage(stor)
			os.Exit(1)
		}
	}

	closeStorage(stor)
	log.Infof("done: %d events, %d attendees", report.Events, report.Attendees)
}

func publishReport(config rabbit.Config, report app.Report) error {
	r := rabbit.New(config)
	if err := r.Connect(); err != nil {
		return err
	}
	defer r.Close()

	m := rabbit.Message{
		CalendarID:  report.CalendarID,
		Events:      report.Events,
		Attendees:   report.Attendees,
		CompletedAt: report.CompletedAt,
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return r.Publish(data)
}

func closeStorage(stor storage.Storage) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()
	if err := stor.Close(ctx); err != nil {
		log.Errorf("failed to close storage: %v", err)
	}
}
