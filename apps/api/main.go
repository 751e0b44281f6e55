package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/darasahq/darasa/apps/api/echo"
	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/livequery"
	"github.com/darasahq/darasa/core/notification"
	"github.com/darasahq/darasa/core/profile"
	"github.com/darasahq/darasa/core/session"
	authsvc "github.com/darasahq/darasa/services/auth"
	emailsvc "github.com/darasahq/darasa/services/email"
	logsvc "github.com/darasahq/darasa/services/logger"
	"github.com/darasahq/darasa/storage/database"
	dummydb "github.com/darasahq/darasa/storage/database/dummy"
	"github.com/darasahq/darasa/storage/database/sqlxrepos"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.LoadConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up storage: Postgres by default, the in-memory demo set otherwise
	var (
		profileRepo      profile.Repository
		assignmentRepo   assignment.Repository
		notificationRepo notification.Repository
		credentialRepo   session.CredentialRepository
		feed             livequery.Feed
		closeStorage     func()
	)
	if conf.Demo {
		broker := livequery.NewBroker()
		db := dummydb.Open(broker)
		seeded := db.Seed()
		logger.Info(fmt.Sprintf("demo mode: admin id %s, password %q", seeded.AdminID, dummydb.SeedPassword))

		profileRepo = dummydb.NewProfileRepository(db)
		assignmentRepo = dummydb.NewAssignmentRepository(db)
		notificationRepo = dummydb.NewNotificationRepository(db)
		credentialRepo = dummydb.NewCredentialRepository(db)
		feed = broker
		closeStorage = func() {}
	} else {
		db, err := setUpDB(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}

		listenFeed := database.NewListenFeed(conf, logger)
		if err := listenFeed.Start(); err != nil {
			logger.Fatal(fmt.Sprintf("starting change feed: %v", err), err)
		}

		profileRepo = sqlxrepos.NewProfileRepository(db)
		assignmentRepo = sqlxrepos.NewAssignmentRepository(db)
		notificationRepo = sqlxrepos.NewNotificationRepository(db)
		credentialRepo = sqlxrepos.NewCredentialRepository(db)
		feed = listenFeed
		closeStorage = func() {
			if err := listenFeed.Close(); err != nil {
				logger.Error(fmt.Sprintf("closing change feed: %v", err), err)
			}
			if err := db.Close(); err != nil {
				logger.Error(fmt.Sprintf("closing database: %v", err), err)
			}
		}
	}
	defer closeStorage()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	profileSvc := profile.NewService(profileRepo)
	assignmentSvc := assignment.NewService(assignmentRepo)
	notificationSvc := notification.NewService(notificationRepo, profileSvc, mailSvc)

	provider := authsvc.NewLocalProvider(credentialRepo, conf.Server.JWTExpirationDelta, logger)
	provider.Start()
	defer provider.Close()

	sessions := session.NewRegistry(provider, profileSvc, logger)
	sessions.Start(context.Background())
	defer sessions.Close()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	profile.RegisterValidators(validate, translator)
	assignment.RegisterValidators(validate, translator)
	notification.RegisterValidators(validate, translator)

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(
		&echoapi.Options{
			Addr:            conf.Server.Addr,
			Conf:            conf,
			Logger:          logger,
			Validate:        validate,
			Translator:      translator,
			ProfileSvc:      profileSvc,
			AssignmentSvc:   assignmentSvc,
			NotificationSvc: notificationSvc,
			Sessions:        sessions,
			Credentials:     credentialRepo,
			Feed:            feed,
			Shutdown:        func() { shutdown <- syscall.SIGTERM },
		},
	)

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (db *sqlx.DB, err error) {
	if err = database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}
	if db, err = database.Open(conf); err != nil {
		return nil, err
	}
	if err = database.Ping(db); err != nil {
		return nil, err
	}
	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
