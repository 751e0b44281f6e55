package main

import (
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/profile"
	"github.com/darasahq/darasa/storage/database"
	"github.com/darasahq/darasa/storage/database/sqlxrepos"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.LoadConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(database.Ping(db))

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	profile.RegisterValidators(validate, translator)

	// start CLI
	profileRepo := sqlxrepos.NewProfileRepository(db)
	cli := commandLine{
		db:            db,
		profileSvc:    profile.NewService(profileRepo),
		profiles:      profileRepo,
		assignments:   sqlxrepos.NewAssignmentRepository(db),
		notifications: sqlxrepos.NewNotificationRepository(db),
		credentials:   sqlxrepos.NewCredentialRepository(db),
		validate:      validate,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
