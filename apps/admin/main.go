package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-calendar/core"
	"github.com/trezcool/masomo-calendar/core/calendar"
	emailsvc "github.com/trezcool/masomo-calendar/services/email"
	logsvc "github.com/trezcool/masomo-calendar/services/logger"
	"github.com/trezcool/masomo-calendar/storage/database"
	inmemdb "github.com/trezcool/masomo-calendar/storage/database/inmem"
	sqlxrepos "github.com/trezcool/masomo-calendar/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	calendar.InitValidators(validate, translator)

	cli := commandLine{
		conf:     conf,
		validate: validate,
		out:      os.Stdout,
	}

	// set up storage
	var evtRepo calendar.Repository
	switch conf.Storage {
	case "memory":
		evtRepo = inmemdb.NewEventRepository(inmemdb.NewDB())
	default:
		if err := database.CreateIfNotExist(conf); err != nil {
			logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
		}
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		cli.db = db.DB
		evtRepo = sqlxrepos.NewEventRepository(db)
	}
	cli.svc = calendar.NewService(evtRepo, emailsvc.NewConsoleService(conf, logger), logger, conf)

	// start CLI
	err := cli.run(os.Args)
	if err != nil && err != errHelp {
		logger.Error(fmt.Sprintf("error: %v", err), err)
	}
	closeDB(cli.db, logger)
	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}

func closeDB(db *sql.DB, logger core.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error(fmt.Sprintf("closing database: %v", err), err)
	}
}
