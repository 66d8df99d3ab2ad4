package main

import (
	"log"
	"os"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/user"
	emailsvc "github.com/adz4needz/portal/services/email"
	logsvc "github.com/adz4needz/portal/services/logger"
	"github.com/adz4needz/portal/storage/database"
	sqlxrepos "github.com/adz4needz/portal/storage/database/sqlx"
)

var logger core.Logger

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()
	rbLogger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	rbLogger.Enable(!conf.Debug)
	logger = rbLogger

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()

	// start CLI
	usrRepo := sqlxrepos.NewUserRepository(db)
	cli := commandLine{
		usrRepo: usrRepo,
		usrSvc:  user.NewService(usrRepo, emailsvc.NewService(logger, conf), logger, conf),
		migrate: migrateFunc(db.DB),
		out:     os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal("admin setup failed", err)
	}
}
