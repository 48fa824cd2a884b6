package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/roster"
	logsvc "github.com/childclub/backend/services/logger"
	"github.com/childclub/backend/storage/database"
	sqlxrepos "github.com/childclub/backend/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	stdLogger := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)

	openDB := func() (*sqlx.DB, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return database.Open(ctx, conf)
	}

	db, err := openDB()
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
	defer func() { _ = db.Close() }()

	// start CLI
	cli := commandLine{
		conf:      conf,
		openDB:    openDB,
		rosterSvc: roster.NewService(sqlxrepos.NewRosterRepository(db, conf), logger, conf),
		out:       os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed: "+err.Error(), err)
		}
		_ = db.Close()
		os.Exit(1)
	}
}
