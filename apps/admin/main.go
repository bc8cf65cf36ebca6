package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/crreddy/polysis/apps/shared"
	"github.com/crreddy/polysis/core"
	emailsvc "github.com/crreddy/polysis/services/email"
	logsvc "github.com/crreddy/polysis/services/logger"
	"github.com/crreddy/polysis/storage/database"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	validate, _ := shared.NewValidator()

	// set up DB; indexes are only ensured by the `indexes` command
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	store, err := database.Open(ctx, conf, logger, nil)
	cancel()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}

	// start CLI
	svcs := shared.NewServices(store, emailsvc.New(conf, logger), validate, conf)
	cli := commandLine{
		store:   store,
		authSvc: svcs.Auth,
		indexes: shared.Indexes(validate),
	}
	err = cli.run(os.Args)
	_ = store.Close(context.Background())
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("\nerror: %s\n", err), err)
		}
		os.Exit(1)
	}
}
