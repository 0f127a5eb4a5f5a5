package main

import (
	"context"
	"errors"
	"strconv"

	"github.com/bidtounsi/go-bidtounsi-server/email/mailgun"
	"github.com/bidtounsi/go-bidtounsi-server/global"
	"github.com/bidtounsi/go-bidtounsi-server/metrics"
	"github.com/bidtounsi/go-bidtounsi-server/repository"
	"github.com/bidtounsi/go-bidtounsi-server/services"
	"github.com/bidtounsi/go-bidtounsi-server/types"
)

// Register external modules that implement the SMTP handler
func RegisterSmtpHandlers(conf *global.Config) {
	// Register the SMTP handlers (currently only mailgun)
	for _, wh := range conf.SmtpServers {
		if wh.Provider == "mailgun" {
			mailgun.RegisterMailgunHandler(wh.Domain, wh.Sendapikey)
		}
	}
}

// Configure DB Repositories and create DB Selector
func ConfigDBSelector() repository.DBSelector {
	// configure Repository (couchDB)
	repoUrl := global.Conf.CouchDB.Scheme + "://" + global.Conf.CouchDB.Host + ":" + strconv.Itoa(global.Conf.CouchDB.Port)
	keyRepo, keyRepoErr := repository.NewCouchDBRepository(repoUrl, repository.AdminKeys, global.Conf.CouchDB.Username, global.Conf.CouchDB.Password, false)
	userRepo, userRepoErr := repository.NewCouchDBRepository(repoUrl, repository.Users, global.Conf.CouchDB.Username, global.Conf.CouchDB.Password, false)

	repoErr := errors.Join(keyRepoErr, userRepoErr)
	if repoErr != nil {
		global.Logger.Log("level", "error", "msg", "failed to create repositories", "err", repoErr.Error())
		panic(repoErr)
	}

	// REPOSITORY definitions
	dbSelector := repository.NewCouchDBSelector()
	dbSelector.AddDB(keyRepo)
	dbSelector.AddDB(userRepo)

	return dbSelector
}

func ConfigDBIndexing(dbSelector *repository.CouchDBSelector, environment *types.Environment) {
	adminKeyService := services.NewAdminKeyService(dbSelector)

	// Create INDEXES
	keyRepo, kErr := dbSelector.ChooseDB(repository.AdminKeys)
	if kErr != nil {
		panic(kErr)
	}
	if icErr := repository.CreateAdminKeyEmailIndex(keyRepo); icErr != nil {
		panic(icErr)
	}

	// Create DESIGN DOCUMENTS
	// a view over key expiry timestamps so the sweep can select expired docs
	repository.CreateDesign_ExpiredKeysByExpiry(repository.AdminKeys, "adminkey", "expired")

	sweep := func() {
		removed, err := adminKeyService.RemoveExpiredKeys(context.Background())
		if err != nil {
			global.Logger.Log("level", "error", "msg", "expired key sweep failed", "err", err.Error())
			return
		}
		if removed > 0 {
			metrics.KeysSwept.Add(float64(removed))
			global.Logger.Log("level", "info", "msg", "expired keys removed", "count", removed)
		}
	}

	// cron jobs
	interval := "@every 60m"
	if global.Conf.Admin.SweepIntervalMinutes > 0 {
		interval = "@every " + strconv.Itoa(global.Conf.Admin.SweepIntervalMinutes) + "m"
	}
	environment.Cron.AddFunc(interval, sweep)
	environment.Cron.Start()
	go sweep() // run once on startup
}
