package main

import (
	"database/sql"

	"github.com/adz4needz/portal/storage/database"
)

var gooseRunFunc = database.Migrate // mockable

func migrateFunc(db *sql.DB) func(args []string) error {
	return func(args []string) error {
		return gooseRunFunc(db, args[0], args[1:]...)
	}
}
