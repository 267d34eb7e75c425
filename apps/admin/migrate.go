package main

import (
	"errors"

	"github.com/trezcool/masomo-calendar/storage/database"
)

var (
	migrateFunc = database.RunMigration // mockable

	errNoDatabase = errors.New("migrations require the postgres storage")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return migrateFunc(cli.db, args[0], arguments...)
}
