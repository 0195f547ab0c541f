package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/mmdatafocus/ledger_backend/models"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create or update the ledger tables" }
func (*migrateCmd) Usage() string {
	return `ledgerctl migrate

  Runs AutoMigrate for every ledger table. Use this when the server runs
  with SKIP_MIGRATIONS=true.
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := connect(); err != nil {
		return fail("%v", err)
	}
	models.MigrateTable()
	fmt.Println("migrations applied")
	return subcommands.ExitSuccess
}
