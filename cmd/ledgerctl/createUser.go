package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/utils"
)

type createUserCmd struct {
	email    string
	name     string
	password string
	role     string
}

func (*createUserCmd) Name() string     { return "create-user" }
func (*createUserCmd) Synopsis() string { return "create a user" }
func (*createUserCmd) Usage() string {
	return `ledgerctl create-user -email <email> [-name <name>] [-password <password>] [-role admin|user]
`
}

func (c *createUserCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "Email address (required).")
	f.StringVar(&c.name, "name", "", "Display name.")
	f.StringVar(&c.password, "password", "", "Password; leave empty for identity-provider-only users.")
	f.StringVar(&c.role, "role", string(models.UserRoleUser), "Role: admin or user.")
}

func (c *createUserCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := connect(); err != nil {
		return fail("%v", err)
	}
	// the operator may grant any role
	ctx = utils.SetUserRoleInContext(ctx, string(models.UserRoleAdmin))
	user, err := models.CreateUser(ctx, &models.NewUser{
		Email:    c.email,
		Name:     c.name,
		Password: c.password,
		Role:     c.role,
	}, "")
	if err != nil {
		return fail("create user: %v", err)
	}
	fmt.Printf("created %s user %s (%s)\n", user.Role, user.Email, user.ID)
	return subcommands.ExitSuccess
}
