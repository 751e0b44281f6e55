package main

import (
	"context"

	"github.com/darasahq/darasa/core"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	creds, err := cli.credentials.GetCredentialsByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if err := creds.SetPassword(pwd); err != nil {
		return err
	}
	return cli.credentials.UpsertCredentials(ctx, creds)
}
