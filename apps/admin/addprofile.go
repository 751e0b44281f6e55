package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/profile"
	"github.com/darasahq/darasa/core/session"
)

// addProfile creates a profile and provisions its sign-in credentials.
func (cli *commandLine) addProfile(name, email, role, parentID, pwd string) error {
	ctx := context.Background()

	np := profile.NewProfile{
		Name:     name,
		Email:    email,
		Role:     role,
		ParentID: parentID,
		Secret:   pwd,
	}
	if err := np.Validate(cli.validate); err != nil {
		return err
	}

	p, err := cli.profileSvc.Create(ctx, np)
	if err != nil {
		return errors.Wrap(err, "creating profile")
	}

	creds := session.Credentials{ProfileID: p.ID, Email: p.Email}
	if err := creds.SetPassword(pwd); err != nil {
		return err
	}
	return errors.Wrap(cli.credentials.UpsertCredentials(ctx, creds), "provisioning credentials")
}
