package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/user"
)

// addMentor creates an active mentor account. Mentors cannot self-register.
func (cli *commandLine) addMentor(name, email, phone, pwd string) (user.User, error) {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	if err := cli.usrRepo.CheckEmailUniqueness(ctx, email); err != nil {
		return user.User{}, err
	}

	now := time.Now().UTC()
	usr := user.User{
		FullName:   core.CleanString(name),
		Email:      email,
		Phone:      core.CleanString(phone),
		Role:       user.RoleMentor,
		Department: user.DeptNone,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return user.User{}, errors.Wrap(err, "hashing password")
	}
	return cli.usrRepo.CreateUser(ctx, usr)
}
