// Package testutil holds the fixtures shared by the test suites.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/user"
	logsvc "github.com/adz4needz/portal/services/logger"
)

// DefaultPassword satisfies the password policy.
const DefaultPassword = "Str0ng-Pa55phrase"

// NewLogger returns a silent logger.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

// NewValidator returns a validator with every custom validation & translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	fullName, email, pwd string,
	role user.Role,
	dept user.Department,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		FullName:   fullName,
		Email:      email,
		Phone:      "+91 98765 43210",
		Role:       role,
		Department: dept,
		IsActive:   isActive,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
