package main

import (
	"context"
)

func (cli *commandLine) resetPassword(id, pwd string) error {
	return cli.usrSvc.SetPassword(context.Background(), id, pwd)
}
