package main

import (
	"context"

	"github.com/crreddy/polysis/core/auth"
)

func (cli *commandLine) resetPassword(login, pwd string) error {
	_, err := cli.authSvc.ResetPassword(context.Background(), auth.ResetPassword{
		Login:           login,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	return err
}
