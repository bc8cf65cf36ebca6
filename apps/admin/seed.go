package main

import (
	"context"
	"fmt"

	"github.com/crreddy/polysis/core/auth"
)

// seed creates the admin account, or updates the password and names of the existing one.
func (cli *commandLine) seed(na auth.NewAdmin) error {
	usr, err := cli.authSvc.CreateAdmin(context.Background(), na)
	if err != nil {
		return err
	}
	fmt.Printf("admin %q <%s> is ready\n", usr.Username, usr.Email)
	return nil
}
