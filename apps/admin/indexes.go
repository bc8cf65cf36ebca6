package main

import (
	"context"
	"fmt"

	"github.com/crreddy/polysis/storage/database"
)

func (cli *commandLine) ensureIndexes() error {
	if err := database.EnsureIndexes(context.Background(), cli.store, cli.indexes); err != nil {
		return err
	}
	fmt.Printf("indexes ensured on %d collections\n", len(cli.indexes))
	return nil
}
