// Command moderationctl works the moderation queues from a terminal. It talks
// to MongoDB directly and acts as the admin named by --admin or
// MEMBERHUB_ADMIN_ID.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand(openMongoSession)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
