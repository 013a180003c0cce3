// Command loginguard serves the LoginGuard HTTP API: an emailed one-time code
// on top of password login, and temporary blocks for addresses that keep
// failing it.
package main

import (
	"context"

	"github.com/shandysiswandi/loginguard/internal/app"
)

func main() {
	application := app.New()

	<-application.Start()

	ctx, cancel := context.WithTimeout(context.Background(), application.ShutdownTimeout())
	defer cancel()

	application.Stop(ctx)
}
