package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "show which credentials are stored on this device",
		Action: statusAction,
	}
}

func statusAction(ctx context.Context, cmd *cli.Command) error {
	application, cleanup, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	report := application.Status(ctx)
	w := cmd.Root().Writer

	_, _ = fmt.Fprintf(w, "storage:    %s\n", report.StorageName)
	if report.Registered {
		_, _ = fmt.Fprintf(w, "voter id:   %s\n", report.VoterID)
	} else {
		_, _ = fmt.Fprintln(w, "voter id:   not registered")
	}
	if report.HasToken {
		_, _ = fmt.Fprintf(w, "token:      %s\n", report.Token.Masked())
	} else {
		_, _ = fmt.Fprintln(w, "token:      none")
	}
	return nil
}
