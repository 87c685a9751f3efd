package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/preverify/internal/preverify"
)

func issueCommand() *cli.Command {
	return &cli.Command{
		Name:   "issue",
		Usage:  "request and store a pre-verification token for the registered voter",
		Action: issueAction,
	}
}

func issueAction(ctx context.Context, cmd *cli.Command) error {
	application, cleanup, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	outcome, err := application.Issue(ctx)
	if err != nil {
		return fmt.Errorf("pre-verification failed: %w", err)
	}

	switch outcome {
	case preverify.OutcomeNotRegistered:
		_, _ = fmt.Fprintln(cmd.Root().Writer, "no voter registered on this device, nothing to do")
	case preverify.OutcomeIssued:
		_, _ = fmt.Fprintln(cmd.Root().Writer, "pre-verification token issued")
	}

	slog.DebugContext(ctx, "issue finished", "outcome", outcome)
	return nil
}
