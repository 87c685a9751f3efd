package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/florianilch/preverify/internal/voter"
)

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "store the voter identifier for this device",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "voter-id",
				Usage: "voter identifier (prompted for when omitted on a terminal)",
			},
		},
		Action: registerAction,
	}
}

func registerAction(ctx context.Context, cmd *cli.Command) error {
	id := voter.ID(strings.TrimSpace(cmd.String("voter-id")))
	if id.Empty() {
		prompted, err := promptVoterID(cmd)
		if err != nil {
			return err
		}
		id = prompted
	}

	application, cleanup, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := application.Register(ctx, id); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.Root().Writer, "voter registered")
	return nil
}

// promptVoterID reads the identifier from the terminal without echoing it.
func promptVoterID(cmd *cli.Command) (voter.ID, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--voter-id is required when stdin is not a terminal")
	}

	_, _ = fmt.Fprint(cmd.Root().ErrWriter, "Voter ID: ")
	raw, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(cmd.Root().ErrWriter)
	if err != nil {
		return "", fmt.Errorf("reading voter id: %w", err)
	}

	id := voter.ID(strings.TrimSpace(string(raw)))
	if id.Empty() {
		return "", errors.New("voter id cannot be empty")
	}
	return id, nil
}
