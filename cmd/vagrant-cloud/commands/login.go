package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/calebmarchent/vagrant/internal/cloudclient"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in to Vagrant Cloud and store the granted token",
		Flags: append(configFlags(),
			&cli.StringFlag{
				Name:    "login",
				Aliases: []string{"u"},
				Usage:   "Vagrant Cloud username or email",
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "description saved with the granted token",
			},
		),
		Action: loginAction,
	}
}

func loginAction(ctx context.Context, cmd *cli.Command) error {
	_, source, client, err := setup(cmd)
	if err != nil {
		return err
	}

	login := cmd.String("login")
	if login == "" {
		login, err = promptLine("Vagrant Cloud username or email: ")
		if err != nil {
			return err
		}
	}

	password, err := promptPassword("Password (will be hidden): ")
	if err != nil {
		return err
	}

	token, err := client.Login(ctx, login, password, cmd.String("description"))
	if err != nil {
		if errors.Is(err, cloudclient.ErrUnauthenticated) {
			return fmt.Errorf("invalid username or password")
		}
		return err
	}
	// The server signals a failed login on a nominally successful response by
	// granting a null token.
	if token == "" {
		return fmt.Errorf("invalid username or password")
	}

	if err := source.Store(ctx, token); err != nil {
		return err
	}

	fmt.Println("You are now logged in.")
	return nil
}

func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(password), nil
}
