package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/calebmarchent/vagrant/internal/app"
	"github.com/calebmarchent/vagrant/internal/cloudclient"
	"github.com/calebmarchent/vagrant/internal/observability"
	"github.com/calebmarchent/vagrant/internal/tokensource"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "vagrant-cloud",
		Usage: "Vagrant Cloud credential client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			statusCommand(),
			tokenCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

// configFlags are the config-overriding flags shared by all subcommands.
func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "log format (text|json)",
			Value: string(app.DefaultConfigLogFormat),
		},
		&cli.StringFlag{
			Name:  "cloud--base-url",
			Usage: "Vagrant Cloud base URL",
			Value: app.DefaultConfigCloudBaseURL,
		},
	}
}

// setup loads configuration, installs logging, and builds the token source
// and client every command works with.
func setup(cmd *cli.Command) (*app.Config, *tokensource.Source, *cloudclient.Client, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := observability.Instrument(cfg.LogLevel, string(cfg.LogFormat)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	source, err := app.NewTokenSource(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	client, err := app.NewClient(cfg, source)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, source, client, nil
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Delete the stored Vagrant Cloud token",
		Flags:  configFlags(),
		Action: logoutAction,
	}
}

func logoutAction(ctx context.Context, cmd *cli.Command) error {
	_, source, _, err := setup(cmd)
	if err != nil {
		return err
	}

	if err := source.Clear(ctx); err != nil {
		return err
	}

	fmt.Println("You are logged out.")
	return nil
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Check whether the current token is accepted by Vagrant Cloud",
		Flags:  configFlags(),
		Action: statusAction,
	}
}

func statusAction(ctx context.Context, cmd *cli.Command) error {
	cfg, _, client, err := setup(cmd)
	if err != nil {
		return err
	}

	ok, err := client.IsAuthenticated(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return cli.Exit("Not logged in.", 1)
	}

	fmt.Println("Logged in to", cfg.Cloud.BaseURL)
	return nil
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:   "token",
		Usage:  "Print the resolved access token",
		Flags:  configFlags(),
		Action: tokenAction,
	}
}

func tokenAction(ctx context.Context, cmd *cli.Command) error {
	_, source, _, err := setup(cmd)
	if err != nil {
		return err
	}

	token, err := source.Resolve(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return cli.Exit("No token found.", 1)
	}

	fmt.Println(token)
	return nil
}
