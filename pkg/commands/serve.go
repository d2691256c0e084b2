package commands

import (
	"errors"

	"github.com/acorn-io/dnswatch/pkg/apiserver"
	"github.com/acorn-io/dnswatch/pkg/backend"
	"github.com/acorn-io/dnswatch/pkg/version"
	"github.com/rancher/wrangler/pkg/signals"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

type apiServerCommand struct{}

func (s *apiServerCommand) Execute(c *cli.Context) error {
	ctx := signals.SetupSignalContext()

	log := logrus.WithField("command", "serve")

	log.Infof("version: %v", version.Get())

	tokenHash := c.String("token-hash")
	if tokenHash == "" {
		return errors.New("a token hash is required, generate one with the token command")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	chk, err := newChecker(cfg, c.String("log-level"))
	if err != nil {
		return err
	}

	back := backend.NewBackend(chk.monitor, chk.open, chk.audit, chk.timeout)

	apiServer := apiserver.NewAPIServer(ctx, log, c.Int("port"), tokenHash)

	if err := apiServer.Start(back); err != nil {
		return err
	}

	return nil
}

func serverCommand() *cli.Command {
	cmd := apiServerCommand{}

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Usage:   "Port for the HTTP Server Port",
			EnvVars: []string{"DNSWATCH_PORT", "PORT"},
			Value:   4315,
		},
		&cli.StringFlag{
			Name:    "token-hash",
			Usage:   "bcrypt hash of the bearer token accepted on /v1",
			EnvVars: []string{"DNSWATCH_TOKEN_HASH"},
		},
	}
	flags = append(flags, checkFlags()...)

	return &cli.Command{
		Name:   "serve",
		Usage:  "run the HTTP trigger server",
		Action: cmd.Execute,
		Flags:  append(flags, GlobalFlags()...),
		Before: Before,
	}
}
