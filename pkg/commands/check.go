package commands

import (
	"fmt"
	"net/http"

	"github.com/rancher/wrangler/pkg/signals"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

type checkCmd struct{}

func (s *checkCmd) Execute(c *cli.Context) error {
	ctx := signals.SetupSignalContext()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	chk, err := newChecker(cfg, c.String("log-level"))
	if err != nil {
		return err
	}

	status := chk.trigger(ctx)
	logrus.WithField("status", status.Code).Info(status.Message)
	if status.Code != http.StatusOK {
		return cli.Exit(fmt.Sprintf("%d: %s", status.Code, status.Message), 1)
	}
	return nil
}

func checkCommand() *cli.Command {
	cmd := checkCmd{}

	return &cli.Command{
		Name:   "check",
		Usage:  "run one DNS check cycle over all configured domains",
		Action: cmd.Execute,
		Flags:  append(checkFlags(), GlobalFlags()...),
		Before: Before,
	}
}
