package commands

import (
	"encoding/json"
	"fmt"

	"github.com/acorn-io/dnswatch/pkg/version"
	"github.com/urfave/cli/v2"
)

func printVersion(c *cli.Context) error {
	v := version.Get()
	if !c.Bool("json") {
		fmt.Fprintf(c.App.Writer, "%s\n", v)
		return nil
	}

	out, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s\n", out)
	return nil
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "print version",
		Action: printVersion,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the version as JSON",
			},
		},
	}
}
