package commands

import (
	"fmt"

	"github.com/acorn-io/dnswatch/pkg/rand"
	"github.com/urfave/cli/v2"
)

func generateToken(c *cli.Context) error {
	token, hash, err := rand.TokenWithHash()
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "token: %s\nhash:  %s\n", token, hash)
	return nil
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:   "token",
		Usage:  "generate a trigger token and the bcrypt hash to configure on the server",
		Action: generateToken,
	}
}
