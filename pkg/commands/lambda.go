package commands

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/urfave/cli/v2"
)

// lambdaResponse is the shape scheduled invocations expect back.
type lambdaResponse struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

func (c *checker) handleInvocation(ctx context.Context) (lambdaResponse, error) {
	status := c.trigger(ctx)
	return lambdaResponse{
		StatusCode: status.Code,
		Body:       status.Message,
	}, nil
}

type lambdaCmd struct{}

func (s *lambdaCmd) Execute(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	chk, err := newChecker(cfg, c.String("log-level"))
	if err != nil {
		return err
	}

	lambda.Start(chk.handleInvocation)
	return nil
}

func lambdaCommand() *cli.Command {
	cmd := lambdaCmd{}

	return &cli.Command{
		Name:   "lambda",
		Usage:  "serve check cycles as an AWS Lambda function",
		Action: cmd.Execute,
		Flags:  append(checkFlags(), GlobalFlags()...),
		Before: Before,
	}
}
