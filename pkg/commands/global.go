package commands

import (
	"fmt"
	"path"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func GlobalFlags() []cli.Flag {
	globalFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log Level (trace, debug, info, warn, error)",
			Aliases: []string{"l"},
			EnvVars: []string{"DNSWATCH_LOG_LEVEL", "LOGLEVEL"},
			Value:   "info",
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format: json or text",
			EnvVars: []string{"DNSWATCH_LOG_FORMAT"},
			Value:   "json",
		},
		&cli.BoolFlag{
			Name:  "log-caller",
			Usage: "log the caller (aka line number and file)",
		},
	}

	return globalFlags
}

// Before configures the standard logrus logger from the global flags.
func Before(c *cli.Context) error {
	var callerPrettyfier func(*runtime.Frame) (string, string)
	if c.Bool("log-caller") {
		logrus.SetReportCaller(true)
		callerPrettyfier = func(f *runtime.Frame) (string, string) {
			return "", fmt.Sprintf("%s:%d", path.Base(f.File), f.Line)
		}
	}

	switch format := c.String("log-format"); format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{CallerPrettyfier: callerPrettyfier})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, CallerPrettyfier: callerPrettyfier})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	level, err := logrus.ParseLevel(c.String("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level %q", c.String("log-level"))
	}
	logrus.SetLevel(level)

	return nil
}
