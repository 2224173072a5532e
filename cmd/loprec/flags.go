package main

import (
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/loprec/internal/logger"
)

var (
	graphPath    string
	outPath      string
	paramsPreset string
	asymmetric   bool
	logLevel     string
	logFormat    string
)

func commonGraphFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "graph",
			Aliases:     []string{"g"},
			Usage:       "path to graph JSON file",
			Destination: &graphPath,
		},
		&cli.StringFlag{
			Name:        "params",
			Aliases:     []string{"p"},
			Usage:       "transformation params preset (u8i8, i8i8)",
			Value:       "u8i8",
			Destination: &paramsPreset,
		},
		&cli.BoolFlag{
			Name:        "asymmetric",
			Usage:       "allow splitting zero-point shifts (overrides preset default)",
			Destination: &asymmetric,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
	}
}

func newLog() logger.Logger {
	level := logger.ParseLevel(logLevel)
	switch logFormat {
	case "json":
		return logger.JSON(os.Stderr, level)
	case "text":
		return logger.Default()
	default:
		return logger.Pretty(os.Stderr, level)
	}
}
