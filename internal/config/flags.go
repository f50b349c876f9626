package config

import (
	"flag"
	"os"
	"strings"

	"github.com/dmitrijs2005/todobot/internal/flagx"
)

// parseFlags overlays the short command-line flags:
//
//	-a string   HTTP bind address
//	-r string   database driver (sqlite, postgres, memory)
//	-d string   database DSN
//	-z string   default timezone
//	-q string   queue kind (memory, kafka)
//	-k string   comma separated Kafka brokers
//	-s string   assignment token secret
//	-m string   control address
//	-b string   backup kind ("", s3, dir)
//	-l string   log level
//	-o bool     send the startup summary
//
// os.Args is filtered with flagx.FilterArgs first, so flags owned by other
// parsers (-c) do not break this one.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-r", "-d", "-z", "-q", "-k", "-s", "-m", "-b", "-l", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port of the HTTP API")
	fs.StringVar(&config.DBDriver, "r", config.DBDriver, "database driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DefaultTimezone, "z", config.DefaultTimezone, "default timezone")
	fs.StringVar(&config.QueueKind, "q", config.QueueKind, "notification queue kind")
	brokers := fs.String("k", strings.Join(config.KafkaBrokers, ","), "kafka brokers")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.ControlAddr, "m", config.ControlAddr, "control address")
	fs.StringVar(&config.BackupKind, "b", config.BackupKind, "backup kind")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.BoolVar(&config.StartupSummary, "o", config.StartupSummary, "send startup summary")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *brokers != "" {
		config.KafkaBrokers = strings.Split(*brokers, ",")
	}
}
