package main

import (
	"flag"
	"fmt"
	"net"
	"strconv"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 5000
)

// Config is the whole configuration surface: the one address every node
// either connects to or serves on.
type Config struct {
	Host string
	Port int
}

func ParseConfig(args []string) (*Config, error) {
	config := &Config{}

	fs := flag.NewFlagSet("lanboard", flag.ContinueOnError)
	fs.StringVar(&config.Host, "host", DefaultHost, "Host of the shared board (connected to, or listened on if nobody serves it)")
	fs.IntVar(&config.Port, "port", DefaultPort, "TCP port of the shared board")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
