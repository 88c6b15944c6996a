package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/op/go-logging"
	"github.com/urfave/cli"

	"hostgate.io/hg/common/config"
	hglog "hostgate.io/hg/common/log"
	"hostgate.io/hg/common/version"
	"hostgate.io/hg/daemon/server"
)

var log *logging.Logger = hglog.SetupLogging("hgd", logging.INFO, hglog.UseSyslog())

func PrintFatal(msg string, args ...interface{}) {
	os.Stderr.WriteString(fmt.Sprintf(msg, args...) + "\n")
	os.Exit(1)
}

//	configFromFlags builds the configuration the way the command line asks
//	for it. A --config file wins over every other flag.
func configFromFlags(c *cli.Context) (cfg config.Config, err error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}

	var ports []int
	if portStr := c.String("ports"); portStr != "" {
		ports, err = config.ParsePorts(portStr)
		if err != nil {
			return
		}
	} else {
		n := c.Int("nbports")
		if n < 1 {
			n = 1
		}
		ports = make([]int, n)
	}

	var internal [2]int
	if backdoorStr := c.String("backdoorports"); backdoorStr != "" {
		var backdoorPorts []int
		backdoorPorts, err = config.ParsePorts(backdoorStr)
		if err != nil {
			return
		}
		if len(backdoorPorts) != 2 {
			err = fmt.Errorf("there should be two backdoor ports, got %q", backdoorStr)
			return
		}
		copy(internal[:], backdoorPorts)
	}

	switch strings.ToLower(strings.TrimSpace(c.String("public"))) {
	case "on":
		if !c.IsSet("key") {
			err = fmt.Errorf("a public server needs --key")
			return
		}
		cfg = config.NewPublic(ports, internal, c.Int("key"))
	case "", "off":
		key := c.Int("key")
		if key == 0 {
			key, err = config.GenerateKey()
			if err != nil {
				return
			}
		}
		cfg = config.NewPrivate(ports, internal, key, c.String("wd"))
		if c.IsSet("workers") {
			cfg = cfg.WithWorkers(c.Int("workers"))
		}
	default:
		err = fmt.Errorf("--public should be either on or off")
		return
	}
	cfg = cfg.WithMemoryLimit(c.Int("memory")).WithLogLevel(c.String("loglevel"))
	err = cfg.Validate()
	return
}

func applyRuntimeSettings(cfg config.Config) {
	if cfg.LogLevel != "" {
		level, err := hglog.ParseLevel(cfg.LogLevel)
		if err != nil {
			log.Error("unable to set this log level:", cfg.LogLevel)
		} else {
			logging.SetLevel(level, "")
		}
	}
	if cfg.MemoryMB > 0 {
		debug.SetMemoryLimit(int64(cfg.MemoryMB) << 20)
		log.Info("memory limit set to", cfg.MemoryMB, "MB")
	}
}

func serve(c *cli.Context) (err error) {
	cfg, err := configFromFlags(c)
	if err != nil {
		PrintFatal("Error: %s", err.Error())
	}
	applyRuntimeSettings(cfg)

	srv, err := server.New(cfg, log)
	if err != nil {
		log.Fatal(err)
	}
	err = srv.Start()
	if err != nil {
		log.Fatal(err)
	}

	log.Notice("hgd", version.String(), "launched, private:", srv.IsPrivate())

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, os.Interrupt, os.Kill, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM)
	select {
	case sig := <-stopSignal:
		log.Notice("stopping with signal", sig)
		srv.RequestShutdown()
	case <-srv.BackdoorDone():
		log.Notice("stopping after a soft exit")
		srv.RequestShutdown()
	}
	srv.Wait()
	return
}

func main() {
	defer func() {
		if x := recover(); x != nil {
			log.Error(fmt.Sprintf("run time panic: %v", x))
			log.Error(string(debug.Stack()))
			panic(x)
		}
	}()

	app := cli.NewApp()
	app.Name = "hgd"
	app.Usage = "host objects and calls for remote environments"
	app.Version = version.String()
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "ports", Usage: "listening ports separated by :, e.g. 18000:18001 (0 picks a free port)"},
		cli.IntFlag{Name: "nbports", Value: 1, Usage: "number of listening ports on free ports, when --ports is not given"},
		cli.StringFlag{Name: "backdoorports", Usage: "backdoor and housekeeping ports, e.g. 50000:50001"},
		cli.IntFlag{Name: "key", Usage: "shared key, required with --public on"},
		cli.StringFlag{Name: "public", Value: "off", Usage: "on or off"},
		cli.IntFlag{Name: "workers", Value: config.DefaultWorkersPerListener, Usage: "workers per listening port on a private server"},
		cli.StringFlag{Name: "wd", Usage: "working directory for the info file"},
		cli.IntFlag{Name: "memory", Usage: "soft memory limit in MB"},
		cli.StringFlag{Name: "loglevel", Usage: "CRITICAL, ERROR, WARNING, NOTICE, INFO or DEBUG"},
		cli.StringFlag{Name: "config", Usage: "YAML configuration file"},
	}
	app.Action = serve
	app.Run(os.Args)
}
