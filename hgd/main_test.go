package main

import (
	"flag"
	"testing"

	"github.com/urfave/cli"
)

func testContext(t *testing.T, args ...string) *cli.Context {
	app := cli.NewApp()
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "ports"},
		cli.IntFlag{Name: "nbports", Value: 1},
		cli.StringFlag{Name: "backdoorports"},
		cli.IntFlag{Name: "key"},
		cli.StringFlag{Name: "public", Value: "off"},
		cli.IntFlag{Name: "workers", Value: 2},
		cli.StringFlag{Name: "wd"},
		cli.IntFlag{Name: "memory"},
		cli.StringFlag{Name: "loglevel"},
		cli.StringFlag{Name: "config"},
	}
	set := flag.NewFlagSet("hgd", flag.ContinueOnError)
	for _, f := range app.Flags {
		f.Apply(set)
	}
	if err := set.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cli.NewContext(app, set, nil)
}

func TestPrivateFlags(t *testing.T) {
	cfg, err := configFromFlags(testContext(t, "--ports", "18000:18001", "--backdoorports", "50000:50001", "--workers", "4", "--wd", "/tmp"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.IsPrivate() || len(cfg.Ports) != 2 || cfg.Ports[1] != 18001 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.BackdoorPort != 50000 || cfg.HousekeepingPort != 50001 || cfg.WorkersPerListener != 4 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Key == 0 {
		t.Fatal("a private server needs a generated key")
	}
}

func TestNbPortsAndPublic(t *testing.T) {
	cfg, err := configFromFlags(testContext(t, "--nbports", "3", "--public", "on", "--key", "99", "--workers", "8"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Ports) != 3 || cfg.Ports[0] != 0 {
		t.Fatalf("unexpected ports %v", cfg.Ports)
	}
	if cfg.IsPrivate() || cfg.Key != 99 || cfg.WorkersPerListener != 1 || cfg.MaxPending != 10 {
		t.Fatalf("unexpected public config %+v", cfg)
	}
}

func TestBadFlags(t *testing.T) {
	for _, args := range [][]string{
		{"--public", "on"},
		{"--public", "maybe"},
		{"--backdoorports", "50000"},
		{"--ports", "abc"},
	} {
		if _, err := configFromFlags(testContext(t, args...)); err == nil {
			t.Fatalf("%v accepted", args)
		}
	}
}
