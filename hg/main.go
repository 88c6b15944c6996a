package main

/*
* CLI to control hgd
 */

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"

	"hostgate.io/hg/common/config"
	"hostgate.io/hg/common/socket"
	. "hostgate.io/hg/common/util"
	"hostgate.io/hg/common/version"
	"hostgate.io/hg/common/wire"
	"hostgate.io/hg/daemon/client"
)

func PrintFatal(msg string, args ...interface{}) {
	os.Stderr.WriteString(Red(fmt.Sprintf(msg, args...)) + "\n")
	os.Exit(1)
}

//	serverInfo reads the info file of a private server in --wd, then lets
//	explicit flags override it.
func serverInfo(c *cli.Context) (info config.ServerInfo, err error) {
	if wd := c.GlobalString("wd"); wd != "" {
		info, err = config.InfoPersister{Dir: wd}.Load()
		if err != nil {
			return
		}
	}
	if ports := c.GlobalString("ports"); ports != "" {
		info.Ports, err = config.ParsePorts(ports)
		if err != nil {
			return
		}
	}
	if backdoor := c.GlobalString("backdoorports"); backdoor != "" {
		var internal []int
		internal, err = config.ParsePorts(backdoor)
		if err != nil {
			return
		}
		if len(internal) != 2 {
			err = fmt.Errorf("there should be two backdoor ports, got %q", backdoor)
			return
		}
		info.BackdoorPort, info.HousekeepingPort = internal[0], internal[1]
	}
	if c.GlobalIsSet("key") {
		info.Key = c.GlobalInt("key")
	}
	return
}

//	clientOptions applies --encoding to every connection.
func clientOptions(c *cli.Context) (opts []client.Option) {
	name := c.GlobalString("encoding")
	if name == "" {
		return
	}
	candidate, ok := socket.CandidateByName(name)
	if !ok {
		PrintFatal("unknown encoding %q", name)
	}
	return append(opts, client.WithEncoding(candidate))
}

func gateway(c *cli.Context) *client.Gateway {
	info, err := serverInfo(c)
	if err != nil {
		PrintFatal(err.Error())
	}
	g, err := client.NewGateway(c.GlobalString("host"), info, c.GlobalInt("timeout"), clientOptions(c)...)
	if err != nil {
		PrintFatal(err.Error())
	}
	return g
}

func callCommand(c *cli.Context) (err error) {
	request := strings.Join(c.Args(), " ")
	if request == "" {
		PrintFatal("usage: hg call <request>, e.g. hg call 'method/;characterMath/;Sqrt/;numeric2'")
	}
	info, err := serverInfo(c)
	if err != nil {
		PrintFatal(err.Error())
	}
	if len(info.Ports) == 0 {
		PrintFatal("no call port known, pass --ports or --wd")
	}
	conn, err := client.Connect(socket.Address(c.GlobalString("host"), info.Ports[0]), info.Key, c.GlobalInt("timeout"), clientOptions(c)...)
	if err != nil {
		PrintFatal(err.Error())
	}
	defer conn.Close()
	reply, err := conn.CallRaw(request)
	if err != nil {
		PrintFatal(err.Error())
	}
	fmt.Println(colorReply(reply))
	if strings.HasPrefix(reply, wire.ErrorTag+wire.MainSplitter) {
		os.Exit(1)
	}
	return
}

//	colorReply highlights a raw reply token by its kind.
func colorReply(reply string) string {
	switch {
	case strings.HasPrefix(reply, wire.ErrorTag+wire.MainSplitter):
		return Red(reply)
	case strings.HasPrefix(reply, wire.ObjectTag+wire.MainSplitter), strings.HasPrefix(reply, wire.ListTag+wire.MainSplitter):
		return Cyan(reply)
	case reply == wire.NullToken:
		return Yellow(reply)
	}
	return Green(reply)
}

func membersCommand(c *cli.Context) (err error) {
	if c.NArg() != 1 {
		PrintFatal("usage: hg members <type>")
	}
	m, err := gateway(c).Members(c.Args().First())
	if err != nil {
		PrintFatal(err.Error())
	}
	fmt.Println(Cyan("methods:"))
	for _, name := range m.Methods {
		fmt.Println("  " + name)
	}
	fmt.Println(Cyan("fields:"))
	for _, name := range m.Fields {
		fmt.Println("  " + name)
	}
	return
}

func sizeCommand(c *cli.Context) (err error) {
	n, err := gateway(c).Size()
	if err != nil {
		PrintFatal(err.Error())
	}
	fmt.Println(n)
	return
}

//	flushCommand releases handles given as identity_collider.
func flushCommand(c *cli.Context) (err error) {
	if c.NArg() == 0 {
		PrintFatal("usage: hg flush <identity_collider>...")
	}
	handles, err := wire.ParseHandles(wire.ObjectRefPrefix + strings.Join(c.Args(), wire.SubSplitter))
	if err != nil {
		PrintFatal(err.Error())
	}
	refs := make([]wire.Reference, len(handles))
	for i, h := range handles {
		refs[i] = wire.Reference{Handle: h}
	}
	err = gateway(c).Release(refs...)
	if err != nil {
		PrintFatal(err.Error())
	}
	fmt.Println(Green("released"), len(refs))
	return
}

func adminCommand(command string) cli.ActionFunc {
	return func(c *cli.Context) (err error) {
		info, err := serverInfo(c)
		if err != nil {
			PrintFatal(err.Error())
		}
		if info.BackdoorPort == 0 {
			PrintFatal("no backdoor port known, pass --backdoorports or --wd")
		}
		err = client.Admin(socket.Address(c.GlobalString("host"), info.BackdoorPort), info.Key, command, clientOptions(c)...)
		if err != nil {
			PrintFatal(err.Error())
		}
		fmt.Println(Green(socket.Done))
		return
	}
}

func versionCommand(c *cli.Context) (err error) {
	fmt.Println("hg", version.String())
	v, compatible, err := gateway(c).ServerVersion()
	if err != nil {
		PrintFatal(err.Error())
	}
	if compatible {
		fmt.Println("hgd", Green(v))
	} else {
		fmt.Println("hgd", Yellow(v), "(incompatible)")
	}
	return
}

func main() {
	app := cli.NewApp()
	app.Name = "hg"
	app.Usage = "communicate with hgd - the hostgate daemon"
	app.Version = version.String()
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "host", Value: "127.0.0.1"},
		cli.StringFlag{Name: "wd", Usage: "working directory of a private server"},
		cli.StringFlag{Name: "ports", Usage: "call ports separated by :"},
		cli.StringFlag{Name: "backdoorports", Usage: "backdoor and housekeeping ports"},
		cli.IntFlag{Name: "key"},
		cli.StringFlag{Name: "encoding", Usage: "UTF-8, ISO-8859-1, windows-1252 or ISO-8859-15"},
		cli.IntFlag{Name: "timeout", Value: 60, Usage: "reply timeout in seconds, 0 waits forever"},
	}
	app.Commands = []cli.Command{
		cli.Command{
			Name:   "call",
			Usage:  "send one raw request and print the raw reply",
			Action: callCommand,
		},
		cli.Command{
			Name:   "members",
			Action: membersCommand,
		},
		cli.Command{
			Name:   "size",
			Action: sizeCommand,
		},
		cli.Command{
			Name:   "flush",
			Action: flushCommand,
		},
		cli.Command{
			Name:   "interrupt",
			Usage:  "interrupt the calls in flight from this host",
			Action: adminCommand(wire.Interrupt),
		},
		cli.Command{
			Name:   "softexit",
			Action: adminCommand(wire.SoftExit),
		},
		cli.Command{
			Name:   "shutdown",
			Usage:  "emergency shutdown of a private server",
			Action: adminCommand(wire.EmergencyShutdown),
		},
		cli.Command{
			Name:   "version",
			Action: versionCommand,
		},
	}
	app.Run(os.Args)
}
