package config

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

const PortSplitter = ":"

const DefaultWorkersPerListener = 2

//	Public servers run with a fixed, small thread budget.
const PublicWorkersPerListener = 1
const PublicMaxPending = 10

//	Config is the immutable server configuration handed over by the bootstrap
//	layer. Port 0 asks the OS for a free port.
type Config struct {
	Ports              []int  `yaml:"ports"`
	WorkersPerListener int    `yaml:"workers_per_listener"`
	BackdoorPort       int    `yaml:"backdoor_port"`
	HousekeepingPort   int    `yaml:"housekeeping_port"`
	Key                int    `yaml:"key"`
	Public             bool   `yaml:"public"`
	WorkingDir         string `yaml:"working_dir"`
	MaxPending         int    `yaml:"max_pending"`
	MemoryMB           int    `yaml:"memory_mb"`
	LogLevel           string `yaml:"log_level"`
}

func NewPrivate(ports []int, internalPorts [2]int, key int, workingDir string) Config {
	return Config{
		Ports:              append([]int(nil), ports...),
		WorkersPerListener: DefaultWorkersPerListener,
		BackdoorPort:       internalPorts[0],
		HousekeepingPort:   internalPorts[1],
		Key:                key,
		WorkingDir:         workingDir,
	}
}

func NewPublic(ports []int, internalPorts [2]int, key int) Config {
	return Config{
		Ports:              append([]int(nil), ports...),
		WorkersPerListener: PublicWorkersPerListener,
		BackdoorPort:       internalPorts[0],
		HousekeepingPort:   internalPorts[1],
		Key:                key,
		Public:             true,
		MaxPending:         PublicMaxPending,
	}
}

func (c Config) IsPrivate() bool {
	return !c.Public
}

//	WithWorkers returns a copy with a different pool size. Public
//	configurations keep their fixed budget.
func (c Config) WithWorkers(n int) Config {
	if c.Public {
		return c
	}
	c.WorkersPerListener = n
	return c
}

func (c Config) WithMemoryLimit(mb int) Config {
	c.MemoryMB = mb
	return c
}

func (c Config) WithLogLevel(level string) Config {
	c.LogLevel = level
	return c
}

//	ListenHost is loopback for private servers and every interface otherwise.
func (c Config) ListenHost() string {
	if c.Public {
		return ""
	}
	return "127.0.0.1"
}

func (c Config) Validate() (err error) {
	if len(c.Ports) == 0 {
		return fmt.Errorf("at least one listening port is required")
	}
	for _, p := range append(append([]int{}, c.Ports...), c.BackdoorPort, c.HousekeepingPort) {
		if p < 0 || p > 65535 {
			return fmt.Errorf("port numbers should be integers between 0 and 65535, got %d", p)
		}
	}
	if c.WorkersPerListener < 1 {
		return fmt.Errorf("workers per listener must be at least 1")
	}
	if c.MaxPending < 0 {
		return fmt.Errorf("max pending must not be negative")
	}
	if c.MemoryMB < 0 {
		return fmt.Errorf("memory hint must not be negative")
	}
	return
}

//	Load reads a YAML configuration file. A private configuration without a
//	key gets a generated one.
func Load(path string) (c Config, err error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return
	}
	err = yaml.UnmarshalStrict(data, &c)
	if err != nil {
		return
	}
	if c.Public {
		c.WorkersPerListener = PublicWorkersPerListener
		if c.MaxPending == 0 {
			c.MaxPending = PublicMaxPending
		}
	} else {
		if c.WorkersPerListener == 0 {
			c.WorkersPerListener = DefaultWorkersPerListener
		}
		if c.Key == 0 {
			c.Key, err = GenerateKey()
			if err != nil {
				return
			}
		}
	}
	err = c.Validate()
	return
}

//	ParsePorts reads "18000:18001" style port lists.
func ParsePorts(str string) (ports []int, err error) {
	for _, p := range strings.Split(str, PortSplitter) {
		port, convErr := strconv.Atoi(strings.TrimSpace(p))
		if convErr != nil {
			err = fmt.Errorf("invalid port %q: %v", p, convErr)
			return
		}
		if port < 0 {
			err = fmt.Errorf("port numbers should be integers equal to or greater than 0")
			return
		}
		ports = append(ports, port)
	}
	return
}

func FormatPorts(ports []int) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, PortSplitter)
}

//	GenerateKey draws a random positive 31-bit shared key.
func GenerateKey() (key int, err error) {
	var buf [4]byte
	_, err = rand.Read(buf[:])
	if err != nil {
		return
	}
	key = int(binary.BigEndian.Uint32(buf[:]) & 0x7fffffff)
	if key == 0 {
		key = 1
	}
	return
}
