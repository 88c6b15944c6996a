package config

import (
	"fmt"
	"io/ioutil"
	"path/filepath"

	"github.com/youtube/vitess/go/ioutil2"
	"gopkg.in/yaml.v2"
)

const INFO_FILENAME = "hgd.info"

//	ServerInfo is what a private server publishes for the local client that
//	started it: the actual bound ports and the shared key.
type ServerInfo struct {
	Ports            []int  `yaml:"ports"`
	BackdoorPort     int    `yaml:"backdoor_port"`
	HousekeepingPort int    `yaml:"housekeeping_port"`
	Key              int    `yaml:"key"`
	Version          string `yaml:"version"`
}

type InfoPersister struct {
	Dir string
}

func (p InfoPersister) path() string {
	return filepath.Join(p.Dir, INFO_FILENAME)
}

func (p InfoPersister) Save(info ServerInfo) (err error) {
	if p.Dir == "" {
		return fmt.Errorf("no working directory to write the info file into")
	}
	data, err := yaml.Marshal(info)
	if err != nil {
		return
	}
	err = ioutil2.WriteFileAtomic(p.path(), data, 0600)
	return
}

func (p InfoPersister) Load() (info ServerInfo, err error) {
	data, err := ioutil.ReadFile(p.path())
	if err != nil {
		return
	}
	err = yaml.Unmarshal(data, &info)
	return
}
