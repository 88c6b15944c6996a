package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestParsePorts(t *testing.T) {
	ports, err := ParsePorts("18000:18001")
	if err != nil {
		t.Fatal(err)
	}
	if len(ports) != 2 || ports[0] != 18000 || ports[1] != 18001 {
		t.Fatalf("unexpected ports %v", ports)
	}
	if FormatPorts(ports) != "18000:18001" {
		t.Fatal("format does not invert parse")
	}
	if _, err = ParsePorts("18000:-1"); err == nil {
		t.Fatal("negative port accepted")
	}
	if _, err = ParsePorts("abc"); err == nil {
		t.Fatal("garbage port accepted")
	}
}

func TestPublicBudgetIsFixed(t *testing.T) {
	c := NewPublic([]int{0}, [2]int{0, 0}, 42)
	if c.WithWorkers(8).WorkersPerListener != PublicWorkersPerListener {
		t.Fatal("public server thread budget changed")
	}
	if c.IsPrivate() || c.ListenHost() != "" {
		t.Fatal("public server must bind every interface")
	}
	p := NewPrivate([]int{0}, [2]int{0, 0}, 42, "")
	if p.WithWorkers(8).WorkersPerListener != 8 {
		t.Fatal("private server must accept a custom pool size")
	}
	if p.ListenHost() != "127.0.0.1" {
		t.Fatal("private server must bind loopback")
	}
}

func TestValidate(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Fatal("empty config validated")
	}
	c := NewPrivate([]int{70000}, [2]int{0, 0}, 1, "")
	if err := c.Validate(); err == nil {
		t.Fatal("out of range port validated")
	}
	if err := NewPrivate([]int{0, 0}, [2]int{0, 0}, 1, "").Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadGeneratesKey(t *testing.T) {
	dir, err := ioutil.TempDir("", "hgconfig")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	file := filepath.Join(dir, "hgd.yaml")
	err = ioutil.WriteFile(file, []byte("ports: [0, 0]\nbackdoor_port: 0\nhousekeeping_port: 0\n"), 0600)
	if err != nil {
		t.Fatal(err)
	}
	c, err := Load(file)
	if err != nil {
		t.Fatal(err)
	}
	if c.Key == 0 {
		t.Fatal("private config without key must get one")
	}
	if c.WorkersPerListener != DefaultWorkersPerListener {
		t.Fatal("default pool size not applied")
	}

	err = ioutil.WriteFile(file, []byte("ports: [0]\npublic: true\nkey: 7\nworkers_per_listener: 12\n"), 0600)
	if err != nil {
		t.Fatal(err)
	}
	c, err = Load(file)
	if err != nil {
		t.Fatal(err)
	}
	if c.WorkersPerListener != PublicWorkersPerListener || c.MaxPending != PublicMaxPending {
		t.Fatal("public budget not enforced on load")
	}

	err = ioutil.WriteFile(file, []byte("ports: [0]\nbogus: 1\n"), 0600)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = Load(file); err == nil {
		t.Fatal("unknown key accepted")
	}
}

func TestInfoPersister(t *testing.T) {
	dir, err := ioutil.TempDir("", "hginfo")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	p := InfoPersister{Dir: dir}
	info := ServerInfo{Ports: []int{18000, 18001}, BackdoorPort: 50000, HousekeepingPort: 50001, Key: 99, Version: "1.3.0"}
	if err = p.Save(info); err != nil {
		t.Fatal(err)
	}
	loaded, err := p.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Key != 99 || len(loaded.Ports) != 2 || loaded.HousekeepingPort != 50001 {
		t.Fatalf("unexpected info %+v", loaded)
	}
	if err = (InfoPersister{}).Save(info); err == nil {
		t.Fatal("save without directory should fail")
	}
}
