package config

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-yaml/yaml"

	smp "github.com/totegamma/smp"
)

type Config struct {
	Server    Server    `yaml:"server"`
	SMP       SMP       `yaml:"smp"`
	SML       SML       `yaml:"sml"`
	Directory Directory `yaml:"directory"`
	Signing   Signing   `yaml:"signing"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	PublicURL     string `yaml:"publicURL"`
	Backend       string `yaml:"backend"` // memory, sqlite, postgres
	PostgresDsn   string `yaml:"postgresDsn"`
	SqlitePath    string `yaml:"sqlitePath"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

type SMP struct {
	ID                  string `yaml:"id"`
	IdentifierMode      string `yaml:"identifierMode"` // simple, peppol
	RESTFlavor          string `yaml:"restFlavor"`     // peppol, bdxr, bdxr2
	WritableAPIDisabled bool   `yaml:"writableAPIDisabled"`
}

type SML struct {
	Active         bool          `yaml:"active"`
	URL            string        `yaml:"url"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	ClientAuth     bool          `yaml:"clientAuth"`
}

type Directory struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Signing struct {
	KeyFile  string `yaml:"keyFile"`
	CertFile string `yaml:"certFile"`
}

// Backend is the storage technology, chosen once at startup.
type Backend int

const (
	BackendMemory Backend = iota
	BackendSQLite
	BackendPostgres
)

func ParseBackend(s string) (Backend, error) {
	switch s {
	case "", "memory":
		return BackendMemory, nil
	case "sqlite":
		return BackendSQLite, nil
	case "postgres":
		return BackendPostgres, nil
	default:
		return BackendMemory, fmt.Errorf("unknown storage backend %q", s)
	}
}

func (b Backend) String() string {
	switch b {
	case BackendSQLite:
		return "sqlite"
	case BackendPostgres:
		return "postgres"
	default:
		return "memory"
	}
}

// Snapshot is an immutable, validated view of a Config.
type Snapshot struct {
	Config
	Backend        Backend
	IdentifierMode smp.Mode
	Flavor         smp.Flavor
}

func (s *Snapshot) Identifiers() smp.Factory {
	return smp.NewFactory(s.IdentifierMode)
}

const (
	defaultListen         = ":8080"
	defaultConnectTimeout = 5 * time.Second
	defaultRequestTimeout = 30 * time.Second
	defaultDirTimeout     = 10 * time.Second
)

// NewSnapshot applies defaults and parses the enumerated settings.
func NewSnapshot(c Config) (*Snapshot, error) {
	if c.Server.Listen == "" {
		c.Server.Listen = defaultListen
	}
	if c.SML.ConnectTimeout <= 0 {
		c.SML.ConnectTimeout = defaultConnectTimeout
	}
	if c.SML.RequestTimeout <= 0 {
		c.SML.RequestTimeout = defaultRequestTimeout
	}
	if c.Directory.Timeout <= 0 {
		c.Directory.Timeout = defaultDirTimeout
	}

	backend, err := ParseBackend(c.Server.Backend)
	if err != nil {
		return nil, err
	}
	mode, err := smp.ParseMode(c.SMP.IdentifierMode)
	if err != nil {
		return nil, err
	}
	flavor, err := smp.ParseFlavor(c.SMP.RESTFlavor)
	if err != nil {
		return nil, err
	}

	if c.SML.Active {
		if c.SML.URL == "" {
			return nil, fmt.Errorf("sml.url is required when sml.active is set")
		}
		if c.SMP.ID == "" {
			return nil, fmt.Errorf("smp.id is required when sml.active is set")
		}
	}
	if c.Directory.Enabled && c.Directory.URL == "" {
		return nil, fmt.Errorf("directory.url is required when directory.enabled is set")
	}

	return &Snapshot{
		Config:         c,
		Backend:        backend,
		IdentifierMode: mode,
		Flavor:         flavor,
	}, nil
}

func Load(path string) (*Snapshot, error) {

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return nil, err
	}

	return NewSnapshot(config)
}

// Holder publishes the active Snapshot. Reads never block; Reload swaps the
// snapshot under a lock.
type Holder struct {
	mu      sync.Mutex
	path    string
	current atomic.Pointer[Snapshot]
}

func NewHolder(path string) (*Holder, error) {
	snap, err := Load(path)
	if err != nil {
		return nil, err
	}
	h := &Holder{path: path}
	h.current.Store(snap)
	return h, nil
}

// NewStaticHolder wraps a snapshot that is never reloaded from disk.
func NewStaticHolder(snap *Snapshot) *Holder {
	h := &Holder{}
	h.current.Store(snap)
	return h
}

func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Reload re-reads the configuration file. Storage backend and listen address
// keep their startup values.
func (h *Holder) Reload() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.path == "" {
		return fmt.Errorf("configuration has no backing file")
	}
	snap, err := Load(h.path)
	if err != nil {
		return err
	}
	prev := h.current.Load()
	snap.Backend = prev.Backend
	snap.Server.Listen = prev.Server.Listen
	h.current.Store(snap)
	return nil
}

// Set replaces the snapshot, used by administrative tooling and tests.
func (h *Holder) Set(snap *Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current.Store(snap)
}
