// Package profiles loads the department and user network profiles that the
// applier pushes onto an interface.
//
// The file is a list of departments, each holding named users:
//
//	[
//	  {"department": "Finance", "users": [
//	    {"name": "alice", "ip": "192.168.1.50", "netmask": "255.255.255.0",
//	     "gateway": "192.168.1.1", "dns": "8.8.8.8", "mac": "02:11:22:33:44:55"}
//	  ]}
//	]
//
// JSON files may carry comments and trailing commas. YAML files with the same
// keys are accepted for the .yaml and .yml extensions.
package profiles

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"

	"github.com/ramborogers/netswitch/applier"
)

// DefaultFileName is looked up beside the executable, then in the working
// directory.
const DefaultFileName = "config.json"

// EnvConfig overrides the default profile path.
const EnvConfig = "NETSWITCH_CONFIG"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrDuplicate       = errors.New("duplicate entry")
)

// User is one named network profile.
type User struct {
	Name         string `json:"name" yaml:"name"`
	IP           string `json:"ip" yaml:"ip"`
	Netmask      string `json:"netmask" yaml:"netmask"`
	Gateway      string `json:"gateway" yaml:"gateway"`
	DNS          string `json:"dns" yaml:"dns"`
	SecondaryDNS string `json:"s_dns,omitempty" yaml:"s_dns,omitempty"`
	MAC          string `json:"mac,omitempty" yaml:"mac,omitempty"`
	MACProperty  string `json:"mac_property,omitempty" yaml:"mac_property,omitempty"`
}

// Profile converts the user entry into the applier's input.
func (u User) Profile() applier.Profile {
	return applier.Profile{
		IPAddress:       u.IP,
		SubnetMask:      u.Netmask,
		Gateway:         u.Gateway,
		PrimaryDNS:      u.DNS,
		SecondaryDNS:    u.SecondaryDNS,
		MACAddress:      u.MAC,
		MACPropertyName: u.MACProperty,
	}
}

// Department groups users.
type Department struct {
	Name  string `json:"department" yaml:"department"`
	Users []User `json:"users" yaml:"users"`
}

// Store holds the loaded profile tree in file order.
type Store struct {
	Path        string
	departments []Department
}

// NewStore builds a store from an in-memory tree.
func NewStore(departments []Department) *Store {
	return &Store{departments: departments}
}

// Load reads and parses the profile file at path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profiles: %w", err)
	}
	departments, err := Parse(data, path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &Store{Path: path, departments: departments}, nil
}

// Parse decodes a profile file. The extension of pathHint selects the format;
// anything that is not .yaml or .yml is read as JSON5.
func Parse(data []byte, pathHint string) ([]Department, error) {
	var departments []Department
	switch strings.ToLower(filepath.Ext(pathHint)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		if err := decoder.Decode(&departments); err != nil && err != io.EOF {
			return nil, err
		}
	default:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		if err := json5.Unmarshal(data, &departments); err != nil {
			return nil, err
		}
	}
	return departments, nil
}

// Departments returns the tree in file order.
func (s *Store) Departments() []Department {
	return s.departments
}

// Find returns the named user in the named department.
func (s *Store) Find(department, user string) (User, error) {
	for _, d := range s.departments {
		if d.Name != department {
			continue
		}
		for _, u := range d.Users {
			if u.Name == user {
				return u, nil
			}
		}
		return User{}, fmt.Errorf("%w: user %q in %q", ErrProfileNotFound, user, department)
	}
	return User{}, fmt.Errorf("%w: department %q", ErrProfileNotFound, department)
}

// Count returns the number of users across all departments.
func (s *Store) Count() int {
	n := 0
	for _, d := range s.departments {
		n += len(d.Users)
	}
	return n
}

// Validate reports duplicate department names and duplicate user names
// within a department. Missing profile fields are not checked here; the
// applier rejects them at apply time.
func (s *Store) Validate() error {
	var errs []error
	seenDept := make(map[string]bool)
	for _, d := range s.departments {
		if seenDept[d.Name] {
			errs = append(errs, fmt.Errorf("%w: department %q", ErrDuplicate, d.Name))
		}
		seenDept[d.Name] = true

		seenUser := make(map[string]bool)
		for _, u := range d.Users {
			if seenUser[u.Name] {
				errs = append(errs, fmt.Errorf("%w: user %q in %q", ErrDuplicate, u.Name, d.Name))
			}
			seenUser[u.Name] = true
		}
	}
	return errors.Join(errs...)
}

// ResolvePath picks the profile file: an explicit path wins, then
// $NETSWITCH_CONFIG, then config.json beside the executable if it exists,
// then config.json in the working directory.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env
	}
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), DefaultFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return DefaultFileName
}
