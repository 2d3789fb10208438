package profiles

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramborogers/netswitch/applier"
)

const sampleJSON = `[
  // office network
  {
    "department": "Finance",
    "users": [
      {"name": "alice", "ip": "192.168.1.50", "netmask": "255.255.255.0",
       "gateway": "192.168.1.1", "dns": "8.8.8.8", "s_dns": "8.8.4.4",
       "mac": "02:11:22:33:44:55"},
      {"name": "bob", "ip": "192.168.1.51", "netmask": "255.255.255.0",
       "gateway": "192.168.1.1", "dns": "8.8.8.8", "mac": ""},
    ],
  },
  {"department": "Lab", "users": []},
]`

const sampleYAML = `
- department: Finance
  users:
    - name: alice
      ip: 192.168.1.50
      netmask: 255.255.255.0
      gateway: 192.168.1.1
      dns: 8.8.8.8
      mac_property: Locally Administered Address
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadJSON(t *testing.T) {
	store, err := Load(writeFile(t, "config.json", sampleJSON))
	require.NoError(t, err)

	depts := store.Departments()
	require.Len(t, depts, 2)
	assert.Equal(t, "Finance", depts[0].Name)
	assert.Equal(t, "Lab", depts[1].Name)
	assert.Equal(t, 2, store.Count())

	alice, err := store.Find("Finance", "alice")
	require.NoError(t, err)
	assert.Equal(t, applier.Profile{
		IPAddress:    "192.168.1.50",
		SubnetMask:   "255.255.255.0",
		Gateway:      "192.168.1.1",
		PrimaryDNS:   "8.8.8.8",
		SecondaryDNS: "8.8.4.4",
		MACAddress:   "02:11:22:33:44:55",
	}, alice.Profile())
	assert.NoError(t, alice.Profile().Validate())
}

func TestLoadYAML(t *testing.T) {
	store, err := Load(writeFile(t, "profiles.yaml", sampleYAML))
	require.NoError(t, err)

	alice, err := store.Find("Finance", "alice")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.50", alice.IP)
	assert.Equal(t, "Locally Administered Address", alice.Profile().MACProperty())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "broken.json", `[{"department": `))
	assert.Error(t, err)

	store, err := Load(writeFile(t, "empty.json", "  \n"))
	require.NoError(t, err)
	assert.Empty(t, store.Departments())
}

func TestFindNotFound(t *testing.T) {
	store, err := Load(writeFile(t, "config.json", sampleJSON))
	require.NoError(t, err)

	_, err = store.Find("Finance", "carol")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.Contains(t, err.Error(), "carol")

	_, err = store.Find("Sales", "alice")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.Contains(t, err.Error(), "Sales")
}

func TestIncompleteUserFailsAtApply(t *testing.T) {
	store := NewStore([]Department{{Name: "Lab", Users: []User{{Name: "eve", IP: "10.0.0.2"}}}})
	require.NoError(t, store.Validate())

	eve, err := store.Find("Lab", "eve")
	require.NoError(t, err)
	assert.ErrorIs(t, eve.Profile().Validate(), applier.ErrMissingField)
}

func TestValidateDuplicates(t *testing.T) {
	store := NewStore([]Department{
		{Name: "Finance", Users: []User{{Name: "alice"}, {Name: "alice"}}},
		{Name: "Finance"},
	})

	err := store.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), `user "alice"`)
	assert.Contains(t, err.Error(), `department "Finance"`)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "/etc/netswitch.json", ResolvePath("/etc/netswitch.json"))

	t.Setenv(EnvConfig, "/srv/profiles.yaml")
	assert.Equal(t, "/srv/profiles.yaml", ResolvePath(""))
}

func TestWatchReloads(t *testing.T) {
	path := writeFile(t, "config.json", sampleJSON)

	changes := make(chan *Store, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := Watch(ctx, path, 20*time.Millisecond, func(s *Store, err error) {
		if err == nil {
			changes <- s
		}
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`[{"department": "Ops", "users": []}]`), 0644))

	select {
	case s := <-changes:
		require.Len(t, s.Departments(), 1)
		assert.Equal(t, "Ops", s.Departments()[0].Name)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
}
