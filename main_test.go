package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramborogers/netswitch/applier"
	"github.com/ramborogers/netswitch/netinfo"
	"github.com/ramborogers/netswitch/profiles"
)

func TestBuildRootCmdIncludesSubcommands(t *testing.T) {
	cmd := buildRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	for _, name := range []string{"apply", "profiles", "interfaces", "serve", "discover"} {
		assert.True(t, names[name], "expected subcommand %q to be registered", name)
	}
	for _, flag := range []string{"config", "debug", "dry-run", "sudo", "resolv-conf", "report-url", "report-token"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

type stubApplier struct {
	ids     []string
	listErr error
	applied []string
	result  applier.Result
}

func (s *stubApplier) Platform() string { return "linux" }

func (s *stubApplier) Interfaces() ([]string, error) {
	return s.ids, s.listErr
}

func (s *stubApplier) Apply(iface string, p applier.Profile) applier.Result {
	s.applied = append(s.applied, iface+" "+p.IPAddress)
	res := s.result
	res.Interface = iface
	return res
}

type stubReporter struct {
	users []string
}

func (r *stubReporter) Submit(department, user string, res applier.Result) {
	r.users = append(r.users, department+"/"+user)
}

func testStore() *profiles.Store {
	return profiles.NewStore([]profiles.Department{
		{Name: "Finance", Users: []profiles.User{
			{Name: "alice", IP: "192.168.1.50", Netmask: "255.255.255.0", Gateway: "192.168.1.1", DNS: "8.8.8.8"},
			{Name: "bob", IP: "192.168.1.51"},
		}},
	})
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(a *stubApplier, r reporter) *Model {
	return newModel(modelOptions{
		store:   testStore(),
		applier: a,
		details: func() ([]netinfo.Interface, error) {
			return []netinfo.Interface{{Name: "eth0", IPAddress: "10.0.0.2", IsUp: true}}, nil
		},
		reporter: r,
	})
}

func TestModelApplyFlow(t *testing.T) {
	a := &stubApplier{ids: []string{"eth0", "wlan0"}, result: applier.Result{Success: true, Platform: "linux"}}
	r := &stubReporter{}
	m := newTestModel(a, r)

	m.Update(welcomeTimerMsg{})
	require.Equal(t, screenProfiles, m.currentScreen)
	require.Equal(t, 1, m.profileIndex)

	_, cmd := m.Update(key("enter"))
	require.Equal(t, screenInterfaces, m.currentScreen)
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, []string{"eth0", "wlan0"}, m.interfaces)
	assert.Len(t, m.ifaceDetails, 1)

	m.Update(key("down"))
	m.Update(key("enter"))
	require.Equal(t, screenConfirm, m.currentScreen)
	assert.Equal(t, "wlan0", m.iface)

	_, cmd = m.Update(key("enter"))
	require.Equal(t, screenApplying, m.currentScreen)
	require.NotNil(t, cmd)

	// q is ignored while the commands run
	_, cmd = m.Update(key("q"))
	assert.Nil(t, cmd)

	m.Update(m.applyCmd(m.department, m.user, m.iface)())
	assert.Equal(t, screenResult, m.currentScreen)
	assert.True(t, m.result.Success)
	assert.Equal(t, []string{"wlan0 192.168.1.50"}, a.applied)
	assert.Equal(t, []string{"Finance/alice"}, r.users)

	m.Update(key("r"))
	assert.Equal(t, screenProfiles, m.currentScreen)
}

func TestModelConfirmRejectsIncompleteProfile(t *testing.T) {
	a := &stubApplier{ids: []string{"eth0"}}
	m := newTestModel(a, nil)
	m.Update(welcomeTimerMsg{})

	m.Update(key("down"))
	require.Equal(t, "bob", m.items[m.profileIndex].User.Name)

	_, cmd := m.Update(key("enter"))
	m.Update(cmd())
	m.Update(key("enter"))
	require.Equal(t, screenConfirm, m.currentScreen)

	_, cmd = m.Update(key("enter"))
	assert.Nil(t, cmd)
	assert.Equal(t, screenConfirm, m.currentScreen)
	assert.Empty(t, a.applied)
	assert.Contains(t, m.View(), "Please make sure all settings are filled in.")

	m.Update(key("esc"))
	assert.Equal(t, screenInterfaces, m.currentScreen)
	m.Update(key("esc"))
	assert.Equal(t, screenProfiles, m.currentScreen)
}

func TestModelInterfaceListError(t *testing.T) {
	a := &stubApplier{listErr: errors.New("Get-NetAdapter: access denied")}
	m := newTestModel(a, nil)
	m.Update(welcomeTimerMsg{})

	_, cmd := m.Update(key("enter"))
	m.Update(cmd())
	assert.Error(t, m.ifaceErr)

	// nothing to confirm
	m.Update(key("enter"))
	assert.Equal(t, screenInterfaces, m.currentScreen)
}

func TestModelStoreReloadKeepsSelection(t *testing.T) {
	m := newTestModel(&stubApplier{}, nil)
	m.Update(welcomeTimerMsg{})
	m.Update(key("down"))
	require.Equal(t, 2, m.profileIndex)

	reloaded := profiles.NewStore([]profiles.Department{
		{Name: "Lab", Users: []profiles.User{{Name: "eve"}}},
		{Name: "Finance", Users: []profiles.User{{Name: "alice"}, {Name: "bob"}}},
	})
	m.Update(storeReloadedMsg{store: reloaded})
	assert.Equal(t, "bob", m.items[m.profileIndex].User.Name)
	assert.Equal(t, "Profiles reloaded (3 users)", m.notice)

	m.Update(storeReloadedMsg{err: errors.New("bad json")})
	assert.Contains(t, m.notice, "keeping previous profiles")
	assert.Len(t, m.items, 5)
}

func TestModelStepDetails(t *testing.T) {
	a := &stubApplier{result: applier.Result{
		Platform: "linux",
		Err:      errors.New("set address failed"),
		Steps: []applier.Step{
			{Name: "interface down", Command: []string{"ifconfig", "eth0", "down"}},
			{Name: "set address", Command: []string{"ifconfig", "eth0", "192.168.1.50"}, Error: "exit status 1"},
		},
	}}
	m := newTestModel(a, nil)
	m.Update(applyDoneMsg{result: a.Apply("eth0", applier.Profile{})})
	require.Equal(t, screenResult, m.currentScreen)

	m.Update(key("down"))
	m.Update(key("enter"))
	require.True(t, m.showingDetails)
	assert.Contains(t, m.View(), "exit status 1")

	m.Update(key("esc"))
	assert.False(t, m.showingDetails)
}

func TestConfirmPrompt(t *testing.T) {
	var out bytes.Buffer
	ok, err := confirm(strings.NewReader("y\n"), &out, "Apply?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Apply? [y/N]: ", out.String())

	ok, err = confirm(strings.NewReader(""), &out, "Apply?")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPrintResult(t *testing.T) {
	var out bytes.Buffer
	printResult(&out, applier.Result{
		Success:   true,
		Platform:  "windows",
		Interface: "Ethernet",
		Warnings:  []string{"add secondary dns failed"},
		Steps: []applier.Step{
			{Name: "set address", Command: []string{"netsh", "interface", "ip", "set", "address"}},
			{Name: "add secondary dns", Command: []string{"netsh"}, Error: "exit status 1", Advisory: true},
		},
	})

	s := out.String()
	assert.Contains(t, s, "set address")
	assert.Contains(t, s, "warning: add secondary dns failed")
	assert.Contains(t, s, "Applied to Ethernet (windows).")
}

func TestPrintProfilesReportsDuplicates(t *testing.T) {
	store := profiles.NewStore([]profiles.Department{
		{Name: "Finance", Users: []profiles.User{{Name: "alice"}, {Name: "alice"}}},
		{Name: "Empty"},
	})

	var out bytes.Buffer
	err := printProfiles(&out, store, false)
	assert.ErrorIs(t, err, profiles.ErrDuplicate)
	assert.Contains(t, out.String(), "(no users)")
}

func TestPrintInterfacesDetails(t *testing.T) {
	var out bytes.Buffer
	err := printInterfaces(&out, []string{"eth0", "wlan0"}, []netinfo.Interface{
		{Name: "eth0", IPAddress: "10.0.0.2", CIDR: "/24", MACAddress: "02:11:22:33:44:55", Gateway: "10.0.0.1", IsUp: true},
	}, true)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "10.0.0.2/24")
	assert.Contains(t, lines[2], "wlan0")
}

func TestDryRunOptions(t *testing.T) {
	g := &globalOptions{dryRun: true, resolvConf: "/tmp/resolv.conf"}
	opts, recorder, files := g.applierOptions(g.cliLogger())
	require.NotNil(t, recorder)
	require.NotNil(t, files)
	assert.Same(t, recorder, opts.Executor)
	assert.Equal(t, applier.DefaultCommandExecutor, opts.Query)

	g = &globalOptions{}
	_, recorder, _ = g.applierOptions(g.cliLogger())
	assert.Nil(t, recorder)
}
