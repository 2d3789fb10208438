package applier

import (
	"testing"

	"github.com/ramborogers/netswitch/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMacApply(t *testing.T) {
	tests := []struct {
		name      string
		secondary string
		wantDNS   []interface{}
	}{
		{"primary only", "", []interface{}{"networksetup", "-setdnsservers", "Wi-Fi", "8.8.8.8"}},
		{"with secondary", "8.8.4.4", []interface{}{"networksetup", "-setdnsservers", "Wi-Fi", "8.8.8.8", "8.8.4.4"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockExec := new(MockCommandExecutor)
			mockExec.On("RunCommand", "networksetup", "-setmanual", "Wi-Fi",
				"192.168.1.50", "255.255.255.0", "192.168.1.1").Return("", nil).Once()
			mockExec.On("RunCommand", tc.wantDNS...).Return("", nil).Once()

			a := NewMacApplier(Options{Executor: mockExec, Logger: logging.Discard()})
			p := validProfile()
			p.SecondaryDNS = tc.secondary
			res := a.Apply("Wi-Fi", p)

			require.True(t, res.Success, res.Reason())
			assert.Empty(t, res.Notes)
			mockExec.AssertExpectations(t)
		})
	}
}

func TestMacAddressFailureStopsDNS(t *testing.T) {
	exec := newScriptedExecutor().failOn("-setmanual")
	a := NewMacApplier(Options{Executor: exec, Logger: logging.Discard()})

	res := a.Apply("Wi-Fi", validProfile())

	assert.False(t, res.Success)
	assert.Contains(t, res.Reason(), "set manual address")
	assert.Len(t, exec.joined(), 1)
}

func TestMacDNSFailureIsFatal(t *testing.T) {
	exec := newScriptedExecutor().failOn("-setdnsservers")
	a := NewMacApplier(Options{Executor: exec, Logger: logging.Discard()})

	res := a.Apply("Wi-Fi", validProfile())

	assert.False(t, res.Success)
	require.Len(t, res.Steps, 2)
	assert.True(t, res.Steps[1].Failed())
}

func TestMacSkipsMACChange(t *testing.T) {
	exec := newScriptedExecutor()
	a := NewMacApplier(Options{Executor: exec, Logger: logging.Discard()})

	p := validProfile()
	p.MACAddress = "02:11:22:33:44:55"
	res := a.Apply("Wi-Fi", p)

	assert.True(t, res.Success)
	assert.Len(t, exec.joined(), 2)
	require.Len(t, res.Notes, 1)
	assert.Contains(t, res.Notes[0], "not supported on macOS")
}

func TestMacInterfaces(t *testing.T) {
	mockExec := new(MockCommandExecutor)
	mockExec.On("RunCommand", "networksetup", "-listallnetworkservices").
		Return("An asterisk (*) denotes that a network service is disabled.\nUSB 10/100/1000 LAN\nWi-Fi\n*Thunderbolt Bridge\n", nil)

	a := NewMacApplier(Options{Executor: NewDryRunExecutor(), Query: mockExec, Logger: logging.Discard()})
	names, err := a.Interfaces()

	require.NoError(t, err)
	assert.Equal(t, []string{"USB 10/100/1000 LAN", "Wi-Fi", "Thunderbolt Bridge"}, names)
}

func TestParseNetworkServicesEmpty(t *testing.T) {
	assert.Empty(t, parseNetworkServices(""))
	assert.Empty(t, parseNetworkServices("An asterisk (*) denotes that a network service is disabled.\n"))
}

func TestMacIdempotentSequence(t *testing.T) {
	exec := newScriptedExecutor()
	a := NewMacApplier(Options{Executor: exec, Logger: logging.Discard()})

	p := validProfile()
	p.SecondaryDNS = "8.8.4.4"

	first := a.Apply("Wi-Fi", p)
	n := len(exec.joined())
	second := a.Apply("Wi-Fi", p)

	require.True(t, first.Success)
	require.True(t, second.Success)
	all := exec.joined()
	require.Len(t, all, 2*n)
	assert.Equal(t, all[:n], all[n:])
	assert.Equal(t, first.Commands(), second.Commands())
}
