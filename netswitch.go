package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ramborogers/netswitch/applier"
	"github.com/ramborogers/netswitch/logging"
	"github.com/ramborogers/netswitch/netinfo"
	"github.com/ramborogers/netswitch/profiles"
	"github.com/ramborogers/netswitch/views"
)

// Screen states
const (
	screenWelcome    = "welcome"
	screenProfiles   = "profiles"
	screenInterfaces = "interfaces"
	screenConfirm    = "confirm"
	screenApplying   = "applying"
	screenResult     = "result"
)

// reporter receives finished applies.
type reporter interface {
	Submit(department, user string, res applier.Result)
}

// Model represents the application state
type Model struct {
	currentScreen string
	width         int
	height        int
	frame         int

	store        *profiles.Store
	configPath   string
	items        []views.TreeItem
	profileIndex int
	notice       string

	applier       applier.NetworkApplier
	details       func() ([]netinfo.Interface, error)
	interfaces    []string
	ifaceDetails  []netinfo.Interface
	ifaceErr      error
	loading       bool
	selectedIndex int

	department string
	user       profiles.User
	iface      string

	result         applier.Result
	showingDetails bool

	reporter reporter
	logger   *logging.Logger

	styles          *views.Styles
	welcomeView     *views.WelcomeView
	profilesView    *views.ProfilesView
	interfacesView  *views.InterfacesView
	confirmView     *views.ConfirmView
	applyingView    *views.ApplyingView
	resultView      *views.ResultView
	stepDetailsView *views.StepDetailsView
}

// Message types
type interfacesMsg struct {
	ids     []string
	details []netinfo.Interface
	err     error
}

type applyDoneMsg struct {
	result applier.Result
}

type storeReloadedMsg struct {
	store *profiles.Store
	err   error
}

type welcomeTimerMsg struct{}

func welcomeTimer() tea.Cmd {
	return tea.Tick(900*time.Millisecond, func(t time.Time) tea.Msg {
		return welcomeTimerMsg{}
	})
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// modelOptions holds what the TUI needs from the command line.
type modelOptions struct {
	store      *profiles.Store
	configPath string
	loadErr    error
	applier    applier.NetworkApplier
	details    func() ([]netinfo.Interface, error)
	reporter   reporter
	dryRun     bool
	logger     *logging.Logger
}

func newModel(opts modelOptions) *Model {
	styles := views.NewStyles()
	if opts.store == nil {
		opts.store = profiles.NewStore(nil)
	}
	if opts.details == nil {
		opts.details = netinfo.Interfaces
	}
	if opts.logger == nil {
		opts.logger = logging.Discard()
	}

	m := &Model{
		currentScreen:   screenWelcome,
		configPath:      opts.configPath,
		applier:         opts.applier,
		details:         opts.details,
		reporter:        opts.reporter,
		logger:          opts.logger,
		styles:          styles,
		welcomeView:     views.NewWelcomeView(styles, version),
		profilesView:    views.NewProfilesView(styles),
		interfacesView:  views.NewInterfacesView(styles),
		confirmView:     views.NewConfirmView(styles),
		applyingView:    views.NewApplyingView(styles),
		resultView:      views.NewResultView(styles),
		stepDetailsView: views.NewStepDetailsView(styles),
	}
	m.welcomeView.SetDryRun(opts.dryRun)
	m.setStore(opts.store)
	if opts.loadErr != nil {
		m.notice = "Could not load profiles: " + opts.loadErr.Error()
	}
	return m
}

// setStore replaces the profile tree, keeping the selection when the same
// user is still present.
func (m *Model) setStore(store *profiles.Store) {
	var keepDept, keepUser string
	if m.profileIndex >= 0 && m.profileIndex < len(m.items) && m.items[m.profileIndex].Selectable() {
		keepDept = m.items[m.profileIndex].Department
		keepUser = m.items[m.profileIndex].User.Name
	}

	m.store = store
	m.items = views.Flatten(store.Departments())
	m.welcomeView.SetConfig(m.configPath, store.Count())

	m.profileIndex = views.FirstSelectable(m.items)
	for i, item := range m.items {
		if item.Selectable() && item.Department == keepDept && item.User.Name == keepUser {
			m.profileIndex = i
			break
		}
	}
}

func (m *Model) loadInterfaces() tea.Cmd {
	m.loading = true
	a, details := m.applier, m.details
	return func() tea.Msg {
		ids, err := a.Interfaces()
		if err != nil {
			return interfacesMsg{err: err}
		}
		current, derr := details()
		if derr != nil {
			current = nil
		}
		return interfacesMsg{ids: ids, details: current}
	}
}

func (m *Model) applyCmd(department string, user profiles.User, iface string) tea.Cmd {
	a, r, log := m.applier, m.reporter, m.logger
	return func() tea.Msg {
		log.Info("applying profile", "department", department, "user", user.Name, "interface", iface)
		res := a.Apply(iface, user.Profile())
		if r != nil {
			r.Submit(department, user.Name, res)
		}
		log.Info("apply finished", "success", res.Success, "error", res.Reason())
		return applyDoneMsg{result: res}
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(welcomeTimer(), tick())
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case welcomeTimerMsg:
		if m.currentScreen == screenWelcome {
			m.currentScreen = screenProfiles
		}
		return m, nil
	case tickMsg:
		if m.currentScreen != screenWelcome {
			return m, nil
		}
		m.frame++
		return m, tick()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case interfacesMsg:
		m.loading = false
		m.interfaces = msg.ids
		m.ifaceDetails = msg.details
		m.ifaceErr = msg.err
		if m.selectedIndex >= len(m.interfaces) {
			m.selectedIndex = 0
		}
		return m, nil
	case applyDoneMsg:
		m.result = msg.result
		m.resultView.SetResult(msg.result)
		m.showingDetails = false
		m.currentScreen = screenResult
		return m, nil
	case storeReloadedMsg:
		if msg.err != nil {
			m.notice = "Reload failed, keeping previous profiles: " + msg.err.Error()
			return m, nil
		}
		m.setStore(msg.store)
		m.notice = fmt.Sprintf("Profiles reloaded (%d users)", msg.store.Count())
		return m, nil
	case spinner.TickMsg:
		if m.currentScreen == screenApplying {
			return m, m.applyingView.Update(msg)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if m.currentScreen != screenApplying && m.currentScreen != screenConfirm && !m.showingDetails {
			return m, tea.Quit
		}
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "pgup":
		if m.currentScreen == screenResult && !m.showingDetails {
			m.resultView.Move(-10)
		}
	case "pgdown":
		if m.currentScreen == screenResult && !m.showingDetails {
			m.resultView.Move(10)
		}
	case "r":
		switch m.currentScreen {
		case screenResult:
			if !m.showingDetails {
				m.currentScreen = screenProfiles
				m.notice = ""
			}
		case screenInterfaces:
			if !m.loading {
				return m, m.loadInterfaces()
			}
		}
	case "enter":
		return m.handleEnter()
	case "esc":
		switch m.currentScreen {
		case screenInterfaces:
			m.currentScreen = screenProfiles
		case screenConfirm:
			m.currentScreen = screenInterfaces
		case screenResult:
			m.showingDetails = false
		}
	}
	return m, nil
}

func (m *Model) move(dir int) {
	switch m.currentScreen {
	case screenProfiles:
		if m.profileIndex >= 0 {
			m.profileIndex = views.NextSelectable(m.items, m.profileIndex, dir)
		}
	case screenInterfaces:
		next := m.selectedIndex + dir
		if next >= 0 && next < len(m.interfaces) {
			m.selectedIndex = next
		}
	case screenResult:
		if !m.showingDetails {
			m.resultView.Move(dir)
		}
	}
}

func (m *Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.currentScreen {
	case screenWelcome:
		m.currentScreen = screenProfiles
	case screenProfiles:
		if m.profileIndex < 0 || m.profileIndex >= len(m.items) || !m.items[m.profileIndex].Selectable() {
			return m, nil
		}
		item := m.items[m.profileIndex]
		m.department = item.Department
		m.user = *item.User
		m.selectedIndex = 0
		m.interfaces = nil
		m.ifaceErr = nil
		m.currentScreen = screenInterfaces
		return m, m.loadInterfaces()
	case screenInterfaces:
		if m.loading || len(m.interfaces) == 0 {
			return m, nil
		}
		m.iface = m.interfaces[m.selectedIndex]
		m.confirmView.SetTarget(m.department, m.user.Name, m.iface, m.user.Profile())
		m.currentScreen = screenConfirm
	case screenConfirm:
		if !m.confirmView.CanApply() {
			return m, nil
		}
		m.currentScreen = screenApplying
		return m, tea.Batch(
			m.applyingView.Start(m.user.Name, m.iface),
			m.applyCmd(m.department, m.user, m.iface),
		)
	case screenResult:
		if m.showingDetails {
			m.showingDetails = false
			return m, nil
		}
		if step, ok := m.resultView.SelectedStep(); ok {
			m.stepDetailsView.SetStep(step)
			m.showingDetails = true
		}
	}
	return m, nil
}

// View implements tea.Model
func (m *Model) View() string {
	switch m.currentScreen {
	case screenWelcome:
		m.welcomeView.SetDimensions(m.width, m.height)
		m.welcomeView.SetFrame(m.frame)
		return m.welcomeView.Render()
	case screenProfiles:
		m.profilesView.SetDimensions(m.width, m.height)
		m.profilesView.SetItems(m.items)
		m.profilesView.SetSelectedIndex(m.profileIndex)
		m.profilesView.SetNotice(m.notice)
		return m.profilesView.Render()
	case screenInterfaces:
		m.interfacesView.SetDimensions(m.width, m.height)
		m.interfacesView.SetInterfaces(m.applier.Platform(), m.interfaces, m.ifaceDetails)
		m.interfacesView.SetError(m.ifaceErr)
		m.interfacesView.SetSelectedIndex(m.selectedIndex)
		return m.interfacesView.Render()
	case screenConfirm:
		m.confirmView.SetDimensions(m.width, m.height)
		return m.confirmView.Render()
	case screenApplying:
		m.applyingView.SetDimensions(m.width, m.height)
		return m.applyingView.Render()
	case screenResult:
		if m.showingDetails {
			m.stepDetailsView.SetDimensions(m.width, m.height)
			return m.stepDetailsView.Render()
		}
		m.resultView.SetDimensions(m.width, m.height)
		return m.resultView.Render()
	default:
		return "Unknown screen"
	}
}

// runTUI starts the terminal UI. With --debug the log goes to debug.log in
// the working directory, otherwise nowhere, so the screen stays clean.
func runTUI(ctx context.Context, g *globalOptions) error {
	logger := logging.Discard()
	if g.debug {
		l, closer, err := logging.OpenDebugFile("debug.log")
		if err != nil {
			return fmt.Errorf("opening debug.log: %w", err)
		}
		defer closer.Close()
		logger = l
	}
	logging.SetDefault(logger)

	path := profiles.ResolvePath(g.configPath)
	store, loadErr := profiles.Load(path)
	if loadErr != nil {
		logger.Warn("loading profiles failed", "path", path, "error", loadErr)
	}

	opts, _, _ := g.applierOptions(logger)
	mopts := modelOptions{
		store:      store,
		configPath: path,
		loadErr:    loadErr,
		applier:    applier.ForHost(opts),
		dryRun:     g.dryRun,
		logger:     logger.WithComponent("tui"),
	}
	if client := g.reportClient(ctx); client != nil {
		defer client.Stop()
		mopts.reporter = client
	}

	p := tea.NewProgram(newModel(mopts), tea.WithAltScreen(), tea.WithContext(ctx))

	watcher, err := profiles.Watch(ctx, path, profiles.DefaultDebounce, func(s *profiles.Store, err error) {
		p.Send(storeReloadedMsg{store: s, err: err})
	})
	if err != nil {
		logger.Warn("profile file will not be watched", "error", err)
	} else {
		defer watcher.Close()
	}

	_, err = p.Run()
	return err
}
