// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"slices"
	"strings"

	"audiobackend/internal/audio"
	"audiobackend/internal/config"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676"))
)

var (
	keyQuit  = key.NewBinding(key.WithKeys("q", "ctrl+c"))
	keyUp    = key.NewBinding(key.WithKeys("up", "k"))
	keyDown  = key.NewBinding(key.WithKeys("down", "j"))
	keyEnter = key.NewBinding(key.WithKeys("enter"))
	keyBack  = key.NewBinding(key.WithKeys("esc"))
)

// ScreenType defines which screen is currently active
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfigScreen
)

// DeviceSource is the part of the audio backend the browser needs.
type DeviceSource interface {
	AllDevices() ([]audio.Device, error)
	SupportedSampleRates(dev audio.Device, input bool) []float64
}

// DeviceListModel represents the Bubble Tea model for listing audio devices
type DeviceListModel struct {
	source        DeviceSource
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType

	// Configuration options
	selectedSampleRate float64
	supportedRates     []float64
	sampleRateIndex    int
}

// NewDeviceListModel creates a new device list model
func NewDeviceListModel(source DeviceSource) DeviceListModel {
	return DeviceListModel{
		source:       source,
		activeScreen: ListScreen,
	}
}

// Init initializes the Bubble Tea model
func (m DeviceListModel) Init() tea.Cmd {
	return fetchDevices(m.source)
}

func fetchDevices(source DeviceSource) tea.Cmd {
	return func() tea.Msg {
		devices, err := source.AllDevices()
		if err != nil {
			return errMsg{err}
		}
		return devicesMsg{devices}
	}
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
			m.refresh()
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}

	case devicesMsg:
		m.devices = msg.devices
		if m.selectedIndex >= len(m.devices) {
			m.selectedIndex = 0
		}
		m.refresh()

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if key.Matches(msg, keyQuit) {
			return m, tea.Quit
		}

		switch m.activeScreen {
		case ListScreen:
			switch {
			case key.Matches(msg, keyUp):
				if m.selectedIndex > 0 {
					m.selectedIndex--
				}
			case key.Matches(msg, keyDown):
				if m.selectedIndex < len(m.devices)-1 {
					m.selectedIndex++
				}
			case key.Matches(msg, keyEnter):
				if len(m.devices) > 0 {
					m.openConfig()
				}
			}

		case ConfigScreen:
			switch {
			case key.Matches(msg, keyBack):
				m.activeScreen = ListScreen
			case key.Matches(msg, keyUp):
				if m.sampleRateIndex > 0 {
					m.sampleRateIndex--
				}
			case key.Matches(msg, keyDown):
				if m.sampleRateIndex < len(config.StandardSampleRates)-1 {
					m.sampleRateIndex++
				}
			}
			m.selectedSampleRate = config.StandardSampleRates[m.sampleRateIndex]
		}
		m.refresh()
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// openConfig switches to the configuration screen for the selected device
// and probes which standard rates it accepts.
func (m *DeviceListModel) openConfig() {
	device := m.devices[m.selectedIndex]
	m.activeScreen = ConfigScreen
	m.supportedRates = m.source.SupportedSampleRates(device, device.IsInput())
	m.selectedSampleRate = device.DefaultSampleRate

	m.sampleRateIndex = 0
	for i, rate := range config.StandardSampleRates {
		if rate == m.selectedSampleRate {
			m.sampleRateIndex = i
			break
		}
	}
}

func (m *DeviceListModel) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == ConfigScreen {
		m.viewport.SetContent(m.renderDeviceConfig())
		return
	}
	m.viewport.SetContent(m.renderDevices())
}

// View renders the UI
func (m DeviceListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to exit.", m.err)
	}

	var title, help string

	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Audio Device List")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Configure • q: Quit")
	} else {
		title = titleStyle.Render("Device Configuration")
		help = infoStyle.Render("↑/↓: Change Value • Esc: Back • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func defaultMarker(isDefault bool) string {
	if isDefault {
		return "*"
	}
	return " "
}

// renderDevices formats the device list
func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No audio devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		marker := defaultMarker(device.IsDefaultInput() || device.IsDefaultOutput())

		deviceInfo := fmt.Sprintf("%s[%d] %s (%s, %s)\n",
			marker, device.ID, device.Name, device.Kind(), device.HostAPI)
		deviceInfo += fmt.Sprintf("    Input channels: %d, Output channels: %d\n",
			device.MaxInputChannels, device.MaxOutputChannels)
		deviceInfo += fmt.Sprintf("    Default sample rate: %.0f Hz\n",
			device.DefaultSampleRate)
		if device.IsInput() {
			deviceInfo += fmt.Sprintf("    Input latency: %s low, %s high\n",
				device.DefaultLowInputLatency, device.DefaultHighInputLatency)
		}
		if device.IsOutput() {
			deviceInfo += fmt.Sprintf("    Output latency: %s low, %s high\n",
				device.DefaultLowOutputLatency, device.DefaultHighOutputLatency)
		}

		if i == m.selectedIndex {
			deviceInfo = highlightStyle.Render(deviceInfo)
		}

		sb.WriteString(deviceInfo)
		sb.WriteString("\n")
	}
	sb.WriteString(dimStyle.Render("* default device"))

	return sb.String()
}

// renderDeviceConfig formats the device configuration screen
func (m DeviceListModel) renderDeviceConfig() string {
	var sb strings.Builder
	device := m.devices[m.selectedIndex]

	sb.WriteString(fmt.Sprintf("Configure Device: %s\n\n", device.Name))
	sb.WriteString("Sample Rate:\n")

	for i, rate := range config.StandardSampleRates {
		cursor := " "
		if i == m.sampleRateIndex {
			cursor = "▶"
		}
		line := fmt.Sprintf("  %s %.0f Hz", cursor, rate)
		if !slices.Contains(m.supportedRates, rate) {
			line += " (unsupported)"
		}
		line += "\n"

		switch {
		case i == m.sampleRateIndex:
			line = highlightStyle.Render(line)
		case !slices.Contains(m.supportedRates, rate):
			line = dimStyle.Render(line)
		}

		sb.WriteString(line)
	}

	return sb.String()
}

// StartDeviceListUI launches the Bubble Tea TUI for listing devices
func StartDeviceListUI(source DeviceSource) error {
	p := tea.NewProgram(
		NewDeviceListModel(source),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
