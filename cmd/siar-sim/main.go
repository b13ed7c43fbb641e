package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Width(18)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
)

type step int

const (
	stepEnteringKey step = iota
	stepRunning
	stepWatering
)

type model struct {
	step         step
	client       *deviceClient
	server       string
	interval     time.Duration
	currentInput string

	humidity float64
	config   *deviceConfig
	status   string
	fired    map[string]bool
	ticks    int
	message  string
	log      []string
	quitting bool
}

type tickMsg time.Time
type cycleMsg struct {
	cfg      *deviceConfig
	decision decision
}
type wateringDoneMsg struct {
	kind    wateringKind
	seconds int
}
type statusSentMsg string

// errMsg from the loop commands restarts the tick; report errors do not.
type errMsg struct {
	err  error
	loop bool
}

func (e errMsg) Error() string { return e.err.Error() }

func initialModel(server, key string, interval time.Duration, humidity float64) model {
	m := model{
		step:     stepEnteringKey,
		server:   server,
		interval: interval,
		humidity: humidity,
		status:   "offline",
		fired:    map[string]bool{},
	}
	if key != "" {
		m.client = newDeviceClient(server, key)
		m.step = stepRunning
	}
	return m
}

func (m model) Init() tea.Cmd {
	if m.step == stepRunning {
		return tick(0)
	}
	return nil
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// cycle is one firmware loop: reading (heartbeat), configuration, decision.
func cycle(c *deviceClient, humidity float64, fired map[string]bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := c.SendReading(ctx, humidity); err != nil {
			return errMsg{err: err, loop: true}
		}
		cfg, err := c.FetchConfig(ctx)
		if err != nil {
			return errMsg{err: err, loop: true}
		}
		return cycleMsg{cfg: cfg, decision: decide(cfg, humidity, time.Now(), fired)}
	}
}

func water(c *deviceClient, d decision, humidity float64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(d.seconds+15)*time.Second)
		defer cancel()

		if err := c.ReportStatus(ctx, "regando"); err != nil {
			return errMsg{err: err, loop: true}
		}
		time.Sleep(time.Duration(d.seconds) * time.Second)

		var h *float64
		if d.kind == sensorWatering {
			h = &humidity
		}
		if err := c.LogIrrigation(ctx, float64(d.seconds), h); err != nil {
			return errMsg{err: err, loop: true}
		}
		if err := c.ReportStatus(ctx, "online"); err != nil {
			return errMsg{err: err, loop: true}
		}
		return wateringDoneMsg{kind: d.kind, seconds: d.seconds}
	}
}

func report(c *deviceClient, status string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.ReportStatus(ctx, status); err != nil {
			return errMsg{err: err}
		}
		return statusSentMsg(status)
	}
}

func (m *model) record(line string) {
	m.log = append(m.log, time.Now().Format("15:04:05 ")+line)
	if len(m.log) > 8 {
		m.log = m.log[len(m.log)-8:]
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			if m.step == stepEnteringKey && m.currentInput != "" {
				m.client = newDeviceClient(m.server, strings.TrimSpace(m.currentInput))
				m.currentInput = ""
				m.step = stepRunning
				return m, tick(0)
			}

		case "backspace":
			if m.step == stepEnteringKey && len(m.currentInput) > 0 {
				m.currentInput = m.currentInput[:len(m.currentInput)-1]
			}

		default:
			if m.step == stepEnteringKey {
				m.currentInput += msg.String()
				return m, nil
			}
			switch msg.String() {
			case "q":
				m.quitting = true
				return m, tea.Quit
			case "r":
				if m.step == stepRunning {
					m.step = stepWatering
					d := decision{kind: sensorWatering, seconds: defaultSensorDuration, reason: "manual"}
					m.record("riego manual")
					return m, water(m.client, d, m.humidity)
				}
			case "e":
				return m, report(m.client, "error")
			case "o":
				return m, report(m.client, "online")
			case "+":
				m.humidity = drift(m.humidity, -5)
			case "-":
				m.humidity = drift(m.humidity, 5)
			}
		}

	case tickMsg:
		if m.step != stepRunning {
			return m, nil
		}
		m.ticks++
		m.humidity = drift(m.humidity, 0.8)
		return m, cycle(m.client, m.humidity, m.fired)

	case cycleMsg:
		m.config = msg.cfg
		if m.step == stepWatering {
			return m, nil
		}
		if m.status == "offline" {
			m.status = "online"
		}
		m.message = successStyle.Render("✓ lectura enviada")
		if msg.decision.kind != noWatering {
			if msg.decision.slotKey != "" {
				m.fired[msg.decision.slotKey] = true
			}
			m.step = stepWatering
			m.status = "regando"
			m.record(fmt.Sprintf("regando %ds (%s)", msg.decision.seconds, msg.decision.reason))
			return m, water(m.client, msg.decision, m.humidity)
		}
		return m, tick(m.interval)

	case wateringDoneMsg:
		m.humidity = afterWatering(m.humidity, msg.seconds, m.config)
		m.status = "online"
		m.step = stepRunning
		m.record(fmt.Sprintf("riego terminado, %ds registrados", msg.seconds))
		return m, tick(m.interval)

	case statusSentMsg:
		m.status = string(msg)
		m.record("estado " + string(msg))

	case errMsg:
		m.message = errorStyle.Render("✗ " + msg.err.Error())
		m.record(msg.err.Error())
		if !msg.loop {
			return m, nil
		}
		m.step = stepRunning
		return m, tick(m.interval)
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("SIAR device simulator"))
	s.WriteString("\n")

	if m.step == stepEnteringKey {
		s.WriteString(promptStyle.Render("Enter the device API key:\n"))
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\nPress Enter\n")
		return s.String()
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + value + "\n")
	}
	row("servidor", m.server)
	row("estado", m.status)
	row("ciclos", fmt.Sprintf("%d", m.ticks))
	row("humedad", fmt.Sprintf("%.1f%%", m.humidity))
	if m.config != nil {
		if m.config.UmbralMin != nil && m.config.UmbralMax != nil {
			row("umbrales", fmt.Sprintf("%d%% - %d%%", *m.config.UmbralMin, *m.config.UmbralMax))
		} else {
			row("umbrales", "sin perfil")
		}
		row("modo programado", fmt.Sprintf("%v", m.config.ScheduledModeActive))
		for _, h := range m.config.Schedules {
			row("horario", fmt.Sprintf("%s %v (%ds)", h.Time, h.Days, h.Duration))
		}
	}
	if m.message != "" {
		s.WriteString("\n" + m.message + "\n")
	}
	if len(m.log) > 0 {
		s.WriteString("\n" + strings.Join(m.log, "\n") + "\n")
	}
	s.WriteString("\nr regar · e error · o online · +/- humedad · q salir\n")
	return s.String()
}

func main() {
	server := flag.String("server", "http://localhost:3536", "SIAR server base URL")
	key := flag.String("key", os.Getenv("SIAR_DEVICE_KEY"), "device API key")
	interval := flag.Duration("interval", 10*time.Second, "heartbeat interval")
	humidity := flag.Float64("humidity", 55, "initial soil humidity")
	flag.Parse()

	p := tea.NewProgram(initialModel(strings.TrimRight(*server, "/"), *key, *interval, *humidity))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
