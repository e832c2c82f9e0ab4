// Package tui provides an interactive terminal playground for arp32
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/james-see/arp32/pkg/arp"
	"github.com/james-see/arp32/pkg/patch"
	"github.com/james-see/arp32/pkg/render"
)

// Acid-inspired color scheme
var (
	acidGreen  = lipgloss.Color("#39FF14")
	acidYellow = lipgloss.Color("#FFFF00")
	silverGray = lipgloss.Color("#C0C0C0")
	darkGray   = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(acidGreen).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(acidGreen).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555"))

	playheadStyle = lipgloss.NewStyle().
			Foreground(darkGray).
			Background(acidGreen).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(acidYellow).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(acidGreen).
			Padding(1, 2)
)

const (
	controlRate   = 1000.0
	tickInterval  = 10 * time.Millisecond
	pulsesPerBeat = 4
	minBPM        = 20.0
	maxBPM        = 300.0

	// DefaultPatchFile is where the patch is saved when no file was given
	DefaultPatchFile = "arp32.yaml"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Options configures the playground
type Options struct {
	Patch     patch.Patch
	PatchFile string
	BPM       float64
	Root      float64
	Seed      uint64
}

// DefaultOptions starts from the default patch at the default tempo
func DefaultOptions() Options {
	return Options{Patch: patch.Default(), BPM: render.DefaultBPM}
}

// Model represents the TUI model
type Model struct {
	module    *arp.Module
	patch     patch.Patch
	patchFile string
	spinner   spinner.Model

	bpm       float64
	root      float64
	playing   bool
	hold      bool
	randomize bool // Raise the randomize jack on the next frame
	frame     int

	out    arp.Output
	status string
	err    error
}

// tickMsg advances the internal clock
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// New creates a new TUI model
func New(opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(acidGreen)

	if opts.PatchFile == "" {
		opts.PatchFile = DefaultPatchFile
	}
	bpm := opts.BPM
	if bpm <= 0 {
		bpm = render.DefaultBPM
	}

	m := Model{
		module:    arp.NewModule(arp.NewSeeded(opts.Seed)),
		patch:     opts.Patch,
		patchFile: opts.PatchFile,
		spinner:   s,
		bpm:       math.Max(minBPM, math.Min(maxBPM, bpm)),
		root:      opts.Root,
		playing:   true,
	}
	m.patch.Apply(m.module)
	return m
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKeys(msg)

	case tickMsg:
		m.advance(int(tickInterval.Seconds() * controlRate))
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := &m.patch
	m.status = ""
	m.err = nil

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "p":
		p.Pattern = (p.Pattern + 1) % arp.NumShapes
	case "P":
		p.Pattern = (p.Pattern + arp.NumShapes - 1) % arp.NumShapes
	case "l":
		p.Length = min(p.Length+1, arp.MaxLength)
	case "L":
		p.Length = max(p.Length-1, 1)
	case "s":
		p.StepSize = min(p.StepSize+1, arp.MaxStepSize)
	case "S":
		p.StepSize = max(p.StepSize-1, -arp.MaxStepSize)
	case "c":
		p.Scale = (p.Scale + 1) % arp.NumScaleModes
	case "o":
		p.Offset = min(p.Offset+1, arp.MaxOffset)
	case "O":
		p.Offset = max(p.Offset-1, 0)
	case "g":
		p.GateMode = (p.GateMode + 1) % arp.NumGateModes
	case "e":
		p.RepeatLast = !p.RepeatLast
	case "h":
		m.hold = !m.hold
	case "r":
		m.randomize = true
	case " ":
		m.playing = !m.playing
		if m.playing {
			m.frame = 0
		}
	case "+", "=":
		m.bpm = math.Min(m.bpm+5, maxBPM)
	case "-", "_":
		m.bpm = math.Max(m.bpm-5, minBPM)
	case "w":
		if err := m.patch.Save(m.patchFile); err != nil {
			m.err = err
		} else {
			m.status = fmt.Sprintf("Saved %s", m.patchFile)
		}
	}

	m.patch.Apply(m.module)
	return m, nil
}

// framesPerPulse converts the tempo into module ticks per clock pulse
func (m Model) framesPerPulse() int {
	return max(2, int(math.Round(60/(m.bpm*pulsesPerBeat)*controlRate)))
}

// advance runs the module for n frames
func (m *Model) advance(n int) {
	fpp := m.framesPerPulse()
	for range n {
		jacks := arp.Jacks{
			Pitch: arp.Jack{Volts: m.root, Connected: true},
		}
		if m.playing {
			clock := arp.LowVolts
			if m.frame%fpp < fpp/2 {
				clock = arp.HighVolts
			}
			jacks.Clock = arp.Jack{Volts: clock, Connected: true}
		}
		if m.hold {
			jacks.Hold = arp.Jack{Volts: arp.HighVolts, Connected: true}
		}
		if m.randomize {
			jacks.Randomize = arp.Jack{Volts: arp.HighVolts, Connected: true}
			m.randomize = false
		} else {
			jacks.Randomize = arp.Jack{Volts: arp.LowVolts, Connected: true}
		}

		m.out = m.module.Process(jacks, 1/controlRate)
		m.frame++
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" ARP32 "))
	s.WriteString("\n")
	s.WriteString(m.viewPanel())
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s", m.err.Error())))
		s.WriteString("\n")
	} else if m.status != "" {
		s.WriteString(statusStyle.Render(m.status))
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("p/P: pattern • l/L: length • s/S: step • c: scale • o/O: offset\n" +
		"h: hold • r: randomize • g: gate mode • e: repeat last • space: start/stop • +/-: bpm • w: save • q: quit"))

	return s.String()
}

func (m Model) viewPanel() string {
	var s strings.Builder
	seq := m.module.Sequencer()
	p := m.patch

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label))
		s.WriteString(valueStyle.Render(value))
		s.WriteString("\n")
	}

	row("Pattern", p.Pattern.String())
	row("Length", fmt.Sprintf("L : %d", p.Length))
	row("Step", fmt.Sprintf("S : %d%s", p.StepSize, p.Scale.Suffix()))
	row("Scale", p.Scale.String())
	row("Offset", fmt.Sprintf("%d", p.Offset))
	row("Gate", p.GateMode.String())
	row("Repeat last", onOff(p.RepeatLast))
	row("Hold", onOff(m.hold))
	s.WriteString("\n")

	clock := "stopped"
	if m.playing {
		clock = fmt.Sprintf("%s %.0f BPM", m.spinner.View(), m.bpm)
	}
	row("Clock", clock)
	row("State", seq.State().String())
	row("Pitch", fmt.Sprintf("%+.3fV  %s", m.out.Pitch, noteName(render.VoltsToKey(m.out.Pitch))))
	row("Gate/EOC", fmt.Sprintf("%s %s", lamp(m.out.Gate), lamp(m.out.EOC)))
	s.WriteString("\n")
	s.WriteString(m.viewTable(seq))

	return boxStyle.Render(s.String())
}

// viewTable renders the cycle's note table with the last played entry lit
func (m Model) viewTable(seq *arp.Sequencer) string {
	cur := seq.Cursor()
	table := cur.Table()
	playhead := -1
	if seq.Running() {
		playhead = cur.Index() - 1
	}

	var cells []string
	for i, note := range table.Notes() {
		style := dimStyle
		if i >= cur.Start() {
			style = valueStyle
		}
		if i == playhead {
			style = playheadStyle
		}
		cells = append(cells, style.Render(fmt.Sprintf("%3d", note)))
	}
	return strings.Join(cells, " ")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func lamp(b bool) string {
	if b {
		return "●"
	}
	return "○"
}

// noteName formats a MIDI key as pitch class and octave, 60 being C4
func noteName(key uint8) string {
	return fmt.Sprintf("%s%d", noteNames[key%12], int(key)/12-1)
}

// Patch returns the current patch
func (m Model) Patch() patch.Patch {
	return m.patch
}

// Run starts the TUI application
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
