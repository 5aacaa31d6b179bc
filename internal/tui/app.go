// Package tui is the interactive editor for magazine jobs. It follows the
// bubbletea model: key messages update an explicit State, and View renders
// it together with the live size readout.
package tui

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/soypat/pcbmag/export"
	"github.com/soypat/pcbmag/internal/config"
	"github.com/soypat/pcbmag/internal/job"
	"github.com/soypat/pcbmag/magazine"
)

const (
	// DefaultPreview is the preview path used when the job names none.
	DefaultPreview = "preview.png"
	// DefaultConfigFile is where ctrl+w saves the job when it was not
	// loaded from a file.
	DefaultConfigFile = "pcbmag.yaml"
)

// Field indexes the parameter inputs.
type Field int

const (
	FieldA Field = iota
	FieldB
	FieldC
	FieldD
	FieldN
	numFields
)

var fieldLabels = [numFields]string{
	FieldA: "a  slot width",
	FieldB: "b  height",
	FieldC: "c  PCB thickness",
	FieldD: "d  slot spacing",
	FieldN: "n  slots",
}

// State is everything the editor knows about the job being edited.
type State struct {
	Mode     magazine.Mode
	Values   [numFields]string // Raw input text, parsed on demand.
	Format   export.Format
	ASCII    bool
	Path     string
	Preview  string // Empty renders to DefaultPreview and saves no preview.
	Drawing  string
	Config   magazine.Config
	Material string
	// ConfigPath is the job file written by ctrl+w.
	ConfigPath string
}

// NewState seeds a State from a resolved job loaded from configPath.
func NewState(j config.Job, configPath string) State {
	s := State{
		Mode:       j.Mode,
		Format:     j.Options.Format,
		ASCII:      j.Options.ASCII,
		Path:       j.Path,
		Preview:    j.Preview,
		Drawing:    j.Drawing,
		Config:     j.Config,
		Material:   j.Material,
		ConfigPath: configPath,
	}
	if s.ConfigPath == "" {
		s.ConfigPath = DefaultConfigFile
	}
	p := j.Params
	s.Values = [numFields]string{
		FieldA: strconv.FormatFloat(p.A, 'g', -1, 64),
		FieldB: strconv.FormatFloat(p.B, 'g', -1, 64),
		FieldC: strconv.FormatFloat(p.C, 'g', -1, 64),
		FieldD: strconv.FormatFloat(p.D, 'g', -1, 64),
		FieldN: strconv.Itoa(p.N),
	}
	return s
}

// Params parses and validates the parameter inputs.
func (s State) Params() (magazine.Params, error) {
	var vals [numFields]float64
	for i, raw := range s.Values {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return magazine.Params{}, &magazine.ParamError{
				Field:  magazine.Limits[i].Field,
				Value:  v,
				Reason: fmt.Sprintf("%q is not a number", raw),
			}
		}
		vals[i] = v
	}
	n, err := magazine.Count(vals[FieldN])
	if err != nil {
		return magazine.Params{}, err
	}
	p := magazine.Params{A: vals[FieldA], B: vals[FieldB], C: vals[FieldC], D: vals[FieldD], N: n}
	return p, p.Validate()
}

// Job converts the state to a runnable job.
func (s State) Job() (config.Job, error) {
	p, err := s.Params()
	if err != nil {
		return config.Job{}, err
	}
	return config.Job{
		Mode:     s.Mode,
		Params:   p,
		Config:   s.Config,
		Material: s.Material,
		Path:     s.Path,
		Options:  export.Options{Format: s.Format, ASCII: s.ASCII},
	}, nil
}

// File converts the state to the YAML shape of a job file.
func (s State) File() (config.File, error) {
	p, err := s.Params()
	if err != nil {
		return config.File{}, err
	}
	return config.File{
		Component: s.Mode.String(),
		Material:  s.Material,
		Params:    config.Params{A: p.A, B: p.B, C: p.C, D: p.D, N: float64(p.N)},
		Tunables:  s.Config,
		Output: config.Output{
			Format:  s.Format.String(),
			Path:    s.Path,
			ASCII:   s.ASCII,
			Preview: s.Preview,
			Drawing: s.Drawing,
		},
	}, nil
}

// exportedMsg reports a finished export.
type exportedMsg struct {
	res job.Result
	err error
}

// previewMsg reports a finished preview render.
type previewMsg struct {
	path string
	err  error
}

// savedMsg reports a written job file.
type savedMsg struct {
	path string
	err  error
}

// App is the bubbletea model of the editor.
type App struct {
	state  State
	inputs [numFields]textinput.Model
	focus  int

	size   string // Overall size of the current state, empty on error.
	err    error  // Validation or build error of the current state.
	status string // Outcome of the last export or preview.
	busy   bool
}

// New returns an editor for j. Saving writes to configPath, or to
// DefaultConfigFile when it is empty.
func New(j config.Job, configPath string) *App {
	a := &App{state: NewState(j, configPath)}
	for i := range a.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 12
		in.Width = 12
		in.SetValue(a.state.Values[i])
		a.inputs[i] = in
	}
	a.inputs[0].Focus()
	a.refresh()
	return a
}

// State returns the current state.
func (a *App) State() State { return a.state }

// Init implements tea.Model.
func (a *App) Init() tea.Cmd { return textinput.Blink }

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case exportedMsg:
		a.busy = false
		if msg.err != nil {
			a.status = "Export failed: " + msg.err.Error()
		} else {
			a.status = "Exported to: " + msg.res.Path
		}
		return a, nil

	case previewMsg:
		a.busy = false
		if msg.err != nil {
			a.status = "Preview failed: " + msg.err.Error()
		} else {
			a.status = "Preview written to: " + msg.path
		}
		return a, nil

	case savedMsg:
		a.busy = false
		if msg.err != nil {
			a.status = "Save failed: " + msg.err.Error()
		} else {
			a.status = "Saved job to: " + msg.path
		}
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return a, tea.Quit
		case "tab", "down":
			a.setFocus(a.focus + 1)
			return a, nil
		case "shift+tab", "up":
			a.setFocus(a.focus - 1)
			return a, nil
		case "left":
			a.cycleMode(-1)
			return a, nil
		case "right":
			a.cycleMode(1)
			return a, nil
		case "ctrl+f":
			a.toggleFormat()
			return a, nil
		case "ctrl+s":
			return a, a.exportCmd()
		case "ctrl+p":
			return a, a.previewCmd()
		case "ctrl+w":
			return a, a.saveCmd()
		}
	}

	var cmd tea.Cmd
	a.inputs[a.focus], cmd = a.inputs[a.focus].Update(msg)
	if v := a.inputs[a.focus].Value(); v != a.state.Values[a.focus] {
		a.state.Values[a.focus] = v
		a.refresh()
	}
	return a, cmd
}

func (a *App) setFocus(i int) {
	a.inputs[a.focus].Blur()
	a.focus = (i + int(numFields)) % int(numFields)
	a.inputs[a.focus].Focus()
}

func (a *App) cycleMode(step int) {
	n := len(magazine.Modes())
	a.state.Mode = magazine.Mode((int(a.state.Mode) + step + n) % n)
	a.refresh()
}

func (a *App) toggleFormat() {
	if a.state.Format == export.STL {
		a.state.Format = export.STEP
	} else {
		a.state.Format = export.STL
	}
	a.state.Path = export.ReplaceExt(a.state.Path, a.state.Format)
}

// refresh recomputes the size readout of the current state.
func (a *App) refresh() {
	a.size, a.err = "", nil
	p, err := a.state.Params()
	if err != nil {
		a.err = err
		return
	}
	box, err := job.Bounds(a.state.Mode, p, a.state.Config)
	if err != nil {
		a.err = err
		return
	}
	a.size = magazine.FormatSize(box)
}

func (a *App) exportCmd() tea.Cmd {
	if a.busy {
		return nil
	}
	j, err := a.state.Job()
	if err != nil {
		a.status = "Export failed: " + err.Error()
		return nil
	}
	a.busy = true
	a.status = "Exporting..."
	return func() tea.Msg {
		res, err := job.Run(j)
		return exportedMsg{res: res, err: err}
	}
}

func (a *App) previewCmd() tea.Cmd {
	if a.busy {
		return nil
	}
	j, err := a.state.Job()
	if err != nil {
		a.status = "Preview failed: " + err.Error()
		return nil
	}
	path := a.state.Preview
	if path == "" {
		path = DefaultPreview
	}
	a.busy = true
	a.status = "Rendering..."
	return func() tea.Msg {
		solids, err := job.Build(j)
		if err == nil {
			err = job.Preview(path, solids)
		}
		return previewMsg{path: path, err: err}
	}
}

func (a *App) saveCmd() tea.Cmd {
	if a.busy {
		return nil
	}
	f, err := a.state.File()
	if err != nil {
		a.status = "Save failed: " + err.Error()
		return nil
	}
	path := a.state.ConfigPath
	a.busy = true
	return func() tea.Msg {
		data, err := f.Marshal()
		if err == nil {
			err = os.WriteFile(path, data, 0o644)
		}
		return savedMsg{path: path, err: err}
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).Width(20)
	focusStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).Width(20)
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	sizeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7BD88F"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	footStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
)

// View implements tea.Model.
func (a *App) View() string {
	var modes []string
	for i, name := range magazine.Modes() {
		if magazine.Mode(i) == a.state.Mode {
			modes = append(modes, activeStyle.Render("["+name+"]"))
		} else {
			modes = append(modes, dimStyle.Render(" "+name+" "))
		}
	}
	lines := []string{
		labelStyle.Render("component") + strings.Join(modes, " "),
		"",
	}
	for i := range a.inputs {
		label := labelStyle
		if i == a.focus {
			label = focusStyle
		}
		lines = append(lines, label.Render(fieldLabels[i])+a.inputs[i].View())
	}
	format := a.state.Format.String()
	if a.state.Format == export.STL && a.state.ASCII {
		format += " (ascii)"
	}
	lines = append(lines, "",
		labelStyle.Render("format")+format,
		labelStyle.Render("output")+a.state.Path,
		"",
	)
	if a.err != nil {
		lines = append(lines, errStyle.Render(a.err.Error()))
	} else {
		lines = append(lines, labelStyle.Render("Overall size")+sizeStyle.Render(a.size))
	}

	help := "←/→ component · tab field · ctrl+f format · ctrl+s export · ctrl+p preview · ctrl+w save · esc quit"
	sections := []string{
		titleStyle.Render("⬡ PCB MAGAZINE"),
		boxStyle.Render(strings.Join(lines, "\n")),
	}
	if a.status != "" {
		sections = append(sections, footStyle.Render(a.status))
	}
	sections = append(sections, footStyle.Render(help))
	return strings.Join(sections, "\n")
}

// Run starts the editor on the terminal and blocks until it quits.
func Run(j config.Job, configPath string) error {
	_, err := tea.NewProgram(New(j, configPath)).Run()
	return err
}
