package tui

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/soypat/pcbmag/export"
	"github.com/soypat/pcbmag/internal/config"
	"github.com/soypat/pcbmag/magazine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	j, err := config.Default().Resolve()
	require.NoError(t, err)
	dir := t.TempDir()
	j.Path = filepath.Join(dir, "model.stl")
	j.Preview = filepath.Join(dir, "preview.png")
	return New(j, filepath.Join(dir, "job.yaml"))
}

func send(a *App, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = a.Update(msg)
	}
	return cmd
}

func key(k tea.KeyType) tea.Msg { return tea.KeyMsg{Type: k} }

func typeText(a *App, s string) {
	for _, r := range s {
		send(a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func clearField(a *App) {
	for range a.inputs[a.focus].Value() {
		send(a, key(tea.KeyBackspace))
	}
}

func TestInitialView(t *testing.T) {
	a := newTestApp(t)
	assert.Equal(t, "109.0 × 150.0 × 120.0 mm", a.size)
	assert.NoError(t, a.err)
	v := a.View()
	assert.Contains(t, v, "Overall size")
	assert.Contains(t, v, "109.0 × 150.0 × 120.0 mm")
	assert.Contains(t, v, "[assembly]")
}

func TestCycleMode(t *testing.T) {
	a := newTestApp(t)
	send(a, key(tea.KeyRight))
	assert.Equal(t, magazine.ModeFrame, a.State().Mode)
	assert.Equal(t, "109.0 × 150.0 × 8.0 mm", a.size)
	send(a, key(tea.KeyRight))
	assert.Equal(t, magazine.ModeBone, a.State().Mode)
	send(a, key(tea.KeyLeft), key(tea.KeyLeft))
	assert.Equal(t, magazine.ModeAssembly, a.State().Mode)
}

func TestEditParameter(t *testing.T) {
	a := newTestApp(t)
	send(a, key(tea.KeyTab), key(tea.KeyTab), key(tea.KeyTab), key(tea.KeyTab))
	require.Equal(t, int(FieldN), a.focus)
	clearField(a)
	typeText(a, "2.5")
	assert.Equal(t, "2.5", a.State().Values[FieldN])
	assert.ErrorIs(t, a.err, magazine.ErrInvalidParameter)
	assert.Empty(t, a.size)
	assert.Contains(t, a.View(), "must be an integer")

	clearField(a)
	typeText(a, "3")
	require.NoError(t, a.err)
	p, err := a.State().Params()
	require.NoError(t, err)
	assert.Equal(t, 3, p.N)

	send(a, key(tea.KeyShiftTab))
	assert.Equal(t, int(FieldD), a.focus)
	clearField(a)
	typeText(a, "x")
	assert.ErrorIs(t, a.err, magazine.ErrInvalidParameter)
}

func TestToggleFormat(t *testing.T) {
	a := newTestApp(t)
	send(a, key(tea.KeyCtrlF))
	assert.Equal(t, export.STEP, a.State().Format)
	assert.Equal(t, ".step", filepath.Ext(a.State().Path))
	send(a, key(tea.KeyCtrlF))
	assert.Equal(t, export.STL, a.State().Format)
	assert.Equal(t, ".stl", filepath.Ext(a.State().Path))
}

func TestExport(t *testing.T) {
	a := newTestApp(t)
	send(a, key(tea.KeyRight)) // frame
	cmd := send(a, key(tea.KeyCtrlS))
	require.NotNil(t, cmd)
	assert.True(t, a.busy)
	assert.Nil(t, send(a, key(tea.KeyCtrlS)), "export already running")

	msg := cmd()
	send(a, msg)
	assert.False(t, a.busy)
	assert.Contains(t, a.status, "Exported to: ")
	_, err := os.Stat(a.State().Path)
	assert.NoError(t, err)
}

func TestPreview(t *testing.T) {
	a := newTestApp(t)
	send(a, key(tea.KeyRight), key(tea.KeyRight)) // bone
	cmd := send(a, key(tea.KeyCtrlP))
	require.NotNil(t, cmd)
	send(a, cmd())
	assert.Contains(t, a.status, "Preview written to: ")
	_, err := os.Stat(a.State().Preview)
	assert.NoError(t, err)
}

func TestSave(t *testing.T) {
	a := newTestApp(t)
	send(a, key(tea.KeyRight), key(tea.KeyCtrlF)) // frame as step
	send(a, key(tea.KeyTab), key(tea.KeyTab))
	require.Equal(t, int(FieldC), a.focus)
	clearField(a)
	typeText(a, "2")
	cmd := send(a, key(tea.KeyCtrlW))
	require.NotNil(t, cmd)
	send(a, cmd())
	assert.False(t, a.busy)
	assert.Equal(t, "Saved job to: "+a.State().ConfigPath, a.status)

	f, err := config.Load(a.State().ConfigPath)
	require.NoError(t, err)
	j, err := f.Resolve()
	require.NoError(t, err)
	assert.Equal(t, magazine.ModeFrame, j.Mode)
	assert.Equal(t, 2.0, j.Params.C)
	assert.Equal(t, export.STEP, j.Options.Format)
	assert.Equal(t, a.State().Path, j.Path)
	assert.Equal(t, a.State().Config, j.Config)

	// The saved job edits back to the same state.
	assert.Equal(t, a.State(), NewState(j, a.State().ConfigPath))
}

func TestSaveInvalid(t *testing.T) {
	a := newTestApp(t)
	clearField(a)
	assert.Nil(t, send(a, key(tea.KeyCtrlW)))
	assert.Contains(t, a.status, "Save failed")
	_, err := os.Stat(a.State().ConfigPath)
	assert.True(t, os.IsNotExist(err))
}

func TestDefaultConfigFile(t *testing.T) {
	j, err := config.Default().Resolve()
	require.NoError(t, err)
	s := NewState(j, "")
	assert.Equal(t, DefaultConfigFile, s.ConfigPath)
	assert.Empty(t, s.Preview)
}

func TestExportInvalid(t *testing.T) {
	a := newTestApp(t)
	clearField(a)
	assert.Nil(t, send(a, key(tea.KeyCtrlS)))
	assert.Contains(t, a.status, "Export failed")
}

func TestQuit(t *testing.T) {
	for _, k := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		a := newTestApp(t)
		cmd := send(a, key(k))
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}
