package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"hoffenc/internal/settings"
)

const (
	fieldInput = iota
	fieldOutDir
	fieldCRF
	fieldPreset
	fieldRecursive
	fieldStructure
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Input file or folder",
	"Output folder",
	"CRF (0-51)",
	"Preset",
	"Recursive",
	"Keep folder layout",
}

// form is the setup screen shown before a batch starts.
type form struct {
	inputs    [fieldPreset + 1]textinput.Model
	recursive bool
	structure bool
	focus     int
	err       error
}

// formValues is what a submitted form yields.
type formValues struct {
	Input     string
	OutDir    string
	Settings  settings.EncodingSettings
	Recursive bool
	Structure bool
}

func newForm(outDir string, s settings.EncodingSettings) form {
	var f form
	placeholders := [...]string{"/path/to/video.mp4 or /path/to/folder", "output directory", "23", "medium"}
	values := [...]string{"", outDir, strconv.Itoa(s.CRF), s.Preset}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.SetValue(values[i])
		ti.CharLimit = 512
		ti.Width = 50
		f.inputs[i] = ti
	}
	f.inputs[fieldCRF].CharLimit = 2
	f.inputs[fieldPreset].CharLimit = 16
	f.inputs[fieldInput].Focus()
	return f
}

func (f *form) setFocus(i int) {
	f.focus = (i + fieldCount) % fieldCount
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

// update handles one message. submit reports that the user pressed enter.
func (f *form) update(msg tea.Msg) (cmd tea.Cmd, submit bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "tab", "down":
			f.setFocus(f.focus + 1)
			return nil, false
		case "shift+tab", "up":
			f.setFocus(f.focus - 1)
			return nil, false
		case "enter":
			return nil, true
		case " ":
			switch f.focus {
			case fieldRecursive:
				f.recursive = !f.recursive
				return nil, false
			case fieldStructure:
				f.structure = !f.structure
				return nil, false
			}
		}
	}
	if f.focus < len(f.inputs) {
		f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	}
	return cmd, false
}

// values validates the form against base.
func (f *form) values(base settings.EncodingSettings) (formValues, error) {
	v := formValues{
		Input:     strings.TrimSpace(f.inputs[fieldInput].Value()),
		OutDir:    strings.TrimSpace(f.inputs[fieldOutDir].Value()),
		Recursive: f.recursive,
		Structure: f.structure,
	}
	if v.Input == "" {
		return v, errors.New("input path is required")
	}
	if v.OutDir == "" {
		return v, errors.New("output folder is required")
	}
	s := base
	crf, err := strconv.Atoi(strings.TrimSpace(f.inputs[fieldCRF].Value()))
	if err != nil {
		return v, fmt.Errorf("CRF must be a number")
	}
	s.CRF = crf
	s.Preset = strings.ToLower(strings.TrimSpace(f.inputs[fieldPreset].Value()))
	if err := s.Validate(); err != nil {
		return v, err
	}
	v.Settings = s
	return v, nil
}

func (f form) view(st Styles) string {
	var b strings.Builder
	for i := 0; i < fieldCount; i++ {
		label := st.Label
		if i == f.focus {
			label = st.Focused
		}
		b.WriteString(label.Render(fieldLabels[i]))
		switch i {
		case fieldRecursive:
			b.WriteString(checkbox(f.recursive))
		case fieldStructure:
			b.WriteString(checkbox(f.structure))
		default:
			b.WriteString(f.inputs[i].View())
		}
		b.WriteString("\n")
	}
	if f.err != nil {
		b.WriteString("\n")
		b.WriteString(st.Error.Render(f.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(st.Faint.Render("tab/shift+tab: move • space: toggle • enter: start • esc: quit"))
	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}
