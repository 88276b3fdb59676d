package monitor

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cwbudde/algo-wdrc/dsp/core"
)

const (
	clearScreen = "\x1b[H\x1b[2J"

	spectrumFloorDB = -100.0
	maxReductionDB  = 30.0
)

var levels = []rune("▁▂▃▄▅▆▇█")

var (
	colorTitle = lipgloss.Color("#88C0D0")
	colorLabel = lipgloss.Color("#81A1C1")
	colorWave  = lipgloss.Color("#A3BE8C")
	colorSpec  = lipgloss.Color("#EBCB8B")
	colorGain  = lipgloss.Color("#BF616A")
	colorFaint = lipgloss.Color("#4C566A")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorTitle)
	labelStyle = lipgloss.NewStyle().Foreground(colorLabel)
	waveStyle  = lipgloss.NewStyle().Foreground(colorWave)
	specStyle  = lipgloss.NewStyle().Foreground(colorSpec)
	gainStyle  = lipgloss.NewStyle().Foreground(colorGain)
	faintStyle = lipgloss.NewStyle().Foreground(colorFaint)
)

// Render formats v as text graphs width columns wide.
func Render(v View, width int) string {
	if width < 8 {
		width = 8
	}

	var b strings.Builder

	fmt.Fprintln(&b, titleStyle.Render(fmt.Sprintf("wdrc  chunk %d  fallbacks %d", v.Seq, v.Fallbacks)))
	fmt.Fprintln(&b, labelStyle.Render("input ")+" "+levelLine(v.Input.Peak_dBFS, v.Input.RMS_dBFS, v.Input.Clipped))
	fmt.Fprintln(&b, labelStyle.Render("output")+" "+levelLine(v.Output.Peak_dBFS, v.Output.RMS_dBFS, v.Output.Clipped))
	fmt.Fprintln(&b, labelStyle.Render("wave  ")+" "+waveStyle.Render(waveform(v.Window, width)))
	fmt.Fprintln(&b, labelStyle.Render("spec  ")+" "+specStyle.Render(spectrumLine(v.Spectrum, width)))

	if len(v.Freqs) > 0 {
		fmt.Fprintln(&b, "       "+faintStyle.Render(fmt.Sprintf("0 Hz .. %.0f Hz", v.Freqs[len(v.Freqs)-1])))
		fmt.Fprintf(&b, "       peak %.0f Hz  centroid %.0f Hz  rolloff %.0f Hz  flatness %.2f\n",
			v.Shape.PeakHz, v.Shape.CentroidHz, v.Shape.RolloffHz, v.Shape.Flatness)
	}

	for i, m := range v.Bands {
		label := fmt.Sprintf("band %d %5.0f-%-5.0f Hz", i, m.Band.LowCutoffHz, m.Band.HighCutoffHz)
		gr := m.GainReductionDB()
		fmt.Fprintln(&b, labelStyle.Render(label)+" "+gainStyle.Render(bar(gr/maxReductionDB, width/2))+
			fmt.Sprintf(" -%4.1f dB", gr))
	}

	return b.String()
}

func levelLine(peakDB, rmsDB float64, clipped int) string {
	s := fmt.Sprintf("peak %s dBFS  rms %s dBFS", formatDB(peakDB), formatDB(rmsDB))
	if clipped > 0 {
		s += gainStyle.Render(fmt.Sprintf("  clipped %d", clipped))
	}

	return s
}

func formatDB(db float64) string {
	if math.IsInf(db, -1) {
		return " -inf"
	}

	return fmt.Sprintf("%5.1f", db)
}

// waveform draws the peak magnitude of each of width equal spans.
func waveform(samples []int16, width int) string {
	if len(samples) == 0 {
		return strings.Repeat(" ", width)
	}

	out := make([]rune, width)
	for c := range width {
		lo := c * len(samples) / width
		hi := max((c+1)*len(samples)/width, lo+1)

		var peak float64
		for _, s := range samples[lo:min(hi, len(samples))] {
			peak = math.Max(peak, math.Abs(float64(s)))
		}

		out[c] = level(peak / core.FullScale)
	}

	return string(out)
}

// spectrumLine draws the loudest bin of each of width equal bin spans.
func spectrumLine(db []float64, width int) string {
	if len(db) == 0 {
		return strings.Repeat(" ", width)
	}

	out := make([]rune, width)
	for c := range width {
		lo := c * len(db) / width
		hi := max((c+1)*len(db)/width, lo+1)

		top := math.Inf(-1)
		for _, v := range db[lo:min(hi, len(db))] {
			top = math.Max(top, v)
		}

		out[c] = level((top - spectrumFloorDB) / -spectrumFloorDB)
	}

	return string(out)
}

func level(frac float64) rune {
	frac = core.Clamp(frac, 0, 1)
	return levels[int(math.Round(frac*float64(len(levels)-1)))]
}

func bar(frac float64, width int) string {
	filled := int(math.Round(core.Clamp(frac, 0, 1) * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("·", width-filled)
}
