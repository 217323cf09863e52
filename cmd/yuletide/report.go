package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/ayusman/yuletide/internal/config"
	"github.com/ayusman/yuletide/internal/particle"
	"github.com/ayusman/yuletide/internal/plugin"
	"github.com/ayusman/yuletide/internal/scene"
	"github.com/ayusman/yuletide/internal/store"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD700"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#8B0000"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(16)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD93D"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666688")).
			Italic(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF1E1E")).
			Padding(0, 1)
)

func row(label string, value any) string {
	return labelStyle.Render(label) + valueStyle.Render(fmt.Sprint(value))
}

func inspect(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Yuletide") + "\n\n")
	b.WriteString(configReport(cfg, path))

	pluginDir, err := cfg.PluginPath()
	if err != nil {
		return err
	}
	manager := plugin.NewManager(pluginDir)
	if err := manager.Discover(); err != nil {
		return fmt.Errorf("discover plugins: %w", err)
	}
	b.WriteString("\n" + pluginReport(manager, pluginDir))

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		b.WriteString("\n" + mutedStyle.Render("no database at "+dbPath+" yet") + "\n")
		fmt.Print(panelStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n")
		return nil
	}

	st, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	report, err := storeReport(st, limit)
	if err != nil {
		return err
	}
	b.WriteString("\n" + report)

	fmt.Print(panelStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n")
	return nil
}

func configReport(cfg *config.Config, path string) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Configuration") + "\n")
	b.WriteString(row("file", path) + "\n")
	b.WriteString(row("camera", fmt.Sprintf("device %d, %dx%d @ %d fps", cfg.Camera.Device, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS)) + "\n")
	b.WriteString(row("hands", cfg.Detector.MaxHands) + "\n")
	gate := "off"
	if cfg.Motion.Enabled {
		gate = fmt.Sprintf("on, %.1f%% changed pixels", cfg.Motion.Threshold)
	}
	b.WriteString(row("motion gate", gate) + "\n")
	c := cfg.Particles.Counts
	b.WriteString(row("particles", fmt.Sprintf("%d leaves, %d cubes, %d icosahedrons, %d ribbon, 1 star", c.Leaves, c.Cubes, c.Icosahedrons, c.Ribbon)) + "\n")
	b.WriteString(row("server", cfg.Server.Addr) + "\n")
	window := "off"
	if cfg.Window.Enabled {
		window = fmt.Sprintf("%dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	b.WriteString(row("window", window) + "\n")
	return b.String()
}

func pluginReport(m *plugin.Manager, dir string) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Plugins") + "\n")

	plugins := m.List()
	if len(plugins) == 0 {
		b.WriteString(mutedStyle.Render("none in "+dir) + "\n")
		return b.String()
	}
	for _, p := range plugins {
		b.WriteString(row(p.Manifest.Name, strings.Join(p.Manifest.Actions, ", ")) + "\n")
	}
	return b.String()
}

func storeReport(st *store.Store, n int) (string, error) {
	var b strings.Builder

	bindings, err := st.Bindings().List()
	if err != nil {
		return "", fmt.Errorf("list bindings: %w", err)
	}
	b.WriteString(sectionStyle.Render("Bindings") + "\n")
	if len(bindings) == 0 {
		b.WriteString(mutedStyle.Render("none") + "\n")
	}
	for _, bd := range bindings {
		value := bd.PluginName + "/" + bd.ActionName
		if !bd.Enabled {
			value += " (disabled)"
		}
		b.WriteString(row(bd.Trigger, value) + "\n")
	}

	counts, err := st.Transitions().CountBySource()
	if err != nil {
		return "", fmt.Errorf("count transitions: %w", err)
	}
	sources := make([]string, 0, len(counts))
	for source := range counts {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	b.WriteString("\n" + sectionStyle.Render("Transitions") + "\n")
	if len(sources) == 0 {
		b.WriteString(mutedStyle.Render("none recorded") + "\n")
		return b.String(), nil
	}
	for _, source := range sources {
		b.WriteString(row(source, counts[source]) + "\n")
	}

	recent, err := st.Transitions().List(n)
	if err != nil {
		return "", fmt.Errorf("list transitions: %w", err)
	}
	b.WriteString("\n")
	for _, t := range recent {
		line := fmt.Sprintf("%s  %-7s %s → %s  rot %+.2f",
			t.CreatedAt.Local().Format("Jan 02 15:04:05"), t.Source, t.From, t.To, t.Rotation)
		b.WriteString(mutedStyle.Render(line) + "\n")
	}
	return b.String(), nil
}

func converge(cmd *cobra.Command, args []string) error {
	state, err := scene.ParseState(target)
	if err != nil {
		return err
	}
	if frames < 1 {
		return fmt.Errorf("frames must be positive, got %d", frames)
	}
	if scale <= 0 || scale > 1 {
		return fmt.Errorf("scale must be in (0, 1], got %v", scale)
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	counts := scaleCounts(cfg.Particles.Counts, scale)
	field := particle.NewField(counts, seed)

	series := distanceSeries(field, state, frames)

	fmt.Println(titleStyle.Render(fmt.Sprintf("Converging %d instances on %s", field.Len(), state)))
	fmt.Println(asciigraph.Plot(series,
		asciigraph.Height(12),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("mean distance to target per frame"),
	))

	start, end := series[0], series[len(series)-1]
	fmt.Println(row("start", fmt.Sprintf("%.3f", start)))
	fmt.Println(row("end", fmt.Sprintf("%.3f", end)))
	fmt.Println(row("closed form", fmt.Sprintf("%.3f", start*particle.Remaining(frames))))
	fmt.Println(row("within 1%", fmt.Sprintf("%d frames", particle.FramesToWithin(0.01))))
	return nil
}

// distanceSeries steps field toward state and records the mean distance before
// the first frame and after each of the n frames.
func distanceSeries(field *particle.Field, state scene.State, n int) []float64 {
	const dt = 1.0 / 60

	series := make([]float64, 0, n+1)
	series = append(series, field.MeanDistance(state))
	for k := range n {
		field.Step(particle.Frame{State: state, Elapsed: float64(k+1) * dt, Delta: dt})
		series = append(series, field.MeanDistance(state))
	}
	return series
}

func scaleCounts(c particle.Counts, f float64) particle.Counts {
	s := func(n int) int {
		v := int(float64(n) * f)
		if n > 0 && v < 1 {
			return 1
		}
		return v
	}
	return particle.Counts{
		Leaves:       s(c.Leaves),
		Cubes:        s(c.Cubes),
		Icosahedrons: s(c.Icosahedrons),
		Ribbon:       s(c.Ribbon),
	}
}
