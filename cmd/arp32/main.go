// Package main is the entry point for the arp32 CLI
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"github.com/james-see/arp32/pkg/api"
	"github.com/james-see/arp32/pkg/arp"
	"github.com/james-see/arp32/pkg/patch"
	"github.com/james-see/arp32/pkg/render"
	"github.com/james-see/arp32/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	patchFile  string
	outputFile string
	serverPort int
	portName   string
	trace      bool

	// Patch overrides
	patternName string
	length      int
	stepSize    int
	scaleName   string
	offset      int
	gateName    string
	repeatLast  bool

	// Clock
	bpm   float64
	steps int
	root  float64
	seed  uint64
	hold  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "arp32",
	Short: "Clock-driven arpeggio sequencer",
	Long: `arp32 turns a root pitch and a clock into arpeggiated note sequences.

Patterns are generated from a shape, a length and an interval step, walked
one step per clock edge, and rendered to MIDI files or played live.

Examples:
  arp32 table --pattern bounce --length 5 --step 2 --scale major
  arp32 run --pattern return --length 4 --steps 12 --trace
  arp32 render --patch lead.yaml --steps 64 -o lead.mid
  arp32 play --port "IAC Driver" --bpm 128 --steps 0
  arp32 tui --patch lead.yaml
  arp32 serve --port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print the note table of one cycle",
	Args:  cobra.NoArgs,
	RunE:  runTable,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Clock the sequencer offline and print every step",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the arpeggio to a MIDI file",
	Args:  cobra.NoArgs,
	RunE:  runRender,
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the arpeggio live to a MIDI output port",
	Args:  cobra.NoArgs,
	RunE:  runPlay,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI output ports",
	Args:  cobra.NoArgs,
	RunE:  runPorts,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal playground",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&patchFile, "patch", "", "Patch file (YAML)")

	for _, cmd := range []*cobra.Command{tableCmd, runCmd, renderCmd, playCmd, tuiCmd} {
		addPatchFlags(cmd)
	}
	for _, cmd := range []*cobra.Command{runCmd, renderCmd, playCmd, tuiCmd} {
		addClockFlags(cmd)
	}

	// run command
	runCmd.Flags().BoolVar(&trace, "trace", false, "Print sequencer events")

	// render command
	renderCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")

	// play command
	playCmd.Flags().StringVar(&portName, "port", "", "MIDI output port (default: first available)")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	// Add commands
	rootCmd.AddCommand(tableCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func addPatchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&patternName, "pattern", "", "Pattern shape (diverge, converge, return, bounce, rez, ontherun)")
	f.IntVar(&length, "length", 0, "Pattern length 1..16")
	f.IntVar(&stepSize, "step", 0, "Interval step -24..24")
	f.StringVar(&scaleName, "scale", "", "Step scale (semitone, major, minor)")
	f.IntVar(&offset, "offset", 0, "Start offset 0..10")
	f.StringVar(&gateName, "gate-mode", "", "Gate mode (trigger, retrigger, continuous)")
	f.BoolVar(&repeatLast, "repeat-last", false, "Repeat the first note on symmetric shapes")
}

func addClockFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&bpm, "bpm", render.DefaultBPM, "Tempo in beats per minute")
	f.IntVar(&steps, "steps", render.DefaultSteps, "Number of clocked steps")
	f.Float64Var(&root, "root", 0, "Root pitch in volts, 1V/octave (0 = C4)")
	f.Uint64Var(&seed, "seed", 0, "Random seed")
	f.BoolVar(&hold, "hold", false, "Hold the current note table")
}

// resolvePatch loads --patch and applies any flags set on cmd
func resolvePatch(cmd *cobra.Command) (patch.Patch, error) {
	p := patch.Default()
	if patchFile != "" {
		loaded, err := patch.Load(patchFile)
		if err != nil {
			return patch.Patch{}, err
		}
		p = loaded
	}

	f := cmd.Flags()
	if f.Changed("pattern") {
		if err := p.Pattern.UnmarshalText([]byte(patternName)); err != nil {
			return patch.Patch{}, fmt.Errorf("invalid --pattern: %w", err)
		}
	}
	if f.Changed("length") {
		p.Length = length
	}
	if f.Changed("step") {
		p.StepSize = stepSize
	}
	if f.Changed("scale") {
		if err := p.Scale.UnmarshalText([]byte(scaleName)); err != nil {
			return patch.Patch{}, fmt.Errorf("invalid --scale: %w", err)
		}
	}
	if f.Changed("offset") {
		p.Offset = offset
	}
	if f.Changed("gate-mode") {
		if err := p.GateMode.UnmarshalText([]byte(gateName)); err != nil {
			return patch.Patch{}, fmt.Errorf("invalid --gate-mode: %w", err)
		}
	}
	if f.Changed("repeat-last") {
		p.RepeatLast = repeatLast
	}

	if err := p.Validate(); err != nil {
		return patch.Patch{}, err
	}
	return p, nil
}

func resolveConfig(cmd *cobra.Command) (render.Config, error) {
	p, err := resolvePatch(cmd)
	if err != nil {
		return render.Config{}, err
	}
	cfg := render.DefaultConfig()
	cfg.Patch = p
	cfg.BPM = bpm
	cfg.Steps = steps
	cfg.Root = root
	cfg.Seed = seed
	cfg.Hold = hold
	return cfg, cfg.Validate()
}

func runTable(cmd *cobra.Command, args []string) error {
	p, err := resolvePatch(cmd)
	if err != nil {
		return err
	}

	cur := arp.NewCursor(p.Pattern, p.Params())
	table := cur.Table()

	fmt.Printf("%s  L : %d  S : %d%s\n", p.Pattern, p.Length, p.StepSize, p.Scale.Suffix())
	var cells []string
	for i, n := range table.Notes() {
		cell := fmt.Sprintf("%d", n)
		if i == cur.Start() {
			cell = ">" + cell
		}
		cells = append(cells, cell)
	}
	fmt.Println(strings.Join(cells, " "))
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if trace {
		cfg.Trace = func(e arp.Event) {
			fmt.Fprintf(os.Stderr, "[trace] tick=%d %s pattern=%s root=%+.3fV offset=%d\n",
				e.Tick, e.Kind, e.Shape, e.Root, e.Offset)
		}
	}

	perf, err := render.Run(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("%5s %8s %5s %7s %8s %4s %4s %4s\n", "PULSE", "TIME", "INDEX", "OFFSET", "PITCH", "KEY", "GATE", "EOC")
	for _, s := range perf.Steps {
		printStep(s)
	}
	fmt.Printf("%d notes, %d cycles, %.3fs\n", len(perf.Notes), len(perf.EOCs), perf.Duration)
	return nil
}

func printStep(s render.Step) {
	fmt.Printf("%5d %8.3f %5d %7d %+8.3f %4d %4s %4s\n",
		s.Pulse, s.Time, s.Index, s.Output.Offset, s.Output.Pitch,
		render.VoltsToKey(s.Output.Pitch), flag(s.Output.Gate), flag(s.Output.EOC))
}

func flag(b bool) string {
	if b {
		return "x"
	}
	return "-"
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	output := outputFile
	if output == "" {
		slug, _ := cfg.Patch.Pattern.MarshalText()
		output = fmt.Sprintf("arp32-%s.mid", slug)
	}

	perf, err := render.Run(cfg)
	if err != nil {
		return err
	}
	if err := perf.WriteMIDIFile(output); err != nil {
		return err
	}

	fmt.Printf("Rendered %d notes (%.2fs) -> %s\n", len(perf.Notes), perf.Duration, output)
	return nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	name := portName
	if name == "" {
		ports := render.ListPorts()
		if len(ports) == 0 {
			return errors.New("no MIDI output ports available")
		}
		name = ports[0]
	}

	sink, err := render.OpenPort(name)
	if err != nil {
		return err
	}
	defer sink.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Playing %s at %.0f BPM on %s (ctrl+c to stop)\n", cfg.Patch.Pattern, cfg.BPM, name)
	err = render.Play(ctx, cfg, sink, printStep)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports := render.ListPorts()
	if len(ports) == 0 {
		fmt.Println("No MIDI output ports found")
		return nil
	}
	for i, name := range ports {
		fmt.Printf("%d: %s\n", i, name)
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	p, err := resolvePatch(cmd)
	if err != nil {
		return err
	}
	return tui.Run(tui.Options{
		Patch:     p,
		PatchFile: patchFile,
		BPM:       bpm,
		Root:      root,
		Seed:      seed,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort)
}
