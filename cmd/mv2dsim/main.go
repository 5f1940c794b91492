package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/san-kum/mv2dsim/internal/analysis"
	"github.com/san-kum/mv2dsim/internal/config"
	_ "github.com/san-kum/mv2dsim/internal/dynamics"
	"github.com/san-kum/mv2dsim/internal/dynamo"
	"github.com/san-kum/mv2dsim/internal/export"
	"github.com/san-kum/mv2dsim/internal/logging"
	"github.com/san-kum/mv2dsim/internal/metrics"
	"github.com/san-kum/mv2dsim/internal/storage"
	"github.com/san-kum/mv2dsim/internal/vehicle"
	"github.com/san-kum/mv2dsim/internal/viz"
	"github.com/san-kum/mv2dsim/internal/world"
)

var (
	configFile string
	logJSON    bool
	logFile    string
	exportPath string
	exportOut  string
	stopAt     float64
	noSave     bool
	speed      float64
	frameRate  int
	theme      string
	benchRuns  int
	plotOnly   string
	plotPath   bool
	svgOut     string
	signalName string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "mv2dsim",
		Short:        "multi-vehicle 2D rigid-body simulator",
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.BoolVar(&logJSON, "log-json", false, "log as JSON lines")
	pf.StringVar(&logFile, "log-file", "", "also append logs to this file")
	pf.String("store", "file", "run storage backend (file, sqlite)")
	pf.String("data-dir", "./runs", "run directory of the file backend")
	pf.String("db", "./runs/mv2dsim.db", "database file of the sqlite backend")

	runCmd := &cobra.Command{
		Use:   "run [world]",
		Short: "run a world for a fixed duration",
		Long:  "Run a world given as a preset name or an XML/YAML file, print a summary and store the run.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	worldFlags(runCmd)
	runCmd.Flags().Float64("duration", config.DefaultDuration, "simulated duration in seconds")
	runCmd.Flags().StringSlice("metrics", nil, "metrics to compute ("+strings.Join(metrics.Names, ", ")+")")
	runCmd.Flags().Float64("arena", config.DefaultArena, "half size of the arena used by out_of_bounds")
	runCmd.Flags().StringVar(&exportPath, "export", "", "also write the run as JSON to this path (- for stdout)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	validateCmd := &cobra.Command{
		Use:   "validate [world]",
		Short: "load a world and report its vehicles without running it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  validateWorld,
	}
	worldFlags(validateCmd)

	typesCmd := &cobra.Command{
		Use:   "types",
		Short: "list registered vehicle classes",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, c := range vehicle.Classes() {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list built-in worlds, or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				text, ok := config.GetPreset(args[0])
				if !ok {
					return fmt.Errorf("unknown preset: %s", args[0])
				}
				fmt.Fprintln(out, strings.TrimSpace(text))
				return nil
			}
			for _, p := range config.ListPresets() {
				fmt.Fprintln(out, p)
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot vehicle trajectories of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotOnly, "vehicle", "", "plot only this vehicle")
	plotCmd.Flags().BoolVar(&plotPath, "path", false, "plot the top-down paths instead of time series")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id] [vehicle]",
		Short: "frequency analysis of one vehicle signal",
		Args:  cobra.ExactArgs(2),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&signalName, "signal", "w", "signal to analyze ("+strings.Join(analysis.Signals, ", ")+", u0, u1, ...)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output path (- for stdout)")
	exportCmd.Flags().StringVar(&svgOut, "svg", "", "also draw the paths as SVG to this path")

	liveCmd := &cobra.Command{
		Use:   "live [world]",
		Short: "run a world with a live top-down view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	worldFlags(liveCmd)
	liveCmd.Flags().Float64Var(&stopAt, "stop-at", 0, "stop after this simulated time (0 runs until quit)")
	liveCmd.Flags().Float64Var(&speed, "speed", 1, "simulated seconds per second")
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	liveCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	benchCmd := &cobra.Command{
		Use:   "bench [world]",
		Short: "run copies of a world in parallel and report throughput",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchWorld,
	}
	worldFlags(benchCmd)
	benchCmd.Flags().Float64("duration", config.DefaultDuration, "simulated duration of each run")
	benchCmd.Flags().IntVar(&benchRuns, "runs", 4, "parallel runs per time step")

	rootCmd.AddCommand(runCmd, validateCmd, typesCmd, presetsCmd, listCmd, plotCmd, analyzeCmd, exportCmd, liveCmd, benchCmd)
	return rootCmd
}

func worldFlags(cmd *cobra.Command) {
	cmd.Flags().String("world", config.DefaultWorld, "preset name or world file")
	cmd.Flags().Float64("dt", config.DefaultDt, "time step in seconds (a world timestep attribute wins)")
}

// app is the per-command environment resolved from flags and config.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	closeLog io.Closer
}

func setup(cmd *cobra.Command, args []string) (*app, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		cfg.World = args[0]
	}
	log, closer, err := logging.New(cmd.ErrOrStderr(), logging.Options{Level: cfg.LogLevel, JSON: logJSON, File: logFile})
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, closeLog: closer}, nil
}

func (a *app) Close() { a.closeLog.Close() }

func (a *app) worldName() string {
	if _, ok := config.GetPreset(a.cfg.World); ok {
		return a.cfg.World
	}
	base := filepath.Base(a.cfg.World)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (a *app) buildWorld(log zerolog.Logger) (*world.World, error) {
	factory, err := metrics.Factory(a.cfg.Metrics, a.cfg.Arena)
	if err != nil {
		return nil, err
	}
	text, err := a.cfg.WorldText()
	if err != nil {
		return nil, err
	}

	w := world.New(world.Config{
		Dt:                 a.cfg.Dt,
		Gravity:            a.cfg.Gravity(),
		VelocityIterations: a.cfg.Physics.VelocityIterations,
		PositionIterations: a.cfg.Physics.PositionIterations,
	}, world.WithLogger(log), world.WithMetrics(factory))

	if err := w.LoadWorldText(text); err != nil {
		w.Close()
		return nil, fmt.Errorf("load world %s: %w", a.cfg.World, err)
	}
	return w, nil
}

func (a *app) backend() (storage.Backend, error) {
	st, err := storage.NewBackend(storage.Config{
		Type: a.cfg.Storage.Type,
		Dir:  a.cfg.Storage.Dir,
		Path: a.cfg.Storage.Path,
	}, a.log)
	if err != nil {
		return nil, err
	}
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, args)
	if err != nil {
		return err
	}
	defer a.Close()

	w, err := a.buildWorld(a.log)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	result, err := w.Run(ctx, a.cfg.Duration)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "world: %s\n", a.worldName())
	fmt.Fprintf(out, "steps: %d (dt %.4fs, %.2fs simulated in %v)\n\n", result.StepsTaken, result.Dt, result.Duration, elapsed.Round(time.Millisecond))
	if err := printSummary(out, w, result); err != nil {
		return err
	}

	if exportPath != "" {
		if err := storage.ExportJSON(exportPath, a.worldName(), result); err != nil {
			return err
		}
	}

	if noSave {
		return nil
	}
	st, err := a.backend()
	if err != nil {
		return err
	}
	defer st.Close()

	runID, err := st.Save(a.worldName(), result)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nsaved: %s\n", runID)
	return nil
}

func printSummary(out io.Writer, w *world.World, result *dynamo.Result) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VEHICLE\tCLASS\tX\tY\tYAW\tMETRICS")
	for _, v := range w.Vehicles() {
		q := v.Pose()
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%.3f\t%.1f°\t%s\n",
			v.Name(), v.Class(), q.X(), q.Y(),
			dynamo.Rad2Deg(dynamo.NormalizeAngle(q.Yaw())),
			vehicleMetrics(result.Metrics, v.Name()),
		)
	}
	return tw.Flush()
}

func vehicleMetrics(all map[string]float64, name string) string {
	var parts []string
	for _, m := range metrics.Names {
		if val, ok := all[name+"."+m]; ok {
			parts = append(parts, fmt.Sprintf("%s=%.3g", m, val))
		}
	}
	return strings.Join(parts, " ")
}

func validateWorld(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, args)
	if err != nil {
		return err
	}
	defer a.Close()

	w, err := a.buildWorld(a.log)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Init(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: ok, dt %.4fs, %d vehicles, %d bodies\n", a.worldName(), w.Dt(), len(w.Vehicles()), w.BodyCount())
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VEHICLE\tCLASS\tX\tY\tYAW\tMASS")
	for _, v := range w.Vehicles() {
		q := v.Pose()
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%.3f\t%.1f°\t%.2f\n",
			v.Name(), v.Class(), q.X(), q.Y(), dynamo.Rad2Deg(q.Yaw()), v.Chassis().Mass())
	}
	return tw.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.backend()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWORLD\tTIME\tDURATION\tDT\tVEHICLES")
	for _, run := range runs {
		names := make([]string, len(run.Vehicles))
		for i, v := range run.Vehicles {
			names[i] = v.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\n",
			run.ID,
			run.World,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			strings.Join(names, ","),
		)
	}
	return tw.Flush()
}

// loadRun reads a stored run back into a result.
func loadRun(st storage.Backend, runID string) (*storage.RunMetadata, *dynamo.Result, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	result := &dynamo.Result{
		Dt:         meta.Dt,
		Duration:   meta.Duration,
		StepsTaken: meta.Steps,
		Metrics:    meta.Metrics,
	}
	for _, v := range meta.Vehicles {
		tr, err := st.LoadTrajectory(runID, v.Name)
		if err != nil {
			return nil, nil, err
		}
		result.Trajectories = append(result.Trajectories, *tr)
	}
	return meta, result, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.backend()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, result, err := loadRun(st, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "world: %s\n\n", meta.World)

	if plotPath {
		trs := result.Trajectories
		if plotOnly != "" {
			tr, ok := result.Trajectory(plotOnly)
			if !ok {
				return fmt.Errorf("no vehicle %s in run %s", plotOnly, meta.ID)
			}
			trs = []dynamo.Trajectory{*tr}
		}
		plot := analysis.PathsToASCII(trs, 80, 30)
		if plot == "" {
			return fmt.Errorf("no data to plot")
		}
		fmt.Fprint(out, plot)
		return nil
	}

	plotted := 0
	for _, tr := range result.Trajectories {
		if plotOnly != "" && tr.Vehicle != plotOnly {
			continue
		}
		if len(tr.States) < 2 {
			continue
		}
		plotted++

		series := map[string][]float64{}
		for _, s := range tr.States {
			q, dq := s.Pose(), s.Velocity()
			series["x"] = append(series["x"], q.X())
			series["y"] = append(series["y"], q.Y())
			series["yaw"] = append(series["yaw"], dynamo.Rad2Deg(q.Yaw()))
			series["speed"] = append(series["speed"], dq.Speed())
		}
		for _, key := range []string{"x", "y", "yaw", "speed"} {
			graph := asciigraph.Plot(downsample(series[key], 200),
				asciigraph.Height(8),
				asciigraph.Width(80),
				asciigraph.Caption(fmt.Sprintf("%s %s vs time", tr.Vehicle, key)),
			)
			fmt.Fprintln(out, graph)
			fmt.Fprintln(out)
		}
	}
	if plotted == 0 {
		return fmt.Errorf("no data to plot")
	}
	return nil
}

// downsample keeps at most n evenly spaced samples.
func downsample(data []float64, n int) []float64 {
	if len(data) <= n {
		return data
	}
	out := make([]float64, n)
	stride := float64(len(data)-1) / float64(n-1)
	for i := range out {
		out[i] = data[int(math.Round(float64(i)*stride))]
	}
	return out
}

func exportRun(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.backend()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, result, err := loadRun(st, args[0])
	if err != nil {
		return err
	}
	if svgOut != "" {
		f, err := os.Create(svgOut)
		if err != nil {
			return err
		}
		if err := export.WriteSVG(f, result, 800, 600); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if exportOut == "-" {
		return storage.WriteJSON(cmd.OutOrStdout(), meta.World, result)
	}
	return storage.ExportJSON(exportOut, meta.World, result)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.backend()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, result, err := loadRun(st, args[0])
	if err != nil {
		return err
	}
	tr, ok := result.Trajectory(args[1])
	if !ok {
		return fmt.Errorf("no vehicle %s in run %s", args[1], meta.ID)
	}
	data, err := analysis.Signal(tr, signalName)
	if err != nil {
		return err
	}
	if len(data) < 4 {
		return fmt.Errorf("not enough samples: %d", len(data))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "frequency analysis: %s\n", meta.ID)
	fmt.Fprintf(out, "vehicle: %s (%s), signal %s\n\n", tr.Vehicle, tr.Class, signalName)

	ps := analysis.PowerSpectrum(data)
	if plotData := ps[:max(len(ps)/4, 2)]; len(plotData) > 1 {
		fmt.Fprintln(out, asciigraph.Plot(plotData,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum ("+signalName+")"),
		))
		fmt.Fprintln(out)
	}

	freq, _ := analysis.DominantFrequency(data, meta.Dt)
	fmt.Fprintf(out, "dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Fprintf(out, "period: %.3f s\n", 1.0/freq)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, args)
	if err != nil {
		return err
	}
	defer a.Close()

	// The terminal belongs to the view; keep only errors on stderr.
	w, err := a.buildWorld(a.log.Level(zerolog.ErrorLevel))
	if err != nil {
		return err
	}
	defer w.Close()

	return viz.Run(w, viz.Options{
		Speed:    speed,
		FPS:      frameRate,
		Theme:    theme,
		Duration: stopAt,
	})
}

func benchWorld(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, args)
	if err != nil {
		return err
	}
	defer a.Close()
	if benchRuns <= 0 {
		return fmt.Errorf("runs must be positive, got %d", benchRuns)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "benchmarking %s, %d parallel runs\n\n", a.worldName(), benchRuns)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DT\tRUNS\tSTEPS\tTIME\tSTEPS/SEC")

	quiet := a.log.Level(zerolog.WarnLevel)
	for _, dt := range []float64{0.001, 0.005, 0.01} {
		cfg := *a.cfg
		cfg.Dt = dt
		b := &app{cfg: &cfg, log: quiet, closeLog: a.closeLog}

		ens := world.NewEnsemble(func(int) (*world.World, error) {
			w, err := b.buildWorld(quiet)
			if err != nil {
				return nil, err
			}
			// Benchmarks compare time steps, so override any world timestep.
			if err := w.SetDt(dt); err != nil {
				w.Close()
				return nil, err
			}
			return w, nil
		}, benchRuns)

		start := time.Now()
		results, err := ens.Run(cmd.Context(), a.cfg.Duration)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		steps := 0
		for _, r := range results {
			steps += r.StepsTaken * len(r.Trajectories)
		}
		fmt.Fprintf(tw, "%.4fs\t%d\t%d\t%v\t%.0f\n",
			dt, len(results), steps, elapsed.Round(time.Millisecond), float64(steps)/elapsed.Seconds())
	}
	return tw.Flush()
}
