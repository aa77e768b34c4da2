package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/dynlearn/internal/config"
	"github.com/san-kum/dynlearn/internal/metrics"
	"github.com/san-kum/dynlearn/internal/model"
	"github.com/san-kum/dynlearn/internal/optim"
	"github.com/san-kum/dynlearn/internal/regress"
	"github.com/san-kum/dynlearn/internal/store"
)

var (
	configFile string
	preset     string
	modelType  string
	stateDim   int
	actionDim  int
	predDim    int
	noise      float64
	maxEvals   int
	snapshot   string
	outFile    string
	verbose    bool
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ccff"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dynlearn",
		Short: "probabilistic dynamics model learning",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelInfo
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use a preset dimension set")
	rootCmd.PersistentFlags().StringVar(&modelType, "model", "", "model type (gp or mean)")
	rootCmd.PersistentFlags().IntVar(&stateDim, "state-dim", 0, "state vector length")
	rootCmd.PersistentFlags().IntVar(&actionDim, "action-dim", 0, "action vector length")
	rootCmd.PersistentFlags().IntVar(&predDim, "pred-dim", 0, "outcome vector length")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log fit progress")

	learnCmd := &cobra.Command{
		Use:   "learn [observations file]",
		Short: "fit a dynamics model and report training diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE:  runLearn,
	}
	learnCmd.Flags().Float64Var(&noise, "noise", 0, "per-sample noise stddev (gp)")
	learnCmd.Flags().IntVar(&maxEvals, "max-evals", 0, "optimizer evaluation budget")
	learnCmd.Flags().StringVar(&snapshot, "snapshot", "", "binary dataset snapshot path")
	learnCmd.Flags().StringVar(&outFile, "out", "", "write fitted dataset as text")

	predictCmd := &cobra.Command{
		Use:   "predict [observations file] [feature values...]",
		Short: "fit and query a single (state, action) point",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runPredict,
	}
	predictCmd.Flags().Float64Var(&noise, "noise", 0, "per-sample noise stddev (gp)")
	predictCmd.Flags().IntVar(&maxEvals, "max-evals", 0, "optimizer evaluation budget")

	statsCmd := &cobra.Command{
		Use:   "stats [observations file]",
		Short: "print per-feature statistics without fitting",
		Args:  cobra.ExactArgs(1),
		RunE:  runStats,
	}

	exportCmd := &cobra.Command{
		Use:   "export [snapshot file] [output file]",
		Short: "convert a binary dataset snapshot to text",
		Args:  cobra.ExactArgs(2),
		RunE:  runExport,
	}

	rootCmd.AddCommand(learnCmd, predictCmd, statsCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfig() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %v)", preset, config.ListPresets())
		}
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	default:
		cfg = config.DefaultConfig()
	}

	if modelType != "" {
		cfg.Model = modelType
	}
	if stateDim > 0 {
		cfg.StateDim = stateDim
	}
	if actionDim > 0 {
		cfg.ActionDim = actionDim
	}
	if predDim > 0 {
		cfg.PredDim = predDim
	}
	if noise > 0 {
		cfg.GP.Noise = noise
	}
	if maxEvals > 0 {
		cfg.GP.MaxEvals = maxEvals
		cfg.Mean.MaxEvals = maxEvals
	}
	if snapshot != "" {
		cfg.Snapshot = snapshot
	}

	return cfg, cfg.Validate()
}

func buildEnsemble(cfg *config.Config) *model.Ensemble {
	factory := func() regress.Regressor {
		return regress.NewGP(&optim.NelderMead{
			MaxEvals: cfg.GP.MaxEvals,
			Restarts: cfg.GP.Restarts,
		})
	}
	ens := model.NewEnsemble(factory)
	ens.SetNoise(cfg.GP.Noise)
	if cfg.Snapshot != "" {
		ens.SetSnapshot(store.BinarySnapshot(cfg.Snapshot))
	}
	return ens
}

func buildMeanModel(cfg *config.Config) *model.MeanModel {
	return model.NewMeanModel(&optim.NelderMead{MaxEvals: cfg.Mean.MaxEvals, Restarts: 2})
}

func runLearn(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	observations, err := store.ReadObservations(args[0], cfg.StateDim, cfg.ActionDim, cfg.PredDim)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("dynlearn"))
	fmt.Printf("%s %s\n", labelStyle.Render("model:"), valueStyle.Render(cfg.Model))
	fmt.Printf("%s %s\n", labelStyle.Render("observations:"), valueStyle.Render(strconv.Itoa(len(observations))))

	switch cfg.Model {
	case "mean":
		mm := buildMeanModel(cfg)
		if err := mm.Learn(observations, false); err != nil {
			return err
		}
		reportMeanFit(mm, observations)
		if outFile != "" {
			return mm.SaveData(outFile)
		}
	default:
		ens := buildEnsemble(cfg)
		err := ens.Learn(observations, false)
		var fitErr model.FitError
		switch {
		case errors.As(err, &fitErr):
			fmt.Println(warnStyle.Render(fmt.Sprintf("partially fitted: dimensions %v failed", fitErr.Dims())))
		case err != nil:
			return err
		}
		reportEnsembleFit(ens, observations)
		if outFile != "" {
			return ens.SaveData(outFile)
		}
	}
	return nil
}

func reportEnsembleFit(ens *model.Ensemble, observations []model.Observation) {
	rmse := metrics.NewRMSE()
	mae := metrics.NewMAE()
	coverage := metrics.NewCoverage(2)
	residuals := make([]float64, 0, len(observations))

	for _, o := range observations {
		mu, ss, err := ens.PredictM(o.Sample())
		if err != nil {
			continue
		}
		rmse.Observe(mu, o.Outcome, ss)
		mae.Observe(mu, o.Outcome, ss)
		coverage.Observe(mu, o.Outcome, ss)
		residuals = append(residuals, mu[0]-o.Outcome[0])
	}

	printMetric(rmse.Name(), rmse.Value())
	printMetric(mae.Name(), mae.Value())
	printMetric(coverage.Name(), coverage.Value())

	if len(residuals) > 1 {
		fmt.Println(labelStyle.Render("training residuals (dim 0):"))
		fmt.Println(asciigraph.Plot(residuals, asciigraph.Height(8)))
	}
}

func reportMeanFit(mm *model.MeanModel, observations []model.Observation) {
	rmse := metrics.NewRMSE()
	mae := metrics.NewMAE()

	for _, o := range observations {
		mu, _, err := mm.Predict(o.Sample())
		if err != nil {
			continue
		}
		rmse.Observe(mu, o.Outcome, nil)
		mae.Observe(mu, o.Outcome, nil)
	}

	printMetric(rmse.Name(), rmse.Value())
	printMetric(mae.Name(), mae.Value())
}

func printMetric(name string, value float64) {
	fmt.Printf("%s %s\n",
		labelStyle.Render(name+":"),
		valueStyle.Render(strconv.FormatFloat(value, 'g', 6, 64)))
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	x := make([]float64, len(args)-1)
	for i, arg := range args[1:] {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("feature value %q: %w", arg, err)
		}
		x[i] = v
	}

	observations, err := store.ReadObservations(args[0], cfg.StateDim, cfg.ActionDim, cfg.PredDim)
	if err != nil {
		return err
	}

	if cfg.Model == "mean" {
		mm := buildMeanModel(cfg)
		if err := mm.Learn(observations, false); err != nil {
			return err
		}
		mu, _, err := mm.Predict(x)
		if err != nil {
			return err
		}
		fmt.Printf("%s %v\n", labelStyle.Render("mean:"), mu)
		return nil
	}

	ens := buildEnsemble(cfg)
	if err := ens.Learn(observations, false); err != nil {
		return err
	}
	mu, ss, err := ens.PredictM(x)
	if err != nil {
		return err
	}
	fmt.Printf("%s %v\n", labelStyle.Render("mean:"), mu)
	fmt.Printf("%s %v\n", labelStyle.Render("variance:"), ss)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	observations, err := store.ReadObservations(args[0], cfg.StateDim, cfg.ActionDim, cfg.PredDim)
	if err != nil {
		return err
	}

	ens := model.NewEnsemble(nil)
	if err := ens.Learn(observations, true); err != nil {
		return err
	}
	summary, err := ens.Statistics()
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("feature statistics"))
	for i := range summary.Mean {
		fmt.Printf("%s mean=%.6g sigma=%.6g limit=%.6g\n",
			labelStyle.Render(fmt.Sprintf("x%d:", i)),
			summary.Mean[i], summary.Sigma[i], summary.Limits[i])
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	data, err := store.ReadBinary(args[0])
	if err != nil {
		return err
	}
	samples, outcomes, err := store.Split(data, cfg.StateDim+cfg.ActionDim)
	if err != nil {
		return err
	}
	if err := store.WriteText(args[1], samples, outcomes); err != nil {
		return err
	}

	fmt.Printf("%s %s\n", labelStyle.Render("exported:"), valueStyle.Render(args[1]))
	return nil
}
