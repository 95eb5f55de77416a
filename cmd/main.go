package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/forest-guardian/park-indices-map/internal/cache"
	"github.com/forest-guardian/park-indices-map/internal/catalog"
	"github.com/forest-guardian/park-indices-map/internal/composer"
	"github.com/forest-guardian/park-indices-map/internal/earthengine"
	"github.com/forest-guardian/park-indices-map/internal/engine"
	"github.com/forest-guardian/park-indices-map/internal/geotiff"
	"github.com/forest-guardian/park-indices-map/internal/indices"
	"github.com/forest-guardian/park-indices-map/internal/local"
	"github.com/forest-guardian/park-indices-map/internal/logging"
	"github.com/forest-guardian/park-indices-map/internal/notification"
	"github.com/forest-guardian/park-indices-map/internal/pipeline"
	"github.com/forest-guardian/park-indices-map/internal/properties"
	"github.com/forest-guardian/park-indices-map/internal/ui"
	"github.com/forest-guardian/park-indices-map/output"
	"github.com/spf13/cobra"
)

var console = &ui.Console{}

func main() {
	properties.LoadEnv()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "parkmap",
		Short:         "Map vegetation indices, temperature and precipitation of a protected area",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	run := newRunCmd()
	root.AddCommand(run, newCatalogsCmd(), newIndicesCmd())
	root.RunE = run.RunE
	root.Flags().AddFlagSet(run.Flags())
	return root
}

type runFlags struct {
	engine   string
	start    string
	end      string
	country  string
	maxCloud float64
	output   string
	noReport bool
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline and write the HTML map",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := properties.Load()
			if err != nil {
				console.PrintError(err.Error())
				return err
			}
			applyFlags(cmd, cfg, f)
			return runPipeline(cmd.Context(), cfg, !f.noReport)
		},
	}
	cmd.Flags().StringVar(&f.engine, "engine", "", "raster engine: earthengine or local (ENGINE)")
	cmd.Flags().StringVar(&f.start, "start", "", "first day, inclusive, YYYY-MM-DD (START_DATE)")
	cmd.Flags().StringVar(&f.end, "end", "", "last day, exclusive, YYYY-MM-DD (END_DATE)")
	cmd.Flags().StringVar(&f.country, "country", "", "country name in FAO GAUL (COUNTRY)")
	cmd.Flags().Float64Var(&f.maxCloud, "max-cloud", 0, "maximum scene cloud percentage (MAX_CLOUD_COVERAGE)")
	cmd.Flags().StringVar(&f.output, "output", "", "HTML file to write (OUTPUT_HTML)")
	cmd.Flags().BoolVar(&f.noReport, "no-report", false, "skip counting images per stage")
	return cmd
}

func applyFlags(cmd *cobra.Command, cfg *properties.Config, f runFlags) {
	if f.engine != "" {
		cfg.Engine = strings.ToLower(f.engine)
	}
	if f.start != "" {
		cfg.StartDate = f.start
	}
	if f.end != "" {
		cfg.EndDate = f.end
	}
	if f.country != "" {
		cfg.Country = f.country
	}
	if cmd.Flags().Changed("max-cloud") {
		cfg.MaxCloudCoverage = f.maxCloud
	}
	if f.output != "" {
		cfg.OutputHTML = f.output
	}
}

func runPipeline(ctx context.Context, cfg *properties.Config, report bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	console.PrintBanner("ParkMap")
	logger := logging.New(cfg.LogLevel, cfg.LogFile)
	defer logger.Close()

	discord := &notification.Discord{
		ErrorURL:   cfg.DiscordErrorNotificationURL,
		SuccessURL: cfg.DiscordSuccessNotificationURL,
	}
	fail := func(err error) error {
		logger.Error("run failed", "error", err)
		console.PrintError(err.Error())
		if nerr := discord.SendError(ctx, err.Error()); nerr != nil {
			logger.Warn("failed to send error notification", "error", nerr)
		}
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fail(err)
	}
	dates, err := pipeline.ParseDateRange(cfg.StartDate, cfg.EndDate)
	if err != nil {
		return fail(err)
	}

	eng, region, err := setupEngine(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}

	point := engine.Point(cfg.PointLon, cfg.PointLat)
	console.PrintInfo(fmt.Sprintf("Running %s engine for %s at %s", cfg.Engine, dates, point))
	res, err := pipeline.Run(ctx, eng, pipeline.Options{
		Range:            dates,
		Point:            point,
		Country:          cfg.Country,
		Region:           region,
		MaxCloudCoverage: cfg.MaxCloudCoverage,
		Report:           report,
	}, logger.Logger)
	if err != nil {
		return fail(err)
	}

	c, err := composer.New(strings.TrimSuffix(filepath.Base(cfg.OutputHTML), filepath.Ext(cfg.OutputHTML)), point, cfg.Zoom)
	if err != nil {
		return fail(err)
	}
	if err := c.AddLayers(ctx, res.Layers(), true); err != nil {
		return fail(err)
	}
	if err := c.Save(cfg.OutputHTML); err != nil {
		return fail(err)
	}
	logger.Info("map saved", "path", cfg.OutputHTML, "layers", len(c.Layers()))

	msg := fmt.Sprintf("Map saved to %s", cfg.OutputHTML)
	if report {
		reportPath := cfg.DataPath("reports", fmt.Sprintf("run_%s.csv", time.Now().Format("2006-01-02_15-04-05")))
		if err := output.CreateRunReport(res.Report, reportPath); err != nil {
			return fail(err)
		}
		msg += fmt.Sprintf(", image counts in %s", reportPath)
	}

	console.PrintSuccess(msg)
	if err := discord.SendSuccess(ctx, msg); err != nil {
		logger.Warn("failed to send success notification", "error", err)
	}
	return nil
}

// setupEngine returns the engine and the park region it clips to.
func setupEngine(ctx context.Context, cfg *properties.Config, logger *logging.Logger) (engine.Engine, engine.Region, error) {
	var fileRegion engine.Region
	if cfg.RegionGeoJSON != "" {
		data, err := os.ReadFile(cfg.RegionGeoJSON)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read region: %w", err)
		}
		g, err := engine.ParseGeoJSON(data)
		if err != nil {
			return nil, nil, err
		}
		fileRegion = g
	}

	switch cfg.Engine {
	case properties.EngineEarthEngine:
		httpClient, err := earthengine.NewHTTPClient(ctx, cfg.EECredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		client, err := earthengine.New(earthengine.Config{
			Project:    cfg.EEProject,
			BaseURL:    cfg.EEBaseURL,
			HTTPClient: httpClient,
			MapCache:   cache.NewFileCache[string](cfg.DataPath("cache", "maps"), cfg.MapCacheTTL),
			Logger:     logger.Logger,
		})
		if err != nil {
			return nil, nil, err
		}
		if fileRegion != nil {
			return client, fileRegion, nil
		}
		return client, client.FeatureCollection(cfg.RegionAsset).Geometry(), nil
	case properties.EngineLocal:
		return setupLocalEngine(ctx, cfg, logger, fileRegion)
	}
	return nil, nil, fmt.Errorf("invalid ENGINE: %q", cfg.Engine)
}

func setupLocalEngine(ctx context.Context, cfg *properties.Config, logger *logging.Logger, fileRegion engine.Region) (engine.Engine, engine.Region, error) {
	eng := local.New()
	loader := geotiff.NewLoader(cfg.RootPath, logger.Logger, true)
	if err := loader.LoadCatalogs(ctx, eng, catalog.All()); err != nil {
		return nil, nil, err
	}
	if err := loader.LoadBoundaries(eng, catalog.Countries, cfg.RegionAsset); err != nil {
		return nil, nil, err
	}
	if fileRegion != nil {
		return eng, fileRegion, nil
	}
	if _, err := os.Stat(loader.BoundaryFile(cfg.RegionAsset)); err == nil {
		return eng, eng.FeatureCollection(cfg.RegionAsset).Geometry(), nil
	}
	console.PrintWarning(fmt.Sprintf("region %s not found locally, using the default park polygon", cfg.RegionAsset))
	return eng, engine.Polygon(properties.DefaultRegion), nil
}

func newCatalogsCmd() *cobra.Command {
	var asCSV bool
	cmd := &cobra.Command{
		Use:   "catalogs",
		Short: "List the image collections and bands the pipeline loads",
		RunE: func(cmd *cobra.Command, args []string) error {
			if asCSV {
				return output.WriteCatalogs(cmd.OutOrStdout(), catalog.All())
			}
			var rows [][]string
			for _, c := range catalog.All() {
				rows = append(rows, []string{c.ID, c.Name, c.Description, strconv.Itoa(len(c.Bands)), strings.Join(c.Bands, " ")})
			}
			console.PrintTable([]string{"ID", "NAME", "DESCRIPTION", "BANDS", "BAND NAMES"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of a table")
	return cmd
}

func newIndicesCmd() *cobra.Command {
	var dn indices.DN
	var asCSV bool
	cmd := &cobra.Command{
		Use:   "indices",
		Short: "Compute the vegetation indices of one pixel from raw Sentinel-2 digital numbers",
		RunE: func(cmd *cobra.Command, args []string) error {
			values := indices.Compute(dn)
			if asCSV {
				return output.WriteIndexValues(cmd.OutOrStdout(), []indices.Values{values})
			}
			var rows [][]string
			for _, name := range indices.Names() {
				v, _ := values.Get(name)
				rows = append(rows, []string{name, strconv.FormatFloat(v, 'f', 4, 64)})
			}
			console.PrintTable([]string{"INDEX", "VALUE"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of a table")
	cmd.Flags().Float64Var(&dn.Blue, "blue", 0, "B2 digital number")
	cmd.Flags().Float64Var(&dn.Green, "green", 0, "B3 digital number")
	cmd.Flags().Float64Var(&dn.Red, "red", 0, "B4 digital number")
	cmd.Flags().Float64Var(&dn.Red2, "red2", 0, "B6 digital number")
	cmd.Flags().Float64Var(&dn.NIR, "nir", 0, "B8 digital number")
	cmd.Flags().Float64Var(&dn.SWIR1, "swir1", 0, "B11 digital number")
	cmd.Flags().Float64Var(&dn.SWIR2, "swir2", 0, "B12 digital number")
	return cmd
}
