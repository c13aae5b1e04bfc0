// planctl is the operator CLI: inspect projections, run replans, bulk-import
// schedule CSVs and seed product specs without going through the HTTP API.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/urfave/cli/v2"

	"github.com/bevops/truckplan/internal/cache"
	"github.com/bevops/truckplan/internal/config"
	"github.com/bevops/truckplan/internal/domain"
	"github.com/bevops/truckplan/internal/importer"
	"github.com/bevops/truckplan/internal/repository"
	"github.com/bevops/truckplan/internal/repository/postgres"
	"github.com/bevops/truckplan/internal/service"
	"github.com/bevops/truckplan/internal/storage"
	"github.com/bevops/truckplan/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "planctl",
		Usage: "inbound truck planning toolbox",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "zerolog level"},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			planCommand(),
			replanCommand(),
			importCommand(),
			seedSpecCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("command failed")
	}
}

func newService() (*service.PlanningService, error) {
	cfg := config.Load()
	db, err := postgres.Open("pgx", &cfg.Database)
	if err != nil {
		return nil, err
	}
	repo := repository.NewPlanRepository(db)
	return service.NewPlanningService(repo, cache.NewNoopProjectionCache(), cfg.Planning), nil
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "print the projected ledger and KPIs for a SKU",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sku", Required: true},
			&cli.StringFlag{Name: "date", Usage: "plan date, defaults to today (UTC)"},
			&cli.BoolFlag{Name: "json", Usage: "emit the full projection as JSON"},
		},
		Action: func(c *cli.Context) error {
			svc, err := newService()
			if err != nil {
				return err
			}

			date := c.String("date")
			if date == "" {
				date = svc.Today()
			}

			proj, err := svc.GetProjection(c.Context, c.String("sku"), date)
			if err != nil {
				return err
			}

			if c.Bool("json") {
				return json.NewEncoder(os.Stdout).Encode(proj)
			}

			kpis := proj.KPIs(c.String("sku"))
			fmt.Printf("SKU %s  plan date %s\n", kpis.SKU, kpis.PlanDate)
			fmt.Printf("  floor %.0f bottles, net %.0f bottles, %.1f days of supply\n",
				kpis.FloorBottles, kpis.NetInventory, kpis.DaysOfSupply)
			fmt.Printf("  order %d trucks, cancel %d trucks\n", kpis.TrucksToOrder, kpis.TrucksToCancel)
			if kpis.FirstStockoutDate != "" {
				fmt.Printf("  first stockout %s\n", kpis.FirstStockoutDate)
			}
			if kpis.FirstOverflowDate != "" {
				fmt.Printf("  first overflow %s\n", kpis.FirstOverflowDate)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tDEMAND\tSUPPLY\tBALANCE\tPALLETS")
			for _, day := range proj.Ledger {
				fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%.0f\t%.1f\n",
					day.Date, day.Demand, day.Supply, day.Balance, day.ProjectedPallets)
			}
			return w.Flush()
		},
	}
}

func replanCommand() *cli.Command {
	return &cli.Command{
		Name:  "replan",
		Usage: "run the replenishment solver to a fixed point",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sku", Required: true},
			&cli.StringFlag{Name: "date", Usage: "plan date, defaults to today (UTC)"},
			&cli.BoolFlag{Name: "apply", Usage: "write the proposed inbound plan back"},
		},
		Action: func(c *cli.Context) error {
			svc, err := newService()
			if err != nil {
				return err
			}

			date := c.String("date")
			if date == "" {
				date = svc.Today()
			}

			result, err := svc.Replan(c.Context, c.String("sku"), date, c.Bool("apply"))
			if err != nil {
				return err
			}

			fmt.Printf("replan %s: %d updates in %d passes (converged=%v, applied=%v)\n",
				result.SKU, result.Updates, result.Passes, result.Converged, result.Applied)
			for date, trucks := range result.NewInbound {
				fmt.Printf("  %s -> %.0f trucks\n", date, trucks)
			}
			return nil
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "bulk-load schedule CSVs from a directory or object storage",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Required: true, Usage: "demand, actuals or inbound"},
			&cli.StringFlag{Name: "dir", Usage: "local directory of CSV files"},
			&cli.StringFlag{Name: "bucket-prefix", Usage: "object storage prefix to pull instead of --dir"},
			&cli.IntFlag{Name: "workers", Value: 4},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			db, err := postgres.Open("pgx", &cfg.Database)
			if err != nil {
				return err
			}
			imp := importer.New(repository.NewPlanRepository(db), c.Int("workers"))
			kind := importer.Kind(c.String("kind"))

			if prefix := c.String("bucket-prefix"); prefix != "" {
				store, err := storage.NewMinioClient(cfg.Storage)
				if err != nil {
					return err
				}
				scratch, err := os.MkdirTemp("", "planctl-import-*")
				if err != nil {
					return err
				}
				defer os.RemoveAll(scratch)

				n, err := imp.ImportBucket(c.Context, store, prefix, scratch, kind)
				if err != nil {
					return err
				}
				fmt.Printf("imported %d rows from bucket prefix %s\n", n, prefix)
				return nil
			}

			dir := c.String("dir")
			if dir == "" {
				return fmt.Errorf("one of --dir or --bucket-prefix is required")
			}
			n, err := imp.ImportDir(c.Context, dir, kind)
			if err != nil {
				return err
			}
			fmt.Printf("imported %d rows from %s\n", n, dir)
			return nil
		},
	}
}

func seedSpecCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed-spec",
		Usage: "create or update a product spec",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sku", Required: true},
			&cli.StringFlag{Name: "name"},
			&cli.IntFlag{Name: "bottles-per-case", Required: true},
			&cli.IntFlag{Name: "bottles-per-truck", Required: true},
			&cli.IntFlag{Name: "cases-per-pallet", Required: true},
			&cli.Float64Flag{Name: "scrap-pct", Value: 0},
			&cli.StringFlag{Name: "rate-unit", Value: domain.RateUnitCasesPerHour,
				Usage: "cases_per_hour or bottles_per_hour"},
		},
		Action: func(c *cli.Context) error {
			unit := c.String("rate-unit")
			if unit != domain.RateUnitCasesPerHour && unit != domain.RateUnitBottlesPerHour {
				return fmt.Errorf("unknown rate unit %q", unit)
			}

			cfg := config.Load()
			db, err := postgres.Open("pgx", &cfg.Database)
			if err != nil {
				return err
			}
			repo := repository.NewPlanRepository(db)

			spec := domain.ProductSpec{
				SKU:             c.String("sku"),
				Name:            c.String("name"),
				BottlesPerCase:  c.Int("bottles-per-case"),
				BottlesPerTruck: c.Int("bottles-per-truck"),
				CasesPerPallet:  c.Int("cases-per-pallet"),
				ScrapPercentage: c.Float64("scrap-pct"),
				RateUnit:        unit,
			}
			if err := repo.UpsertProductSpec(c.Context, spec); err != nil {
				return err
			}
			fmt.Printf("spec %s saved\n", spec.SKU)
			return nil
		},
	}
}
