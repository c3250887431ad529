// velplan estimates print times by replaying toolpath moves through the
// same trapezoidal lookahead a Klipper-style firmware runs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"text/tabwriter"

	pkgerrors "github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"github.com/wight554/velplan/pkg/config"
	"github.com/wight554/velplan/pkg/log"
	"github.com/wight554/velplan/pkg/preview"
	"github.com/wight554/velplan/pkg/toolpath"
)

func main() {
	logger := log.Default()
	cmd := &cli.Command{
		Name:  "velplan",
		Usage: "Offline velocity planning and print time estimation",
		Commands: []*cli.Command{
			{
				Name:      "estimate",
				Aliases:   []string{"e"},
				Usage:     "Estimate print time for one or more toolpath files",
				ArgsUsage: "<toolpath.json>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "limits",
						Aliases: []string{"l"},
						Usage:   "Printer limits file",
						Value:   "printer.cfg",
					},
					&cli.BoolFlag{
						Name:  "moves",
						Usage: "Print the per-move timing table",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Emit the full report as JSON",
					},
				},
				Action: runEstimate,
			},
			{
				Name:      "serve",
				Aliases:   []string{"s"},
				Usage:     "Estimate a toolpath and serve the profile preview",
				ArgsUsage: "<toolpath.json>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "limits",
						Aliases: []string{"l"},
						Usage:   "Printer limits file",
						Value:   "printer.cfg",
					},
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Preview listen address",
						Value: ":8765",
					},
				},
				Action: runServe,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func loadLimits(path string, logger *log.Logger) (*config.Limits, error) {
	lim, unused, err := config.LoadLimits(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "could not load limits file")
	}
	for _, opt := range unused {
		logger.Warn("ignoring unknown limits option %s", opt)
	}
	return lim, nil
}

type fileResult struct {
	path   string
	report *toolpath.Report
	err    error
}

func runEstimate(ctx context.Context, cmd *cli.Command) error {
	logger := log.GetLogger("estimate")
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("no toolpath files given")
	}
	lim, err := loadLimits(cmd.String("limits"), logger)
	if err != nil {
		return err
	}

	// Each file plans in its own session, so they can run in parallel.
	results := make([]fileResult, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			results[i] = estimateFile(lim, path)
		}(i, path)
	}
	wg.Wait()

	for _, res := range results {
		if res.err != nil {
			return res.err
		}
		if cmd.Bool("json") {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res.report); err != nil {
				return err
			}
			continue
		}
		printReport(res.report, cmd.Bool("moves"))
	}
	return nil
}

func estimateFile(lim *config.Limits, path string) fileResult {
	cmds, err := toolpath.LoadFile(path)
	if err != nil {
		return fileResult{path: path, err: pkgerrors.Wrap(err, "could not read toolpath")}
	}
	rpt, err := toolpath.Estimate(lim.Planner, cmds)
	if err != nil {
		return fileResult{path: path, err: pkgerrors.Wrapf(err, "could not plan %s", path)}
	}
	rpt.Source = path
	return fileResult{path: path, report: rpt}
}

func printReport(rpt *toolpath.Report, withMoves bool) {
	if withMoves {
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "#\tkind\tdist\tentry\tcruise\texit\ttime")
		for _, mv := range rpt.Moves {
			fmt.Fprintf(w, "%d\t%s\t%.3f\t%.2f\t%.2f\t%.2f\t%.4f\n",
				mv.Index, mv.Kind, mv.Distance, mv.EntryV, mv.CruiseV, mv.ExitV, mv.Time)
		}
		w.Flush()
	}
	fmt.Printf("%s: %d moves, %.1f mm, %.2f s\n",
		rpt.Source, len(rpt.Moves), rpt.TotalDistance, rpt.TotalTime)
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	logger := log.GetLogger("serve")
	paths := cmd.Args().Slice()
	if len(paths) != 1 {
		return fmt.Errorf("serve takes exactly one toolpath file")
	}
	lim, err := loadLimits(cmd.String("limits"), logger)
	if err != nil {
		return err
	}
	res := estimateFile(lim, paths[0])
	if res.err != nil {
		return res.err
	}
	logger.Info("estimated %s: %.2f s over %d moves",
		res.path, res.report.TotalTime, len(res.report.Moves))
	srv := preview.New(preview.Config{
		Addr:   cmd.String("addr"),
		Report: res.report,
	})
	return srv.Start()
}
