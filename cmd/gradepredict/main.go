// Command gradepredict predicts the missing scores of a grades CSV.
//
// Each row is "feature1,feature2,score". Rows with an empty score are queries;
// every query trains its own network on the labeled rows.
//
//	go run ./cmd/gradepredict -data grades.csv -header -seed 42
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FlavioCFOliveira/GradePredict/internal/net"
	"github.com/FlavioCFOliveira/GradePredict/internal/opt"
	"github.com/FlavioCFOliveira/GradePredict/internal/predict"
)

// options are the command line settings of one run.
type options struct {
	Data     string
	Header   bool
	Seed     int64
	Workers  int
	History  string
	LogEvery int
	Config   predict.Config
}

// result is the prediction for one query row.
type result struct {
	Query      []float64
	Prediction *predict.Prediction
}

func main() {
	cfg := predict.DefaultConfig()
	o := options{}

	flag.StringVar(&o.Data, "data", "grades.csv", "Path to the grades CSV")
	flag.BoolVar(&o.Header, "header", false, "Skip the first CSV row")
	flag.Int64Var(&o.Seed, "seed", 0, "PRNG seed for weight initialization (0 = time based)")
	flag.IntVar(&o.Workers, "workers", 4, "Number of queries predicted concurrently")
	flag.StringVar(&o.History, "history", "", "Write the per-iteration cost history to this CSV")
	flag.IntVar(&o.LogEvery, "log-every", 0, "Log training cost every N iterations")
	flag.Float64Var(&cfg.Lambda, "lambda", cfg.Lambda, "L2 regularization coefficient")
	flag.IntVar(&cfg.MaxIterations, "iters", cfg.MaxIterations, "Maximum BFGS iterations")
	flag.Parse()
	o.Config = cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grades, err := net.LoadGradesFile(o.Data, o.Header)
	if err != nil {
		log.Fatalf("failed to load %s: %v", o.Data, err)
	}
	log.Printf("data=%s examples=%d queries=%d", o.Data, len(grades.X), len(grades.Queries))

	results, err := run(ctx, o, grades)
	if err != nil {
		log.Fatalf("prediction failed: %v", err)
	}
	printResults(os.Stdout, results)
}

// run predicts every query concurrently. Each request owns its network and
// random source; requests not yet started are skipped once ctx is done.
func run(ctx context.Context, o options, grades *net.Grades) ([]result, error) {
	if err := o.Config.Validate(); err != nil {
		return nil, err
	}
	if len(grades.Queries) == 0 {
		return nil, fmt.Errorf("no query rows (rows with an empty score) in %s", o.Data)
	}

	workers := o.Workers
	if workers <= 0 {
		workers = 1
	}
	seed := o.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	results := make([]result, len(grades.Queries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, q := range grades.Queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			opts := []predict.Option{
				predict.WithSeed(seed + int64(i)),
				predict.WithLogger(log.Default()),
			}
			if o.LogEvery > 0 {
				opts = append(opts, predict.WithCallbacks(opt.Logger{Interval: o.LogEvery}))
			}
			if o.History != "" {
				opts = append(opts, predict.WithCallbacks(opt.NewCSVLogger(historyFile(o.History, i, len(grades.Queries)), false)))
			}

			p, err := predict.New(o.Config, opts...)
			if err != nil {
				return err
			}
			pred, err := p.Predict(grades.X, grades.Y, q)
			if err != nil {
				return fmt.Errorf("query %d %v: %w", i, q, err)
			}
			results[i] = result{Query: q, Prediction: pred}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// historyFile names the history CSV of query i, suffixing the index when
// there is more than one query.
func historyFile(path string, i, n int) string {
	if n == 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(path, ext), i, ext)
}

func printResults(w io.Writer, results []result) {
	for _, r := range results {
		note := ""
		if !r.Prediction.Converged {
			note = " (not converged)"
		}
		fmt.Fprintf(w, "%v -> %.4f (score %.1f)%s\n", r.Query, r.Prediction.Score, r.Prediction.Rescaled(), note)
	}
}
