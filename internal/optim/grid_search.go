package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/graspsim/internal/config"
	"github.com/san-kum/graspsim/internal/scenario"
)

var ErrNoPoints = errors.New("optim: grid has no points")

// Evaluator runs one grid point and returns the run's metrics.
type Evaluator func(ctx context.Context, params map[string]float64) (map[string]float64, error)

// Point is one evaluated parameter combination.
type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, workers: 4}
}

// SetWorkers bounds how many points run at once.
func (g *GridSearch) SetWorkers(n int) {
	if n > 0 {
		g.workers = n
	}
}

func (g *GridSearch) points() []map[string]float64 {
	out := []map[string]float64{{}}
	for i, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(out)*len(g.ranges[i]))
		for _, base := range out {
			for _, val := range g.ranges[i] {
				p := make(map[string]float64, len(base)+1)
				for k, v := range base {
					p[k] = v
				}
				p[name] = val
				next = append(next, p)
			}
		}
		out = next
	}
	return out
}

// Search evaluates every grid point and returns the one minimising
// metricName, plus all points in grid order. Failed points are kept in the
// list with their error and never win.
func (g *GridSearch) Search(ctx context.Context, eval Evaluator, metricName string) (Point, []Point, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Point{}, nil, fmt.Errorf("optim: %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}
	params := g.points()
	if len(g.paramNames) == 0 || len(params) == 0 {
		return Point{}, nil, ErrNoPoints
	}

	results := make([]Point, len(params))

	var eg errgroup.Group
	eg.SetLimit(g.workers)
	for i := range params {
		idx := i
		eg.Go(func() error {
			results[idx] = Point{Params: params[idx], Value: math.Inf(1)}
			metrics, err := eval(ctx, params[idx])
			if err != nil {
				results[idx].Err = err
				return nil
			}
			val, ok := metrics[metricName]
			if !ok {
				results[idx].Err = fmt.Errorf("optim: no metric %q", metricName)
				return nil
			}
			results[idx].Value = val
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return Point{}, results, err
	}

	best := -1
	for i, p := range results {
		if p.Err == nil && (best < 0 || p.Value < results[best].Value) {
			best = i
		}
	}
	if best < 0 {
		return Point{}, results, fmt.Errorf("optim: every point failed: %w", results[0].Err)
	}
	return results[best], results, nil
}

// ScenarioEvaluator builds and runs sc on a copy of base with each point's
// parameters applied through config.SetParam.
func ScenarioEvaluator(sc *scenario.Scenario, base *config.Config) Evaluator {
	return func(ctx context.Context, params map[string]float64) (map[string]float64, error) {
		cfg := base.Clone()
		for name, val := range params {
			if err := cfg.SetParam(name, val); err != nil {
				return nil, err
			}
		}
		run, err := scenario.Build(sc, cfg, scenario.Options{})
		if err != nil {
			return nil, err
		}
		res, err := run.Execute(ctx)
		if err != nil {
			return nil, err
		}
		return res.Metrics, nil
	}
}

// ParseParam reads "name=v1,v2,..." into a parameter name and its values.
func ParseParam(s string) (string, []float64, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("optim: expected name=v1,v2,... got %q", s)
	}
	var vals []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("optim: %s: %w", name, err)
		}
		vals = append(vals, v)
	}
	return name, vals, nil
}

// SortedNames returns the parameter names of p in order.
func SortedNames(p map[string]float64) []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
