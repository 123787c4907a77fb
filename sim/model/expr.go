package model

import (
	"fmt"
	"math"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/spnsim/sim"
)

// ExprEvent is an event whose guard and hazard rate are expressions over
// place token counts and model parameters, e.g. guard "S > 0 && E > 0" and
// rate "k1 * S * E". The places an expression reads are found by walking
// its syntax tree, so the dependency index stays exact.
type ExprEvent struct {
	Label     string
	GuardExpr string
	RateExpr  string

	guard      *vm.Program
	rate       *vm.Program
	guardNames []string
	rateNames  []string
	enable     []sim.Place
	rateIn     []sim.Place
	params     map[string]float64
	changes    []sim.StateChange
	written    []sim.Place
}

var _ sim.Event = (*ExprEvent)(nil)

// NewExprEvent compiles guard and rate against the given place names and
// parameters. An empty guard means always enabled. Identifiers that are
// neither places nor parameters fail compilation.
func NewExprEvent(label, guard, rate string, deltas []sim.StateChange,
	places map[string]sim.Place, params map[string]float64) (*ExprEvent, error) {
	if rate == "" {
		return nil, fmt.Errorf("event %q: rate expression required", label)
	}
	env := compileEnv(places, params)

	e := &ExprEvent{Label: label, GuardExpr: guard, RateExpr: rate, params: params}
	var err error
	if guard != "" {
		if e.guard, err = expr.Compile(guard, expr.Env(env), expr.AsBool()); err != nil {
			return nil, fmt.Errorf("event %q: compiling guard: %w", label, err)
		}
		if e.guardNames, e.enable, err = referencedPlaces(guard, places); err != nil {
			return nil, fmt.Errorf("event %q: %w", label, err)
		}
	}
	if e.rate, err = expr.Compile(rate, expr.Env(env), expr.AsFloat64()); err != nil {
		return nil, fmt.Errorf("event %q: compiling rate: %w", label, err)
	}
	if e.rateNames, e.rateIn, err = referencedPlaces(rate, places); err != nil {
		return nil, fmt.Errorf("event %q: %w", label, err)
	}

	e.changes = append([]sim.StateChange(nil), deltas...)
	sort.SliceStable(e.changes, func(i, j int) bool { return e.changes[i].Place < e.changes[j].Place })
	for _, c := range e.changes {
		e.written = append(e.written, c.Place)
	}
	return e, nil
}

// compileEnv types places as int and parameters as float64.
func compileEnv(places map[string]sim.Place, params map[string]float64) map[string]any {
	env := make(map[string]any, len(places)+len(params))
	for name := range places {
		env[name] = 0
	}
	for name, v := range params {
		env[name] = v
	}
	return env
}

// identifierCollector gathers every identifier in an expression.
type identifierCollector struct {
	names map[string]bool
}

func (c *identifierCollector) Visit(node *ast.Node) {
	if id, ok := (*node).(*ast.IdentifierNode); ok {
		c.names[id.Value] = true
	}
}

// referencedPlaces returns the place identifiers used by src, sorted by
// place, together with their places.
func referencedPlaces(src string, places map[string]sim.Place) ([]string, []sim.Place, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %q: %w", src, err)
	}
	c := &identifierCollector{names: make(map[string]bool)}
	ast.Walk(&tree.Node, c)

	var names []string
	for name := range c.names {
		if _, ok := places[name]; ok {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool { return places[names[i]] < places[names[j]] })
	out := make([]sim.Place, len(names))
	for i, name := range names {
		out[i] = places[name]
	}
	return names, out, nil
}

func (e *ExprEvent) Name() string { return e.Label }

func (e *ExprEvent) EnablementInputs() []sim.Place { return e.enable }

func (e *ExprEvent) RateInputs() []sim.Place { return e.rateIn }

func (e *ExprEvent) Outputs() []sim.Place { return e.written }

func (e *ExprEvent) Enabled(inputs []sim.PlaceState) bool {
	if e.guard == nil {
		return true
	}
	out, err := expr.Run(e.guard, e.env(e.guardNames, inputs))
	if err != nil {
		logrus.Warnf("event %s: guard %q: %v; treating as disabled", e.Label, e.GuardExpr, err)
		return false
	}
	return out.(bool)
}

// HazardRate evaluates the rate expression. An evaluation error yields NaN,
// which the simulation reports as an invalid rate.
func (e *ExprEvent) HazardRate(inputs []sim.PlaceState) float64 {
	out, err := expr.Run(e.rate, e.env(e.rateNames, inputs))
	if err != nil {
		logrus.Warnf("event %s: rate %q: %v", e.Label, e.RateExpr, err)
		return math.NaN()
	}
	return out.(float64)
}

func (e *ExprEvent) Fire() []sim.StateChange { return e.changes }

func (e *ExprEvent) env(names []string, inputs []sim.PlaceState) map[string]any {
	env := make(map[string]any, len(names)+len(e.params))
	for name, v := range e.params {
		env[name] = v
	}
	for i, name := range names {
		env[name] = inputs[i].Tokens
	}
	return env
}
