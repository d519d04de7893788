package kernel

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/agents"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/exchange"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/metrics"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/resource"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/solver"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/trace"
)

// Option configures a Simulator.
type Option func(*Simulator)

// WithTrace sends exchange records to sink.
func WithTrace(sink trace.Sink) Option {
	return func(s *Simulator) { s.sink = sink }
}

// WithMetrics records exchange metrics on m.
func WithMetrics(m *metrics.Exchange) Option {
	return func(s *Simulator) { s.metrics = m }
}

// WithSimID fixes the simulation id instead of drawing a random one.
func WithSimID(id uuid.UUID) Option {
	return func(s *Simulator) { s.simID = id }
}

// Result summarizes a run.
type Result struct {
	SimID          uuid.UUID
	Steps          int
	Rounds         int // exchange rounds with at least one request
	TimedOutRounds int
	Transactions   []exchange.Transaction
	Transacted     map[string]float64 // commodity → delivered quantity
	Received       map[string]float64 // sink name → quantity received
	Sent           map[string]float64 // source name → quantity delivered
}

type producer interface {
	Tick(time int) error
}

// market holds the traders of one resource type and the manager trading
// between them.
type market[T agents.Stock[T]] struct {
	name    string
	traders []exchange.Trader[T]
	sources []*agents.Source[T]
	sinks   []*agents.Sink[T]
	manager *exchange.Manager[T]
}

func (m *market[T]) add(spec FacilitySpec, base agents.Base, factory agents.Factory[T], ids *sim.IDGenerator) producer {
	switch spec.Kind {
	case KindSource:
		src := agents.NewSource(base, agents.SourceConfig{
			Commodity:  spec.Commodity,
			Throughput: spec.Throughput,
			Inventory:  spec.Inventory,
		}, factory, ids)
		m.sources = append(m.sources, src)
		m.traders = append(m.traders, src)
		return src
	default:
		snk := agents.NewSink(base, agents.SinkConfig{
			Commodity:  spec.Commodity,
			Preference: spec.Preference,
			Throughput: spec.Throughput,
			Capacity:   spec.Capacity,
			BatchSize:  spec.BatchSize,
		}, factory)
		m.sinks = append(m.sinks, snk)
		m.traders = append(m.traders, snk)
		return nil
	}
}

func (m *market[T]) open(cfg sim.ExchangeConfig, opts ...exchange.Option) error {
	if len(m.traders) == 0 {
		return nil
	}
	s, err := solver.New(cfg)
	if err != nil {
		return err
	}
	opts = append(append([]exchange.Option(nil), opts...), exchange.WithResourceType(m.name))
	m.manager = exchange.NewManager(m.traders, s, opts...)
	return nil
}

func (m *market[T]) execute(ctx context.Context, step int, res *Result) error {
	if m.manager == nil {
		return nil
	}
	round, err := m.manager.Execute(ctx, step)
	if err != nil {
		return fmt.Errorf("%s exchange at t=%d: %w", m.name, step, err)
	}
	if round.Requests > 0 {
		res.Rounds++
	}
	if round.TimedOut {
		res.TimedOutRounds++
	}
	for _, tx := range round.Transactions {
		res.Transacted[tx.Commodity] += tx.Quantity
	}
	res.Transactions = append(res.Transactions, round.Transactions...)
	return nil
}

func (m *market[T]) report(res *Result) {
	for _, s := range m.sinks {
		res.Received[s.Prototype()] = s.Received()
	}
	for _, s := range m.sources {
		res.Sent[s.Prototype()] = s.Sent()
	}
}

// Simulator steps a scenario through time.
type Simulator struct {
	scenario  *Scenario
	simID     uuid.UUID
	sink      trace.Sink
	metrics   *metrics.Exchange
	materials *market[*resource.Material]
	products  *market[*resource.Product]
	producers []producer
	regions   []*agents.Region
	insts     []*agents.Institution
}

// NewSimulator builds the agent tree of sc. Agent ids are assigned depth
// first in file order starting at 1. sc must already be validated.
func NewSimulator(sc *Scenario, opts ...Option) (*Simulator, error) {
	s := &Simulator{
		scenario:  sc,
		materials: &market[*resource.Material]{name: ResourceMaterial},
		products:  &market[*resource.Product]{name: ResourceProduct},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.simID == uuid.Nil {
		s.simID = uuid.New()
	}

	agentIDs := sim.NewIDGenerator(1)
	resourceIDs := sim.NewIDGenerator(1)
	for _, rs := range sc.Regions {
		region := agents.NewRegion(agentIDs.Next(), rs.Name, rs.CommodityPrefs)
		s.regions = append(s.regions, region)
		for _, is := range rs.Institutions {
			inst := agents.NewInstitution(agentIDs.Next(), is.Name, region, is.InHouseBonus)
			s.insts = append(s.insts, inst)
			for _, fs := range is.Facilities {
				id := agentIDs.Next()
				inst.AddMember(id)
				base := agents.NewBase(id, fs.Name, inst)
				var p producer
				switch fs.ResourceType() {
				case ResourceMaterial:
					p = s.materials.add(fs, base, resource.NewMaterialFactory(resourceIDs, fs.Recipe), resourceIDs)
				case ResourceProduct:
					p = s.products.add(fs, base, resource.NewProductFactory(resourceIDs, fs.Recipe), resourceIDs)
				default:
					return nil, sim.NewConfigurationError("resource", "unknown resource %q for facility %s", fs.Resource, fs.Name)
				}
				if p != nil {
					s.producers = append(s.producers, p)
				}
			}
		}
	}

	exchangeOpts := []exchange.Option{
		exchange.WithIDGenerators(sim.NewIDGenerator(1), sim.NewIDGenerator(1)),
		exchange.WithSimID(s.simID),
	}
	if s.sink != nil {
		exchangeOpts = append(exchangeOpts, exchange.WithSink(s.sink))
	}
	if s.metrics != nil {
		exchangeOpts = append(exchangeOpts, exchange.WithMetrics(s.metrics))
	}
	if err := s.materials.open(sc.Exchange, exchangeOpts...); err != nil {
		return nil, err
	}
	if err := s.products.open(sc.Exchange, exchangeOpts...); err != nil {
		return nil, err
	}
	return s, nil
}

// SimID returns the id stamped on every record of this run.
func (s *Simulator) SimID() uuid.UUID { return s.simID }

// Run executes every timestep. Cancelling ctx stops the run before the next
// exchange round.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		SimID:      s.simID,
		Transacted: make(map[string]float64),
		Received:   make(map[string]float64),
		Sent:       make(map[string]float64),
	}
	logrus.Infof("Starting simulation %s: %d steps, %d regions, %d institutions, solver=%s",
		s.simID, s.scenario.Duration, len(s.regions), len(s.insts), s.scenario.Exchange.SolverName())

	for t := 0; t < s.scenario.Duration; t++ {
		for _, p := range s.producers {
			if err := p.Tick(t); err != nil {
				return nil, fmt.Errorf("producing at t=%d: %w", t, err)
			}
		}
		if err := s.materials.execute(ctx, t, res); err != nil {
			return nil, err
		}
		if err := s.products.execute(ctx, t, res); err != nil {
			return nil, err
		}
		res.Steps++
		logrus.Debugf("[t %04d] %d transactions so far", t, len(res.Transactions))
	}

	s.materials.report(res)
	s.products.report(res)
	logrus.Infof("Simulation %s ended after %d steps: %d rounds, %d transactions", s.simID, res.Steps, res.Rounds, len(res.Transactions))
	return res, nil
}

// Commodities lists the commodities delivered in res, sorted.
func (r *Result) Commodities() []string {
	out := make([]string, 0, len(r.Transacted))
	for c := range r.Transacted {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
