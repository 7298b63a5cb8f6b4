// Package generator produces the deterministic synthetic dataset a dashboard
// starts from when no live backend is available.
package generator

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"unicorn-dashboard/internal/activity"
	"unicorn-dashboard/internal/domain"
	"unicorn-dashboard/internal/idhash"
	"unicorn-dashboard/internal/storage"
)

const (
	// MinPopulation is the smallest population Generate will produce.
	MinPopulation = 50
	// DefaultPopulation is used when Options.Population is zero.
	DefaultPopulation = 60
	// TrendMonths is the length of the monthly trend series.
	TrendMonths = 12
)

// DefaultReferenceTime is the data clock of the default dataset.
var DefaultReferenceTime = time.Date(2026, 1, 2, 10, 45, 0, 0, time.UTC)

// Options controls dataset shape. Zero values select defaults.
type Options struct {
	Population       int
	ReferenceTime    time.Time
	ActivityCapacity int
}

// DefaultOptions returns Options with all defaults filled in.
func DefaultOptions() Options {
	return Options{
		Population:       DefaultPopulation,
		ReferenceTime:    DefaultReferenceTime,
		ActivityCapacity: activity.DefaultCapacity,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Population == 0 {
		o.Population = d.Population
	}
	if o.ReferenceTime.IsZero() {
		o.ReferenceTime = d.ReferenceTime
	}
	if o.ActivityCapacity <= 0 {
		o.ActivityCapacity = d.ActivityCapacity
	}
	o.ReferenceTime = o.ReferenceTime.UTC().Truncate(time.Minute)
	return o
}

// Dataset is a self-consistent initial state: every trade and activity
// entry references a unicorn in Unicorns.
type Dataset struct {
	Seed          int64                  `json:"seed"`
	ReferenceTime time.Time              `json:"reference_time"`
	Unicorns      []domain.Unicorn       `json:"unicorns"`
	Trades        []domain.TradeRecord   `json:"trades"`
	Trend         []domain.TrendPoint    `json:"trend"`
	Activity      []domain.ActivityEntry `json:"activity"` // newest first
}

// Generate builds a dataset from seed. Same seed and options produce
// byte-identical output.
func Generate(seed int64, opts Options) (*Dataset, error) {
	opts = opts.withDefaults()
	if opts.Population < MinPopulation {
		return nil, fmt.Errorf("population %d below minimum %d: %w", opts.Population, MinPopulation, storage.ErrInvalidInput)
	}

	g := &gen{
		rng:   rand.New(rand.NewSource(seed)),
		ref:   opts.ReferenceTime,
		names: newNameRegistry(),
	}

	unicorns := g.unicorns(opts.Population)
	trades := g.trades(unicorns)
	trend := g.trend(len(unicorns))
	feed := g.activityFeed(unicorns, trades, opts.ActivityCapacity)

	return &Dataset{
		Seed:          seed,
		ReferenceTime: g.ref,
		Unicorns:      unicorns,
		Trades:        trades,
		Trend:         trend,
		Activity:      feed.Entries(),
	}, nil
}

type gen struct {
	rng   *rand.Rand
	ref   time.Time
	names *nameRegistry
}

// Weights and premiums are indexed in enumeration declaration order.
var (
	breedWeights   = []int{30, 25, 15, 20, 10}
	breedPremium   = []int64{0, 5000, 8000, 12000, 20000}
	habitatWeights = []int{35, 20, 25, 20}
	regionWeights  = []int{30, 25, 20, 10, 15}
	statusWeights  = []int{55, 25, 20}
)

// pickWeighted returns an index into weights chosen proportionally.
func (g *gen) pickWeighted(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	n := g.rng.Intn(total)
	for i, w := range weights {
		if n < w {
			return i
		}
		n -= w
	}
	return len(weights) - 1
}

// minutesBefore returns ref minus a random whole number of minutes in [lo, hi).
func (g *gen) minutesBefore(lo, hi time.Duration) time.Time {
	span := int64((hi - lo) / time.Minute)
	offset := lo + time.Duration(g.rng.Int63n(span))*time.Minute
	return g.ref.Add(-offset)
}

func (g *gen) unicorns(n int) []domain.Unicorn {
	// About one record in twelve registers within the last day.
	recent := n / 12
	times := make([]time.Time, n)
	for i := range times {
		if i < recent {
			times[i] = g.minutesBefore(time.Minute, 24*time.Hour)
		} else {
			times[i] = g.minutesBefore(25*time.Hour, 365*24*time.Hour)
		}
	}
	// Ids follow registration order.
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	out := make([]domain.Unicorn, n)
	for i := range out {
		b := g.pickWeighted(breedWeights)
		base := 40000 + g.rng.Int63n(70001)
		value := (base + breedPremium[b]) / 100 * 100

		out[i] = domain.Unicorn{
			ID:           fmt.Sprintf("#%04d", i+1),
			Name:         g.names.unique(g.name()),
			Breed:        domain.Breeds[b],
			Habitat:      domain.Habitats[g.pickWeighted(habitatWeights)],
			Region:       domain.Regions[g.pickWeighted(regionWeights)],
			Status:       domain.Statuses[g.pickWeighted(statusWeights)],
			Value:        decimal.NewFromInt(value),
			RegisteredAt: times[i],
		}
	}
	return out
}

// trades creates one trade per reserved or sold unicorn, ordered by completion time.
func (g *gen) trades(unicorns []domain.Unicorn) []domain.TradeRecord {
	var out []domain.TradeRecord
	for i := range unicorns {
		u := &unicorns[i]
		if u.Status == domain.StatusAvailable {
			continue
		}

		// Trades complete at least an hour after registration, never after ref.
		span := int64(g.ref.Sub(u.RegisteredAt) / time.Minute)
		completed := g.ref
		if span > 60 {
			completed = u.RegisteredAt.Add(time.Duration(60+g.rng.Int63n(span-60)+1) * time.Minute)
		}
		factor := 0.9 + g.rng.Float64()*0.2
		value := u.Value.Mul(decimal.NewFromFloat(factor)).Round(-2)

		out = append(out, domain.TradeRecord{
			UnicornID:   u.ID,
			CompletedAt: completed,
			Value:       value,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.Before(out[j].CompletedAt)
	})
	for i := range out {
		out[i].TradeID = idhash.ComputeTradeID(out[i].UnicornID, out[i].CompletedAt.UnixMilli(), out[i].Value, i)
	}
	return out
}

// trend builds monthly population totals ending at the reference month.
// The series rises linearly from roughly 70-80% of the population to the
// population itself, with noise bounded to 3% of the population. The last
// point equals the current population exactly.
func (g *gen) trend(population int) []domain.TrendPoint {
	final := float64(population)
	start := final * (0.70 + g.rng.Float64()*0.10)
	maxNoise := final * 0.03

	month := time.Date(g.ref.Year(), g.ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.TrendPoint, TrendMonths)
	for i := range out {
		period := month.AddDate(0, i-(TrendMonths-1), 0)
		value := final
		if i < TrendMonths-1 {
			base := start + (final-start)*float64(i)/float64(TrendMonths-1)
			noise := (g.rng.Float64()*2 - 1) * maxNoise
			value = math.Max(0, math.Round(base+noise))
		}
		out[i] = domain.TrendPoint{
			Label:  period.Format("Jan"),
			Period: period,
			Value:  value,
		}
	}
	return out
}

type event struct {
	at       time.Time
	category domain.ActivityCategory
	recordID string
	text     string
}

// activityFeed replays registration, listing, bid, trade and alert events in
// chronological order through a bounded feed.
func (g *gen) activityFeed(unicorns []domain.Unicorn, trades []domain.TradeRecord, capacity int) *activity.Feed {
	var events []event
	for i := range unicorns {
		u := &unicorns[i]
		events = append(events, event{u.RegisteredAt, domain.ActivityRegistration, u.ID, activity.RegistrationText(u)})

		listedAt := u.RegisteredAt.Add(time.Duration(5+g.rng.Intn(55)) * time.Minute)
		if listedAt.After(g.ref) {
			listedAt = g.ref
		}
		events = append(events, event{listedAt, domain.ActivityListing, u.ID, activity.ListingText(u)})
	}

	byID := make(map[string]*domain.Unicorn, len(unicorns))
	for i := range unicorns {
		byID[unicorns[i].ID] = &unicorns[i]
	}
	for i := range trades {
		t := &trades[i]
		u := byID[t.UnicornID]
		if u.Status == domain.StatusReserved {
			events = append(events, event{t.CompletedAt, domain.ActivityBid, u.ID, activity.BidText(u)})
			continue
		}
		events = append(events, event{t.CompletedAt, domain.ActivityTrade, u.ID, activity.TradeText(t)})
	}

	for i := 0; i < 2; i++ {
		breed := domain.Breeds[g.rng.Intn(len(domain.Breeds))]
		change := float64(g.rng.Intn(17) - 8)
		if change == 0 {
			change = 1
		}
		at := g.minutesBefore(time.Minute, 6*time.Hour)
		events = append(events, event{at, domain.ActivityAlert, "", activity.AlertText(breed, change)})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].at.Before(events[j].at)
	})

	feed := activity.NewFeed(capacity)
	for _, e := range events {
		feed.Record(e.category, e.recordID, e.text, e.at)
	}
	return feed
}
