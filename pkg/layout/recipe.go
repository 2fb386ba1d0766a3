package layout

import (
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

// SplitKind selects one of the three splitting primitives.
type SplitKind int

const (
	// Keep leaves the panel as it is.
	Keep SplitKind = iota
	// Equal is SplitEqual.
	Equal
	// Weighted is SplitWeighted with freshly drawn shares.
	Weighted
	// Two is SplitTwo.
	Two
)

// Split is one application of a primitive. Shift applies to Two only; zero
// means a random shift.
type Split struct {
	Kind  SplitKind
	N     int
	Shift float64
}

// Panels returns the number of children the split produces.
func (s Split) Panels() int {
	switch s.Kind {
	case Keep:
		return 1
	case Two:
		return 2
	}
	return s.N
}

func equal(n int) Split    { return Split{Kind: Equal, N: n} }
func weighted(n int) Split { return Split{Kind: Weighted, N: n} }
func two() Split           { return Split{Kind: Two} }
func half() Split          { return Split{Kind: Two, Shift: 0.5} }
func keep() Split          { return Split{Kind: Keep} }

// Recipe is a fixed composition of splits that builds a page with a known
// number of panels. Implementations are Strips, Rows, DivideTwice,
// QuarterSplit, GrandchildSplit and Grid.
type Recipe interface {
	// Tag is the short name used on the command line.
	Tag() string
	// Panels is the number of leaves produced.
	Panels() int
}

// Strips splits the page into N weighted strips along Axis. An Unsplit axis
// is drawn at random.
type Strips struct {
	Name string
	N    int
	Axis panel.Orientation
}

func (r Strips) Tag() string { return r.Name }
func (r Strips) Panels() int { return r.N }

// Rows splits the page with First along Axis, then applies Subs to the
// resulting children along the other axis. The first Picks children are
// chosen at random without replacement and receive Subs in draw order; the
// rest follow in creation order. Children without a sub split are left
// alone. With SharedShift every random two-way sub split uses one shift.
type Rows struct {
	Name        string
	Axis        panel.Orientation
	First       Split
	Subs        []Split
	Picks       int
	SharedShift bool
}

func (r Rows) Tag() string { return r.Name }

func (r Rows) Panels() int {
	n := r.First.Panels()
	for _, s := range r.Subs {
		n += s.Panels() - 1
	}
	return n
}

// DivideTwice halves the page, splits one half in two along the other axis
// and then one of those in two along the first axis.
type DivideTwice struct{}

func (DivideTwice) Tag() string { return "div" }
func (DivideTwice) Panels() int { return 4 }

// QuarterSplit halves the page, splits one half in two and then splits
// both of those again along the first axis. Equal shares one shift between
// the last two splits.
type QuarterSplit struct {
	Equal bool
}

func (r QuarterSplit) Tag() string {
	if r.Equal {
		return "eq"
	}
	return "uneq"
}
func (QuarterSplit) Panels() int { return 5 }

// GrandchildSplit halves the page, splits both halves, and then halves one
// random grandchild along the first axis.
type GrandchildSplit struct{}

func (GrandchildSplit) Tag() string { return "div" }
func (GrandchildSplit) Panels() int { return 5 }

// Grid is the fallback for counts without a recipe: a random number of
// horizontal bands, each split into a random number of weighted strips. The
// resulting number of panels only approximates Target.
type Grid struct {
	Target int
}

func (Grid) Tag() string   { return "grid" }
func (r Grid) Panels() int { return r.Target }

// catalogue lists the recipes of mixed pages by panel count.
var catalogue = map[int][]Recipe{
	1: {Strips{Name: "single", N: 1}},
	2: {Strips{Name: "pair", N: 2}},
	3: {Rows{Name: "twoone", First: two(), Subs: []Split{two()}, Picks: 1}},
	4: {
		Rows{Name: "eq", First: half(), Subs: []Split{two(), two()}, SharedShift: true},
		Rows{Name: "uneq", First: half(), Subs: []Split{two(), two()}},
		DivideTwice{},
		Rows{Name: "trip", First: equal(3), Subs: []Split{two()}, Picks: 1},
		Rows{Name: "twoonethree", First: two(), Subs: []Split{weighted(3)}, Picks: 1},
	},
	5: {
		QuarterSplit{Equal: true},
		QuarterSplit{},
		GrandchildSplit{},
		Rows{Name: "twotwothree", First: half(), Subs: []Split{two(), equal(3)}, Picks: 1},
		Rows{Name: "threetwotwo", First: equal(3), Subs: []Split{two(), two()}, Picks: 2},
		Rows{Name: "fourtwoone", First: equal(4), Subs: []Split{two()}, Picks: 1},
	},
	6: {
		Rows{Name: "tripeq", First: weighted(3), Subs: []Split{two(), two(), two()}, SharedShift: true},
		Rows{Name: "tripuneq", First: weighted(3), Subs: []Split{two(), two(), two()}},
		Rows{Name: "twofourtwo", First: two(), Subs: []Split{weighted(4), two()}},
		Rows{Name: "twothreethree", First: two(), Subs: []Split{weighted(3), weighted(3)}},
		Rows{Name: "fourtwotwo", First: weighted(4), Subs: []Split{two(), two()}, Picks: 2},
	},
	7: {
		Rows{Name: "twothreefour", First: half(), Subs: []Split{weighted(4), weighted(3)}, Picks: 1},
		Rows{Name: "threethreetwotwo", Axis: panel.Horizontal, First: equal(3), Subs: []Split{weighted(3), two(), two()}, Picks: 1},
		Rows{Name: "threefourtwoone", Axis: panel.Horizontal, First: equal(3), Subs: []Split{weighted(4), two()}, Picks: 2},
		Rows{Name: "threethreextwoone", Axis: panel.Horizontal, First: equal(3), Subs: []Split{weighted(3), weighted(3)}, Picks: 1},
		Rows{Name: "fourthreextwo", First: equal(4), Subs: []Split{keep(), two(), two(), two()}, Picks: 1},
	},
	8: {
		Rows{Name: "fourfourxtwoeq", Axis: panel.Horizontal, First: equal(4), Subs: []Split{two(), two(), two(), two()}, SharedShift: true},
		Rows{Name: "fourfourxtwouneq", Axis: panel.Horizontal, First: equal(4), Subs: []Split{two(), two(), two(), two()}},
		Rows{Name: "threethreethreetwo", Axis: panel.Horizontal, First: equal(3), Subs: []Split{two(), weighted(3), weighted(3)}, Picks: 1},
		Rows{Name: "threefourtwotwo", Axis: panel.Horizontal, First: equal(3), Subs: []Split{weighted(4), two(), two()}, Picks: 1},
		Rows{Name: "threethreefourone", Axis: panel.Horizontal, First: equal(3), Subs: []Split{weighted(3), weighted(4)}, Picks: 2},
	},
}

// MaxRecipeCount is the largest panel count with named recipes.
const MaxRecipeCount = 8

// Recipes returns the named recipes for count, or nil when count has none.
func Recipes(count int) []Recipe {
	return slices.Clone(catalogue[count])
}

// Counts returns the panel counts that have named recipes, ascending.
func Counts() []int {
	out := make([]int, 0, len(catalogue))
	for n := range catalogue {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// ParseRecipe maps a recipe tag to its recipe for count. An empty tag
// returns nil so that callers draw a recipe at random.
func ParseRecipe(count int, tag string) (Recipe, error) {
	if tag == "" {
		return nil, nil
	}
	if count > MaxRecipeCount && tag == "grid" {
		return Grid{Target: count}, nil
	}
	for _, r := range catalogue[count] {
		if r.Tag() == tag {
			return r, nil
		}
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "no recipe %q for %d panels", tag, count)
}

// build applies r to the page root.
func build(pg *panel.Page, r Recipe, rng *rand.Rand) error {
	root := pg.Root().ID
	switch r := r.(type) {
	case Strips:
		axis := r.Axis
		if axis == panel.Unsplit {
			axis = RandomAxis(rng)
		}
		_, err := SplitWeighted(pg, root, axis, WeightedShares(rng, r.N))
		return err

	case Rows:
		return buildRows(pg, r, rng)

	case DivideTwice:
		axis := RandomAxis(rng)
		halves, err := SplitTwo(pg, root, axis, 0.5)
		if err != nil {
			return err
		}
		pick := halves[Choose(rng, 2)]
		quarters, err := SplitTwo(pg, pick.ID, axis.Invert(), RandomShift(rng))
		if err != nil {
			return err
		}
		_, err = SplitTwo(pg, quarters[Choose(rng, 2)].ID, axis, RandomShift(rng))
		return err

	case QuarterSplit:
		axis := RandomAxis(rng)
		halves, err := SplitTwo(pg, root, axis, 0.5)
		if err != nil {
			return err
		}
		pick := halves[Choose(rng, 2)]
		quarters, err := SplitTwo(pg, pick.ID, axis.Invert(), RandomShift(rng))
		if err != nil {
			return err
		}
		shift := 0.0
		if r.Equal {
			shift = RandomShift(rng)
		}
		for _, q := range quarters {
			s := shift
			if s == 0 {
				s = RandomShift(rng)
			}
			if _, err := SplitTwo(pg, q.ID, axis, s); err != nil {
				return err
			}
		}
		return nil

	case GrandchildSplit:
		axis := RandomAxis(rng)
		halves, err := SplitTwo(pg, root, axis, 0.5)
		if err != nil {
			return err
		}
		var quarters [][]*panel.Panel
		for _, hp := range halves {
			q, err := SplitTwo(pg, hp.ID, axis.Invert(), RandomShift(rng))
			if err != nil {
				return err
			}
			quarters = append(quarters, q)
		}
		group := quarters[Choose(rng, len(quarters))]
		_, err = SplitTwo(pg, group[Choose(rng, len(group))].ID, axis, 0.5)
		return err

	case Grid:
		return buildGrid(pg, r, rng)
	}
	return errors.New(errors.ErrCodeUnsupported, "unknown recipe %T", r)
}

func buildRows(pg *panel.Page, r Rows, rng *rand.Rand) error {
	axis := r.Axis
	if axis == panel.Unsplit {
		axis = RandomAxis(rng)
	}
	children, err := apply(pg, pg.Root().ID, r.First, axis, rng, 0)
	if err != nil {
		return err
	}

	chosen, rest := ChooseN(rng, len(children), r.Picks)
	order := append(chosen, rest...)

	var shared float64
	if r.SharedShift {
		shared = RandomShift(rng)
	}
	for i, s := range r.Subs {
		if i >= len(order) {
			break
		}
		if _, err := apply(pg, children[order[i]].ID, s, axis.Invert(), rng, shared); err != nil {
			return err
		}
	}
	return nil
}

// apply runs one Split on id. shared, when non-zero, replaces random shifts.
func apply(pg *panel.Page, id panel.ID, s Split, axis panel.Orientation, rng *rand.Rand, shared float64) ([]*panel.Panel, error) {
	switch s.Kind {
	case Keep:
		return []*panel.Panel{pg.Panel(id)}, nil
	case Equal:
		return SplitEqual(pg, id, s.N, axis)
	case Weighted:
		return SplitWeighted(pg, id, axis, WeightedShares(rng, s.N))
	case Two:
		shift := s.Shift
		if shift == 0 {
			shift = shared
		}
		if shift == 0 {
			shift = RandomShift(rng)
		}
		return SplitTwo(pg, id, axis, shift)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unknown split kind %d", s.Kind)
}

func buildGrid(pg *panel.Page, r Grid, rng *rand.Rand) error {
	limit := max(r.Target/2, 3)
	bands, err := SplitEqual(pg, pg.Root().ID, 2+rng.IntN(limit-2), panel.Horizontal)
	if err != nil {
		return err
	}
	counts := make([]int, len(bands))
	for i := range counts {
		counts[i] = 1 + rng.IntN(limit-1)
	}
	for i, b := range bands {
		if _, err := SplitWeighted(pg, b.ID, panel.Vertical, WeightedShares(rng, counts[i])); err != nil {
			return err
		}
	}
	return nil
}
