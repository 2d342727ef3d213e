package data

import (
	"slices"
	"strings"
)

type Cardinality int

const (
	CardinalityOne Cardinality = iota
	CardinalityMany
)

func (c Cardinality) String() string {
	if c == CardinalityMany {
		return "many"
	}
	return "one"
}

// Segment is one association hop of a fetch path.
type Segment struct {
	Name        string
	Cardinality Cardinality
}

// Path is a chain of associations to load eagerly, starting at the queried
// entity: Orders, then each order's Items, then each item's Product.
type Path []Segment

// String joins the association names with dots, the form gorm's Preload
// understands.
func (p Path) String() string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.Name
	}
	return strings.Join(names, ".")
}

// Prefix reports whether q is a leading part of p.
func (p Path) Prefix(q Path) bool {
	if len(q) > len(p) {
		return false
	}
	for i := range q {
		if p[i].Name != q[i].Name {
			return false
		}
	}
	return true
}

// FetchPlan is the ordered list of paths a query loads eagerly.
type FetchPlan []Path

func (fp FetchPlan) Strings() []string {
	out := make([]string, len(fp))
	for i, p := range fp {
		out[i] = p.String()
	}
	return out
}

type fetchStep struct {
	segment Segment
	then    bool
}

// buildPlan turns the recorded Fetch/ThenFetch calls into paths. Each Fetch
// starts a path at the root entity; each ThenFetch extends the path of the
// previous call.
func buildPlan(steps []fetchStep) (FetchPlan, error) {
	var plan FetchPlan
	for _, step := range steps {
		if strings.TrimSpace(step.segment.Name) == "" {
			return nil, newConfigurationError("fetch plan", "association name must not be empty", nil)
		}
		if !step.then {
			plan = append(plan, Path{step.segment})
			continue
		}
		if len(plan) == 0 {
			return nil, newConfigurationError("fetch plan",
				"ThenFetch("+step.segment.Name+") must follow Fetch or FetchMany", nil)
		}
		last := plan[len(plan)-1]
		plan = append(plan, append(slices.Clone(last), step.segment))
	}
	return compact(plan), nil
}

// compact drops paths that a later, longer path already covers.
func compact(plan FetchPlan) FetchPlan {
	out := make(FetchPlan, 0, len(plan))
	for i, p := range plan {
		covered := false
		for _, q := range plan[i+1:] {
			if q.Prefix(p) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, p)
		}
	}
	return out
}
