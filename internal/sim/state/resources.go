package state

// ResourceKind is the closed set of capacity-bounded counters.
type ResourceKind string

const (
	ResourceEnergy ResourceKind = "energy"
	ResourceWater  ResourceKind = "water"
	ResourceGold   ResourceKind = "gold"
)

// ResourceKinds lists every counter kind in a fixed order so that
// iteration (validation, snapshots, digests) is deterministic.
var ResourceKinds = []ResourceKind{ResourceEnergy, ResourceWater, ResourceGold}

// Counter is one capacity-bounded resource. Tier indexes into the
// configured capacity ladder; Max is the capacity at the current tier.
type Counter struct {
	Current int `json:"current"`
	Max     int `json:"max"`
	Tier    int `json:"tier"`
}

// Resources holds every quantity the agent owns. Seeds and Materials are
// keyed by catalog item id; their counts must never go negative but have
// no per-kind capacity.
type Resources struct {
	Energy    Counter        `json:"energy"`
	Water     Counter        `json:"water"`
	Gold      Counter        `json:"gold"`
	Seeds     map[string]int `json:"seeds"`
	Materials map[string]int `json:"materials"`
}

// Counter returns a pointer to the counter for kind, or nil for an
// unknown kind. Callers mutate counters only through the state manager.
func (r *Resources) Counter(kind ResourceKind) *Counter {
	switch kind {
	case ResourceEnergy:
		return &r.Energy
	case ResourceWater:
		return &r.Water
	case ResourceGold:
		return &r.Gold
	}
	return nil
}

// TotalSeeds sums every seed count.
func (r *Resources) TotalSeeds() int {
	n := 0
	for _, c := range r.Seeds {
		n += c
	}
	return n
}

func (r *Resources) clone() Resources {
	out := *r
	out.Seeds = cloneIntMap(r.Seeds)
	out.Materials = cloneIntMap(r.Materials)
	return out
}

func cloneIntMap(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneBoolMap(in map[string]bool) map[string]bool {
	if in == nil {
		return nil
	}
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
