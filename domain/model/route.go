package model

import "math"

// TotalWeight is the sum every non-empty route set must reach.
const TotalWeight = 100

// Route is one weighted destination of a traffic-ingress rule.
type Route struct {
	InstanceID string
	Weight     int
}

// RouteSet is the ordered route list of one (workload, service level) pair.
type RouteSet []Route

// Sum returns the total weight.
func (rs RouteSet) Sum() int {
	total := 0
	for _, r := range rs {
		total += r.Weight
	}
	return total
}

// Index returns the position of instanceID or -1.
func (rs RouteSet) Index(instanceID string) int {
	for i, r := range rs {
		if r.InstanceID == instanceID {
			return i
		}
	}
	return -1
}

// Weight returns the weight of instanceID and whether it is routed.
func (rs RouteSet) Weight(instanceID string) (int, bool) {
	if i := rs.Index(instanceID); i >= 0 {
		return rs[i].Weight, true
	}
	return 0, false
}

// Validate checks an explicit routing update: entries name distinct instances,
// weights are non-negative and add up to TotalWeight.
func (rs RouteSet) Validate() error {
	if len(rs) == 0 {
		return Invalid("routes", "at least one route is required")
	}
	seen := make(map[string]struct{}, len(rs))
	for i, r := range rs {
		if r.InstanceID == "" {
			return Invalid("routes", "entry %d has no service instance", i)
		}
		if _, dup := seen[r.InstanceID]; dup {
			return Invalid("routes", "service instance %s listed twice", r.InstanceID)
		}
		seen[r.InstanceID] = struct{}{}
		if r.Weight < 0 {
			return Invalid("routes", "weight of %s is negative", r.InstanceID)
		}
	}
	if sum := rs.Sum(); sum != TotalWeight {
		return Invalid("routes", "weights sum to %d, want %d", sum, TotalWeight)
	}
	return nil
}

// Without removes instanceID and rescales the remaining weights so that they
// sum to TotalWeight. Each entry becomes round(weight*100/remaining) with
// halves rounded away from zero; the result may drift from 100 by the
// accumulated rounding error, which is tolerated. When every remaining weight
// is zero the total is split evenly, earlier entries taking the remainder.
// The boolean result is false when instanceID was not routed.
func (rs RouteSet) Without(instanceID string) (RouteSet, bool) {
	idx := rs.Index(instanceID)
	if idx < 0 {
		return rs.Clone(), false
	}
	out := make(RouteSet, 0, len(rs)-1)
	out = append(out, rs[:idx]...)
	out = append(out, rs[idx+1:]...)
	if len(out) == 0 {
		return out, true
	}
	remaining := out.Sum()
	if remaining == 0 {
		share, extra := TotalWeight/len(out), TotalWeight%len(out)
		for i := range out {
			out[i].Weight = share
			if i < extra {
				out[i].Weight++
			}
		}
		return out, true
	}
	for i := range out {
		out[i].Weight = int(math.Round(float64(out[i].Weight) * TotalWeight / float64(remaining)))
	}
	return out, true
}

// Clone returns a copy of rs.
func (rs RouteSet) Clone() RouteSet {
	if rs == nil {
		return nil
	}
	out := make(RouteSet, len(rs))
	copy(out, rs)
	return out
}
