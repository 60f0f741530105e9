package checkpoint

import (
	"fmt"
	"sort"
	"strings"
)

// FaultKind classifies a per-partition checkpoint failure.
type FaultKind int

// enumeration of FaultKind
const (
	// FaultNotFound: no checkpoint record exists for the partition.
	FaultNotFound FaultKind = iota
	// FaultMalformed: a record exists but its payload is unparsable.
	FaultMalformed
	// FaultOther: transient I/O, permission, timeout, or any unexpected fault.
	FaultOther
)

func (k FaultKind) String() string {
	switch k {
	case FaultNotFound:
		return "NotFound"
	case FaultMalformed:
		return "Malformed"
	default:
		return "Other"
	}
}

// Fault is one partition's checkpoint failure, keyed by partition id.
type Fault struct {
	Kind        FaultKind
	PartitionID string
	Err         error
}

func (f *Fault) Error() string {
	switch f.Kind {
	case FaultNotFound:
		return fmt.Sprintf("no checkpoint record found for partition '%s'", f.PartitionID)
	case FaultMalformed:
		return fmt.Sprintf("malformed lease payload for partition '%s': %v", f.PartitionID, f.Err)
	default:
		return fmt.Sprintf("failed to read checkpoint for partition '%s': %v", f.PartitionID, f.Err)
	}
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// FaultSet aggregates every per-partition fault of one poll into a single
// error. The rendered message enumerates each partition's reason exactly
// once; callers emit at most one warning per poll, never one per partition.
type FaultSet struct {
	faults []*Fault
}

// NewFaultSet builds a FaultSet from the given faults, dropping nils and
// ordering by partition id for deterministic rendering. Returns nil when no
// non-nil fault is present, so the result can be compared against nil.
func NewFaultSet(faults ...*Fault) *FaultSet {
	kept := make([]*Fault, 0, len(faults))
	for _, f := range faults {
		if f != nil {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].PartitionID < kept[j].PartitionID
	})
	return &FaultSet{faults: kept}
}

// Faults returns the aggregated faults, ordered by partition id.
func (fs *FaultSet) Faults() []*Fault {
	return fs.faults
}

// Len returns the number of aggregated faults.
func (fs *FaultSet) Len() int {
	return len(fs.faults)
}

// Error renders the consolidated per-poll message. The wording is part of
// the operational contract and consumed by operators and tests.
func (fs *FaultSet) Error() string {
	reasons := make([]string, len(fs.faults))
	for i, f := range fs.faults {
		reasons[i] = f.Error()
	}
	return "Unable to deserialize partition or lease info with the following errors: " +
		strings.Join(reasons, "; ")
}
