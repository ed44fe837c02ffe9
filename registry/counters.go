package registry

import "unsafe"

// Counters is a snapshot of the registry's cardinalities and approximate
// memory footprint. UsagesCount is a supplemental running total of
// successful access calls, not a cardinality, carried over from
// registry.c's "netdata.registry_sessions" chart.
type Counters struct {
	PersonsCount      int    `json:"persons_count"`
	MachinesCount     int    `json:"machines_count"`
	URLsCount         int    `json:"urls_count"`
	PersonsURLsCount  int    `json:"persons_urls_count"`
	MachinesURLsCount int    `json:"machines_urls_count"`
	UsagesCount       uint64 `json:"usages_count"`

	PersonsMemory      int64 `json:"persons_memory"`
	MachinesMemory     int64 `json:"machines_memory"`
	URLsMemory         int64 `json:"urls_memory"`
	PersonsURLsMemory  int64 `json:"persons_urls_memory"`
	MachinesURLsMemory int64 `json:"machines_urls_memory"`
}

// snapshot must be called while the registry lock is held.
func (r *Registry) snapshot() Counters {
	var personsURLs, machinesURLs int
	for _, p := range r.persons.byGUID {
		personsURLs += len(p.urls)
	}
	for _, m := range r.machines.byGUID {
		machinesURLs += len(m.urls)
	}

	return Counters{
		PersonsCount:      r.persons.count(),
		MachinesCount:     r.machines.count(),
		URLsCount:         r.urls.count(),
		PersonsURLsCount:  personsURLs,
		MachinesURLsCount: machinesURLs,
		UsagesCount:       r.usagesCount,

		PersonsMemory:      int64(r.persons.count()) * int64(unsafe.Sizeof(person{})),
		MachinesMemory:      int64(r.machines.count()) * int64(unsafe.Sizeof(machine{})),
		URLsMemory:         int64(r.urls.count()) * int64(unsafe.Sizeof(url{})),
		PersonsURLsMemory:  int64(personsURLs) * int64(unsafe.Sizeof(personURL{})),
		MachinesURLsMemory: int64(machinesURLs) * int64(unsafe.Sizeof(machineURL{})),
	}
}
