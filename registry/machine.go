package registry

// machineURL is the per-machine view of a URL's usage, independent of any
// person.
type machineURL struct {
	u      *url
	firstT int64
	lastT  int64
	usages uint32
}

// machine is a monitoring node, keyed by its own GUID.
type machine struct {
	guid   string
	firstT int64
	lastT  int64
	usages uint32
	name   string

	urls map[*url]*machineURL // machine_urls, keyed by interned URL pointer
}

func newMachine(guid string, when int64) *machine {
	return &machine{
		guid:   guid,
		firstT: when,
		lastT:  when,
		usages: 1,
		urls:   make(map[*url]*machineURL),
	}
}

// machineRegistry is the mapping from machine GUID to machine.
type machineRegistry struct {
	byGUID map[string]*machine
}

func newMachineRegistry() *machineRegistry {
	return &machineRegistry{byGUID: make(map[string]*machine)}
}

func (r *machineRegistry) find(guid string) *machine {
	return r.byGUID[guid]
}

// getOrCreate returns the machine for guid, creating it if necessary. On a
// hit it bumps usages and advances lastT; on a miss it allocates a fresh
// machine with first_t = last_t = when.
func (r *machineRegistry) getOrCreate(guid string, when int64) (m *machine, created bool) {
	if m, ok := r.byGUID[guid]; ok {
		incrUsages(&m.usages)
		m.lastT = maxInt64(m.lastT, when)
		return m, false
	}
	m = newMachine(guid, when)
	r.byGUID[guid] = m
	return m, true
}

func (r *machineRegistry) count() int {
	return len(r.byGUID)
}

// upsertURL records a (machine, url) visit in m.machine_urls, creating the
// MachineURL edge on first sight. It returns whether the edge was newly
// created, which the caller uses to decide whether to incref the URL.
func (m *machine) upsertURL(u *url, when int64) (created bool) {
	if mu, ok := m.urls[u]; ok {
		incrUsages(&mu.usages)
		mu.lastT = maxInt64(mu.lastT, when)
		return false
	}
	m.urls[u] = &machineURL{u: u, firstT: when, lastT: when, usages: 1}
	return true
}
