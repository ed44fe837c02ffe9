package registry

import "sort"

// personURLKey identifies a PersonURL edge: at most one per (url, machine)
// pair for a given person.
type personURLKey struct {
	u *url
	m *machine
}

// personURL records that a person visited machine m at url u.
type personURL struct {
	u           *url
	m           *machine
	firstT      int64
	lastT       int64
	usages      uint32
	machineName string // snapshot of m.name at time of last upsert
}

// person is an anonymous identity, keyed by its GUID.
type person struct {
	guid   string
	firstT int64
	lastT  int64
	usages uint32

	urls map[personURLKey]*personURL // person_urls
}

func newPerson(guid string, when int64) *person {
	return &person{
		guid:   guid,
		firstT: when,
		lastT:  when,
		usages: 1,
		urls:   make(map[personURLKey]*personURL),
	}
}

// upsertURL records a (url, machine) visit in p.person_urls, creating the
// PersonURL edge on first sight. It returns whether the edge was newly
// created, which the caller uses to decide whether to incref the URL.
func (p *person) upsertURL(u *url, m *machine, when int64) (created bool) {
	key := personURLKey{u: u, m: m}
	if pu, ok := p.urls[key]; ok {
		incrUsages(&pu.usages)
		pu.lastT = maxInt64(pu.lastT, when)
		pu.machineName = m.name
		return false
	}
	p.urls[key] = &personURL{
		u:           u,
		m:           m,
		firstT:      when,
		lastT:       when,
		usages:      1,
		machineName: m.name,
	}
	return true
}

// orderedURLs returns the person's PersonURL edges in a stable order: by
// URL string, then by machine GUID, mirroring registry.c's balanced-tree
// key of (url, machine).
func (p *person) orderedURLs() []*personURL {
	out := make([]*personURL, 0, len(p.urls))
	for _, pu := range p.urls {
		out = append(out, pu)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].u.value != out[j].u.value {
			return out[i].u.value < out[j].u.value
		}
		return out[i].m.guid < out[j].m.guid
	})
	return out
}

// personRegistry is the mapping from person GUID to person.
type personRegistry struct {
	byGUID map[string]*person
}

func newPersonRegistry() *personRegistry {
	return &personRegistry{byGUID: make(map[string]*person)}
}

func (r *personRegistry) find(guid string) *person {
	return r.byGUID[guid]
}

// getOrCreate applies the person lookup policy: an empty or malformed guid
// gets a fresh identity; a well-formed but unknown guid is created on miss
// (the cookie is the identity, so stale or recovered cookies are always
// accepted).
func (r *personRegistry) getOrCreate(guidOrEmpty string, when int64) *person {
	guid := guidOrEmpty
	if guid == "" || !validGUID(guid) {
		guid = r.freshGUID()
	}
	if p, ok := r.byGUID[guid]; ok {
		incrUsages(&p.usages)
		p.lastT = maxInt64(p.lastT, when)
		return p
	}
	p := newPerson(guid, when)
	r.byGUID[guid] = p
	return p
}

// freshGUID mints a GUID guaranteed not to already be registered.
func (r *personRegistry) freshGUID() string {
	for {
		guid := newGUID()
		if _, exists := r.byGUID[guid]; !exists {
			return guid
		}
	}
}

func (r *personRegistry) count() int {
	return len(r.byGUID)
}
