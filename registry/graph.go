package registry

// PersonURLRow is one row of the `urls` array access returns:
// [machine_guid, url, last_t_ms, usages, machine_name].
type PersonURLRow struct {
	MachineGUID string
	URL         string
	LastTMs     int64
	Usages      uint32
	MachineName string
}

// MachineURLRow is one row of the `urls` array search returns:
// [machine_guid, url, last_t_ms, usages] (no machine_name).
type MachineURLRow struct {
	MachineGUID string
	URL         string
	LastTMs     int64
	Usages      uint32
}

// AccessResult is what Access returns on success.
type AccessResult struct {
	PersonGUID string
	URLs       []PersonURLRow
}

// DeleteResult is what Delete returns on success.
type DeleteResult struct {
	PersonGUID string
}

// SearchResult is what Search returns on success.
type SearchResult struct {
	URLs []MachineURLRow
}

// SwitchResult is what Switch returns on success.
type SwitchResult struct {
	PersonGUID string
}

// Access finds or creates the machine, interns the URL, finds or creates
// the person, then upserts both the MachineURL and PersonURL edges. It is
// the only primitive that creates new entities.
func (r *Registry) Access(personGUID, machineGUID, urlStr, name string, when int64) (AccessResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	when = r.resolveWhen(when)

	m, _ := r.machines.getOrCreate(machineGUID, when)
	if name != "" {
		m.name = name
	}

	u := r.urls.intern(urlStr)

	p := r.persons.getOrCreate(personGUID, when)

	if m.upsertURL(u, when) {
		r.urls.incref(u)
	}
	if p.upsertURL(u, m, when) {
		r.urls.incref(u)
	}

	r.usagesCount++
	r.record("access", p.guid, m.guid, urlStr, map[string]interface{}{"name": name})

	return AccessResult{
		PersonGUID: p.guid,
		URLs:       personURLRows(p),
	}, nil
}

// Delete removes the first PersonURL edge of p whose URL string equals
// deleteURL, across any machine, in orderedURLs order (so when several
// machines match, the lowest machine GUID wins); MachineURL is left
// untouched deliberately,
// matching registry.c's behavior — it is not a bug.
func (r *Registry) Delete(personGUID, machineGUID, urlStr, deleteURL string, when int64) (DeleteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	when = r.resolveWhen(when)

	p := r.persons.find(personGUID)
	if p == nil {
		return DeleteResult{}, newError(KindSyntactic, "person", "person not found")
	}

	var key personURLKey
	var found bool
	for _, pu := range p.orderedURLs() {
		if pu.u.value == deleteURL {
			key, found = personURLKey{u: pu.u, m: pu.m}, true
			break
		}
	}
	if !found {
		return DeleteResult{}, newError(KindSyntactic, "url", "url not found for person")
	}

	u := p.urls[key].u
	delete(p.urls, key)
	r.urls.decref(u)
	p.lastT = maxInt64(p.lastT, when)

	r.record("delete", p.guid, machineGUID, deleteURL, map[string]interface{}{"caller_url": urlStr})

	return DeleteResult{PersonGUID: p.guid}, nil
}

// FindMachineFor is a read-only projection: the caller's own
// person/machine/url are accepted (and journaled, for audit) but not used
// to authorize the lookup — any caller with a registry cookie may
// enumerate any known machine's URLs, matching registry.c's
// registry_request_search_json, which imposes no such check.
func (r *Registry) FindMachineFor(personGUID, machineGUID, urlStr, requestMachine string, when int64) (SearchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.machines.find(requestMachine)
	if m == nil {
		return SearchResult{}, newError(KindMachineNotFound, "machine", "machine not found")
	}

	r.record("search", personGUID, requestMachine, urlStr, map[string]interface{}{"caller_machine": machineGUID})

	return SearchResult{URLs: machineURLRows(m)}, nil
}

// Switch re-targets a browser's identity cookie from one person to
// another. Both persons and the machine must exist, and both persons must
// already have a PersonURL edge
// referencing that exact machine (proof both cookies have been seen
// together on this node). No entity is created or merged; the old person
// is left exactly as it was.
func (r *Registry) Switch(oldPersonGUID, machineGUID, newPersonGUID string) (SwitchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	op := r.persons.find(oldPersonGUID)
	if op == nil {
		return SwitchResult{}, newError(KindPersonNotFound, "old", "old person not found")
	}

	np := r.persons.find(newPersonGUID)
	if np == nil {
		return SwitchResult{}, newError(KindPersonNotFound, "new", "new person not found")
	}

	m := r.machines.find(machineGUID)
	if m == nil {
		return SwitchResult{}, newError(KindMachineNotFound, "machine", "machine not found")
	}

	if !personHasEdgeToMachine(op, m) {
		return SwitchResult{}, newError(KindNoEdge, "old", "old person has no edge to machine")
	}
	if !personHasEdgeToMachine(np, m) {
		return SwitchResult{}, newError(KindNoEdge, "new", "new person has no edge to machine")
	}

	r.record("switch", oldPersonGUID, machineGUID, "", map[string]interface{}{"to": newPersonGUID})

	return SwitchResult{PersonGUID: np.guid}, nil
}

// personHasEdgeToMachine checks pointer identity against m, mirroring
// registry.c's registry_person_url_callback_verify_machine_exists, which
// compares pu->machine == m rather than comparing GUID strings.
func personHasEdgeToMachine(p *person, m *machine) bool {
	for key := range p.urls {
		if key.m == m {
			return true
		}
	}
	return false
}

func personURLRows(p *person) []PersonURLRow {
	ordered := p.orderedURLs()
	rows := make([]PersonURLRow, len(ordered))
	for i, pu := range ordered {
		rows[i] = PersonURLRow{
			MachineGUID: pu.m.guid,
			URL:         pu.u.value,
			LastTMs:     pu.lastT * 1000,
			Usages:      pu.usages,
			MachineName: pu.machineName,
		}
	}
	return rows
}

func machineURLRows(m *machine) []MachineURLRow {
	rows := make([]MachineURLRow, 0, len(m.urls))
	for _, mu := range m.urls {
		rows = append(rows, MachineURLRow{
			MachineGUID: m.guid,
			URL:         mu.u.value,
			LastTMs:     mu.lastT * 1000,
			Usages:      mu.usages,
		})
	}
	sortMachineURLRows(rows)
	return rows
}
