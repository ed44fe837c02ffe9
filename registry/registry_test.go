package registry

import (
	"testing"
	"time"
)

// fixedClock returns a clock func pinned at the given unix second, for
// deterministic "now" substitution in resolveWhen.
func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

func newTestRegistry() *Registry {
	r := New(nil)
	r.now = fixedClock(1_000_000)
	return r
}

// first access mints a fresh identity.
func TestAccessMintsIdentity(t *testing.T) {
	r := newTestRegistry()

	res, err := r.Access("", "M1", "http://a/", "alpha", 1000)
	if err != nil {
		t.Fatalf("access failed: %v", err)
	}
	if !validGUID(res.PersonGUID) {
		t.Fatalf("expected a fresh guid, got %q", res.PersonGUID)
	}
	if len(res.URLs) != 1 {
		t.Fatalf("expected one url row, got %d", len(res.URLs))
	}
	row := res.URLs[0]
	if row.MachineGUID != "M1" || row.URL != "http://a/" || row.LastTMs != 1000000 || row.Usages != 1 || row.MachineName != "alpha" {
		t.Fatalf("unexpected row: %+v", row)
	}

	c := r.Snapshot()
	if c.PersonsCount != 1 || c.MachinesCount != 1 || c.URLsCount != 1 || c.PersonsURLsCount != 1 || c.MachinesURLsCount != 1 {
		t.Fatalf("unexpected counters: %+v", c)
	}
}

// scenario 3: repeat access bumps usages and last_t without creating edges.
func TestAccessRepeatBumpsUsages(t *testing.T) {
	r := newTestRegistry()

	first, err := r.Access("", "M1", "http://a/", "alpha", 1000)
	if err != nil {
		t.Fatal(err)
	}

	second, err := r.Access(first.PersonGUID, "M1", "http://a/", "alpha", 2000)
	if err != nil {
		t.Fatal(err)
	}

	if len(second.URLs) != 1 {
		t.Fatalf("expected one url row, got %d", len(second.URLs))
	}
	row := second.URLs[0]
	if row.LastTMs != 2000000 || row.Usages != 2 {
		t.Fatalf("unexpected row: %+v", row)
	}

	c := r.Snapshot()
	if c.PersonsCount != 1 || c.PersonsURLsCount != 1 {
		t.Fatalf("counters changed on repeat access: %+v", c)
	}
}

// scenario 4: second machine, same person.
func TestAccessSecondMachine(t *testing.T) {
	r := newTestRegistry()

	first, err := r.Access("", "M1", "http://a/", "alpha", 1000)
	if err != nil {
		t.Fatal(err)
	}

	second, err := r.Access(first.PersonGUID, "M2", "http://b/", "beta", 3000)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.URLs) != 2 {
		t.Fatalf("expected two url rows, got %d", len(second.URLs))
	}

	c := r.Snapshot()
	if c.PersonsURLsCount != 2 || c.MachinesCount != 2 {
		t.Fatalf("unexpected counters: %+v", c)
	}
}

// scenario 5: delete. Access adds a MachineURL edge as well as the
// PersonURL edge, so deleting the person's edge leaves http://a/ interned,
// still referenced by M1's MachineURL.
func TestDeleteRetainsURLHeldByMachineURL(t *testing.T) {
	r := newTestRegistry()

	access, err := r.Access("", "M1", "http://a/", "alpha", 1000)
	if err != nil {
		t.Fatal(err)
	}
	g := access.PersonGUID

	if _, err := r.Delete(g, "M1", "http://a/", "http://a/", 4000); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	follow, err := r.Access(g, "M2", "http://c/", "gamma", 5000)
	if err != nil {
		t.Fatal(err)
	}
	if len(follow.URLs) != 1 {
		t.Fatalf("expected one remaining url row, got %d", len(follow.URLs))
	}

	c := r.Snapshot()
	if c.URLsCount != 2 {
		t.Fatalf("expected http://a/ (held by M1's MachineURL) and http://c/, urls_count=%d", c.URLsCount)
	}
}

func TestDeleteLeavesURLWhenMachineURLStillReferencesIt(t *testing.T) {
	r := newTestRegistry()

	access, err := r.Access("", "M1", "http://a/", "alpha", 1000)
	if err != nil {
		t.Fatal(err)
	}
	g := access.PersonGUID

	// a second person also visits M1 at the same url; after the first
	// person's edge is deleted, the url is still referenced by M1's
	// MachineURL and by the second person's edge.
	if _, err := r.Access("", "M1", "http://a/", "alpha", 1500); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Delete(g, "M1", "http://a/", "http://a/", 4000); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	c := r.Snapshot()
	if c.URLsCount != 1 {
		t.Fatalf("expected http://a/ to survive the delete, urls_count=%d", c.URLsCount)
	}
}

func TestDeleteDoesNotTouchMachineURL(t *testing.T) {
	r := newTestRegistry()

	access, err := r.Access("", "M1", "http://a/", "alpha", 1000)
	if err != nil {
		t.Fatal(err)
	}
	g := access.PersonGUID

	if _, err := r.Delete(g, "M1", "http://a/", "http://a/", 4000); err != nil {
		t.Fatal(err)
	}

	res, err := r.FindMachineFor(g, "M1", "http://a/", "M1", 5000)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(res.URLs) != 1 {
		t.Fatalf("expected MachineURL for http://a/ to survive the delete, got %d rows", len(res.URLs))
	}
}

// scenario 6/7: switch.
func TestSwitchSuccess(t *testing.T) {
	r := newTestRegistry()

	g1, err := r.Access("", "M1", "http://a/", "alpha", 1000)
	if err != nil {
		t.Fatal(err)
	}
	g2, err := r.Access("", "M1", "http://a/", "alpha", 1000)
	if err != nil {
		t.Fatal(err)
	}

	res, err := r.Switch(g1.PersonGUID, "M1", g2.PersonGUID)
	if err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	if res.PersonGUID != g2.PersonGUID {
		t.Fatalf("expected person_guid %q, got %q", g2.PersonGUID, res.PersonGUID)
	}
}

func TestSwitchFailureCodes(t *testing.T) {
	r := newTestRegistry()

	g1, err := r.Access("", "M1", "http://a/", "alpha", 1000)
	if err != nil {
		t.Fatal(err)
	}
	g2, err := r.Access("", "M1", "http://a/", "alpha", 1000)
	if err != nil {
		t.Fatal(err)
	}
	g3, err := r.Access("", "M2", "http://b/", "beta", 1000) // never visits M1
	if err != nil {
		t.Fatal(err)
	}

	assertKind := func(t *testing.T, err error, kind Kind, subject string) {
		t.Helper()
		regErr, ok := err.(*Error)
		if !ok {
			t.Fatalf("expected *Error, got %T (%v)", err, err)
		}
		if regErr.Kind != kind || regErr.Subject != subject {
			t.Fatalf("expected kind=%v subject=%q, got kind=%v subject=%q", kind, subject, regErr.Kind, regErr.Subject)
		}
	}

	_, err = r.Switch("not-a-guid", "M1", g2.PersonGUID)
	assertKind(t, err, KindPersonNotFound, "old")

	_, err = r.Switch(g1.PersonGUID, "M1", "not-a-guid")
	assertKind(t, err, KindPersonNotFound, "new")

	_, err = r.Switch(g1.PersonGUID, "unknown-machine", g2.PersonGUID)
	assertKind(t, err, KindMachineNotFound, "machine")

	_, err = r.Switch(g3.PersonGUID, "M1", g2.PersonGUID)
	assertKind(t, err, KindNoEdge, "old")

	_, err = r.Switch(g1.PersonGUID, "M1", g3.PersonGUID)
	assertKind(t, err, KindNoEdge, "new")
}

func TestSearchUnknownMachine(t *testing.T) {
	r := newTestRegistry()
	_, err := r.FindMachineFor("", "", "", "unknown", 1000)
	regErr, ok := err.(*Error)
	if !ok || regErr.Kind != KindMachineNotFound {
		t.Fatalf("expected KindMachineNotFound, got %v", err)
	}
}
