package httpapi

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/fleet-registry/core/logger"
	"github.com/relabs-tech/fleet-registry/registry"
)

const (
	statusOK       = "ok"
	statusFailed   = "failed"
	statusDisabled = "disabled"
)

// response is the common envelope every response begins with: action,
// status, hostname, machine_guid, plus whatever additional fields a given
// endpoint adds. The cookie-probe redirect response is the one exception
// and is written separately in handleAccess.
type response struct {
	Action      string      `json:"action"`
	Status      string      `json:"status"`
	Hostname    string      `json:"hostname"`
	MachineGUID string      `json:"machine_guid"`
	Registry    string      `json:"registry,omitempty"`
	PersonGUID  string      `json:"person_guid,omitempty"`
	URLs        interface{} `json:"urls,omitempty"`
}

func (a *API) base(action, status string) response {
	return response{
		Action:      action,
		Status:      status,
		Hostname:    a.hostname,
		MachineGUID: a.machineGUID,
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	body, err := json.MarshalWithOption(v, json.DisableHTMLEscape())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

// disabled writes the shared disabled response used by all five handlers
// when the registry is turned off.
func (a *API) disabled(w http.ResponseWriter, action string) {
	resp := a.base(action, statusDisabled)
	resp.Registry = a.announcedURL
	writeJSON(w, http.StatusOK, resp)
}

// parseWhen parses the optional "when" query parameter (unix seconds).
// Missing or unparsable values become 0, which Registry.resolveWhen then
// substitutes with "now".
func parseWhen(r *http.Request) int64 {
	s := r.URL.Query().Get("when")
	if s == "" {
		return 0
	}
	when, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return when
}

// ---------------------------------------------------------------------
// hello

func (a *API) handleHello(w http.ResponseWriter, r *http.Request) {
	logger.FromContext(r.Context()).Debugln("registry: hello")
	if !a.registry.Enabled {
		a.disabled(w, "hello")
		return
	}

	resp := a.base("hello", statusOK)
	resp.Registry = a.announcedURL
	writeJSON(w, http.StatusOK, resp)
}

// ---------------------------------------------------------------------
// access

func (a *API) handleAccess(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	if !a.registry.Enabled {
		a.disabled(w, "access")
		return
	}

	personGUID := personGUIDFromRequest(r)

	// cookie-capability probe: mint a sentinel cookie and ask the browser
	// to echo it back before trusting any cookie it presents.
	if a.verifyCookies && personGUID == "" {
		a.setPersonCookie(w, cookieProbeSentinel)
		writeJSON(w, http.StatusOK, struct {
			Status   string `json:"status"`
			Registry string `json:"registry"`
		}{Status: "redirect", Registry: a.announcedURL})
		return
	}
	if personGUID == cookieProbeSentinel {
		personGUID = ""
	}

	machineGUID := r.URL.Query().Get("machine")
	urlParam := r.URL.Query().Get("url")
	name := r.URL.Query().Get("name")
	when := parseWhen(r)

	result, err := a.registry.Access(personGUID, machineGUID, urlParam, name, when)
	if err != nil {
		log.WithError(err).Warnln("registry: access failed")
		writeJSON(w, http.StatusPreconditionFailed, a.base("access", statusFailed))
		return
	}

	a.setPersonCookie(w, result.PersonGUID)

	resp := a.base("access", statusOK)
	resp.PersonGUID = result.PersonGUID
	resp.URLs = personURLRowsJSON(result.URLs)
	writeJSON(w, http.StatusOK, resp)
}

// ---------------------------------------------------------------------
// delete

func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	if !a.registry.Enabled {
		a.disabled(w, "delete")
		return
	}

	personGUID := personGUIDFromRequest(r)
	machineGUID := r.URL.Query().Get("machine")
	urlParam := r.URL.Query().Get("url")
	deleteURL := r.URL.Query().Get("delete_url")
	when := parseWhen(r)

	_, err := a.registry.Delete(personGUID, machineGUID, urlParam, deleteURL, when)
	if err != nil {
		log.WithError(err).Warnln("registry: delete failed")
		writeJSON(w, http.StatusPreconditionFailed, a.base("delete", statusFailed))
		return
	}

	writeJSON(w, http.StatusOK, a.base("delete", statusOK))
}

// ---------------------------------------------------------------------
// search

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	if !a.registry.Enabled {
		a.disabled(w, "search")
		return
	}

	personGUID := personGUIDFromRequest(r)
	machineGUID := r.URL.Query().Get("machine")
	urlParam := r.URL.Query().Get("url")
	forMachine := r.URL.Query().Get("for")
	when := parseWhen(r)

	result, err := a.registry.FindMachineFor(personGUID, machineGUID, urlParam, forMachine, when)
	if err != nil {
		log.WithError(err).Warnln("registry: search failed")
		writeJSON(w, http.StatusNotFound, a.base("search", statusFailed))
		return
	}

	resp := a.base("search", statusOK)
	resp.URLs = machineURLRowsJSON(result.URLs)
	writeJSON(w, http.StatusOK, resp)
}

// ---------------------------------------------------------------------
// switch

// switchStatusCode maps a registry.Error from Switch to a distinct
// 430/431/432/433/434 status code.
func switchStatusCode(err *registry.Error) int {
	switch err.Kind {
	case registry.KindPersonNotFound:
		if err.Subject == "old" {
			return 430
		}
		return 431
	case registry.KindMachineNotFound:
		return 432
	case registry.KindNoEdge:
		if err.Subject == "old" {
			return 433
		}
		return 434
	default:
		return http.StatusPreconditionFailed
	}
}

func (a *API) handleSwitch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	if !a.registry.Enabled {
		a.disabled(w, "switch")
		return
	}

	personGUID := personGUIDFromRequest(r)
	machineGUID := r.URL.Query().Get("machine")
	toPersonGUID := r.URL.Query().Get("to")

	result, err := a.registry.Switch(personGUID, machineGUID, toPersonGUID)
	if err != nil {
		regErr, _ := err.(*registry.Error)
		code := http.StatusPreconditionFailed
		if regErr != nil {
			code = switchStatusCode(regErr)
		}
		log.WithError(err).Warnln("registry: switch failed")
		writeJSON(w, code, a.base("switch", statusFailed))
		return
	}

	a.setPersonCookie(w, result.PersonGUID)

	resp := a.base("switch", statusOK)
	resp.PersonGUID = result.PersonGUID
	writeJSON(w, http.StatusOK, resp)
}

// ---------------------------------------------------------------------
// row shaping — bare JSON-array rows, not objects, to keep responses small

func personURLRowsJSON(rows []registry.PersonURLRow) []interface{} {
	out := make([]interface{}, len(rows))
	for i, row := range rows {
		out[i] = []interface{}{row.MachineGUID, row.URL, row.LastTMs, row.Usages, row.MachineName}
	}
	return out
}

func machineURLRowsJSON(rows []registry.MachineURLRow) []interface{} {
	out := make([]interface{}, len(rows))
	for i, row := range rows {
		out[i] = []interface{}{row.MachineGUID, row.URL, row.LastTMs, row.Usages}
	}
	return out
}
