package telemetry

import "github.com/relabs-tech/fleet-registry/core/logger"

// LogPublisher logs a structured logrus line per snapshot, grounded in
// this codebase's convention (core/logger) of never printing with the
// standard log package once a request-scoped logger is available.
type LogPublisher struct{}

// Publish implements Publisher.
func (LogPublisher) Publish(s Snapshot) error {
	logger.Default().WithFields(map[string]interface{}{
		"persons_count":       s.Counters.PersonsCount,
		"machines_count":      s.Counters.MachinesCount,
		"urls_count":          s.Counters.URLsCount,
		"persons_urls_count":  s.Counters.PersonsURLsCount,
		"machines_urls_count": s.Counters.MachinesURLsCount,
		"usages_count":        s.Counters.UsagesCount,
	}).Infoln("registry counters")
	return nil
}
