package journal

import (
	"github.com/goccy/go-json"

	"github.com/relabs-tech/fleet-registry/core/csql"
	"github.com/relabs-tech/fleet-registry/core/logger"
)

// PostgresWriter appends one row per mutation to an append-only
// registry_journal table, in the style of an append-only outbox table,
// built on csql.DB's schema-bootstrap helper.
type PostgresWriter struct {
	db *csql.DB
}

// MustNewPostgresWriter creates the registry_journal table if it does not
// exist yet and returns a Writer backed by it. It panics on failure, a
// fail-fast convention for schema bootstrap at startup.
func MustNewPostgresWriter(db *csql.DB) *PostgresWriter {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS ` + db.Schema + `."registry_journal" (
serial SERIAL,
at TIMESTAMP NOT NULL,
action VARCHAR NOT NULL,
person_guid VARCHAR NOT NULL,
machine_guid VARCHAR NOT NULL,
url VARCHAR NOT NULL,
extra JSON NOT NULL,
PRIMARY KEY(serial)
);`)
	if err != nil {
		panic(err)
	}
	return &PostgresWriter{db: db}
}

// Write implements Writer.
func (w *PostgresWriter) Write(r Record) error {
	extra := r.Extra
	if extra == nil {
		extra = map[string]interface{}{}
	}
	body, err := json.Marshal(extra)
	if err != nil {
		return err
	}
	_, err = w.db.Exec(
		`INSERT INTO `+w.db.Schema+`."registry_journal"(at,action,person_guid,machine_guid,url,extra)
VALUES($1,$2,$3,$4,$5,$6);`,
		r.At, r.Action, r.PersonGUID, r.MachineGUID, r.URL, string(body))
	if err != nil {
		logger.Default().WithError(err).Error("registry journal: write failed")
	}
	return err
}
