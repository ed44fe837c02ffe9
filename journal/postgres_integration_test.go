//go:build integration

package journal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/relabs-tech/fleet-registry/core/csql"
)

// PostgresJournalSuite spins up a throwaway Postgres container and drives
// PostgresWriter against it, mirroring the container-lifecycle pattern used
// for Postgres-backed collections elsewhere in this codebase.
type PostgresJournalSuite struct {
	suite.Suite
	container testcontainers.Container
	db        *csql.DB
	writer    *PostgresWriter
}

func (s *PostgresJournalSuite) SetupSuite() {
	ctx := context.Background()

	user, password, dbname := "testuser", "testpass", "testdb"
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     user,
			"POSTGRES_PASSWORD": password,
			"POSTGRES_DB":       dbname,
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	s.Require().NoError(err)
	s.container = c

	host, err := c.Host(ctx)
	s.Require().NoError(err)
	port, err := c.MappedPort(ctx, "5432")
	s.Require().NoError(err)

	s.db = csql.OpenWithSchema(fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
		host, port.Port(), user, dbname), password, "registry")
	s.writer = MustNewPostgresWriter(s.db)
}

func (s *PostgresJournalSuite) TearDownSuite() {
	if s.db != nil {
		s.db.ClearSchema()
		s.db.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

func (s *PostgresJournalSuite) TestWriteInsertsRow() {
	rec := Record{
		At:          time.Unix(1_700_000_000, 0).UTC(),
		Action:      "access",
		PersonGUID:  "550e8400-e29b-41d4-a716-446655440000",
		MachineGUID: "M1",
		URL:         "http://a/",
		Extra:       map[string]interface{}{"name": "alpha"},
	}
	s.Require().NoError(s.writer.Write(rec))

	var count int
	row := s.db.QueryRow(`select count(*) from `+s.db.Schema+`."registry_journal" where person_guid = $1 and action = $2`,
		rec.PersonGUID, rec.Action)
	s.Require().NoError(row.Scan(&count))
	s.Equal(1, count)
}

func TestPostgresJournalSuite(t *testing.T) {
	suite.Run(t, new(PostgresJournalSuite))
}
