//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"patchdesk/internal/audit"
	txcontext "patchdesk/pkg/platform/tx"
	"patchdesk/pkg/testutil/containers"
)

type AuditPostgresSuite struct {
	suite.Suite
	ctx   context.Context
	pg    *containers.PostgresContainer
	store *Store
}

func (s *AuditPostgresSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T(), Schema)
	s.store = New(s.pg.DB)
}

func (s *AuditPostgresSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "audit_events"))
}

func TestAuditPostgresSuite(t *testing.T) {
	suite.Run(t, new(AuditPostgresSuite))
}

func (s *AuditPostgresSuite) event(id string, ts time.Time) audit.Event {
	return audit.Event{
		EventID:        id,
		EventType:      audit.EventPatchSubmitted,
		ActorID:        "alice",
		ActorRole:      "analyst",
		Timestamp:      ts,
		PatchRequestID: "pr_1",
		BeforeValue:    "Draft",
		AfterValue:     "Submitted",
	}
}

func (s *AuditPostgresSuite) TestAppendAndList() {
	base := time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Append(s.ctx, s.event("evt_2", base.Add(time.Minute))))
	s.Require().NoError(s.store.Append(s.ctx, s.event("evt_1", base)))

	events, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal("evt_1", events[0].EventID)
	s.Equal("evt_2", events[1].EventID)
}

func (s *AuditPostgresSuite) TestTimestampTiesOrderBySequence() {
	ts := time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"evt_z", "evt_a", "evt_m"} {
		s.Require().NoError(s.store.Append(s.ctx, s.event(id, ts)))
	}

	events, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal("evt_z", events[0].EventID)
	s.Equal("evt_a", events[1].EventID)
	s.Equal("evt_m", events[2].EventID)
}

func (s *AuditPostgresSuite) TestMetadataRoundTrip() {
	event := s.event("evt_1", time.Now().UTC())
	event.Metadata = map[string]string{"source": "kiwi", "note": "returned"}
	s.Require().NoError(s.store.Append(s.ctx, event))

	events, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Equal(event.Metadata, events[0].Metadata)
}

func (s *AuditPostgresSuite) TestAppendHonorsTransactionRollback() {
	tx, err := s.pg.DB.BeginTx(s.ctx, &sql.TxOptions{})
	s.Require().NoError(err)

	ctx := txcontext.WithTx(s.ctx, tx)
	s.Require().NoError(s.store.Append(ctx, s.event("evt_tx", time.Now().UTC())))
	s.Require().NoError(tx.Rollback())

	events, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(events)
}
