package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	id "custody/pkg/domain"
	audit "custody/pkg/platform/audit"
)

type recordingProducer struct {
	records []*kgo.Record
	err     error
	closed  bool
}

func (p *recordingProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	p.records = append(p.records, rs...)
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		results = append(results, kgo.ProduceResult{Record: r, Err: p.err})
	}
	return results
}

func (p *recordingProducer) Close() { p.closed = true }

func TestAuditSinkAppend(t *testing.T) {
	producer := &recordingProducer{}
	sink := newAuditSink(producer, "custody.audit")

	actor := id.Identity{0xA1}
	event := audit.Event{
		Action: audit.EventDeposited,
		Actor:  actor,
		Asset:  "native",
		Amount: 900,
	}.Normalize(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, sink.Append(context.Background(), event))
	require.Len(t, producer.records, 1)

	record := producer.records[0]
	assert.Equal(t, "custody.audit", record.Topic)
	assert.Equal(t, actor.String(), string(record.Key))

	var decoded audit.Event
	require.NoError(t, json.Unmarshal(record.Value, &decoded))
	assert.Equal(t, event.Action, decoded.Action)
	assert.Equal(t, actor, decoded.Actor)
	assert.Equal(t, uint64(900), decoded.Amount)
	assert.Equal(t, audit.CategoryCompliance, decoded.Category)
	assert.NotContains(t, string(record.Value), "counterparty")
}

func TestAuditSinkProduceError(t *testing.T) {
	producer := &recordingProducer{err: errors.New("broker down")}
	sink := newAuditSink(producer, "custody.audit")

	err := sink.Append(context.Background(), audit.Event{Action: audit.EventWithdrawn, Actor: id.Identity{0x01}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")

	sink.Close()
	assert.True(t, producer.closed)
}

func TestNewAuditSinkRequiresBrokers(t *testing.T) {
	_, err := NewAuditSink(context.Background(), nil, "custody.audit")
	assert.Error(t, err)
}
