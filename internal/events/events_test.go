package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "tether.relationship.accepted", Subject("relationship.accepted"))
	assert.Equal(t, "tether.milestone.completed", Subject(" Milestone.Completed "))
}

func TestBuildMsg(t *testing.T) {
	event := NewEvent("term.agreed", 3, 11, 7)
	event.Data = map[string]any{"status": "agreed"}

	msg, err := buildMsg(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, "tether.term.agreed", msg.Subject)
	assert.Equal(t, event.ID, msg.Header.Get(nats.MsgIdHdr))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, uint(3), decoded.RelationshipID)
	assert.Equal(t, uint(11), decoded.EntityID)
	assert.Equal(t, uint(7), decoded.ActorID)
	assert.Equal(t, "agreed", decoded.Data["status"])
}

func TestBuildMsg_FillsMissingIdentity(t *testing.T) {
	msg, err := buildMsg(context.Background(), Event{Type: "certificate.revoked"})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.Header.Get(nats.MsgIdHdr))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.False(t, decoded.OccurredAt.IsZero())
}

func TestBuildMsg_RequiresType(t *testing.T) {
	_, err := buildMsg(context.Background(), Event{})
	assert.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), NewEvent("relationship.proposed", 1, 1, 1)))
	assert.NoError(t, p.Close())
}
