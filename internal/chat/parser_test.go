package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_WellFormedExport(t *testing.T) {
	raw := "1/1/24, 10:00 AM - Alice: need a ride to downtown tomorrow 9am, 2 seats\n" +
		"1/1/24, 10:05 AM - Bob: offering a ride from airport to downtown tomorrow morning, 3 seats\n" +
		"1/1/24, 10:07 AM - Carol: thanks everyone!\n"

	messages, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	assert.Equal(t, "Alice", messages[0].Sender)
	assert.Equal(t, "need a ride to downtown tomorrow 9am, 2 seats", messages[0].Text)
	assert.Equal(t, "Bob", messages[1].Sender)
	assert.Equal(t, "Carol", messages[2].Sender)

	for i, msg := range messages {
		assert.Equal(t, i, msg.Index)
	}

	want := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, want, messages[0].Timestamp)
	assert.True(t, messages[0].Timestamp.Before(messages[1].Timestamp))
}

func TestParse_BracketFormat(t *testing.T) {
	raw := "[01/01/24, 10:00:15] Alice: anyone going to the mall today?\n"

	messages, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "Alice", messages[0].Sender)
	assert.Equal(t, "anyone going to the mall today?", messages[0].Text)
}

func TestParse_MalformedInput(t *testing.T) {
	messages, err := Parse("garbage text")
	require.Error(t, err)
	assert.Nil(t, messages)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Line)
	assert.Contains(t, perr.Error(), "garbage text")
}

func TestParse_MalformedAfterBlankLines(t *testing.T) {
	// Blank lines are skipped but do not make later garbage valid.
	messages, err := Parse("\n\nnot a chat export\n")
	require.Error(t, err)
	assert.Nil(t, messages)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 3, perr.Line)
}

func TestParse_ContinuationLines(t *testing.T) {
	raw := "1/1/24, 10:00 AM - Alice: need a ride\n" +
		"to the airport\n" +
		"tomorrow 8am\n" +
		"1/1/24, 10:01 AM - Bob: I can take you\n"

	messages, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "need a ride\nto the airport\ntomorrow 8am", messages[0].Text)
	assert.Equal(t, "I can take you", messages[1].Text)
}

func TestParse_ServiceNoticesElided(t *testing.T) {
	raw := "1/1/24, 10:00 AM - Messages and calls are end-to-end encrypted\n" +
		"1/1/24, 10:01 AM - Alice: need a lift to campus tomorrow\n"

	messages, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "Alice", messages[0].Sender)
	assert.Equal(t, 0, messages[0].Index)
}

func TestParse_ServiceNoticeContinuationDropped(t *testing.T) {
	raw := "1/1/24, 10:00 AM - Alice: need a lift\n" +
		"1/1/24, 10:01 AM - You created group \"Carpool\"\n" +
		"extra notice text\n"

	messages, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "need a lift", messages[0].Text)
}

func TestParse_MediaOmitted(t *testing.T) {
	raw := "1/1/24, 10:00 AM - Alice: <Media omitted>\n" +
		"1/1/24, 10:01 AM - Bob: nice photo\n"

	messages, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "Bob", messages[0].Sender)
}

func TestParse_EmptyInput(t *testing.T) {
	messages, err := Parse("")
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestParse_NarrowNoBreakSpace(t *testing.T) {
	// Newer Android exports put U+202F before AM/PM.
	raw := "1/1/24, 10:00 AM - Alice: need a ride today\n"

	messages, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "Alice", messages[0].Sender)
}

func TestParse_24HourTimestamp(t *testing.T) {
	raw := "1/1/2024, 22:15 - Alice: anyone going downtown tonight?\n"

	messages, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, 22, messages[0].Timestamp.Hour())
}
