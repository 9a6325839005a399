package event

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		want string
		typ  Type
	}{
		{want: "ScanStarted", typ: ScanStarted},
		{want: "ScanComplete", typ: ScanComplete},
		{want: "WalkFailed", typ: WalkFailed},
		{want: "FileMatched", typ: FileMatched},
		{want: "FileCompleted", typ: FileCompleted},
		{want: "FileFailed", typ: FileFailed},
		{want: "DuplicateFound", typ: DuplicateFound},
		{want: "DuplicateResolved", typ: DuplicateResolved},
		{want: "DuplicateSkipped", typ: DuplicateSkipped},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestTypeStringUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", Type(999).String())
	assert.Equal(t, "Unknown", Type(0).String())
}

func TestEventZeroValue(t *testing.T) {
	var e Event
	assert.Equal(t, Type(0), e.Type)
	assert.True(t, e.Timestamp.IsZero())
	assert.Empty(t, e.Path)
	assert.Empty(t, e.Other)
	assert.Zero(t, e.Size)
	require.NoError(t, e.Error)
}

func TestEmit(t *testing.T) {
	ch := make(chan Event, 1)
	Emit(ch, Event{Type: FileFailed, Path: "a.jpg", Error: errors.New("boom")})

	got := <-ch
	assert.Equal(t, FileFailed, got.Type)
	assert.Equal(t, "a.jpg", got.Path)
	assert.WithinDuration(t, time.Now(), got.Timestamp, time.Second)
}

func TestEmitNeverBlocks(t *testing.T) {
	ch := make(chan Event, 1)
	Emit(ch, Event{Type: FileMatched})
	Emit(ch, Event{Type: FileMatched}) // buffer full, dropped
	Emit(nil, Event{Type: FileMatched})
	assert.Len(t, ch, 1)
}
