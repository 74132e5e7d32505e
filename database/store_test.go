package database

import (
	"context"
	"errors"
	"testing"

	"musicbingo/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() models.Table {
	return models.Table{
		"ABC123": {
			Playlist: []string{"Song A - Artist", "Song B - Artist"},
			Players: []models.Player{{
				Name:        "Ana",
				Card:        models.Card{{{Track: "Song A - Artist"}, {Track: models.FreeTrack, Marked: true}}},
				MarkedCount: 1,
			}},
			Status: models.StatusInProgress,
		},
	}
}

func TestDecodeTable(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		codes []string
	}{
		{"empty body", "", nil},
		{"whitespace", "  \n", nil},
		{"json null", "null", nil},
		{"empty object", "{}", nil},
		{"null entry dropped", `{"AAAAAA": null, "BBBBBB": {"playlist": [], "players": [], "status": "IN_PROGRESS"}}`, []string{"BBBBBB"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := decodeTable([]byte(tt.body))
			require.NoError(t, err)
			require.NotNil(t, table)
			assert.Len(t, table, len(tt.codes))
			for _, code := range tt.codes {
				assert.Contains(t, table, code)
			}
		})
	}

	t.Run("malformed", func(t *testing.T) {
		_, err := decodeTable([]byte("{not json"))
		assert.Error(t, err)
	})
}

func TestEncodeTableRoundTrip(t *testing.T) {
	body, err := encodeTable(sampleTable())
	require.NoError(t, err)
	assert.Contains(t, string(body), `"markedCount":1`)
	assert.Contains(t, string(body), `"status":"IN_PROGRESS"`)

	table, err := decodeTable(body)
	require.NoError(t, err)
	assert.Equal(t, sampleTable(), table)

	body, err = encodeTable(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(body))
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection refused")
	err := saveError(cause)

	assert.True(t, IsStoreError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "session store save")
	assert.False(t, IsStoreError(cause))
	assert.False(t, IsStoreError(nil))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	t.Run("empty on first load", func(t *testing.T) {
		table, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, table)
	})

	t.Run("save then load copies", func(t *testing.T) {
		in := sampleTable()
		require.NoError(t, s.Save(ctx, in))

		// 保存後に呼び出し側の値を書き換えてもストアには影響しない
		in["ABC123"].Players[0].Card[0][0].Marked = true

		out, err := s.Load(ctx)
		require.NoError(t, err)
		assert.False(t, out["ABC123"].Players[0].Card[0][0].Marked)

		out["ABC123"].Status = models.StatusFinished
		again, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInProgress, again["ABC123"].Status)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Load(cctx)
		assert.True(t, IsStoreError(err))
		assert.True(t, IsStoreError(s.Save(cctx, models.Table{})))
	})
}
