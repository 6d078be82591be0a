package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get("habitflow_habits")
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.Set("habitflow_habits", "[]"))
	value, err := store.Get("habitflow_habits")
	require.NoError(t, err)
	assert.Equal(t, "[]", value)

	require.NoError(t, store.Set("habitflow_habits", `[{"id":1}]`))
	value, err = store.Get("habitflow_habits")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, value)
}

func TestCompletionIndexMembership(t *testing.T) {
	idx := CompletionIndex{}

	idx.Add("2024-05-01", 1)
	idx.Add("2024-05-01", 1)
	idx.Add("2024-05-01", 2)
	assert.Equal(t, []int{1, 2}, idx["2024-05-01"])

	idx.Remove("2024-05-01", 1)
	assert.Equal(t, []int{2}, idx["2024-05-01"])

	// 移除不存在的成员与日期均为无操作
	idx.Remove("2024-05-01", 9)
	idx.Remove("2024-06-01", 1)
	assert.Equal(t, []int{2}, idx["2024-05-01"])

	idx.Remove("2024-05-01", 2)
	_, ok := idx["2024-05-01"]
	assert.False(t, ok, "emptied bucket should be dropped")
}

func TestValidDayKey(t *testing.T) {
	assert.True(t, ValidDayKey("2024-05-03"))
	assert.True(t, ValidDayKey("2024-12-31"))

	// 非规范形式一律拒绝
	assert.False(t, ValidDayKey(""))
	assert.False(t, ValidDayKey("x"))
	assert.False(t, ValidDayKey("not-a-date"))
	assert.False(t, ValidDayKey("2024-5-3"))
	assert.False(t, ValidDayKey("2024-13-01"))
	assert.False(t, ValidDayKey("2024-05-03T00:00:00Z"))
}

func TestCompletionIndexPurge(t *testing.T) {
	idx := CompletionIndex{
		"2024-05-01": {1, 2},
		"2024-05-02": {2},
		"2024-05-03": {1},
	}

	idx.Purge(2)

	assert.Equal(t, []int{1}, idx["2024-05-01"])
	assert.Equal(t, []int{1}, idx["2024-05-03"])
	_, ok := idx["2024-05-02"]
	assert.False(t, ok)
}
