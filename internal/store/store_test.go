package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viviztech/voterapp/constants"
	"github.com/viviztech/voterapp/internal/common"
	"github.com/viviztech/voterapp/internal/entity"
	"github.com/viviztech/voterapp/internal/llm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	st, err := Open(ctx, common.DatabaseConfig{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	require.NoError(t, st.Provision(ctx))
	return st
}

func TestEnsureDefaultStationIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first, err := st.EnsureDefaultStation(ctx)
	require.NoError(t, err)
	require.NotZero(t, first)

	second, err := st.EnsureDefaultStation(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var n int
	require.NoError(t, st.DB().QueryRow(
		`SELECT COUNT(*) FROM polling_stations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestInsertVotersDeduplicatesByEpic(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	stationID, err := st.EnsureDefaultStation(ctx)
	require.NoError(t, err)

	batch := []llm.Record{
		{"epic_number": "EPIC1", "name": "First", "age": "34", "gender": "Male"},
		{"epic_number": "EPIC2", "name": "Second", "age": float64(29), "gender": "Female"},
	}
	inserted, skipped, err := st.InsertVoters(ctx, batch, stationID)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Equal(t, 0, skipped)

	// same epic again, different page: skipped, batch continues
	rerun := []llm.Record{
		{"epic_number": "EPIC1", "name": "First again"},
		{"epic_number": "EPIC3", "name": "Third"},
	}
	inserted, skipped, err = st.InsertVoters(ctx, rerun, stationID)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, skipped)

	voters, err := st.AllVoters(ctx)
	require.NoError(t, err)
	require.Len(t, voters, 3)
	// the duplicate must not have overwritten the original row
	assert.Equal(t, "First", voters[0].Name)
	assert.Equal(t, 34, voters[0].Age)
}

func TestInsertVotersEmptyEpicNeverDeduplicates(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	stationID, err := st.EnsureDefaultStation(ctx)
	require.NoError(t, err)

	batch := []llm.Record{
		{"name": "No Epic A"},
		{"epic_number": "", "name": "No Epic B"},
		{"epic_number": "  ", "name": "No Epic C"},
	}
	inserted, skipped, err := st.InsertVoters(ctx, batch, stationID)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)
	assert.Equal(t, 0, skipped)
}

func TestInsertVotersCoercesFields(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	stationID, err := st.EnsureDefaultStation(ctx)
	require.NoError(t, err)

	batch := []llm.Record{
		{"epic_number": "EPIC9", "name": "Coerced", "age": "unknown", "house_number": float64(12)},
	}
	_, _, err = st.InsertVoters(ctx, batch, stationID)
	require.NoError(t, err)

	voters, err := st.AllVoters(ctx)
	require.NoError(t, err)
	require.Len(t, voters, 1)
	assert.Equal(t, 0, voters[0].Age)
	assert.Equal(t, "12", voters[0].HouseNumber)
	assert.Contains(t, voters[0].RawText, "unknown")
}

func TestAppendPageLogIsAppendOnly(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.AppendPageLog(ctx, entity.PageLog{
		PageNumber: 3, Status: string(constants.PageStatusFailed), ErrorMessage: "OCR failed",
	}))
	require.NoError(t, st.AppendPageLog(ctx, entity.PageLog{
		PageNumber: 3, Status: string(constants.PageStatusCompleted), InsertedCount: 12, SkippedCount: 2,
	}))

	logs, err := st.PageLogs(ctx, 3)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, string(constants.PageStatusFailed), logs[0].Status)
	assert.Equal(t, "OCR failed", logs[0].ErrorMessage)
	assert.Equal(t, string(constants.PageStatusCompleted), logs[1].Status)
	assert.Equal(t, 12, logs[1].InsertedCount)
	assert.Equal(t, 2, logs[1].SkippedCount)
	assert.False(t, logs[1].ProcessedAt.IsZero())
}

func TestFailedPagesReportsLatestStatus(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// page 4 failed then recovered on a rerun; page 7 is still failed
	require.NoError(t, st.AppendPageLog(ctx, entity.PageLog{PageNumber: 4, Status: string(constants.PageStatusFailed)}))
	require.NoError(t, st.AppendPageLog(ctx, entity.PageLog{PageNumber: 7, Status: string(constants.PageStatusFailed)}))
	require.NoError(t, st.AppendPageLog(ctx, entity.PageLog{PageNumber: 4, Status: string(constants.PageStatusCompleted)}))

	pages, err := st.FailedPages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, pages)
}

func TestSummarizeAggregates(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	stationID, err := st.EnsureDefaultStation(ctx)
	require.NoError(t, err)

	batch := []llm.Record{
		{"epic_number": "S1", "age": "22", "gender": "Male"},
		{"epic_number": "S2", "age": "26", "gender": "Female"},
		{"epic_number": "S3", "age": "60", "gender": "Male"},
	}
	_, _, err = st.InsertVoters(ctx, batch, stationID)
	require.NoError(t, err)

	sum, err := st.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.TotalVoters)
	assert.Equal(t, 22, sum.MinAge)
	assert.Equal(t, 60, sum.MaxAge)
	assert.Equal(t, 2, sum.YouthCount)
	assert.InDelta(t, 24.0, sum.YouthAvgAge, 0.01)
	assert.Equal(t, 1, sum.YouthMale)
	assert.Equal(t, 1, sum.YouthFemale)
	require.Len(t, sum.PerStation, 1)
	assert.Equal(t, stationID, sum.PerStation[0].StationID)
	assert.Equal(t, 3, sum.PerStation[0].Count)
}

func TestSummarizeEmptyRoll(t *testing.T) {
	st := newTestStore(t)

	sum, err := st.Summarize(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.TotalVoters)
	assert.Zero(t, sum.YouthCount)
}
