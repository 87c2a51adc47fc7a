package engineintegrationtests

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enginequeue "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/engine/infrastructure/queue"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/observability"
	"github.com/farraranalytics/MBB-Survivor-sub001/integration_tests/testutils"
)

func startQueue(t *testing.T, h *harness) *enginequeue.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	q, err := enginequeue.NewService(h.env.Ctx, h.env.DB, logger, h.env.DSN, enginequeue.Options{MaxWorkers: 2}, observability.NoOpMetrics{}, h.svc.Engine)
	require.NoError(t, err)
	require.NoError(t, q.Start(h.env.Ctx))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = q.Stop(ctx)
	})
	return q
}

func waitForFinal(t *testing.T, h *harness, index int) {
	t.Helper()
	g := h.b.Games[0][index]
	err := testutils.WaitFor(15*time.Second, 100*time.Millisecond, func() error {
		got, err := h.svc.BracketRepo.GetGame(h.env.Ctx, nil, g.ID)
		if err != nil {
			return err
		}
		if !got.IsFinal() {
			return errors.New("game not final yet")
		}
		return nil
	})
	require.NoError(t, err)
}

func TestQueue_FinalizesAndDeduplicates(t *testing.T) {
	h := newHarness(t, 4)
	q := startQueue(t, h)
	require.NoError(t, q.HealthCheck(h.env.Ctx))

	g := h.b.Games[0][0]
	s1, s2 := 66, 59
	job := enginequeue.FinalizeGameJob{GameID: g.ID, WinnerID: *g.Team1ID, Team1Score: &s1, Team2Score: &s2}

	inserted, err := q.EnqueueFinalize(h.env.Ctx, job)
	require.NoError(t, err)
	assert.True(t, inserted)

	waitForFinal(t, h, 0)

	inserted, err = q.EnqueueFinalize(h.env.Ctx, job)
	require.NoError(t, err)
	assert.False(t, inserted, "the same result is queued once")

	got, err := h.svc.BracketRepo.GetGame(h.env.Ctx, nil, g.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Team1Score)
	assert.Equal(t, 66, *got.Team1Score)

	jobs, err := q.ListJobs(h.env.Ctx, 10)
	require.NoError(t, err)
	var finalize []enginequeue.JobInfo
	for _, j := range jobs {
		if j.Kind == job.Kind() {
			finalize = append(finalize, j)
		}
	}
	require.Len(t, finalize, 1)
	assert.Equal(t, g.ID.String(), finalize[0].GameID)
}

func TestQueue_CancelsConflictingResult(t *testing.T) {
	h := newHarness(t, 4)
	q := startQueue(t, h)
	g := h.b.Games[0][0]

	_, err := h.svc.Engine.FinalizeGame(h.env.Ctx, g.ID, *g.Team1ID, nil)
	require.NoError(t, err)

	_, err = q.EnqueueFinalize(h.env.Ctx, enginequeue.FinalizeGameJob{GameID: g.ID, WinnerID: *g.Team2ID})
	require.NoError(t, err)

	err = testutils.WaitFor(15*time.Second, 100*time.Millisecond, func() error {
		jobs, err := q.ListJobs(h.env.Ctx, 10)
		if err != nil {
			return err
		}
		for _, j := range jobs {
			if j.Kind == (enginequeue.FinalizeGameJob{}).Kind() && j.State == "cancelled" {
				return nil
			}
		}
		return errors.New("job not cancelled yet")
	})
	require.NoError(t, err)

	got, err := h.svc.BracketRepo.GetGame(h.env.Ctx, nil, g.ID)
	require.NoError(t, err)
	assert.Equal(t, *g.Team1ID, *got.WinnerID, "the first result stands")
}
