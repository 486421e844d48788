package triggers

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	list, err := Defaults(1, 1)
	require.NoError(t, err)

	assert.Equal(t, []Trigger{
		{Name: "sync-posts", Schedule: "0 * * * *"},
		{Name: "prune-rows", Schedule: "0 1 * * *"},
	}, list)
}

func TestDefaultsWithCustomSchedule(t *testing.T) {
	tests := []struct {
		interval int
		hour     int
		sync     string
		prune    string
	}{
		{2, 0, "0 */2 * * *", "0 0 * * *"},
		{6, 23, "0 */6 * * *", "0 23 * * *"},
		{24, 4, "0 0 * * *", "0 4 * * *"},
	}

	for _, test := range tests {
		list, err := Defaults(test.interval, test.hour)
		require.NoError(t, err)
		assert.Equal(t, test.sync, list[0].Schedule)
		assert.Equal(t, test.prune, list[1].Schedule)
	}

	for _, v := range [][2]int{{0, 1}, {25, 1}, {1, -1}, {1, 24}} {
		_, err := Defaults(v[0], v[1])
		assert.Error(t, err, "%v", v)
	}
}

func TestCrontabRegistrar(t *testing.T) {
	crontab := NewCrontab("/usr/local/bin/uhppoted-app-wordpress")
	registrar := Registrar{
		Scheduler:         crontab,
		SyncIntervalHours: 1,
		PruneHourOfDay:    1,
	}

	_, err := registrar.Setup()
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, crontab.Write(&b))

	expected := `0 * * * * /usr/local/bin/uhppoted-app-wordpress sync-posts # uhppoted-app-wordpress:sync-posts
0 1 * * * /usr/local/bin/uhppoted-app-wordpress prune-rows # uhppoted-app-wordpress:prune-rows
`
	assert.Equal(t, expected, b.String())
}

func TestSystemCrontabRegistrar(t *testing.T) {
	existing := `0 * * * * /usr/local/bin/uhppoted-app-wordpress sync-posts # uhppoted-app-wordpress:sync-posts
`

	crontab, err := ReadCrontab(strings.NewReader(existing), "/usr/local/bin/uhppoted-app-wordpress")
	require.NoError(t, err)

	crontab.User = "root"

	_, err = Registrar{Scheduler: crontab, SyncIntervalHours: 1, PruneHourOfDay: 1}.Setup()
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, crontab.Write(&b))

	expected := `0 * * * * root /usr/local/bin/uhppoted-app-wordpress sync-posts # uhppoted-app-wordpress:sync-posts
0 1 * * * root /usr/local/bin/uhppoted-app-wordpress prune-rows # uhppoted-app-wordpress:prune-rows
`
	assert.Equal(t, expected, b.String())
	assert.Equal(t, []Trigger{
		{Name: "prune-rows", Schedule: "0 1 * * *"},
		{Name: "sync-posts", Schedule: "0 * * * *"},
	}, crontab.Triggers())
}

func TestCrontabRegistrationIsIdempotent(t *testing.T) {
	existing := `MAILTO=admin@example.com
30 2 * * * /usr/local/bin/backup
0 * * * * /usr/local/bin/uhppoted-app-wordpress sync-posts # uhppoted-app-wordpress:sync-posts
0 1 * * * /usr/local/bin/uhppoted-app-wordpress prune-rows # uhppoted-app-wordpress:prune-rows
`

	crontab, err := ReadCrontab(strings.NewReader(existing), "/usr/local/bin/uhppoted-app-wordpress")
	require.NoError(t, err)
	require.Len(t, crontab.Triggers(), 2)

	registrar := Registrar{Scheduler: crontab, SyncIntervalHours: 2, PruneHourOfDay: 3}

	for i := 0; i < 3; i++ {
		_, err := registrar.Setup()
		require.NoError(t, err)
	}

	var b strings.Builder
	require.NoError(t, crontab.Write(&b))

	expected := `MAILTO=admin@example.com
30 2 * * * /usr/local/bin/backup
0 */2 * * * /usr/local/bin/uhppoted-app-wordpress sync-posts # uhppoted-app-wordpress:sync-posts
0 3 * * * /usr/local/bin/uhppoted-app-wordpress prune-rows # uhppoted-app-wordpress:prune-rows
`
	assert.Equal(t, expected, b.String())
	assert.Equal(t, []Trigger{
		{Name: "prune-rows", Schedule: "0 3 * * *"},
		{Name: "sync-posts", Schedule: "0 */2 * * *"},
	}, crontab.Triggers())
}

func TestCrontabRejectsInvalidTrigger(t *testing.T) {
	crontab := NewCrontab("uhppoted-app-wordpress")

	assert.Error(t, crontab.Register(Trigger{Name: "", Schedule: "0 * * * *"}))
	assert.Error(t, crontab.Register(Trigger{Name: "sync-posts", Schedule: "@hourly"}))
}

func TestCronRegister(t *testing.T) {
	c := NewCron(time.UTC, map[string]Job{
		SyncPosts: func(ctx context.Context) error { return nil },
		PruneRows: func(ctx context.Context) error { return nil },
	}, nil, quiet())

	registrar := Registrar{Scheduler: c, SyncIntervalHours: 1, PruneHourOfDay: 1}

	_, err := registrar.Setup()
	require.NoError(t, err)

	_, err = registrar.Setup()
	require.NoError(t, err)

	assert.Len(t, c.cron.Entries(), 2, "re-registering should replace the existing entries")
	assert.Len(t, c.Triggers(), 2)

	c.Start()
	defer c.Stop(context.Background())

	next, ok := c.Next(PruneRows)
	require.True(t, ok)
	assert.Equal(t, 1, next.UTC().Hour())
	assert.Equal(t, 0, next.Minute())
}

func TestCronRegisterUnknownJob(t *testing.T) {
	c := NewCron(time.UTC, map[string]Job{}, nil, quiet())

	assert.Error(t, c.Register(Trigger{Name: SyncPosts, Schedule: "0 * * * *"}))
}

func TestCronRegisterInvalidSchedule(t *testing.T) {
	c := NewCron(time.UTC, map[string]Job{
		SyncPosts: func(ctx context.Context) error { return nil },
	}, nil, quiet())

	assert.Error(t, c.Register(Trigger{Name: SyncPosts, Schedule: "0 * * * 99"}))
	assert.Empty(t, c.Triggers())
}

func TestCronTrigger(t *testing.T) {
	runs := []Run{}
	failed := errors.New("failed")

	c := NewCron(time.UTC, map[string]Job{
		SyncPosts: func(ctx context.Context) error { return nil },
		PruneRows: func(ctx context.Context) error { return failed },
	}, func(run Run) { runs = append(runs, run) }, quiet())

	require.NoError(t, c.Trigger(SyncPosts))
	require.NoError(t, c.Trigger(PruneRows))
	assert.Error(t, c.Trigger("unknown"))

	require.Len(t, runs, 2)
	assert.Equal(t, SyncPosts, runs[0].Trigger)
	assert.NoError(t, runs[0].Err)
	assert.Equal(t, PruneRows, runs[1].Trigger)
	assert.ErrorIs(t, runs[1].Err, failed)
	assert.False(t, runs[1].Finished.Before(runs[1].Started))
}

func quiet() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}
