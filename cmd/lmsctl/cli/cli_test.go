package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/bootstrap"
	"github.com/ChandrashakerVarma/LMS-sub000/jobs"
)

type stubSeeder struct {
	run    bootstrap.Report
	runErr error
	verify bootstrap.Report
	verErr error
}

func (s stubSeeder) Run(context.Context) (bootstrap.Report, error)    { return s.run, s.runErr }
func (s stubSeeder) Verify(context.Context) (bootstrap.Report, error) { return s.verify, s.verErr }

func buffers() (*bytes.Buffer, *bytes.Buffer, BootstrapOptions) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	return stdout, stderr, BootstrapOptions{Stdout: stdout, Stderr: stderr}
}

func TestNewBootstrapCLIRequiresSeeder(t *testing.T) {
	_, err := NewBootstrapCLI(nil)
	assert.Error(t, err)
}

func TestVerifyCommandInSync(t *testing.T) {
	cli, err := NewBootstrapCLI(stubSeeder{verify: bootstrap.Report{StoredHash: "abc", CompiledHash: "abc"}})
	require.NoError(t, err)

	stdout, stderr, opts := buffers()
	code := cli.VerifyCommand(context.Background(), opts)
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, stdout.String(), "catalog in sync")
	assert.Empty(t, stderr.String())
}

func TestVerifyCommandJSONDrift(t *testing.T) {
	report := bootstrap.Report{Drift: true, CompiledHash: "abc", MissingMenus: []int64{3}}
	cli, err := NewBootstrapCLI(stubSeeder{verify: report})
	require.NoError(t, err)

	stdout, _, opts := buffers()
	opts.JSONOutput = true
	code := cli.VerifyCommand(context.Background(), opts)
	assert.Equal(t, ExitDrift, code)

	var got bootstrap.Report
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, report, got)
}

func TestVerifyCommandMissingMenusOnly(t *testing.T) {
	cli, err := NewBootstrapCLI(stubSeeder{verify: bootstrap.Report{StoredHash: "abc", CompiledHash: "abc", MissingMenus: []int64{40}}})
	require.NoError(t, err)

	stdout, _, opts := buffers()
	assert.Equal(t, ExitDrift, cli.VerifyCommand(context.Background(), opts))
	assert.Contains(t, stdout.String(), "missing menus: [40]")
	assert.Contains(t, stdout.String(), "catalog drift detected")
}

func TestVerifyCommandStoreFailure(t *testing.T) {
	cli, err := NewBootstrapCLI(stubSeeder{verErr: errors.New("connection refused")})
	require.NoError(t, err)

	_, stderr, opts := buffers()
	assert.Equal(t, ExitError, cli.VerifyCommand(context.Background(), opts))
	assert.Contains(t, stderr.String(), "connection refused")
}

func TestSeedCommand(t *testing.T) {
	cli, err := NewBootstrapCLI(stubSeeder{run: bootstrap.Report{RolesCreated: 5, MenusCreated: 18, RightsChanged: 20, CompiledHash: "abc"}})
	require.NoError(t, err)

	stdout, _, opts := buffers()
	assert.Equal(t, ExitOK, cli.SeedCommand(context.Background(), opts))
	assert.Contains(t, stdout.String(), "menus created:  18")
}

func TestSeedCommandStrictDrift(t *testing.T) {
	cli, err := NewBootstrapCLI(stubSeeder{runErr: fmt.Errorf("%w: stored a, compiled b", bootstrap.ErrDrift)})
	require.NoError(t, err)

	_, stderr, opts := buffers()
	assert.Equal(t, ExitDrift, cli.SeedCommand(context.Background(), opts))
	assert.Contains(t, stderr.String(), "catalog drift")
}

type stubIssuer struct{ err error }

func (s stubIssuer) Issue(userID int64) (string, time.Time, error) {
	return fmt.Sprintf("token-%d", userID), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), s.err
}

func TestTokenCommand(t *testing.T) {
	stdout, _, opts := buffers()
	code := TokenCommand(stubIssuer{}, TokenOptions{UserID: 7, BootstrapOptions: opts})
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "token-7", strings.TrimSpace(stdout.String()))

	stdout, _, opts = buffers()
	opts.JSONOutput = true
	require.Equal(t, ExitOK, TokenCommand(stubIssuer{}, TokenOptions{UserID: 7, BootstrapOptions: opts}))
	assert.JSONEq(t, `{"token":"token-7","expires_at":"2026-01-01T00:00:00Z"}`, stdout.String())
}

func TestTokenCommandRejectsBadInput(t *testing.T) {
	_, stderr, opts := buffers()
	assert.Equal(t, ExitError, TokenCommand(stubIssuer{}, TokenOptions{UserID: 0, BootstrapOptions: opts}))
	assert.Contains(t, stderr.String(), "-user")

	_, stderr, opts = buffers()
	assert.Equal(t, ExitError, TokenCommand(stubIssuer{err: errors.New("no secret")}, TokenOptions{UserID: 1, BootstrapOptions: opts}))
	assert.Contains(t, stderr.String(), "no secret")
}

type stubEnqueuer struct {
	drift  int
	reseed []jobs.ReseedPayload
}

func (s *stubEnqueuer) EnqueueDriftCheck(context.Context) (*asynq.TaskInfo, error) {
	s.drift++
	return &asynq.TaskInfo{ID: "d1", Type: jobs.TaskDriftCheck}, nil
}

func (s *stubEnqueuer) EnqueueReseed(_ context.Context, p jobs.ReseedPayload) (*asynq.TaskInfo, error) {
	s.reseed = append(s.reseed, p)
	return &asynq.TaskInfo{ID: "r1", Type: jobs.TaskReseed}, nil
}

type stubInspector struct{ info *asynq.QueueInfo }

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, nil }

func TestJobsTrigger(t *testing.T) {
	enq := &stubEnqueuer{}
	cli := NewJobsCLI(enq, nil)

	info, err := cli.Trigger(context.Background(), "drift_check", "ops")
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskDriftCheck, info.Type)

	_, err = cli.Trigger(context.Background(), jobs.TaskReseed, "ops")
	require.NoError(t, err)
	assert.Equal(t, []jobs.ReseedPayload{{RequestedBy: "ops", Reason: "manual"}}, enq.reseed)

	_, err = cli.Trigger(context.Background(), "gl_integrity", "ops")
	assert.ErrorContains(t, err, "unsupported job")
}

func TestJobsInspectQueue(t *testing.T) {
	cli := NewJobsCLI(nil, stubInspector{info: &asynq.QueueInfo{Queue: jobs.QueueDefault, Pending: 2, Scheduled: 1}})
	stats, err := cli.InspectQueue()
	require.NoError(t, err)
	assert.Equal(t, jobs.QueueHealth{Queue: jobs.QueueDefault, Pending: 2, Scheduled: 1}, stats)

	_, err = NewJobsCLI(nil, nil).InspectQueue()
	assert.Error(t, err)
	_, err = NewJobsCLI(nil, nil).Trigger(context.Background(), "reseed", "")
	assert.Error(t, err)
}
