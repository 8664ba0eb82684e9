package output

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/rpc-checker/pkg/types"
)

type fakeOutput struct {
	name     string
	startErr error
	stopErr  error
	started  bool
	stopped  bool
	report   *types.RunReport
}

func (f *fakeOutput) Description() string           { return f.name }
func (f *fakeOutput) Start() error                  { f.started = true; return f.startErr }
func (f *fakeOutput) SetReport(r *types.RunReport) { f.report = r }
func (f *fakeOutput) Stop() error                   { f.stopped = true; return f.stopErr }

type listeningOutput struct {
	fakeOutput
	started  []types.Method
	attempts int
	finished []types.Method
}

func (l *listeningOutput) MethodStarted(m types.Method, _ int) { l.started = append(l.started, m) }
func (l *listeningOutput) AttemptFinished(types.Method, int, types.AttemptResult) {
	l.attempts++
}
func (l *listeningOutput) MethodFinished(agg *types.MethodAggregate) {
	l.finished = append(l.finished, agg.Method)
}

func TestRegistry(t *testing.T) {
	Register("fake-test", func(p Params) (Output, error) {
		return &fakeOutput{name: p.OutputType + ":" + p.ConfigArgument}, nil
	})

	assert.Contains(t, List(), "fake-test")

	out, err := Create("fake-test", Params{ConfigArgument: "x"})
	require.NoError(t, err)
	assert.Equal(t, "fake-test:x", out.Description())

	_, err = Create("missing", Params{})
	var unknown *UnknownOutputError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.Type)
}

func TestManager_Lifecycle(t *testing.T) {
	plain := &fakeOutput{name: "plain"}
	listener := &listeningOutput{fakeOutput: fakeOutput{name: "listener"}}

	m := NewManager(plain, listener)
	require.NoError(t, m.Start())
	assert.True(t, plain.started)
	assert.True(t, listener.fakeOutput.started)

	m.MethodStarted(types.MethodGetSlot, 2)
	m.AttemptFinished(types.MethodGetSlot, 0, types.AttemptResult{})
	m.AttemptFinished(types.MethodGetSlot, 1, types.AttemptResult{})
	m.MethodFinished(&types.MethodAggregate{Method: types.MethodGetSlot})

	assert.Equal(t, []types.Method{types.MethodGetSlot}, listener.started)
	assert.Equal(t, 2, listener.attempts)
	assert.Equal(t, []types.Method{types.MethodGetSlot}, listener.finished)

	report := &types.RunReport{ID: "r1"}
	require.NoError(t, m.Finish(report))
	assert.Same(t, report, plain.report)
	assert.Same(t, report, listener.report)
	assert.True(t, plain.stopped)
	assert.True(t, listener.stopped)
}

func TestManager_StartFailureStopsStarted(t *testing.T) {
	first := &fakeOutput{name: "first"}
	broken := &fakeOutput{name: "broken", startErr: errors.New("disk full")}
	never := &fakeOutput{name: "never"}

	m := NewManager(first, broken, never)
	err := m.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	assert.True(t, first.stopped)
	assert.False(t, never.started)

	// 启动失败后 Finish 不再停止任何输出
	first.stopped = false
	require.NoError(t, m.Finish(&types.RunReport{}))
	assert.False(t, first.stopped)
}

func TestManager_FinishAborted(t *testing.T) {
	out := &fakeOutput{name: "out", stopErr: errors.New("boom")}
	m := NewManager(out)
	require.NoError(t, m.Start())

	err := m.Finish(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Nil(t, out.report)
	assert.True(t, out.stopped)
}
