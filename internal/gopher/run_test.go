package gopher

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"cmon/internal/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	name    string
	records []record.Record
	err     error
}

func (m *fakeModel) Name() string        { return m.name }
func (m *fakeModel) Description() string { return "fake " + m.name }
func (m *fakeModel) Columns() []string   { return []string{"id", "v"} }

func (m *fakeModel) Fetch(ctx context.Context, env *Env, w *record.Writer) error {
	for _, r := range m.records {
		if err := w.Emit("s1", r); err != nil {
			return err
		}
	}
	return m.err
}

func testEnv() *Env {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	return &Env{Now: func() time.Time { return ts }}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeModel{name: "b.x"}))
	require.NoError(t, r.Register(&fakeModel{name: "a.x"}))
	assert.EqualError(t, r.Register(&fakeModel{name: "a.x"}), "model 'a.x' already registered")
	assert.Equal(t, []string{"a.x", "b.x"}, r.Names())
	assert.Panics(t, func() { r.MustRegister(&fakeModel{name: "b.x"}) })

	_, err := r.Get("c.x")
	assert.EqualError(t, err, "no model found for 'c.x'")
}

func TestRun(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&fakeModel{name: "one.x", records: []record.Record{
		{"id": "a", "v": "1"},
		{"id": "b"},
	}})
	r.MustRegister(&fakeModel{name: "two.x"})

	var out bytes.Buffer
	err := Run(context.Background(), r, testEnv(), []string{"one.x", "two.x"}, &out, nil)
	require.NoError(t, err)

	ts := "2024-05-01T12:00:00.000000"
	assert.Equal(t,
		"#!begin gopher one.x # at "+ts+"\nid\tv\n"+
			"\n#!section s1\n"+
			"\"a\"\t\"1\"\n"+
			"\"b\"\t\"\"\n"+
			"\n#!end gopher one.x # at "+ts+"\n"+
			"#!begin gopher two.x # at "+ts+"\nid\tv\n"+
			"\n#!end gopher two.x # at "+ts+"\n",
		out.String())
}

func TestRunUnknownModel(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&fakeModel{name: "one.x"})

	var out bytes.Buffer
	err := Run(context.Background(), r, testEnv(), []string{"one.x", "nope.x"}, &out, nil)
	assert.EqualError(t, err, "no model found for 'nope.x'")
	assert.Empty(t, out.String())
}

func TestRunStopsOnError(t *testing.T) {
	failed := errors.New("describe failed")
	r := NewRegistry()
	r.MustRegister(&fakeModel{name: "one.x", records: []record.Record{{"id": "a"}}, err: failed})
	r.MustRegister(&fakeModel{name: "two.x"})

	var out bytes.Buffer
	err := Run(context.Background(), r, testEnv(), []string{"one.x", "two.x"}, &out, nil)
	assert.ErrorIs(t, err, failed)
	assert.Contains(t, out.String(), "#!begin gopher one.x")
	assert.NotContains(t, out.String(), "#!end")
	assert.NotContains(t, out.String(), "two.x")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRegistry()
	r.MustRegister(&fakeModel{name: "one.x"})

	var out bytes.Buffer
	err := Run(ctx, r, testEnv(), []string{"one.x"}, &out, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, out.String(), "#!end")
}

func TestRunStampsBeginBeforeFetch(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	calls := 0
	env := &Env{Now: func() time.Time {
		calls++
		return start.Add(time.Duration(calls-1) * time.Minute)
	}}
	r := NewRegistry()
	r.MustRegister(&fakeModel{name: "slow.x"})

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), r, env, []string{"slow.x"}, &out, nil))
	assert.Equal(t, "#!begin gopher slow.x # at 2024-05-01T12:00:00.000000\nid\tv\n"+
		"\n#!end gopher slow.x # at 2024-05-01T12:01:00.000000\n", out.String())
}
