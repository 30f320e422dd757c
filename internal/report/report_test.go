package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/signalsfoundry/rf-heatmap/internal/logging"
)

func TestWriterAppendsNewlines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Log("first")
	w.Log("second")
	if buf.String() != "first\nsecond\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRecorderLimit(t *testing.T) {
	r := &Recorder{Limit: 2}
	for _, l := range []string{"a", "b", "c"} {
		r.Log(l)
	}
	if got := r.Lines(); len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("Lines() = %q", got)
	}
	r.Reset()
	if len(r.Lines()) != 0 {
		t.Fatalf("Reset should drop lines")
	}
}

func TestMultiSkipsNil(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	m := Multi(a, nil, b)
	m.Log("hello")
	if len(a.Lines()) != 1 || len(b.Lines()) != 1 {
		t.Fatalf("fan-out failed: %q %q", a.Lines(), b.Lines())
	}
}

func TestLoggerReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogger(logging.New(logging.Config{Format: "json", Output: &buf}))
	r.Log("")
	if buf.Len() != 0 {
		t.Fatalf("blank lines should be skipped")
	}
	r.Log("Total points: 400")
	if !strings.Contains(buf.String(), `"line":"Total points: 400"`) {
		t.Fatalf("unexpected log output %q", buf.String())
	}
}

type fakePublisher struct {
	channel  string
	messages []interface{}
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.messages = append(f.messages, message)
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisReporterPublishes(t *testing.T) {
	pub := &fakePublisher{}
	r := NewRedis(pub, "", nil)
	r.Log("Found: Tower_1 at (0.0, 0.0, 0.0)")
	if pub.channel != DefaultChannel || len(pub.messages) != 1 {
		t.Fatalf("publish not recorded: %+v", pub)
	}
	if pub.messages[0] != "Found: Tower_1 at (0.0, 0.0, 0.0)" {
		t.Fatalf("unexpected message %v", pub.messages[0])
	}
}

func TestRedisReporterSwallowsErrors(t *testing.T) {
	var buf bytes.Buffer
	pub := &fakePublisher{err: errors.New("connection refused")}
	r := NewRedis(pub, "passes", logging.New(logging.Config{Output: &buf}))
	r.Log("line")
	if !strings.Contains(buf.String(), "connection refused") {
		t.Fatalf("expected publish failure to be logged, got %q", buf.String())
	}
}
