package status

import (
	"testing"

	"github.com/pkg/errors"
)

func TestPoolCompute(t *testing.T) {
	tests := []struct {
		name     string
		slots    map[string]Status
		wantKind Kind
		wantMsg  string
	}{
		{
			name:     "empty pool waits, active is earned",
			slots:    nil,
			wantKind: Waiting,
			wantMsg:  "no status reported yet",
		},
		{
			name: "all unknown slots wait too",
			slots: map[string]Status{
				"database": {Kind: Unknown},
				"amqp":     {Kind: Unknown},
			},
			wantKind: Waiting,
			wantMsg:  "no status reported yet",
		},
		{
			name: "all active stays active",
			slots: map[string]Status{
				"database": {Kind: Active},
				"amqp":     {Kind: Active},
			},
			wantKind: Active,
		},
		{
			name: "waiting beats active",
			slots: map[string]Status{
				"database": {Kind: Active},
				"amqp":     {Kind: Waiting, Message: "integration incomplete"},
			},
			wantKind: Waiting,
			wantMsg:  "(amqp) integration incomplete",
		},
		{
			name: "blocked beats waiting",
			slots: map[string]Status{
				"database": {Kind: Blocked, Message: "integration missing"},
				"amqp":     {Kind: Waiting, Message: "integration incomplete"},
			},
			wantKind: Blocked,
			wantMsg:  "(database) integration missing",
		},
		{
			name: "unknown slots are skipped",
			slots: map[string]Status{
				"database": {Kind: Unknown},
				"amqp":     {Kind: Active},
			},
			wantKind: Active,
		},
		{
			name: "deterministic pick on equal priority",
			slots: map[string]Status{
				"zeta":  {Kind: Waiting, Message: "late"},
				"alpha": {Kind: Waiting, Message: "early"},
			},
			wantKind: Waiting,
			wantMsg:  "(alpha) early",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPool()
			for name, s := range tt.slots {
				p.Set(name, s)
			}
			got := p.Compute()
			if got.Kind != tt.wantKind {
				t.Errorf("Compute() kind = %s, want %s", got.Kind, tt.wantKind)
			}
			if tt.wantMsg != "" && got.Message != tt.wantMsg {
				t.Errorf("Compute() message = %q, want %q", got.Message, tt.wantMsg)
			}
		})
	}
}

func TestPoolSetReplaces(t *testing.T) {
	p := NewPool()
	p.Set("database", Status{Kind: Waiting, Message: "integration incomplete"})
	p.Set("database", Status{Kind: Active})

	if got := p.Compute(); got.Kind != Active {
		t.Errorf("Compute() kind = %s, want %s", got.Kind, Active)
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind Kind
		wantOk   bool
	}{
		{
			name:     "waiting error",
			err:      ErrWaiting("not yet"),
			wantKind: Waiting,
			wantOk:   true,
		},
		{
			name:     "blocked error",
			err:      ErrBlocked("fix the config"),
			wantKind: Blocked,
			wantOk:   true,
		},
		{
			name:     "wrapped status error",
			err:      errors.Wrap(ErrMaintenance("migrating"), "pass failed"),
			wantKind: Maintenance,
			wantOk:   true,
		},
		{
			name:   "plain error",
			err:    errors.New("boom"),
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := FromError(tt.err)
			if ok != tt.wantOk {
				t.Fatalf("FromError() ok = %v, want %v", ok, tt.wantOk)
			}
			if ok && s.Kind != tt.wantKind {
				t.Errorf("FromError() kind = %s, want %s", s.Kind, tt.wantKind)
			}
		})
	}
}
