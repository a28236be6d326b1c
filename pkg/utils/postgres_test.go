package utils

import (
	"context"
	"testing"
	"time"
)

func TestPostgresPoolDefaults(t *testing.T) {
	p := PostgresPoolConfig{MaxOpenConns: 3}.withDefaults()
	if p.MaxOpenConns != 3 {
		t.Fatalf("explicit value must be kept, got %d", p.MaxOpenConns)
	}
	if p.MaxIdleConns != 3 {
		t.Fatalf("idle conns must be capped by open conns, got %d", p.MaxIdleConns)
	}
	if p.ConnMaxLifetime != 30*time.Minute || p.PingTimeout != 5*time.Second {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}

func TestSplitStatements(t *testing.T) {
	got := SplitStatements(`
CREATE TABLE a (id INT);

CREATE INDEX a_idx ON a (id);
;`)
	if len(got) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (id INT)" {
		t.Fatalf("unexpected first statement: %q", got[0])
	}
	if len(SplitStatements("  ;  ")) != 0 {
		t.Fatalf("blank script must yield no statements")
	}
}

func TestApplySchema_EmptyIsNoop(t *testing.T) {
	// nil db is never touched when there is nothing to run.
	if err := ApplySchema(context.Background(), nil, "\n"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestOpenPostgres_UnknownDriver(t *testing.T) {
	if _, err := OpenPostgres(context.Background(), "no-such-driver", "", PostgresPoolConfig{}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
