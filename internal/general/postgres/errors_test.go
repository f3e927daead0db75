package postgres

import (
	"errors"
	"testing"

	"commuto/internal/domain/fault"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want fault.Kind
	}{
		{"no rows", pgx.ErrNoRows, fault.KindNotFound},
		{"lock not available", &pgconn.PgError{Code: codeLockNotAvailable}, fault.KindConflict},
		{"deadlock", &pgconn.PgError{Code: codeDeadlockDetected}, fault.KindConflict},
		{"serialization failure", &pgconn.PgError{Code: codeSerializationFailure}, fault.KindConflict},
		{"unique violation", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "bids_one_pending"}, fault.KindConflict},
		{"anything else", errors.New("connection reset"), fault.KindInternal},
	}
	for _, c := range cases {
		got := classify(c.err, "thing not found")
		if fault.KindOf(got) != c.want {
			t.Errorf("%s: kind = %s, want %s", c.name, fault.KindOf(got), c.want)
		}
	}
}

func TestClassifyNamesMissingEntity(t *testing.T) {
	err := classify(pgx.ErrNoRows, "trip not found")
	if err.Error() != "trip not found" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestClassifyNilPassesThrough(t *testing.T) {
	if err := classify(nil, "x"); err != nil {
		t.Errorf("err = %v", err)
	}
}
