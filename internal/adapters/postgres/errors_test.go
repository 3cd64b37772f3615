package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	pe := &pgconn.PgError{Code: UniqueViolationCode, ConstraintName: "members_email_unique"}
	wrapped := fmt.Errorf("insert: %w", pe)

	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{name: "any constraint", err: wrapped, constraint: "", want: true},
		{name: "named constraint", err: wrapped, constraint: "members_email_unique", want: true},
		{name: "other constraint", err: wrapped, constraint: "members_external_id_unique", want: false},
		{name: "fk violation", err: &pgconn.PgError{Code: ForeignKeyViolationCode}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
				t.Fatalf("IsUniqueViolation()=%v, want %v", got, tc.want)
			}
		})
	}
}
