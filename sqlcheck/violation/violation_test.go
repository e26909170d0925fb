package violation

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlcheck/sqlcheck/sqlcheck/constraint"
)

func testRegistry() *constraint.Registry {
	r := constraint.NewRegistry()
	r.Register(constraint.Metadata{
		Kind:         constraint.KindCheck,
		LogicalName:  "Adult",
		PhysicalName: "CK_Person_Adult",
		OwnerType:    "Person",
		Message:      "must be an adult",
		Fields:       []string{"Age"},
		Table:        "people",
	})
	r.Register(constraint.Metadata{
		Kind:         constraint.KindUnique,
		LogicalName:  "Email",
		PhysicalName: "IX_Person_Email",
		OwnerType:    "Person",
		Message:      "email taken",
		Fields:       []string{"Email", "Tenant"},
		Table:        "people",
	})
	return r
}

func TestCorrelate(t *testing.T) {
	reg := testRegistry()
	cause := errors.New("driver failure")

	v, ok := Correlate(reg, "CK_Person_Adult", cause)
	require.True(t, ok)
	assert.Equal(t, constraint.KindCheck, v.Kind)
	assert.Equal(t, "Adult", v.LogicalName)
	assert.Equal(t, "CK_Person_Adult", v.PhysicalName)
	assert.Equal(t, "Person", v.OwnerType)
	assert.Equal(t, "must be an adult", v.Message)
	assert.Equal(t, []string{"Age"}, v.Fields)
	assert.ErrorIs(t, v, cause)
	assert.Equal(t, "must be an adult", v.Error())

	_, ok = Correlate(reg, "CK_Person_Unknown", cause)
	assert.False(t, ok)
	_, ok = Correlate(reg, "", cause)
	assert.False(t, ok)
	_, ok = Correlate(nil, "CK_Person_Adult", cause)
	assert.False(t, ok)
}

func TestConstraintName(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"pgx", &pgconn.PgError{Code: "23514", ConstraintName: "CK_Person_Adult"}, "CK_Person_Adult"},
		{"pgx wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "IX_Person_Email"}), "IX_Person_Email"},
		{"pq", &pq.Error{Code: "23514", Constraint: "CK_Person_Adult"}, "CK_Person_Adult"},
		{"mysql check", &mysql.MySQLError{Number: 3819, Message: "Check constraint 'CK_Person_Adult' is violated."}, "CK_Person_Adult"},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b' for key 'people.IX_Person_Email'"}, "IX_Person_Email"},
		{"mysql other", &mysql.MySQLError{Number: 1146, Message: "Table 'x' doesn't exist"}, ""},
		{"postgres text", errors.New(`ERROR: new row for relation "people" violates check constraint "CK_Person_Adult" (SQLSTATE 23514)`), "CK_Person_Adult"},
		{"sqlite check text", errors.New("constraint failed: CHECK constraint failed: CK_Person_Adult (275)"), "CK_Person_Adult"},
		{"sqlite index text", errors.New("constraint failed: UNIQUE constraint failed: index 'IX_Person_Email' (2067)"), "IX_Person_Email"},
		{"unrelated", errors.New("connection reset by peer"), ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ConstraintName(tc.err))
		})
	}
}

func TestTranslate(t *testing.T) {
	reg := testRegistry()

	pgErr := &pgconn.PgError{Code: "23514", ConstraintName: "CK_Person_Adult"}
	err := Translate(reg, fmt.Errorf("insert people: %w", pgErr))
	v, ok := AsViolation(err)
	require.True(t, ok)
	assert.Equal(t, "Adult", v.LogicalName)
	var got *pgconn.PgError
	require.ErrorAs(t, err, &got)
	assert.Same(t, pgErr, got)

	// unknown constraint passes through untouched
	other := &pgconn.PgError{Code: "23514", ConstraintName: "CK_Other"}
	assert.Same(t, other, Translate(reg, other))

	plain := errors.New("boom")
	assert.Same(t, plain, Translate(reg, plain))
	assert.NoError(t, Translate(reg, nil))

	// already translated
	assert.Same(t, v, Translate(reg, v))
}

func TestTranslateSQLiteColumnList(t *testing.T) {
	reg := testRegistry()

	err := Translate(reg, errors.New("constraint failed: UNIQUE constraint failed: people.Tenant, people.Email (2067)"))
	v, ok := AsViolation(err)
	require.True(t, ok)
	assert.Equal(t, "IX_Person_Email", v.PhysicalName)

	err = Translate(reg, errors.New("UNIQUE constraint failed: people.Email"))
	assert.False(t, IsViolation(err))

	err = Translate(reg, errors.New("UNIQUE constraint failed: orders.Email, orders.Tenant"))
	assert.False(t, IsViolation(err))
}

func TestProblem(t *testing.T) {
	reg := testRegistry()
	err := Translate(reg, &pq.Error{Code: "23505", Constraint: "IX_Person_Email"})

	b, ok, merr := MarshalProblem(err)
	require.NoError(t, merr)
	require.True(t, ok)

	var p Problem
	require.NoError(t, json.Unmarshal(b, &p))
	assert.Equal(t, 400, p.Status)
	assert.Equal(t, "Email", p.Constraint)
	assert.Equal(t, map[string][]string{
		"Email":  {"email taken"},
		"Tenant": {"email taken"},
	}, p.Errors)

	_, ok, _ = MarshalProblem(errors.New("boom"))
	assert.False(t, ok)
}
