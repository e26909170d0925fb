package sqlcheck_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlcheck/sqlcheck/internal/testutil"
	"github.com/sqlcheck/sqlcheck/sqlcheck"
	"github.com/sqlcheck/sqlcheck/sqlcheck/pgcheck"
	"github.com/sqlcheck/sqlcheck/sqlcheck/storage/postgres"
	"github.com/sqlcheck/sqlcheck/sqlcheck/violation"
)

const postgresModel = `
entities:
  - name: Customer
    fields:
      - {name: Name, type: string}
      - {name: Email, type: string?}
      - {name: Credit, type: decimal}
      - {name: Tier, type: int}
    env:
      maxTier: 3
    checks:
      - name: Email
        predicate: 'x => x.Email == null || Regex.IsMatch(x.Email, "^[^@]+@[^@]+$", RegexOptions.IgnoreCase)'
      - name: Credit
        predicate: "x => x.Credit >= 0 && x.Tier <= maxTier"
        message: credit must be positive within a known tier
      - name: ShortName
        predicate: "x => x.Name.Length <= 8"
    unique:
      - name: Email
        keys: ["x => x.Email.ToLower()"]
      - name: NameTier
        keys: ["x => x.Name", "x => x.Tier"]
`

func TestInsertAndViolations_Postgres(t *testing.T) {
	ctx := context.Background()
	dsn := testutil.PostgresDSN(ctx, t)

	m, err := sqlcheck.ParseModel([]byte(postgresModel), nil)
	require.NoError(t, err)

	s, err := sqlcheck.Open(ctx, postgres.New(dsn, "sqlcheck_test"), m)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.DB().ExecContext(context.Background(), `DROP SCHEMA IF EXISTS sqlcheck_test CASCADE`)
		_ = s.Close()
	})
	require.NoError(t, s.Create(ctx))

	require.NoError(t, s.Insert(ctx, "Customer", map[string]any{
		"Name": "ann", "Email": "ann@example.com", "Credit": "10.5", "Tier": 1,
	}))

	tests := []struct {
		name     string
		row      map[string]any
		physical string
	}{
		{"regex", map[string]any{"Name": "bob", "Email": "nope", "Credit": 1, "Tier": 1}, "CK_Customer_Email"},
		{"credit", map[string]any{"Name": "bob", "Credit": -1, "Tier": 1}, "CK_Customer_Credit"},
		{"tier", map[string]any{"Name": "bob", "Credit": 1, "Tier": 9}, "CK_Customer_Credit"},
		{"length", map[string]any{"Name": "bartholomew", "Credit": 1, "Tier": 1}, "CK_Customer_ShortName"},
		{"unique expression", map[string]any{"Name": "cy", "Email": "ANN@example.com", "Credit": 1, "Tier": 1}, "IX_Customer_Email"},
		{"unique composite", map[string]any{"Name": "ann", "Credit": 1, "Tier": 1}, "IX_Customer_NameTier"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Insert(ctx, "Customer", tc.row)
			v, ok := violation.AsViolation(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tc.physical, v.PhysicalName)
			assert.Equal(t, "Customer", v.OwnerType)
		})
	}

	// same name in another tier is fine
	require.NoError(t, s.Insert(ctx, "Customer", map[string]any{"Name": "ann", "Credit": 0, "Tier": 2}))

	recorded, err := s.Recorded(ctx)
	require.NoError(t, err)
	assert.Len(t, recorded, 5)

	results, err := pgcheck.VerifyAll(ctx, m.Registry().All())
	require.NoError(t, err)
	assert.Empty(t, pgcheck.Failed(results))
}
