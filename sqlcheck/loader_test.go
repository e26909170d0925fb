package sqlcheck_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlcheck/sqlcheck/sqlcheck"
	"github.com/sqlcheck/sqlcheck/sqlcheck/constraint"
)

const modelYAML = `
entities:
  - name: Account
    table: accounts
    env:
      limit: 1000
    fields:
      - {name: Owner, type: string}
      - {name: Email, type: string?}
      - {name: Balance, type: decimal}
      - {name: Overdraft, type: int}
    checks:
      - name: Solvent
        predicate: "x => x.Balance + x.Overdraft >= 0"
        message: balance may not drop below the overdraft
      - name: Limit
        predicate: "x => x.Overdraft <= limit"
      - name: Email
        predicate: 'x => x.Email == null || Regex.IsMatch(x.Email, "^[^@]+@[^@]+$")'
    unique:
      - name: Owner
        keys: ["x => x.Owner.ToLower()"]
`

func TestParseModelYAML(t *testing.T) {
	reg := constraint.NewRegistry()
	m, err := sqlcheck.ParseModel([]byte(modelYAML), reg)
	require.NoError(t, err)
	assert.Same(t, reg, m.Registry())

	e, ok := m.Lookup("Account")
	require.True(t, ok)
	assert.Equal(t, "accounts", e.Table)

	want := []constraint.Metadata{
		{
			Kind: constraint.KindCheck, LogicalName: "Solvent", PhysicalName: "CK_Account_Solvent",
			OwnerType: "Account", Message: "balance may not drop below the overdraft",
			Fields: []string{"Balance", "Overdraft"}, Table: "accounts",
			SQL: `"Balance" + "Overdraft" >= 0`,
		},
		{
			Kind: constraint.KindCheck, LogicalName: "Limit", PhysicalName: "CK_Account_Limit",
			OwnerType: "Account", Message: "Check constraint 'Limit' violated while updating entry of type 'Account'.",
			Fields: []string{"Overdraft"}, Table: "accounts",
			SQL: `"Overdraft" <= 1000`,
		},
		{
			Kind: constraint.KindCheck, LogicalName: "Email", PhysicalName: "CK_Account_Email",
			OwnerType: "Account", Message: "Check constraint 'Email' violated while updating entry of type 'Account'.",
			Fields: []string{"Email"}, Table: "accounts",
			SQL: `"Email" IS NULL OR "Email" ~ '^[^@]+@[^@]+$'`,
		},
		{
			Kind: constraint.KindUnique, LogicalName: "Owner", PhysicalName: "IX_Account_Owner",
			OwnerType: "Account", Message: "Unique constraint 'Owner' violated while updating entry of type 'Account'.",
			Fields: []string{"Owner"}, Table: "accounts",
			SQL: `lower("Owner")`,
		},
	}
	if diff := cmp.Diff(want, reg.All()); diff != "" {
		t.Errorf("registered constraints mismatch (-want +got):\n%s", diff)
	}
}

func TestParseModelJSON(t *testing.T) {
	data := `{"entities": [{"name": "Item", "fields": [{"name": "Qty", "type": "int"}],
		"checks": [{"name": "Positive", "predicate": "x => x.Qty > 0"}]}]}`
	m, err := sqlcheck.ParseModel([]byte(data), nil)
	require.NoError(t, err)
	e, ok := m.Lookup("Item")
	require.True(t, ok)
	assert.Equal(t, "items", e.Table)
	_, ok = m.Registry().Lookup("CK_Item_Positive")
	assert.True(t, ok)
}

func TestParseModelErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		kind sqlcheck.ErrorKind
	}{
		{"empty", "entities: []", sqlcheck.ErrSchema},
		{"not yaml", "entities: [", sqlcheck.ErrSchema},
		{"bad type", "entities: [{name: A, fields: [{name: X, type: float}]}]", sqlcheck.ErrSchema},
		{"duplicate field", "entities: [{name: A, fields: [{name: X, type: int}, {name: X, type: int}]}]", sqlcheck.ErrSchema},
		{"no fields", "entities: [{name: A}]", sqlcheck.ErrSchema},
		{"unknown field", "entities: [{name: A, fields: [{name: X, type: int}], checks: [{name: C, predicate: 'x => x.Y > 0'}]}]", sqlcheck.ErrUnknownField},
		{"unsupported", "entities: [{name: A, fields: [{name: X, type: int}], checks: [{name: C, predicate: 'x => (x.X ^ 1) == 0'}]}]", sqlcheck.ErrUnsupported},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sqlcheck.ParseModel([]byte(tc.data), nil)
			require.Error(t, err)
			assert.True(t, sqlcheck.IsKind(err, tc.kind), "got %v", err)
		})
	}
}

func TestLoadModelFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(modelYAML), 0o644))
	m, err := sqlcheck.LoadModelFile(path, nil)
	require.NoError(t, err)
	assert.Len(t, m.Entities(), 1)

	_, err = sqlcheck.LoadModelFile(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.True(t, sqlcheck.IsKind(err, sqlcheck.ErrIO))
}
