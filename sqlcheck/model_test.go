package sqlcheck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlcheck/sqlcheck/sqlcheck"
	"github.com/sqlcheck/sqlcheck/sqlcheck/compiler"
	"github.com/sqlcheck/sqlcheck/sqlcheck/constraint"
	"github.com/sqlcheck/sqlcheck/sqlcheck/expr"
)

type Person struct {
	Name  string
	Email *string
	Age   int
	Note  string `db:"-"`
}

type OrderLine struct {
	Qty   int
	Price int
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "people", sqlcheck.TableName("Person"))
	assert.Equal(t, "order_lines", sqlcheck.TableName("OrderLine"))
}

func TestDeclareCheck(t *testing.T) {
	m := sqlcheck.NewModel(nil)
	e, err := sqlcheck.EntityOf[Person](m)
	require.NoError(t, err)
	assert.Equal(t, "Person", e.Name)
	assert.Equal(t, "people", e.Table)

	e.Env = expr.Env{"min": 18}
	require.NoError(t, e.CheckSource("Adult", "x => x.Age >= min", ""))

	md, ok := m.Registry().Lookup("CK_Person_Adult")
	require.True(t, ok)
	assert.Equal(t, constraint.Metadata{
		Kind:         constraint.KindCheck,
		LogicalName:  "Adult",
		PhysicalName: "CK_Person_Adult",
		OwnerType:    "Person",
		Message:      "Check constraint 'Adult' violated while updating entry of type 'Person'.",
		Fields:       []string{"Age"},
		Table:        "people",
		SQL:          `"Age" >= 18`,
	}, md)
}

func TestDeclareLambda(t *testing.T) {
	m := sqlcheck.NewModel(nil)
	e, err := sqlcheck.EntityOf[Person](m)
	require.NoError(t, err)

	pred := expr.MustParse(`x => x.Name != "" && x.Email != null`, e.Shape, nil)
	require.NoError(t, e.Check("Contact", pred, "name and email required"))

	md, ok := m.Registry().Lookup("CK_Person_Contact")
	require.True(t, ok)
	assert.Equal(t, `"Name" <> '' AND "Email" IS NOT NULL`, md.SQL)
	assert.Equal(t, []string{"Name", "Email"}, md.Fields)
	assert.Equal(t, "name and email required", md.Message)
}

func TestDeclareUnique(t *testing.T) {
	m := sqlcheck.NewModel(nil)
	e, err := sqlcheck.EntityOf[Person](m)
	require.NoError(t, err)

	require.NoError(t, e.UniqueSource("Email", "", "x => x.Email.ToLower()", "x => x.Name"))
	md, ok := m.Registry().Lookup("IX_Person_Email")
	require.True(t, ok)
	assert.Equal(t, constraint.KindUnique, md.Kind)
	assert.Equal(t, `lower("Email"), "Name"`, md.SQL)
	assert.Equal(t, []string{"Email", "Name"}, md.Fields)
	assert.Equal(t, "Unique constraint 'Email' violated while updating entry of type 'Person'.", md.Message)

	err = e.Unique("Empty", "")
	assert.True(t, sqlcheck.IsKind(err, sqlcheck.ErrSchema))
}

func TestDeclareFailsAtDeclaration(t *testing.T) {
	m := sqlcheck.NewModel(nil)
	e, err := sqlcheck.EntityOf[Person](m)
	require.NoError(t, err)

	err = e.CheckSource("Switch", "x => switch x.Age { case 1: true default: false }", "")
	require.Error(t, err)
	assert.True(t, sqlcheck.IsKind(err, sqlcheck.ErrUnsupported))
	assert.ErrorIs(t, err, compiler.ErrUnsupportedSwitch)

	err = e.CheckSource("Trim", `x => x.Name.Trim() == ""`, "")
	assert.ErrorIs(t, err, compiler.ErrUnsupportedMethod)

	err = e.CheckSource("Missing", "x => x.Height > 1", "")
	assert.True(t, sqlcheck.IsKind(err, sqlcheck.ErrUnknownField))

	err = e.CheckSource("Syntax", "x => x.Age >", "")
	assert.True(t, sqlcheck.IsKind(err, sqlcheck.ErrPredicateParse))

	err = e.CheckSource("bad name", "x => x.Age > 1", "")
	assert.True(t, sqlcheck.IsKind(err, sqlcheck.ErrSchema))

	assert.Zero(t, m.Registry().Len())
	assert.Empty(t, e.Constraints())
}

func TestRedeclareReplaces(t *testing.T) {
	m := sqlcheck.NewModel(nil)
	e, err := sqlcheck.EntityOf[OrderLine](m)
	require.NoError(t, err)

	require.NoError(t, e.CheckSource("Positive", "x => x.Qty > 0", ""))
	require.NoError(t, e.CheckSource("Total", "x => x.Qty * x.Price < 1000", ""))
	require.NoError(t, e.CheckSource("Positive", "x => x.Qty > 0 && x.Price > 0", ""))

	cs := e.Constraints()
	require.Len(t, cs, 2)
	assert.Equal(t, "CK_OrderLine_Total", cs[0].PhysicalName)
	assert.Equal(t, "CK_OrderLine_Positive", cs[1].PhysicalName)
	assert.Equal(t, []string{"Qty", "Price"}, cs[1].Fields)

	md, _ := m.Registry().Lookup("CK_OrderLine_Positive")
	assert.Equal(t, `"Qty" > 0 AND "Price" > 0`, md.SQL)
}

func TestEntityLookup(t *testing.T) {
	m := sqlcheck.NewModel(nil)
	a, err := sqlcheck.EntityOf[Person](m)
	require.NoError(t, err)
	b, err := sqlcheck.EntityOf[Person](m)
	require.NoError(t, err)
	assert.Same(t, a, b)

	got, ok := m.Lookup("Person")
	assert.True(t, ok)
	assert.Same(t, a, got)
	_, ok = m.Lookup("Nobody")
	assert.False(t, ok)

	_, err = m.Entity("Empty", expr.NewShape("Empty"))
	assert.True(t, sqlcheck.IsKind(err, sqlcheck.ErrSchema))

	_, err = sqlcheck.EntityOf[int](m)
	assert.True(t, sqlcheck.IsKind(err, sqlcheck.ErrSchema))
}

func TestTableDef(t *testing.T) {
	m := sqlcheck.NewModel(nil)
	e, err := sqlcheck.EntityOf[Person](m)
	require.NoError(t, err)
	require.NoError(t, e.CheckSource("Adult", "x => x.Age >= 18", ""))
	require.NoError(t, e.UniqueSource("Name", "", "x => x.Name"))

	td := e.TableDef()
	assert.Equal(t, "people", td.Name)
	require.Len(t, td.Columns, 3)
	assert.Equal(t, "Email", td.Columns[1].Name)
	assert.True(t, td.Columns[1].Type.Nullable)
	require.Len(t, td.Checks, 1)
	assert.Equal(t, `"Age" >= 18`, td.Checks[0].SQL)
	require.Len(t, td.Uniques, 1)
	assert.Equal(t, `"Name"`, td.Uniques[0].Keys)
}

func TestEntityCompile(t *testing.T) {
	m := sqlcheck.NewModel(nil)
	e, err := sqlcheck.EntityOf[Person](m)
	require.NoError(t, err)

	sql, fields, err := e.Compile(`x => x.Email == null || Regex.IsMatch(x.Email, "@")`)
	require.NoError(t, err)
	assert.Equal(t, `"Email" IS NULL OR "Email" ~ '@'`, sql)
	assert.Equal(t, []string{"Email"}, fields)

	sql, fields, err = e.CompileKey(`x => x.Name.ToUpper()`)
	require.NoError(t, err)
	assert.Equal(t, `upper("Name")`, sql)
	assert.Equal(t, []string{"Name"}, fields)

	_, _, err = e.Compile(`x => x.Age`)
	assert.True(t, sqlcheck.IsKind(err, sqlcheck.ErrUnsupported))

	// nothing is registered
	assert.Zero(t, m.Registry().Len())
}

func TestEntityFields(t *testing.T) {
	m := sqlcheck.NewModel(nil)
	e, err := sqlcheck.EntityOf[Person](m)
	require.NoError(t, err)

	fields, err := e.Fields(`x => switch x.Age { case 1: x.Name == "" default: x.Email == null }`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Age", "Name", "Email"}, fields)

	_, err = e.Fields(`x => x.Nope`)
	assert.True(t, sqlcheck.IsKind(err, sqlcheck.ErrUnknownField))
}
