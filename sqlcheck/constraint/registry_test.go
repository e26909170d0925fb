package constraint

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func check(owner, name string, fields ...string) Metadata {
	return Metadata{
		Kind:         KindCheck,
		LogicalName:  name,
		PhysicalName: fmt.Sprintf("CK_%s_%s", owner, name),
		OwnerType:    owner,
		Message:      name + " violated",
		Fields:       fields,
	}
}

func TestRegisterLookup(t *testing.T) {
	r := NewRegistry()
	m := check("Person", "Adult", "Age")
	r.Register(m)

	got, ok := r.Lookup("CK_Person_Adult")
	require.True(t, ok)
	if diff := cmp.Diff(m, got); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}

	_, ok = r.Lookup("CK_Person_Missing")
	assert.False(t, ok)
}

func TestRegisterLastWriteWins(t *testing.T) {
	r := NewRegistry()
	r.Register(check("Person", "Adult", "Age"))
	r.Register(Metadata{
		Kind:         KindCheck,
		LogicalName:  "Adult",
		PhysicalName: "CK_Person_Adult",
		OwnerType:    "Person",
		Message:      "second",
		Fields:       []string{"Age", "Born"},
	})

	got, ok := r.Lookup("CK_Person_Adult")
	require.True(t, ok)
	assert.Equal(t, "second", got.Message)
	assert.Equal(t, []string{"Age", "Born"}, got.Fields)
	assert.Equal(t, 1, r.Len())

	// the owner index keeps every registration
	assert.Equal(t, []string{"CK_Person_Adult", "CK_Person_Adult"}, r.Constraints("Person"))
	assert.Len(t, r.All(), 1)
}

func TestConstraintsOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(check("Person", "B"))
	r.Register(check("Order", "Total"))
	r.Register(check("Person", "A"))

	assert.Equal(t, []string{"CK_Person_B", "CK_Person_A"}, r.Constraints("Person"))
	assert.Equal(t, []string{"Order", "Person"}, r.Owners())
	assert.Nil(t, r.Constraints("Nobody"))

	var names []string
	for _, m := range r.All() {
		names = append(names, m.PhysicalName)
	}
	assert.Equal(t, []string{"CK_Order_Total", "CK_Person_B", "CK_Person_A"}, names)
}

func TestMetadataIsCopied(t *testing.T) {
	r := NewRegistry()
	fields := []string{"Age"}
	m := check("Person", "Adult")
	m.Fields = fields
	r.Register(m)

	fields[0] = "Mutated"
	got, _ := r.Lookup("CK_Person_Adult")
	assert.Equal(t, []string{"Age"}, got.Fields)

	got.Fields[0] = "Mutated"
	again, _ := r.Lookup("CK_Person_Adult")
	assert.Equal(t, []string{"Age"}, again.Fields)
}

func TestConcurrentLookup(t *testing.T) {
	r := NewRegistry()
	for i := range 10 {
		r.Register(check("Person", fmt.Sprintf("C%d", i), "Age"))
	}

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				if w == 0 {
					r.Register(check("Late", fmt.Sprintf("C%d", i)))
					continue
				}
				m, ok := r.Lookup(fmt.Sprintf("CK_Person_C%d", i%10))
				if !ok || m.OwnerType != "Person" || len(m.Fields) != 1 {
					t.Errorf("inconsistent lookup: %+v %v", m, ok)
					return
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 110, r.Len())
}
