package domain_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/filter"
)

func TestScanLookup_FindsLegacyRowsWithoutIndex(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	ct, err := f.env.Codec.Encrypt("old@example.com")
	require.NoError(t, err)
	f.env.Relational.Put(ownersTable, 3, domain.Row{
		"nombre":         ct,
		"correo":         ct,
		"correo_hash":    nil,
		"estado":         "activo",
		"fecha_creacion": "2020-01-01 00:00:00",
	})

	q, err := f.owners.Schema().QueryFor("correo", "old@example.com")
	require.NoError(t, err)
	row, ok, err := f.owners.Lookup().First(ctx, q)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), row["id"])

	q.Value = "OLD@example.com"
	ok, err = f.owners.Lookup().Exists(ctx, q)
	require.NoError(t, err)
	assert.False(t, ok, "comparison is exact")

	_, err = f.owners.Create(ctx, ownerInput("old@example.com"))
	assert.True(t, apperror.IsDuplicate(err), "unindexed rows still count for uniqueness")
}

func TestScanLookup_PrefersMostRecent(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	for _, who := range []string{"a@x.ec", "b@x.ec"} {
		_, err := f.owners.Create(ctx, ownerInput(who))
		require.NoError(t, err)
		f.env.Clock.Advance(time.Minute)
	}
	// Same cedula on two owners bypassing the unique check, as devices share tokens.
	for _, id := range []int64{1, 2} {
		ct, err := f.env.Codec.Encrypt("1712345678")
		require.NoError(t, err)
		_, err = f.env.Relational.Update(ctx, ownersTable, domain.Row{
			"cedula_identidad":      ct,
			"cedula_identidad_hash": f.env.Codec.BlindIndex("cedula_identidad", "1712345678"),
		}, []filter.Item{filter.Eq("id", id)})
		require.NoError(t, err)
	}

	q, err := f.owners.Schema().QueryFor("cedula_identidad", "1712345678")
	require.NoError(t, err)

	row, ok, err := f.owners.Lookup().First(ctx, q)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), row["id"])

	all, err := f.owners.Lookup().Find(ctx, q)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	id := int64(2)
	q.ExcludeID = &id
	row, ok, err = f.owners.Lookup().First(ctx, q)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), row["id"])
}

func TestScanLookup_EmptyProbeMatchesNothing(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	f.env.Relational.Put(ownersTable, 1, domain.Row{"correo": "garbage", "estado": "activo"})

	q, err := f.owners.Schema().QueryFor("correo", "")
	require.NoError(t, err)
	ok, err := f.owners.Lookup().Exists(ctx, q)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScanLookup_StoreFailure(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.env.Relational.FailNext("select", "clientes", assert.AnError)

	q, err := f.owners.Schema().QueryFor("correo", "a@b.c")
	require.NoError(t, err)
	_, err = f.owners.Lookup().Exists(ctx, q)
	assert.True(t, apperror.IsStore(err))
}

func TestBackfillIndexes(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	ct, err := f.env.Codec.Encrypt(" Legacy@Example.com")
	require.NoError(t, err)
	f.env.Relational.Put(ownersTable, 1, domain.Row{"correo": ct, "estado": "activo"})
	f.env.Relational.Put(ownersTable, 2, domain.Row{"correo": "corrupted", "estado": "activo"})

	report, err := f.owners.BackfillIndexes(ctx)
	require.Error(t, err)
	assert.True(t, apperror.IsDecode(err))
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Failed)

	row := f.env.Relational.Raw("clientes", 1)
	assert.Equal(t, f.env.Codec.BlindIndex("correo", " Legacy@Example.com"), row["correo_hash"])
}
