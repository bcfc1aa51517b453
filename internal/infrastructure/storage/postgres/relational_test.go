package postgres

import (
	"testing"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/filter"
)

var clientes = domain.Table{Name: "clientes", IDColumn: "id"}

func TestConditions_Operators(t *testing.T) {
	tests := []struct {
		name     string
		item     filter.Item
		wantSQL  string
		wantArgs int
	}{
		{
			name:     "Greater",
			item:     filter.Item{Field: "id", Operator: filter.Greater, Value: int64(10)},
			wantSQL:  "SELECT * FROM clientes WHERE id > $1",
			wantArgs: 1,
		},
		{
			name:     "NotEqual",
			item:     filter.Ne("estado", "eliminado"),
			wantSQL:  "SELECT * FROM clientes WHERE estado <> $1",
			wantArgs: 1,
		},
		{
			name:     "InList",
			item:     filter.Item{Field: "id", Operator: filter.InList, Value: []int64{1, 2}},
			wantSQL:  "SELECT * FROM clientes WHERE id IN ($1,$2)",
			wantArgs: 2,
		},
		{
			name:     "IsNull",
			item:     filter.Item{Field: "correo_hash", Operator: filter.IsNull},
			wantSQL:  "SELECT * FROM clientes WHERE correo_hash IS NULL",
			wantArgs: 0,
		},
		{
			name:     "EqualOrNull",
			item:     filter.Item{Field: "correo_hash", Operator: filter.EqualOrNull, Value: "abc"},
			wantSQL:  "SELECT * FROM clientes WHERE (correo_hash = $1 OR correo_hash IS NULL)",
			wantArgs: 1,
		},
		{
			name:     "Contains",
			item:     filter.Item{Field: "estado", Operator: filter.Contains, Value: "act"},
			wantSQL:  "SELECT * FROM clientes WHERE estado ILIKE $1",
			wantArgs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := buildSelect(clientes, domain.Query{Where: []filter.Item{tt.item}})
			if err != nil {
				t.Fatalf("buildSelect failed: %v", err)
			}
			if sql != tt.wantSQL {
				t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", tt.wantSQL, sql)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("Args count mismatch\nwant: %d\ngot:  %d", tt.wantArgs, len(args))
			}
		})
	}
}

func TestBuildSelect_ScanPage(t *testing.T) {
	sql, args, err := buildSelect(clientes, domain.Query{
		Where: []filter.Item{
			filter.Ne("estado", "eliminado"),
			{Field: "correo_hash", Operator: filter.EqualOrNull, Value: "h"},
		},
		OrderBy: []domain.Order{{Column: "fecha_creacion", Desc: true}, {Column: "id", Desc: true}},
		Limit:   500,
		Offset:  1000,
	})
	if err != nil {
		t.Fatalf("buildSelect failed: %v", err)
	}
	want := "SELECT * FROM clientes WHERE estado <> $1 AND (correo_hash = $2 OR correo_hash IS NULL) " +
		"ORDER BY fecha_creacion DESC, id DESC LIMIT 500 OFFSET 1000"
	if sql != want {
		t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", want, sql)
	}
	if len(args) != 2 || args[0] != "eliminado" || args[1] != "h" {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestBuildInsert_ReturnsID(t *testing.T) {
	sql, args, err := buildInsert(clientes, domain.Row{"nombre": "ct", "estado": "activo"})
	if err != nil {
		t.Fatalf("buildInsert failed: %v", err)
	}
	want := "INSERT INTO clientes (estado,nombre) VALUES ($1,$2) RETURNING id"
	if sql != want {
		t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", want, sql)
	}
	if len(args) != 2 || args[0] != "activo" {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestBuildIncrement_SingleStatement(t *testing.T) {
	sql, args, err := buildIncrement(clientes, 7, "mensajes_enviados", domain.Row{"fecha_modificacion": "2024-03-09 14:05:07"})
	if err != nil {
		t.Fatalf("buildIncrement failed: %v", err)
	}
	want := "UPDATE clientes SET mensajes_enviados = COALESCE(mensajes_enviados, 0) + 1, fecha_modificacion = $1 WHERE id = $2"
	if sql != want {
		t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", want, sql)
	}
	if len(args) != 2 || args[1] != int64(7) {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestBuildUpdate_GuardsDeleted(t *testing.T) {
	sql, _, err := buildUpdate(clientes, domain.Row{"estado": "eliminado"},
		[]filter.Item{filter.Eq("id", int64(3)), filter.Ne("estado", "eliminado")})
	if err != nil {
		t.Fatalf("buildUpdate failed: %v", err)
	}
	want := "UPDATE clientes SET estado = $1 WHERE id = $2 AND estado <> $3"
	if sql != want {
		t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", want, sql)
	}

	if _, _, err := buildUpdate(clientes, domain.Row{}, nil); err == nil {
		t.Error("expected an error for an empty SET")
	}
}

func TestBuildCount(t *testing.T) {
	sql, _, err := buildCount(clientes, []filter.Item{filter.Ne("estado", "eliminado")})
	if err != nil {
		t.Fatalf("buildCount failed: %v", err)
	}
	if want := "SELECT COUNT(*) FROM clientes WHERE estado <> $1"; sql != want {
		t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", want, sql)
	}
}

func TestIdentifiers_RejectInjection(t *testing.T) {
	if _, _, err := buildSelect(domain.Table{Name: "clientes; DROP TABLE x", IDColumn: "id"}, domain.Query{}); err == nil {
		t.Error("expected table name to be rejected")
	}
	if _, _, err := buildSelect(clientes, domain.Query{Where: []filter.Item{filter.Eq("1=1 OR id", 1)}}); err == nil {
		t.Error("expected filter column to be rejected")
	}
	if _, _, err := buildInsert(clientes, domain.Row{"nombre) VALUES ('x'); --": "y"}); err == nil {
		t.Error("expected insert column to be rejected")
	}
}

func TestNormalizeRow_WidensIntegers(t *testing.T) {
	row := normalizeRow(map[string]any{"id": int32(4), "total": int16(2), "estado": "activo", "n": nil})
	if row["id"] != int64(4) || row["total"] != int64(2) {
		t.Errorf("integers not widened: %#v", row)
	}
	if row["estado"] != "activo" || row["n"] != nil {
		t.Errorf("unexpected values: %#v", row)
	}
}
