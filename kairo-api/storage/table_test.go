package storage

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/bytedance/sonic"
)

type fakeTable struct {
	rows map[string][]byte
}

func newFakeTable() *fakeTable { return &fakeTable{rows: map[string][]byte{}} }

func rowKey(pk, rk string) string { return pk + "/" + rk }

func keysOf(payload []byte) (string, string) {
	var e Entity
	_ = sonic.Unmarshal(payload, &e)
	return e.PartitionKey, e.RowKey
}

func (f *fakeTable) AddEntity(_ context.Context, payload []byte) error {
	pk, rk := keysOf(payload)
	if _, exists := f.rows[rowKey(pk, rk)]; exists {
		return &azcore.ResponseError{StatusCode: http.StatusConflict}
	}
	f.rows[rowKey(pk, rk)] = payload
	return nil
}

func (f *fakeTable) GetEntity(_ context.Context, pk, rk string) ([]byte, error) {
	data, ok := f.rows[rowKey(pk, rk)]
	if !ok {
		return nil, &azcore.ResponseError{StatusCode: http.StatusNotFound}
	}
	return data, nil
}

func (f *fakeTable) UpsertEntity(_ context.Context, payload []byte) error {
	pk, rk := keysOf(payload)
	f.rows[rowKey(pk, rk)] = payload
	return nil
}

func (f *fakeTable) DeleteEntity(_ context.Context, pk, rk string) error {
	if _, ok := f.rows[rowKey(pk, rk)]; !ok {
		return &azcore.ResponseError{StatusCode: http.StatusNotFound}
	}
	delete(f.rows, rowKey(pk, rk))
	return nil
}

func (f *fakeTable) ListEntities(_ context.Context, filter string) ([][]byte, error) {
	pk := strings.TrimSuffix(strings.TrimPrefix(filter, "PartitionKey eq '"), "'")
	var out [][]byte
	for key, data := range f.rows {
		if strings.HasPrefix(key, pk+"/") {
			out = append(out, data)
		}
	}
	return out, nil
}

func TestTableUsers(t *testing.T) {
	exerciseUsers(t, newTable(newFakeTable()))
}

func TestTableRowLayout(t *testing.T) {
	ft := newFakeTable()
	store := newTable(ft)
	u, err := store.Create(context.Background(), userFixture())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	row, ok := ft.rows[rowKey(userPartition, u.ID)]
	if !ok {
		t.Fatalf("user row missing, rows=%v", ft.rows)
	}
	var ent userEntity
	if err := sonic.Unmarshal(row, &ent); err != nil {
		t.Fatalf("decode row: %v", err)
	}
	if ent.PasswordHash != "hash" || ent.CreatedAt == "" {
		t.Fatalf("unexpected row %s", row)
	}
	if _, ok := ft.rows[rowKey(emailPartition, "ana@example.com")]; !ok {
		t.Fatal("email index row missing")
	}
}

func TestTableCreateReleasesEmailOnFailure(t *testing.T) {
	ft := newFakeTable()
	store := newTable(ft)
	// the index insert succeeds; make the user insert fail
	calls := 0
	failing := &countingTable{fakeTable: ft, failOn: 2, calls: &calls}
	store.client = failing

	if _, err := store.Create(context.Background(), userFixture()); err == nil {
		t.Fatal("expected create to fail")
	}
	if _, ok := ft.rows[rowKey(emailPartition, "ana@example.com")]; ok {
		t.Fatal("email reservation not released")
	}
}

type countingTable struct {
	*fakeTable
	failOn int
	calls  *int
}

func (c *countingTable) AddEntity(ctx context.Context, payload []byte) error {
	*c.calls++
	if *c.calls == c.failOn {
		return &azcore.ResponseError{StatusCode: http.StatusInternalServerError}
	}
	return c.fakeTable.AddEntity(ctx, payload)
}
