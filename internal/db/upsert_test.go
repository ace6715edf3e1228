package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(nil, nil, Target{
		Table:   "leads",
		Columns: []string{"place_id", "name"},
		Key:     []string{"place_id"},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "staging_leads"`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"staging_leads"}, []string{"place_id", "name"}).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "leads"`).WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	target := Target{
		Table:   "leads",
		Columns: []string{"place_id", "name"},
		Key:     []string{"place_id"},
	}
	n, err := BulkUpsert(context.Background(), mock, target, [][]any{{"p-1", "Acme"}, {"p-2", "Bolt"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTargetValidate(t *testing.T) {
	tests := []struct {
		name    string
		target  Target
		wantErr string
	}{
		{"no table", Target{Columns: []string{"a"}, Key: []string{"a"}}, "no table specified"},
		{"no columns", Target{Table: "leads", Key: []string{"place_id"}}, "no columns specified"},
		{"no keys", Target{Table: "leads", Columns: []string{"place_id", "name"}}, "no conflict keys specified"},
		{"ok", Target{Table: "leads", Columns: []string{"place_id", "name"}, Key: []string{"place_id"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTargetUpdateColumns(t *testing.T) {
	target := Target{
		Table:   "leads",
		Columns: []string{"user_id", "place_id", "name", "data"},
		Key:     []string{"user_id", "place_id"},
	}
	assert.Equal(t, []string{"name", "data"}, target.updateColumns())
}

func TestTargetMergeSQL(t *testing.T) {
	target := Target{
		Table:   "leads",
		Columns: []string{"place_id", "name"},
		Key:     []string{"place_id"},
	}
	got := target.mergeSQL("staging_leads")
	assert.Equal(t,
		`INSERT INTO "leads" ("place_id", "name") SELECT "place_id", "name" FROM "staging_leads" ON CONFLICT ("place_id") DO UPDATE SET "name" = EXCLUDED."name"`,
		got)
}

func TestQuoteTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"leads", `"leads"`},
		{"app.leads", `"app"."leads"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, quoteTable(tt.input))
		})
	}
}
