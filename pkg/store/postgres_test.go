package store

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/praetorian-inc/wildscan/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &PostgresStore{&sqlStore{db: db, d: postgresDialect}}, mock
}

func TestPostgresStore_CreateSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_version").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schema_version")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_version (version) VALUES ($1)")).
		WithArgs(SchemaVersion).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS blobs").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS patterns").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS matches .*BIGSERIAL PRIMARY KEY.*BYTEA").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS findings").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS provenance").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS annotations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_provenance_blob_id").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_matches_blob_id").WillReturnResult(sqlmock.NewResult(0, 0))

	s, err := newPostgresFromDB(db)
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateSchemaError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_version").WillReturnError(errors.New("permission denied"))

	_, err = newPostgresFromDB(db)
	assert.ErrorContains(t, err, "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddBlob(t *testing.T) {
	s, mock := newMockPostgres(t)
	blobID := types.ComputeBlobID([]byte("hello"))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO blobs (id, size) VALUES ($1, $2) ON CONFLICT DO NOTHING")).
		WithArgs(blobID.Hex(), int64(5)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO blobs").WillReturnError(errors.New("connection reset"))

	require.NoError(t, s.AddBlob(blobID, 5))
	err := s.AddBlob(blobID, 5)
	assert.ErrorContains(t, err, "inserting blob")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddMatchAndFinding(t *testing.T) {
	s, mock := newMockPostgres(t)
	blobID := types.ComputeBlobID([]byte("[db]\npassword=hunter22\n"))
	m := testMatch(blobID, "match-1", "finding-1", 5)

	mock.ExpectExec(`INSERT INTO matches .* VALUES \(\$1, .*\$14\) ON CONFLICT DO NOTHING`).
		WithArgs(blobID.Hex(), m.PatternID, m.PatternName, "match-1", "finding-1",
			int64(5), int64(22), 2, 1, 2, 17,
			m.Snippet.Before, m.Snippet.Matching, m.Snippet.After).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO findings \(finding_id, pattern_id, text\) VALUES \(\$1, \$2, \$3\)`).
		WithArgs("finding-1", m.PatternID, []byte("password=hunter22")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.AddMatch(m))
	require.NoError(t, s.AddFinding(&types.Finding{ID: "finding-1", PatternID: m.PatternID, Text: []byte("password=hunter22")}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddPattern(t *testing.T) {
	s, mock := newMockPostgres(t)
	p := &types.Pattern{ID: "ws.url.token_param", Name: "Token Param", Pattern: "?token=********", Wildcard: '*'}

	mock.ExpectExec(`INSERT INTO patterns .* ON CONFLICT \(id\) DO UPDATE SET`).
		WithArgs(p.ID, p.Name, p.Pattern, "*", p.StructuralID).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.AddPattern(p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMatches(t *testing.T) {
	s, mock := newMockPostgres(t)
	blobID := types.ComputeBlobID([]byte("content"))

	rows := sqlmock.NewRows(matchColumnList).
		AddRow(blobID.Hex(), "ws.github.pat", "GitHub PAT", "sid", "fid",
			int64(3), int64(43), 1, 4, 1, 43,
			[]byte("x="), []byte("ghp_token"), []byte("\n"))
	mock.ExpectQuery(`SELECT blob_id, .* FROM matches WHERE blob_id = \$1 ORDER BY id`).
		WithArgs(blobID.Hex()).
		WillReturnRows(rows)

	matches, err := s.GetMatches(blobID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, blobID, matches[0].BlobID)
	assert.Equal(t, "GitHub PAT", matches[0].PatternName)
	assert.Equal(t, types.OffsetSpan{Start: 3, End: 43}, matches[0].Location.Offset)
	assert.Equal(t, types.SourcePoint{Line: 1, Column: 43}, matches[0].Location.Source.End)
	assert.Equal(t, "ghp_token", string(matches[0].Snippet.Matching))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMatchesBadBlobID(t *testing.T) {
	s, mock := newMockPostgres(t)

	rows := sqlmock.NewRows(matchColumnList).
		AddRow("not-hex", "p", "n", "sid", "fid", int64(0), int64(1), 1, 1, 1, 1, nil, nil, nil)
	mock.ExpectQuery("SELECT blob_id").WillReturnRows(rows)

	_, err := s.GetAllMatches()
	assert.ErrorContains(t, err, "parsing blob ID")
}

func TestPostgresStore_GetFindings(t *testing.T) {
	s, mock := newMockPostgres(t)
	blobID := types.ComputeBlobID([]byte("content"))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT finding_id, pattern_id, text FROM findings ORDER BY finding_id")).
		WillReturnRows(sqlmock.NewRows([]string{"finding_id", "pattern_id", "text"}).
			AddRow("f1", "ws.github.pat", []byte("ghp_a")).
			AddRow("f2", "ws.github.pat", []byte("ghp_b")))
	mock.ExpectQuery(regexp.QuoteMeta("FROM matches ORDER BY id")).
		WillReturnRows(sqlmock.NewRows(matchColumnList).
			AddRow(blobID.Hex(), "ws.github.pat", "GitHub PAT", "m1", "f2", int64(0), int64(5), 1, 1, 1, 5, nil, []byte("ghp_b"), nil))

	findings, err := s.GetFindings()
	require.NoError(t, err)
	require.Len(t, findings, 2)
	assert.Empty(t, findings[0].Matches)
	require.Len(t, findings[1].Matches, 1)
	assert.Equal(t, "m1", findings[1].Matches[0].StructuralID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Provenance(t *testing.T) {
	s, mock := newMockPostgres(t)
	blobID := types.ComputeBlobID([]byte("content"))
	prov := types.FileProvenance{FilePath: "/srv/app.env"}
	payload, err := encodeProvenance(prov)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO provenance \(blob_id, kind, path, payload\) VALUES \(\$1, \$2, \$3, \$4\)`).
		WithArgs(blobID.Hex(), "file", "/srv/app.env", payload).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT kind, payload FROM provenance WHERE blob_id = $1 ORDER BY id")).
		WithArgs(blobID.Hex()).
		WillReturnRows(sqlmock.NewRows([]string{"kind", "payload"}).AddRow("file", payload))

	require.NoError(t, s.AddProvenance(blobID, prov))
	provs, err := s.GetProvenance(blobID)
	require.NoError(t, err)
	assert.Equal(t, []types.Provenance{prov}, provs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Exists(t *testing.T) {
	s, mock := newMockPostgres(t)
	blobID := types.ComputeBlobID([]byte("content"))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM findings WHERE finding_id = $1")).
		WithArgs("f1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM blobs WHERE id = $1")).
		WithArgs(blobID.Hex()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err := s.FindingExists("f1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.BlobExists(blobID)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Annotations(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO annotations .*VALUES \\(\\$1, \\$2, \\$3, \\$4\\)").
		WithArgs(AnnotationFinding, "f1", "accept", "ok").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, comment FROM annotations WHERE kind = $1 AND target_id = $2")).
		WithArgs(AnnotationFinding, "f1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "comment"}).AddRow("accept", "ok"))
	mock.ExpectQuery("SELECT status, comment FROM annotations").
		WithArgs(AnnotationMatch, "m1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "comment"}))

	require.NoError(t, s.SetAnnotation(AnnotationFinding, "f1", "accept", "ok"))

	status, comment, err := s.GetAnnotation(AnnotationFinding, "f1")
	require.NoError(t, err)
	assert.Equal(t, "accept", status)
	assert.Equal(t, "ok", comment)

	status, comment, err = s.GetAnnotation(AnnotationMatch, "m1")
	require.NoError(t, err)
	assert.Empty(t, status)
	assert.Empty(t, comment)
	assert.NoError(t, mock.ExpectationsWereMet())
}
