package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/policy"
)

// dryRun returns a PostgreSQL-dialect handle that renders statements
// without connecting.
func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=safevoice dbname=safevoice sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestFiltered_ActionTakerSearch(t *testing.T) {
	db := dryRun(t)
	vis := policy.VisibilityFor(policy.Viewer{UID: "taker-1", Role: models.RoleActionTaker})

	var out []models.Complaint
	stmt := filtered(db, vis, ListQuery{Search: " 50%_off "}).Find(&out).Statement

	assert.Regexp(t,
		`WHERE \(complaint_id ILIKE \$1 OR description ILIKE \$2 OR location ILIKE \$3\) AND assigned_to = \$4`,
		stmt.SQL.String())
	like := `%50\%\_off%`
	assert.Equal(t, []interface{}{like, like, like, "taker-1"}, stmt.Vars)
}

func TestFiltered_EmptyVisibilityMatchesNothing(t *testing.T) {
	db := dryRun(t)

	var out []models.Complaint
	stmt := filtered(db, policy.Visibility{}, ListQuery{Status: models.StatusWorking}).Find(&out).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "status = $1")
	assert.Contains(t, sql, "1 = 0")
}

func TestFiltered_AllSeesEverything(t *testing.T) {
	db := dryRun(t)

	var out []models.Complaint
	stmt := filtered(db, policy.Visibility{All: true}, ListQuery{}).Find(&out).Statement

	sql := stmt.SQL.String()
	assert.NotContains(t, sql, "WHERE")
	assert.Empty(t, stmt.Vars)
}

func TestLockVisible_ScopesRowLock(t *testing.T) {
	db := dryRun(t)

	var c models.Complaint
	stmt := lockVisible(db, policy.Visibility{AssignedTo: "taker-1"}, "CMP-AAAA2222", &c).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "complaint_id = $1")
	assert.Contains(t, sql, "assigned_to = $2")
	assert.Contains(t, sql, "FOR UPDATE")
	assert.Equal(t, "CMP-AAAA2222", stmt.Vars[0])
	assert.Equal(t, "taker-1", stmt.Vars[1])
}

func TestUpdateAtVersion_GuardsVersion(t *testing.T) {
	db := dryRun(t)

	stmt := updateAtVersion(db, "CMP-AAAA2222", 3, map[string]interface{}{
		"status":  models.StatusWorking,
		"version": 4,
	}).Statement

	sql := stmt.SQL.String()
	assert.Regexp(t, `^UPDATE "complaints" SET .*"version"=\$\d+`, sql)
	assert.Regexp(t, `WHERE complaint_id = \$\d+ AND version = \$\d+$`, sql)
	require.GreaterOrEqual(t, len(stmt.Vars), 2)
	assert.Equal(t, []interface{}{"CMP-AAAA2222", 3}, stmt.Vars[len(stmt.Vars)-2:])
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%bench%", containsPattern("bench"))
	assert.Equal(t, `%100\%%`, containsPattern("100%"))
	assert.Equal(t, `%a\_b%`, containsPattern("a_b"))
	assert.Equal(t, `%c:\\tmp%`, containsPattern(`c:\tmp`))
}
