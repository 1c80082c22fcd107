package query

import (
	"testing"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_RenderNumbersPlaceholders(t *testing.T) {
	f := Filter{}.
		Where("a.is_deleted = false").
		Where("a.status = ?", "pending").
		Where("(u.name ILIKE ? OR u.dni ILIKE ?)", "%ana%", "%ana%")

	where, args := f.Render()

	assert.Equal(t, " WHERE a.is_deleted = false AND a.status = $1 AND (u.name ILIKE $2 OR u.dni ILIKE $3)", where)
	assert.Equal(t, []any{"pending", "%ana%", "%ana%"}, args)
}

func TestFilter_EmptyRendersNothing(t *testing.T) {
	where, args := Filter{}.Render()

	assert.Empty(t, where)
	assert.Nil(t, args)
}

func TestFilter_WhereDoesNotLeakBetweenBranches(t *testing.T) {
	common := Filter{}.Where("a.is_deleted = false")

	doctor := common.Where("a.doctor_id = ?", int64(7))
	patient := common.Where("a.patient_id = ?", int64(9))

	commonWhere, _ := common.Render()
	doctorWhere, doctorArgs := doctor.Render()
	patientWhere, patientArgs := patient.Render()

	assert.Equal(t, " WHERE a.is_deleted = false", commonWhere)
	assert.Equal(t, " WHERE a.is_deleted = false AND a.doctor_id = $1", doctorWhere)
	assert.Equal(t, []any{int64(7)}, doctorArgs)
	assert.Equal(t, " WHERE a.is_deleted = false AND a.patient_id = $1", patientWhere)
	assert.Equal(t, []any{int64(9)}, patientArgs)
}

func TestFilter_WhereIn(t *testing.T) {
	f := Filter{}.WhereIn("u.role", "admin", "doctor")
	where, args := f.Render()

	assert.Equal(t, " WHERE u.role IN ($1, $2)", where)
	assert.Equal(t, []any{"admin", "doctor"}, args)

	assert.Equal(t, 0, Filter{}.WhereIn("u.role").Len())
}

func TestFilter_WherePanicsOnArgMismatch(t *testing.T) {
	assert.Panics(t, func() {
		Filter{}.Where("a.status = ?")
	})
}

func TestBuild_SharesPredicatesBetweenCountAndPage(t *testing.T) {
	src := Source{
		Columns: "a.id",
		From:    "appointments a JOIN users d ON a.doctor_id = d.id",
		OrderBy: "a.appointment_date DESC, a.appointment_time DESC",
	}
	f := Filter{}.Where("a.status = ?", "confirmed")

	st := Build(src, f, model.PageRequest{Page: 3, Limit: 5})

	assert.Equal(t, "SELECT COUNT(*) FROM appointments a JOIN users d ON a.doctor_id = d.id WHERE a.status = $1", st.CountSQL)
	assert.Equal(t, []any{"confirmed"}, st.CountArgs)
	assert.Equal(t,
		"SELECT a.id FROM appointments a JOIN users d ON a.doctor_id = d.id WHERE a.status = $1 "+
			"ORDER BY a.appointment_date DESC, a.appointment_time DESC LIMIT $2 OFFSET $3",
		st.PageSQL)
	require.Len(t, st.PageArgs, 3)
	assert.Equal(t, []any{"confirmed", 5, 10}, st.PageArgs)
}

func TestBuild_DefaultsPaging(t *testing.T) {
	st := Build(Source{Columns: "u.id", From: "users u", OrderBy: "u.id DESC"}, Filter{}, model.PageRequest{})

	assert.Equal(t, "SELECT u.id FROM users u ORDER BY u.id DESC LIMIT $1 OFFSET $2", st.PageSQL)
	assert.Equal(t, []any{10, 0}, st.PageArgs)
}
