package iisclient

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditoryListVariants(t *testing.T) {
	var a AuditoryList
	// Объект, строка и голое число приводятся к списку имён.
	require.NoError(t, json.Unmarshal([]byte(`[{"id":7,"name":"501-2 к."},"110-4 к.",305]`), &a))
	assert.Equal(t, []string{"501-2 к.", "110-4 к.", "305"}, a.Names)

	// Объект без имени, но с id — id в виде строки.
	require.NoError(t, json.Unmarshal([]byte(`[{"id":42}]`), &a))
	assert.Equal(t, []string{"42"}, a.Names)

	// Не массив — пустой список, а не ошибка документа.
	require.NoError(t, json.Unmarshal([]byte(`"мусор"`), &a))
	assert.Empty(t, a.Names)
}

func TestParticipantListNames(t *testing.T) {
	var p ParticipantList
	raw := `[{"lastName":"Иванов","firstName":"Пётр"},{"lastName":"Сидорова","firstName":""},"Петров В. В."]`
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, []string{"Иванов Пётр", "Сидорова", "Петров В. В."}, p.PersonNames())
	// Сырой JSON сохраняется дословно.
	assert.JSONEq(t, raw, string(p.Raw))
}

func TestParticipantListGroupNames(t *testing.T) {
	var p ParticipantList
	raw := `[{"name":"253501","numberOfStudents":27},{"name":""},"253502"]`
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, []string{"253501", "253502"}, p.GroupNames())
	assert.Equal(t, 27, p.Items[0].NumberOfStudents)
}

func TestDepartmentRefVariants(t *testing.T) {
	var e Employee
	raw := `{"id":1,"firstName":"Иван","lastName":"Петров","urlId":"ivan-petrov",
		"academicDepartment":["Кафедра информатики",{"name":"Кафедра физики","abbrev":"КФ"},{"abbrev":"КМ"}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	require.Len(t, e.AcademicDepartment, 3)
	assert.Equal(t, "Кафедра информатики", e.AcademicDepartment[0].Value)
	assert.Equal(t, "Кафедра физики", e.AcademicDepartment[1].Value)
	assert.Equal(t, "КМ", e.AcademicDepartment[2].Value)
}

func TestBuildingTolerantDecoding(t *testing.T) {
	var a Auditory
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"name":"501","buildingNumber":{"name":"2 к."}}`), &a))
	require.NotNil(t, a.BuildingNumber)
	assert.Equal(t, "2 к.", a.BuildingNumber.Name)

	// Число вместо объекта не валит декодирование всего списка.
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"name":"502","buildingNumber":2}`), &a))
	require.NotNil(t, a.BuildingNumber)
	assert.Equal(t, "", a.BuildingNumber.Name)
}

func TestParseScheduleDocument(t *testing.T) {
	doc, err := ParseScheduleDocument([]byte(`{"schedules":{"Понедельник":[{"subject":"ОАиП"}]},"exams":[]}`))
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Len(t, doc.Schedules["Понедельник"], 1)
	assert.False(t, doc.Empty())

	// Пустое тело и null — отсутствие документа.
	doc, err = ParseScheduleDocument(nil)
	require.NoError(t, err)
	assert.Nil(t, doc)
	doc, err = ParseScheduleDocument([]byte("null"))
	require.NoError(t, err)
	assert.Nil(t, doc)

	// schedules списком вместо словаря — просто нет занятий.
	doc, err = ParseScheduleDocument([]byte(`{"schedules":[],"exams":[{"subject":"Экзамен"}]}`))
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Empty(t, doc.Schedules)
	assert.Len(t, doc.Exams, 1)

	_, err = ParseScheduleDocument([]byte(`{мусор`))
	assert.Error(t, err)
}
