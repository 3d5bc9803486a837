package iisclient

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Структуры для декодирования ответов API IIS. Фид слабо типизирован:
// часть полей приходит то объектом, то строкой, то числом, поэтому для
// таких семейств полей здесь свои декодеры, приводящие значение к одной
// канонической форме до любой дальнейшей обработки.

type Faculty struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Abbrev string `json:"abbrev"`
}

type Department struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	NameAbbrev string `json:"nameAbbrev"`
	Abbrev     string `json:"abbrev"`
}

type EducationForm struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Speciality struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Abbrev        string         `json:"abbrev"`
	Code          string         `json:"code"`
	EducationForm *EducationForm `json:"educationForm"`
	FacultyID     int64          `json:"facultyId"`
}

type StudentGroup struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Course           *int    `json:"course"`
	CalendarID       *string `json:"calendarId"`
	EducationDegree  int     `json:"educationDegree"`
	NumberOfStudents *int    `json:"numberOfStudents"`
	SpecialityID     int64   `json:"specialityDepartmentEducationFormId"`
}

// DepartmentRef — кафедра сотрудника: строка либо объект {name, abbrev}.
type DepartmentRef struct {
	Value string
}

func (d *DepartmentRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		d.Value = s
		return nil
	}
	var obj struct {
		Name   string `json:"name"`
		Abbrev string `json:"abbrev"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		if obj.Name != "" {
			d.Value = obj.Name
		} else {
			d.Value = obj.Abbrev
		}
	}
	return nil
}

type Employee struct {
	ID                 int64           `json:"id"`
	FirstName          string          `json:"firstName"`
	LastName           string          `json:"lastName"`
	MiddleName         *string         `json:"middleName"`
	Degree             *string         `json:"degree"`
	Rank               *string         `json:"rank"`
	PhotoLink          *string         `json:"photoLink"`
	CalendarID         *string         `json:"calendarId"`
	URLID              string          `json:"urlId"`
	AcademicDepartment []DepartmentRef `json:"academicDepartment"`
}

// Building — корпус аудитории. Бывает объектом, бывает мусором;
// всё, что не объект с name, даёт пустое значение.
type Building struct {
	Name string
}

func (b *Building) UnmarshalJSON(data []byte) error {
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		b.Name = obj.Name
	}
	return nil
}

type AuditoryDepartment struct {
	IDDepartment int64  `json:"idDepartment"`
	Name         string `json:"name"`
	Abbrev       string `json:"abbrev"`
}

type AuditoryType struct {
	Name string `json:"name"`
}

type Auditory struct {
	ID               int64               `json:"id"`
	Name             string              `json:"name"`
	Note             *string             `json:"note"`
	Capacity         *int                `json:"capacity"`
	AuditoryType     *AuditoryType       `json:"auditoryType"`
	BuildingNumber   *Building           `json:"buildingNumber"`
	BuildingNumberID int64               `json:"buildingNumberId"`
	Department       *AuditoryDepartment `json:"department"`
	DepartmentID     *int64              `json:"departmentId"`
}

// AuditoryList — аудитории занятия: объект {name, id}, строка или
// голое число. Нормализуется в список имён.
type AuditoryList struct {
	Names []string
}

func (a *AuditoryList) UnmarshalJSON(data []byte) error {
	a.Names = nil
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	for _, raw := range items {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			a.Names = append(a.Names, s)
			continue
		}
		var n int64
		if err := json.Unmarshal(raw, &n); err == nil {
			a.Names = append(a.Names, strconv.FormatInt(n, 10))
			continue
		}
		var obj struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil {
			switch {
			case obj.Name != "":
				a.Names = append(a.Names, obj.Name)
			case obj.ID != 0:
				a.Names = append(a.Names, strconv.FormatInt(obj.ID, 10))
			}
		}
	}
	return nil
}

// Participant — элемент списка участников занятия: объект преподавателя,
// объект группы или просто строка.
type Participant struct {
	IsString         bool
	Text             string
	Name             string
	FirstName        string
	LastName         string
	NumberOfStudents int
}

func (p *Participant) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.IsString = true
		p.Text = s
		return nil
	}
	var obj struct {
		Name             string `json:"name"`
		FirstName        string `json:"firstName"`
		LastName         string `json:"lastName"`
		NumberOfStudents int    `json:"numberOfStudents"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		p.Name = obj.Name
		p.FirstName = obj.FirstName
		p.LastName = obj.LastName
		p.NumberOfStudents = obj.NumberOfStudents
	}
	return nil
}

// ParticipantList хранит исходный JSON как есть (для колонок related_*)
// и разобранные элементы.
type ParticipantList struct {
	Raw   json.RawMessage
	Items []Participant
}

func (p *ParticipantList) UnmarshalJSON(data []byte) error {
	p.Raw = append(p.Raw[:0], data...)
	p.Items = nil
	_ = json.Unmarshal(data, &p.Items)
	return nil
}

// PersonNames — отображаемые имена в форме «Фамилия Имя».
func (p ParticipantList) PersonNames() []string {
	var res []string
	for _, it := range p.Items {
		if it.IsString {
			res = append(res, it.Text)
			continue
		}
		if v := strings.TrimSpace(it.LastName + " " + it.FirstName); v != "" {
			res = append(res, v)
		}
	}
	return res
}

// GroupNames — отображаемые имена групп.
func (p ParticipantList) GroupNames() []string {
	var res []string
	for _, it := range p.Items {
		if it.IsString {
			res = append(res, it.Text)
			continue
		}
		if it.Name != "" {
			res = append(res, it.Name)
		}
	}
	return res
}

// Lesson — одно занятие или экзамен внутри документа расписания.
type Lesson struct {
	Subject          string          `json:"subject"`
	SubjectFullName  string          `json:"subjectFullName"`
	LessonTypeAbbrev string          `json:"lessonTypeAbbrev"`
	NumSubgroup      int             `json:"numSubgroup"`
	WeekNumber       []int           `json:"weekNumber"`
	Auditories       AuditoryList    `json:"auditories"`
	StartLessonTime  string          `json:"startLessonTime"`
	EndLessonTime    string          `json:"endLessonTime"`
	DateLesson       string          `json:"dateLesson"`
	StudentGroups    ParticipantList `json:"studentGroups"`
	Employees        ParticipantList `json:"employees"`
}

// ScheduleDocument — сырой документ расписания одной сущности плюс его
// разобранное содержимое. Raw сохраняется в архив дословно.
type ScheduleDocument struct {
	Raw       json.RawMessage
	Schedules map[string][]Lesson
	Exams     []Lesson
}

// Empty сообщает, что в документе нет ни занятий, ни экзаменов.
func (d *ScheduleDocument) Empty() bool {
	return d == nil || (len(d.Schedules) == 0 && len(d.Exams) == 0)
}

// ParseScheduleDocument разбирает документ расписания. Пустое тело и
// JSON null дают nil-документ. Поле schedules иногда приходит пустым
// списком вместо словаря — такое трактуется как отсутствие занятий.
func ParseScheduleDocument(raw []byte) (*ScheduleDocument, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var body struct {
		Schedules json.RawMessage `json:"schedules"`
		Exams     []Lesson        `json:"exams"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	doc := &ScheduleDocument{
		Raw:       append(json.RawMessage(nil), raw...),
		Schedules: map[string][]Lesson{},
		Exams:     body.Exams,
	}
	if len(body.Schedules) > 0 {
		_ = json.Unmarshal(body.Schedules, &doc.Schedules)
	}
	return doc, nil
}
