package dashboard

import "time"

// Field names of the assembled payload.
const (
	FieldAttendanceSummary = "attendanceSummary"
	FieldPerformance       = "performance"
	FieldTimetableToday    = "timetableToday"
	FieldAnnouncements     = "announcements"
	FieldAssignments       = "assignments"
	FieldFees              = "fees"
	FieldLibrary           = "library"
	FieldClassSummary      = "classSummary"
	FieldStaffCount        = "staffCount"
	FieldCourseCount       = "courseCount"
	FieldActiveUsers       = "activeUsers"
)

type placeholderFunc func(now time.Time) interface{}

// placeholders holds the value shown for every field whose fetch failed or came
// back empty. It is the only place placeholder data is defined.
var placeholders = map[string]placeholderFunc{
	FieldAttendanceSummary: func(now time.Time) interface{} {
		type subject struct {
			Name    string `json:"name"`
			Percent int    `json:"percent"`
		}
		type entry struct {
			Date   string `json:"date"`
			Status string `json:"status"`
		}
		return struct {
			TotalPercentage int       `json:"totalPercentage"`
			SubjectWise     []subject `json:"subjectWise"`
			Recent          []entry   `json:"recent"`
		}{
			TotalPercentage: 82,
			SubjectWise: []subject{
				{"Maths", 88}, {"DBMS", 75}, {"OS", 80}, {"AI", 70},
			},
			Recent: []entry{
				{now.UTC().Format(time.RFC3339), "Present"},
				{now.Add(-24 * time.Hour).UTC().Format(time.RFC3339), "Absent"},
				{now.Add(-48 * time.Hour).UTC().Format(time.RFC3339), "Present"},
			},
		}
	},
	FieldPerformance: func(time.Time) interface{} {
		type subject struct {
			Name  string `json:"name"`
			Grade string `json:"grade"`
			Marks int    `json:"marks"`
		}
		return struct {
			CGPA        float64   `json:"cgpa"`
			SemesterGPA float64   `json:"semesterGpa"`
			Subjects    []subject `json:"subjects"`
			Rank        int       `json:"rank"`
		}{
			CGPA:        8.4,
			SemesterGPA: 8.6,
			Subjects:    []subject{{"Maths", "A", 88}, {"DBMS", "B+", 78}, {"OS", "A", 84}},
			Rank:        12,
		}
	},
	FieldTimetableToday: func(time.Time) interface{} {
		type class struct {
			StartTime string `json:"startTime"`
			EndTime   string `json:"endTime"`
			Subject   string `json:"subject"`
			Room      string `json:"room"`
		}
		return map[string][]class{"today": {
			{"09:00:00", "10:00:00", "Mathematics", "Room 101"},
			{"10:00:00", "11:00:00", "Data Structures", "Lab C"},
			{"11:00:00", "12:00:00", "DBMS", "Room 204"},
		}}
	},
	FieldAnnouncements: func(time.Time) interface{} {
		type announcement struct {
			ID    int    `json:"id"`
			Title string `json:"title"`
			Date  string `json:"date"`
			Body  string `json:"body"`
		}
		return []announcement{
			{1, "Re-Evaluation Forms", "2025-10-01", "Apply by Oct 10"},
			{2, "Guest Lecture", "2025-10-05", "AI talk at 2PM in Auditorium."},
		}
	},
	FieldAssignments: func(time.Time) interface{} {
		type assignment struct {
			ID      int    `json:"id"`
			Title   string `json:"title"`
			DueDate string `json:"dueDate"`
			Status  string `json:"status"`
		}
		return []assignment{
			{1, "DBMS - Assignment 2", "2025-10-25", "pending"},
			{2, "OS - Lab Report", "2025-10-22", "pending"},
		}
	},
	FieldFees: func(time.Time) interface{} {
		return map[string]interface{}{"paid": 50000, "pending": 0, "lastReceiptUrl": nil}
	},
	FieldLibrary: func(time.Time) interface{} {
		return map[string]interface{}{
			"borrowed": []map[string]string{{"title": "Clean Code", "dueDate": "2025-10-29"}},
			"fines":    0,
		}
	},
	FieldClassSummary: func(time.Time) interface{} {
		return map[string]interface{}{
			"totalStudents":     58,
			"averageAttendance": 81,
			"subjectsHandled":   []string{"DBMS", "OS"},
		}
	},
	FieldStaffCount:  func(time.Time) interface{} { return 15 },
	FieldCourseCount: func(time.Time) interface{} { return 5 },
	FieldActiveUsers: func(time.Time) interface{} { return 300 },
}
