// Package excelsvc renders and parses the spreadsheet exchange formats:
// student rosters, attendance exports, and the bulk-import sheets.
package excelsvc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/shuleni/backend/core/attendance"
	"github.com/shuleni/backend/core/school"
)

const (
	dateLayout   = "2006-01-02"
	defaultSheet = "Sheet1"

	// ContentType is the MIME type of the generated workbooks.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func writeRow(f *excelize.File, sheet string, rowIdx int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowIdx)
	if err != nil {
		return errors.Wrap(err, "resolving cell")
	}
	return errors.Wrap(f.SetSheetRow(sheet, cell, &values), "writing row")
}

// StudentsWorkbook renders a student roster: ID / Name / Roll No / Class.
func StudentsWorkbook(students []school.Student, classNames map[string]string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := writeRow(f, defaultSheet, 1, []interface{}{"ID", "Name", "Roll No", "Class"}); err != nil {
		return nil, err
	}
	for i, st := range students {
		row := []interface{}{st.ID, st.Name, st.RollNo, classNames[st.ClassID]}
		if err := writeRow(f, defaultSheet, i+2, row); err != nil {
			return nil, err
		}
	}
	return f.WriteToBuffer()
}

// StudentAttendanceWorkbook renders one student's marks: Date / Status.
func StudentAttendanceWorkbook(rows []attendance.Attendance) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := writeRow(f, defaultSheet, 1, []interface{}{"Date", "Status"}); err != nil {
		return nil, err
	}
	for i, att := range rows {
		if err := writeRow(f, defaultSheet, i+2, []interface{}{att.Date.Format(dateLayout), att.Status}); err != nil {
			return nil, err
		}
	}
	return f.WriteToBuffer()
}

// ClassAttendanceWorkbook renders class-level records, one sheet per class:
// Student Name / Date / Status.
func ClassAttendanceWorkbook(classes []attendance.ClassAttendance) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, ca := range classes {
		sheet := ca.ClassName
		if sheet == "" {
			sheet = fmt.Sprintf("Class %d", i+1)
		}
		if i == 0 {
			f.SetSheetName(defaultSheet, sheet)
		} else {
			f.NewSheet(sheet)
		}

		if err := writeRow(f, sheet, 1, []interface{}{"Student Name", "Date", "Status"}); err != nil {
			return nil, err
		}
		for j, rec := range ca.Records {
			row := []interface{}{rec.StudentName, rec.Date.Format(dateLayout), rec.Status}
			if err := writeRow(f, sheet, j+2, row); err != nil {
				return nil, err
			}
		}
	}
	return f.WriteToBuffer()
}

// RawAttendanceWorkbook renders the school-level raw dump:
// ID / Student ID / Teacher ID / Status / Date.
func RawAttendanceWorkbook(rows []attendance.Attendance) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := writeRow(f, defaultSheet, 1, []interface{}{"ID", "Student ID", "Teacher ID", "Status", "Date"}); err != nil {
		return nil, err
	}
	for i, att := range rows {
		row := []interface{}{att.ID, att.StudentID, att.TeacherID, att.Status, att.Date.Format(dateLayout)}
		if err := writeRow(f, defaultSheet, i+2, row); err != nil {
			return nil, err
		}
	}
	return f.WriteToBuffer()
}

// readRows returns the first sheet's rows with the header row skipped.
func readRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "reading rows")
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// ParseTeachers reads a teacher import sheet: name, email, password.
func ParseTeachers(r io.Reader) ([]school.TeacherImportRow, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	out := make([]school.TeacherImportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, school.TeacherImportRow{
			Name:     cell(row, 0),
			Email:    cell(row, 1),
			Password: cell(row, 2),
		})
	}
	return out, nil
}

// ParseClasses reads a class import sheet: name, teacher id.
func ParseClasses(r io.Reader) ([]school.ClassImportRow, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	out := make([]school.ClassImportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, school.ClassImportRow{
			Name:      cell(row, 0),
			TeacherID: cell(row, 1),
		})
	}
	return out, nil
}

// ParseStudents reads a student update sheet: id, name, roll no.
func ParseStudents(r io.Reader) ([]school.StudentImportRow, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	out := make([]school.StudentImportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, school.StudentImportRow{
			ID:     cell(row, 0),
			Name:   cell(row, 1),
			RollNo: cell(row, 2),
		})
	}
	return out, nil
}
