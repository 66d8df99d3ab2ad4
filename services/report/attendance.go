// Package reportsvc renders spreadsheet reports.
package reportsvc

import (
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/adz4needz/portal/core/attendance"
	"github.com/adz4needz/portal/core/user"
)

const (
	attendanceSheet = "Attendance"
	summarySheet    = "Summary"

	clockInLayout = "15:04"
	ContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	attendanceHeaders = []interface{}{"Date", "Employee ID", "Name", "Role", "Department", "Clock-in", "Status"}
	summaryHeaders    = []interface{}{"Employee ID", "Name", "Present", "Late", "Absent", "Total"}
)

type summaryRow struct {
	usr                   user.User
	present, late, absent int
}

// WriteAttendance writes an XLSX workbook with one row per attendance record and a per-member summary.
// Clock-in times are shown in the policy's time zone.
func WriteAttendance(w io.Writer, records []attendance.Attendance, users []user.User, policy attendance.Policy) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), attendanceSheet); err != nil {
		return errors.Wrap(err, "naming attendance sheet")
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return errors.Wrap(err, "creating summary sheet")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	byID := make(map[string]user.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	// records
	if err = writeHeader(f, attendanceSheet, attendanceHeaders, bold); err != nil {
		return err
	}
	summary := make(map[string]*summaryRow)
	for i, a := range records {
		usr, ok := byID[a.UserID]
		if !ok {
			usr = user.User{ID: a.UserID}
		}
		clockIn := ""
		if a.Status != attendance.StatusAbsent {
			clockIn = a.ClockInTime.In(policy.Location).Format(clockInLayout)
		}
		row := []interface{}{a.Date, usr.ID, usr.FullName, string(usr.Role), string(usr.Department), clockIn, string(a.Status)}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err = f.SetSheetRow(attendanceSheet, cell, &row); err != nil {
			return errors.Wrapf(err, "writing row %d", i+2)
		}

		s, ok := summary[usr.ID]
		if !ok {
			s = &summaryRow{usr: usr}
			summary[usr.ID] = s
		}
		switch a.Status {
		case attendance.StatusPresent:
			s.present++
		case attendance.StatusLate:
			s.late++
		case attendance.StatusAbsent:
			s.absent++
		}
	}
	if err = f.SetColWidth(attendanceSheet, "A", "G", 16); err != nil {
		return errors.Wrap(err, "sizing columns")
	}

	// summary
	if err = writeHeader(f, summarySheet, summaryHeaders, bold); err != nil {
		return err
	}
	rows := make([]*summaryRow, 0, len(summary))
	for _, s := range summary {
		rows = append(rows, s)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].usr.ID < rows[j].usr.ID })
	for i, s := range rows {
		row := []interface{}{s.usr.ID, s.usr.FullName, s.present, s.late, s.absent, s.present + s.late + s.absent}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err = f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return errors.Wrapf(err, "writing summary row %d", i+2)
		}
	}

	return errors.Wrap(f.Write(w), "writing workbook")
}

func writeHeader(f *excelize.File, sheet string, headers []interface{}, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return errors.Wrapf(err, "writing %s header", sheet)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return errors.Wrapf(f.SetCellStyle(sheet, "A1", last, style), "styling %s header", sheet)
}
