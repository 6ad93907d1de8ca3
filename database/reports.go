package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/classattend/attendancebackend/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// UnitReportSummary aggregates completed session counts for a unit
type UnitReportSummary struct {
	UnitID            uint    `json:"unit_id"`
	CompletedSessions int     `json:"completed_sessions"`
	TotalRegistered   int     `json:"total_registered"`
	AveragePresent    float64 `json:"average_present"`
	AverageAbsent     float64 `json:"average_absent"`
	AverageUnknown    float64 `json:"average_unknown"`
}

// StudentAttendanceRate is one row of the per-student report
type StudentAttendanceRate struct {
	StudentID       uint    `json:"student_id"`
	AdmissionNumber string  `json:"admission_number"`
	FullName        string  `json:"full_name"`
	SessionsPresent int     `json:"sessions_present"`
	SessionsTotal   int     `json:"sessions_total"`
	AttendanceRate  float64 `json:"attendance_rate"`
}

// GetUnitReportSummary computes aggregate counts over a unit's completed
// sessions. Units with no completed sessions return a zero summary.
func GetUnitReportSummary(db *sql.DB, unitID uint) (UnitReportSummary, error) {
	summary := UnitReportSummary{UnitID: unitID}

	queryBuilder := psql.Select(
		"COUNT(*)",
		"COALESCE(MAX(total_registered), 0)",
		"COALESCE(AVG(present_count), 0)",
		"COALESCE(AVG(absent_count), 0)",
		"COALESCE(AVG(unknown_count), 0)",
	).
		From("attendance_sessions").
		Where(sq.Eq{"unit_id": unitID, "status": models.SessionStatusCompleted})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return summary, fmt.Errorf("failed to build SQL query for GetUnitReportSummary: %w", err)
	}

	err = db.QueryRow(sqlStr, args...).Scan(
		&summary.CompletedSessions,
		&summary.TotalRegistered,
		&summary.AveragePresent,
		&summary.AverageAbsent,
		&summary.AverageUnknown,
	)
	if err != nil {
		return summary, fmt.Errorf("failed to query unit report summary: %w", err)
	}
	return summary, nil
}

// GetStudentAttendanceRates returns per-student presence counts across all
// completed sessions of a unit, ordered by admission number
func GetStudentAttendanceRates(db *sql.DB, unitID uint) ([]StudentAttendanceRate, error) {
	queryBuilder := psql.Select(
		"s.id",
		"s.admission_number",
		"s.full_name",
		"COALESCE(SUM(CASE WHEN r.present THEN 1 ELSE 0 END), 0) AS sessions_present",
		"COUNT(r.session_id) AS sessions_total",
	).
		From("students s").
		LeftJoin("attendance_records r ON r.student_id = s.id").
		Where(sq.Eq{"s.unit_id": unitID, "s.is_active": true}).
		Where("s.deleted_at IS NULL").
		GroupBy("s.id", "s.admission_number", "s.full_name").
		OrderBy("s.admission_number ASC")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for GetStudentAttendanceRates: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query student attendance rates: %w", err)
	}
	defer rows.Close()

	var rates []StudentAttendanceRate
	for rows.Next() {
		var rate StudentAttendanceRate
		if err := rows.Scan(&rate.StudentID, &rate.AdmissionNumber, &rate.FullName, &rate.SessionsPresent, &rate.SessionsTotal); err != nil {
			return nil, fmt.Errorf("failed to scan student attendance rate row: %w", err)
		}
		if rate.SessionsTotal > 0 {
			rate.AttendanceRate = float64(rate.SessionsPresent) / float64(rate.SessionsTotal)
		}
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student attendance rate rows: %w", err)
	}
	return rates, nil
}
