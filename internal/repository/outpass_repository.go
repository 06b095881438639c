package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
)

// ErrVersionConflict is returned when a request changed between read and write.
var ErrVersionConflict = errors.New("outpass request version conflict")

var outpassColumnList = []string{
	"id", "student_id", "reason", "destination", "out_date", "out_time", "return_date", "return_time",
	"overall_status", "current_stage",
	"advisor_status", "advisor_approver_id", "advisor_approver_name", "advisor_acted_at",
	"coordinator_status", "coordinator_approver_id", "coordinator_approver_name", "coordinator_acted_at",
	"hod_status", "hod_approver_id", "hod_approver_name", "hod_acted_at",
	"warden_status", "warden_approver_id", "warden_approver_name", "warden_acted_at",
	"submitted_at", "updated_at", "version",
}

var outpassColumns = strings.Join(outpassColumnList, ", ")

func qualifiedOutpassColumns(alias string) string {
	cols := make([]string, len(outpassColumnList))
	for i, c := range outpassColumnList {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func namedOutpassColumns() string {
	params := make([]string, len(outpassColumnList))
	for i, c := range outpassColumnList {
		params[i] = ":" + c
	}
	return strings.Join(params, ", ")
}

// outpassRow is the flat table shape of models.OutpassRequest.
type outpassRow struct {
	ID                      string     `db:"id"`
	StudentID               string     `db:"student_id"`
	Reason                  string     `db:"reason"`
	Destination             string     `db:"destination"`
	OutDate                 string     `db:"out_date"`
	OutTime                 string     `db:"out_time"`
	ReturnDate              string     `db:"return_date"`
	ReturnTime              string     `db:"return_time"`
	OverallStatus           string     `db:"overall_status"`
	CurrentStage            string     `db:"current_stage"`
	AdvisorStatus           string     `db:"advisor_status"`
	AdvisorApproverID       *string    `db:"advisor_approver_id"`
	AdvisorApproverName     *string    `db:"advisor_approver_name"`
	AdvisorActedAt          *time.Time `db:"advisor_acted_at"`
	CoordinatorStatus       string     `db:"coordinator_status"`
	CoordinatorApproverID   *string    `db:"coordinator_approver_id"`
	CoordinatorApproverName *string    `db:"coordinator_approver_name"`
	CoordinatorActedAt      *time.Time `db:"coordinator_acted_at"`
	HODStatus               string     `db:"hod_status"`
	HODApproverID           *string    `db:"hod_approver_id"`
	HODApproverName         *string    `db:"hod_approver_name"`
	HODActedAt              *time.Time `db:"hod_acted_at"`
	WardenStatus            string     `db:"warden_status"`
	WardenApproverID        *string    `db:"warden_approver_id"`
	WardenApproverName      *string    `db:"warden_approver_name"`
	WardenActedAt           *time.Time `db:"warden_acted_at"`
	SubmittedAt             time.Time  `db:"submitted_at"`
	UpdatedAt               time.Time  `db:"updated_at"`
	Version                 int        `db:"version"`
}

func newOutpassRow(req *models.OutpassRequest) outpassRow {
	row := outpassRow{
		ID:            req.ID,
		StudentID:     req.StudentID,
		Reason:        req.Reason,
		Destination:   req.Destination,
		OutDate:       req.OutDate,
		OutTime:       req.OutTime,
		ReturnDate:    req.ReturnDate,
		ReturnTime:    req.ReturnTime,
		OverallStatus: string(req.OverallStatus),
		CurrentStage:  string(req.CurrentStage),
		SubmittedAt:   req.SubmittedAt,
		UpdatedAt:     req.UpdatedAt,
		Version:       req.Version,
	}
	for i, s := range row.stageSlots() {
		state := req.Stages[i]
		*s.status = string(state.Status)
		*s.approverID = state.ApproverID
		*s.approverName = state.ApproverName
		*s.actedAt = state.ActedAt
	}
	return row
}

type stageSlot struct {
	status       *string
	approverID   **string
	approverName **string
	actedAt      **time.Time
}

// stageSlots lists the per-stage columns in approval order.
func (r *outpassRow) stageSlots() [models.StageCount]stageSlot {
	return [models.StageCount]stageSlot{
		{&r.AdvisorStatus, &r.AdvisorApproverID, &r.AdvisorApproverName, &r.AdvisorActedAt},
		{&r.CoordinatorStatus, &r.CoordinatorApproverID, &r.CoordinatorApproverName, &r.CoordinatorActedAt},
		{&r.HODStatus, &r.HODApproverID, &r.HODApproverName, &r.HODActedAt},
		{&r.WardenStatus, &r.WardenApproverID, &r.WardenApproverName, &r.WardenActedAt},
	}
}

func (r outpassRow) toModel() models.OutpassRequest {
	req := models.OutpassRequest{
		ID:            r.ID,
		StudentID:     r.StudentID,
		Reason:        r.Reason,
		Destination:   r.Destination,
		OutDate:       r.OutDate,
		OutTime:       r.OutTime,
		ReturnDate:    r.ReturnDate,
		ReturnTime:    r.ReturnTime,
		OverallStatus: models.OutpassStatus(r.OverallStatus),
		CurrentStage:  models.OutpassStage(r.CurrentStage),
		SubmittedAt:   r.SubmittedAt,
		UpdatedAt:     r.UpdatedAt,
		Version:       r.Version,
	}
	for i, s := range r.stageSlots() {
		req.Stages[i] = models.StageState{
			Status:       models.StageStatus(*s.status),
			ApproverID:   *s.approverID,
			ApproverName: *s.approverName,
			ActedAt:      *s.actedAt,
		}
	}
	return req
}

// OutpassTx exposes the writes allowed while a request row is locked.
type OutpassTx interface {
	Update(ctx context.Context, req *models.OutpassRequest, expectedVersion int) error
	AppendEvent(ctx context.Context, event *models.OutpassEvent) error
}

// OutpassRepository persists outpass requests and their history.
type OutpassRepository struct {
	db *sqlx.DB
}

// NewOutpassRepository constructs the repository.
func NewOutpassRepository(db *sqlx.DB) *OutpassRepository {
	return &OutpassRepository{db: db}
}

var insertOutpassQuery = `INSERT INTO outpass_requests (` + outpassColumns + `) VALUES (` + namedOutpassColumns() + `)`

// Create inserts a new request and its SUBMIT event atomically.
func (r *OutpassRepository) Create(ctx context.Context, req *models.OutpassRequest, event *models.OutpassEvent) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin outpass transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.NamedExecContext(ctx, insertOutpassQuery, newOutpassRow(req)); err != nil {
		return fmt.Errorf("create outpass request: %w", err)
	}
	if err = insertOutpassEvent(ctx, tx, event); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit outpass transaction: %w", err)
	}
	return nil
}

// GetByID fetches a request. A missing row is reported as sql.ErrNoRows.
func (r *OutpassRepository) GetByID(ctx context.Context, id string) (*models.OutpassRequest, error) {
	query := `SELECT ` + outpassColumns + ` FROM outpass_requests WHERE id = $1`
	var row outpassRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get outpass request: %w", err)
	}
	req := row.toModel()
	return &req, nil
}

// ListByStudent returns a student's requests, newest first.
func (r *OutpassRepository) ListByStudent(ctx context.Context, studentID string) ([]models.OutpassRequest, error) {
	query := `SELECT ` + outpassColumns + ` FROM outpass_requests WHERE student_id = $1 ORDER BY submitted_at DESC, id DESC`
	var rows []outpassRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list outpass requests: %w", err)
	}
	result := make([]models.OutpassRequest, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toModel())
	}
	return result, nil
}

type pendingOutpassRow struct {
	outpassRow
	StudentUserID     string `db:"student_user_id"`
	StudentRegNo      string `db:"student_reg_no"`
	StudentName       string `db:"student_name"`
	StudentDepartment string `db:"student_department"`
	StudentYear       int    `db:"student_year"`
	StudentSemester   int    `db:"student_semester"`
	StudentSection    string `db:"student_section"`
	StudentHostel     string `db:"student_hostel"`
	StudentResident   bool   `db:"student_is_resident"`
	StudentActive     bool   `db:"student_active"`
}

// ListPendingAtStage returns requests waiting on stage joined with their requester, oldest first.
func (r *OutpassRepository) ListPendingAtStage(ctx context.Context, stage models.OutpassStage) ([]models.PendingOutpass, error) {
	query := `SELECT ` + qualifiedOutpassColumns("o") + `,
	s.user_id AS student_user_id, s.reg_no AS student_reg_no, s.full_name AS student_name,
	s.department AS student_department, s.year AS student_year, s.semester AS student_semester,
	s.section AS student_section, COALESCE(s.hostel, '') AS student_hostel,
	s.is_resident AS student_is_resident, s.active AS student_active
FROM outpass_requests o
JOIN students s ON s.id = o.student_id
WHERE o.overall_status = $1 AND o.current_stage = $2
ORDER BY o.submitted_at ASC, o.id ASC`
	var rows []pendingOutpassRow
	if err := r.db.SelectContext(ctx, &rows, query, models.OutpassStatusPending, stage); err != nil {
		return nil, fmt.Errorf("list pending outpass requests: %w", err)
	}
	result := make([]models.PendingOutpass, 0, len(rows))
	for _, row := range rows {
		result = append(result, models.PendingOutpass{
			Request: row.outpassRow.toModel(),
			Student: models.StudentProfile{
				ID:         row.StudentID,
				UserID:     row.StudentUserID,
				RegNo:      row.StudentRegNo,
				FullName:   row.StudentName,
				Department: row.StudentDepartment,
				Year:       row.StudentYear,
				Semester:   row.StudentSemester,
				Section:    row.StudentSection,
				Hostel:     row.StudentHostel,
				IsResident: row.StudentResident,
				Active:     row.StudentActive,
			},
		})
	}
	return result, nil
}

// WithinRequestTx locks the request row and runs fn inside one transaction. Any error
// from fn rolls everything back. A missing row is reported as sql.ErrNoRows.
func (r *OutpassRepository) WithinRequestTx(ctx context.Context, id string, fn func(tx OutpassTx, current models.OutpassRequest) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin outpass transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `SELECT ` + outpassColumns + ` FROM outpass_requests WHERE id = $1 FOR UPDATE`
	var row outpassRow
	if err = tx.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("lock outpass request: %w", err)
	}

	if err = fn(&sqlxOutpassTx{tx: tx}, row.toModel()); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit outpass transaction: %w", err)
	}
	return nil
}

type sqlxOutpassTx struct {
	tx *sqlx.Tx
}

type outpassUpdateRow struct {
	outpassRow
	ExpectedVersion int `db:"expected_version"`
}

const updateOutpassQuery = `UPDATE outpass_requests SET
	overall_status = :overall_status, current_stage = :current_stage,
	advisor_status = :advisor_status, advisor_approver_id = :advisor_approver_id, advisor_approver_name = :advisor_approver_name, advisor_acted_at = :advisor_acted_at,
	coordinator_status = :coordinator_status, coordinator_approver_id = :coordinator_approver_id, coordinator_approver_name = :coordinator_approver_name, coordinator_acted_at = :coordinator_acted_at,
	hod_status = :hod_status, hod_approver_id = :hod_approver_id, hod_approver_name = :hod_approver_name, hod_acted_at = :hod_acted_at,
	warden_status = :warden_status, warden_approver_id = :warden_approver_id, warden_approver_name = :warden_approver_name, warden_acted_at = :warden_acted_at,
	updated_at = :updated_at, version = :version
WHERE id = :id AND version = :expected_version`

// Update writes the stage columns of req if the stored version still equals expectedVersion.
func (t *sqlxOutpassTx) Update(ctx context.Context, req *models.OutpassRequest, expectedVersion int) error {
	result, err := t.tx.NamedExecContext(ctx, updateOutpassQuery, outpassUpdateRow{outpassRow: newOutpassRow(req), ExpectedVersion: expectedVersion})
	if err != nil {
		return fmt.Errorf("update outpass request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check outpass update rows: %w", err)
	}
	if rows == 0 {
		return ErrVersionConflict
	}
	return nil
}

// AppendEvent records a history entry in the same transaction.
func (t *sqlxOutpassTx) AppendEvent(ctx context.Context, event *models.OutpassEvent) error {
	return insertOutpassEvent(ctx, t.tx, event)
}
