package repository

import (
	"context"

	"github.com/examwizards/examwizards-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `e.id, e.course_id, e.title, e.start_at, e.end_at,
	e.duration_minutes, e.created_by, e.created_at, e.updated_at`

func scanExam(row pgx.Row, e *model.Exam) error {
	return row.Scan(&e.ID, &e.CourseID, &e.Title, &e.StartAt, &e.EndAt,
		&e.DurationMinutes, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams e WHERE e.id = $1`, id), e)
	if err != nil {
		return nil, translate(err)
	}
	return e, nil
}

// ListByCourse returns a course's exams ordered by window start.
func (r *ExamRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams e
		 WHERE e.course_id = $1
		 ORDER BY e.start_at, e.title`, courseID)
	if err != nil {
		return nil, err
	}
	return collectExams(rows)
}

// ListForStudent returns every exam in the courses a student is enrolled in.
func (r *ExamRepository) ListForStudent(ctx context.Context, studentID int) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams e
		 JOIN enrollments en ON en.course_id = e.course_id
		 WHERE en.student_id = $1
		 ORDER BY e.start_at, e.title`, studentID)
	if err != nil {
		return nil, err
	}
	return collectExams(rows)
}

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (course_id, title, start_at, end_at, duration_minutes, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		e.CourseID, e.Title, e.StartAt, e.EndAt, e.DurationMinutes, e.CreatedBy,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// Update replaces an exam's editable fields.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE exams
		 SET title = $1, start_at = $2, end_at = $3, duration_minutes = $4, updated_at = NOW()
		 WHERE id = $5
		 RETURNING updated_at`,
		e.Title, e.StartAt, e.EndAt, e.DurationMinutes, e.ID,
	).Scan(&e.UpdatedAt)
	return translate(err)
}

// Delete removes an exam and, by cascade, its questions.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectExams(rows pgx.Rows) ([]model.Exam, error) {
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}
