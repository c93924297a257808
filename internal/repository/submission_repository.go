package repository

import (
	"context"
	"time"

	"github.com/examwizards/examwizards-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubmissionRepository handles submission data access.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// GetByExamAndStudent retrieves the submission for a specific exam-student pair.
func (r *SubmissionRepository) GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Submission, error) {
	s := &model.Submission{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, score, total_marks, submitted_at
		 FROM submissions
		 WHERE exam_id = $1 AND student_id = $2`, examID, studentID,
	).Scan(&s.ID, &s.ExamID, &s.StudentID, &s.Score, &s.TotalMarks, &s.SubmittedAt)
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}

// ListByStudent retrieves all submissions of a student.
func (r *SubmissionRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Submission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, student_id, score, total_marks, submitted_at
		 FROM submissions
		 WHERE student_id = $1`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(&s.ID, &s.ExamID, &s.StudentID, &s.Score, &s.TotalMarks, &s.SubmittedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// ListByExam returns a page of an exam's result sheet and the total row count.
func (r *SubmissionRepository) ListByExam(ctx context.Context, examID uuid.UUID, limit, offset int) ([]model.StudentResult, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM submissions WHERE exam_id = $1`, examID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.name, u.email, s.score, s.total_marks, s.submitted_at
		 FROM submissions s
		 JOIN users u ON u.id = s.student_id
		 WHERE s.exam_id = $1
		 ORDER BY u.name, u.id
		 LIMIT $2 OFFSET $3`, examID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []model.StudentResult
	for rows.Next() {
		var res model.StudentResult
		if err := rows.Scan(&res.StudentID, &res.Name, &res.Email, &res.Score, &res.TotalMarks, &res.SubmittedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}

// Insert stores a single submission. A second submission for the same pair is ignored.
func (r *SubmissionRepository) Insert(ctx context.Context, s *model.Submission) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO submissions (id, exam_id, student_id, score, total_marks, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (exam_id, student_id) DO NOTHING`,
		s.ID, s.ExamID, s.StudentID, s.Score, s.TotalMarks, s.SubmittedAt)
	return err
}

// BulkInsert stores a batch of submissions in one statement using UNNEST.
func (r *SubmissionRepository) BulkInsert(ctx context.Context, batch []model.Submission) error {
	n := len(batch)
	if n == 0 {
		return nil
	}

	ids := make([]uuid.UUID, n)
	examIDs := make([]uuid.UUID, n)
	students := make([]int, n)
	scores := make([]float64, n)
	totals := make([]float64, n)
	submittedAts := make([]time.Time, n)

	for i, s := range batch {
		ids[i] = s.ID
		examIDs[i] = s.ExamID
		students[i] = s.StudentID
		scores[i] = s.Score
		totals[i] = s.TotalMarks
		submittedAts[i] = s.SubmittedAt
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO submissions (id, exam_id, student_id, score, total_marks, submitted_at)
		 SELECT * FROM UNNEST(
			$1::uuid[],
			$2::uuid[],
			$3::int[],
			$4::float8[],
			$5::float8[],
			$6::timestamptz[]
		 )
		 ON CONFLICT (exam_id, student_id) DO NOTHING`,
		ids, examIDs, students, scores, totals, submittedAts)
	return err
}

// StatsByExam aggregates the percentages of every submission of an exam.
// A zero total_marks row counts as 0%.
func (r *SubmissionRepository) StatsByExam(ctx context.Context, examID uuid.UUID) (*model.ExamStats, error) {
	var st model.ExamStats
	err := r.pool.QueryRow(ctx,
		`WITH pct AS (
			SELECT CASE WHEN total_marks > 0 THEN 100 * score / total_marks ELSE 0 END AS p
			FROM submissions WHERE exam_id = $1
		 )
		 SELECT COUNT(*), COALESCE(AVG(p), 0), COALESCE(MAX(p), 0), COALESCE(MIN(p), 0) FROM pct`,
		examID,
	).Scan(&st.Submitted, &st.AveragePercentage, &st.HighestPercentage, &st.LowestPercentage)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
