package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/elemevent/site/internal/model"
)

var ErrQuestionNotFound = errors.New("question not found")

// QuestionRepo stores FAQ entries.
type QuestionRepo struct {
	db *sql.DB
}

func NewQuestionRepo(db *sql.DB) *QuestionRepo { return &QuestionRepo{db: db} }

const questionColumns = "id, title, content, position, created_at, updated_at"

func scanQuestion(s rowScanner) (*model.Question, error) {
	var q model.Question
	if err := s.Scan(&q.ID, &q.Title, &q.Content, &q.Position, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	return &q, nil
}

// List returns all questions by position.
func (r *QuestionRepo) List(ctx context.Context) ([]model.Question, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+questionColumns+" FROM questions ORDER BY position, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func (r *QuestionRepo) GetByID(ctx context.Context, id uint64) (*model.Question, error) {
	q, err := scanQuestion(r.db.QueryRowContext(ctx, "SELECT "+questionColumns+" FROM questions WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	return q, err
}

// Create inserts q, placing it last when Position is zero.
func (r *QuestionRepo) Create(ctx context.Context, q *model.Question) error {
	if q.Position == 0 {
		pos, err := nextPosition(ctx, r.db, "questions")
		if err != nil {
			return err
		}
		q.Position = pos
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO questions (title, content, position) VALUES (?, ?, ?)", q.Title, q.Content, q.Position)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	q.ID = uint64(id)
	return nil
}

func (r *QuestionRepo) Update(ctx context.Context, q *model.Question) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE questions SET title = ?, content = ?, position = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		q.Title, q.Content, q.Position, q.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (r *QuestionRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM questions WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

// Move swaps the question's position with its neighbour above (up) or
// below. ErrConflict means there is no neighbour in that direction.
func (r *QuestionRepo) Move(ctx context.Context, id uint64, up bool) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	var pos int
	if err = tx.QueryRowContext(ctx, "SELECT position FROM questions WHERE id = ? FOR UPDATE", id).Scan(&pos); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrQuestionNotFound
		}
		return err
	}
	neighbour := "SELECT id, position FROM questions WHERE position > ? ORDER BY position ASC LIMIT 1 FOR UPDATE"
	if up {
		neighbour = "SELECT id, position FROM questions WHERE position < ? ORDER BY position DESC LIMIT 1 FOR UPDATE"
	}
	var (
		otherID  uint64
		otherPos int
	)
	if err = tx.QueryRowContext(ctx, neighbour, pos).Scan(&otherID, &otherPos); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrConflict
		}
		return err
	}
	const upd = "UPDATE questions SET position = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err = tx.ExecContext(ctx, upd, otherPos, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, upd, pos, otherID); err != nil {
		return err
	}
	return nil
}
