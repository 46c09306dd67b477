package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/syedzayyan/pomonotes/internal/model"
)

type TagRepository struct {
	db *sql.DB
}

func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) Create(ctx context.Context, tag *model.Tag) error {
	result, err := r.db.ExecContext(ctx, `INSERT INTO tags (name, color) VALUES (?, ?)`, tag.Name, tag.Color)
	if err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("tag id: %w", err)
	}
	tag.ID = model.IDFromInt64(id)
	return nil
}

func (r *TagRepository) Get(ctx context.Context, id int64) (*model.Tag, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, color FROM tags WHERE id = ?`, id)
	tag, err := scanTag(row)
	if err != nil {
		return nil, notFoundOr(err, "get tag")
	}
	return tag, nil
}

func (r *TagRepository) List(ctx context.Context) ([]model.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := make([]model.Tag, 0)
	for rows.Next() {
		tag, scanErr := scanTag(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan tag: %w", scanErr)
		}
		tags = append(tags, *tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}

func (r *TagRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM tags`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tags: %w", err)
	}
	return count, nil
}

func (r *TagRepository) Update(ctx context.Context, tag *model.Tag) error {
	id, err := tag.ID.Int64()
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `UPDATE tags SET name = ?, color = ? WHERE id = ?`, tag.Name, tag.Color, id)
	if err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TagRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTag(s scanner) (*model.Tag, error) {
	var tag model.Tag
	var id int64
	if err := s.Scan(&id, &tag.Name, &tag.Color); err != nil {
		return nil, err
	}
	tag.ID = model.IDFromInt64(id)
	return &tag, nil
}
