package db

import (
	"context"
	"errors"

	"github.com/markdave123-py/botgpt/internal/models"
)

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, username, email, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := c.exec(ctx, q, user.ID, user.Username, user.Email, user.CreatedAt)
	return mapError(err, "user")
}

func (c *DatabaseClient) GetUser(ctx context.Context, id string) (*models.User, error) {
	const q = `SELECT id, username, email, created_at FROM users WHERE id = ?`
	var u models.User
	err := c.queryRow(ctx, q, id).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err, "user "+id)
	}
	return &u, nil
}

func (c *DatabaseClient) ListUsers(ctx context.Context) ([]models.User, error) {
	const q = `SELECT id, username, email, created_at FROM users ORDER BY created_at, id`
	rows, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
