package db

import (
	"fmt"
	"time"
)

type UserProfile struct {
	ID        string
	Username  string
	Color     string
	CreatedAt time.Time
}

func (d *DB) UpsertUserProfile(id, username, color string) error {
	_, err := d.conn.Exec(`
		INSERT INTO user_profiles (id, username, color)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET username = $2, color = $3
	`, id, username, color)
	if err != nil {
		return fmt.Errorf("upserting user profile: %w", err)
	}
	return nil
}

func (d *DB) GetUserProfile(id string) (*UserProfile, error) {
	var p UserProfile
	err := d.conn.QueryRow(`
		SELECT id, username, color, created_at FROM user_profiles WHERE id = $1
	`, id).Scan(&p.ID, &p.Username, &p.Color, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting user profile: %w", err)
	}
	return &p, nil
}
