package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/repplan/internal/models"
)

// GetOrCreateUser returns the ID of the user with the given tailnet login,
// creating it on first sight. display_name is kept when displayName is empty.
func (db *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO users (login, display_name) VALUES ($1, $2)
		 ON CONFLICT (login) DO UPDATE
		 SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), users.display_name)
		 RETURNING id`,
		login, displayName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting user %s: %w", login, err)
	}
	return id, nil
}

// UserProfile returns the planning profile of a user. A user without a
// profile row gets an empty profile.
func (db *DB) UserProfile(ctx context.Context, userID int) (models.UserProfile, error) {
	var (
		p         models.UserProfile
		equipment []byte
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT favorite_exercises, equipment_config FROM user_profiles WHERE user_id = $1`,
		userID).Scan(&p.FavoriteExercises, &equipment)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.UserProfile{FavoriteExercises: []int{}}, nil
	}
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("querying profile: %w", err)
	}
	if p.FavoriteExercises == nil {
		p.FavoriteExercises = []int{}
	}
	if len(equipment) > 0 {
		if err := json.Unmarshal(equipment, &p.EquipmentConfig); err != nil {
			return models.UserProfile{}, fmt.Errorf("decoding equipment config: %w", err)
		}
	}
	return p, nil
}

// SaveUserProfile creates or replaces the planning profile of a user.
func (db *DB) SaveUserProfile(ctx context.Context, userID int, p models.UserProfile) error {
	var equipment []byte
	if p.EquipmentConfig != nil {
		var err error
		if equipment, err = json.Marshal(p.EquipmentConfig); err != nil {
			return fmt.Errorf("encoding equipment config: %w", err)
		}
	}
	favorites := p.FavoriteExercises
	if favorites == nil {
		favorites = []int{}
	}
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO user_profiles (user_id, favorite_exercises, equipment_config)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE
			SET favorite_exercises = EXCLUDED.favorite_exercises,
			    equipment_config = EXCLUDED.equipment_config,
			    updated_at = NOW()`,
		userID, favorites, equipment)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}
