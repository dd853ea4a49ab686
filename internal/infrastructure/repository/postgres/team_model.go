package postgres

import (
	"time"

	"github.com/riskibarqy/livescore-sync/internal/domain/team"
)

type teamTableModel struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	NameKey   string    `db:"name_key"`
	LogoURL   string    `db:"logo_url"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type teamInsertModel struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	NameKey   string    `db:"name_key"`
	LogoURL   string    `db:"logo_url"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func teamFromRow(row teamTableModel) team.Team {
	return team.Team{
		ID:        row.ID,
		Name:      row.Name,
		Key:       row.NameKey,
		LogoURL:   row.LogoURL,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
