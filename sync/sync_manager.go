package sync

import (
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SyncManager persists finished matches into PostgreSQL. The engine
// hands it results on the match-ended path; failures are logged and
// never block that path.
type SyncManager struct {
	db *sql.DB
}

// NewSyncManager creates a new instance of the synchronization manager
func NewSyncManager(db *sql.DB) *SyncManager {
	return &SyncManager{db: db}
}

// RecordResult writes the match_results row and bumps the counters of
// everyone involved: games_played for all participants, wins for the
// winning group. A tie bumps no wins.
func (sm *SyncManager) RecordResult(roomCode string, winner string, turns int, winners []string, participants []string) {
	if sm.db == nil {
		return
	}

	tx, err := sm.db.Begin()
	if err != nil {
		log.Printf("[SYNC] Error starting transaction for room %s: %v", roomCode, err)
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO match_results (id, room_code, winner, turns, ended_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), roomCode, winner, turns, time.Now())
	if err != nil {
		log.Printf("[SYNC] Error inserting result for room %s: %v", roomCode, err)
		return
	}

	if len(participants) > 0 {
		_, err = tx.Exec(`
			UPDATE users
			SET games_played = games_played + 1
			WHERE username = ANY($1)`,
			pq.Array(participants))
		if err != nil {
			log.Printf("[SYNC] Error updating games_played for room %s: %v", roomCode, err)
			return
		}
	}

	if len(winners) > 0 {
		_, err = tx.Exec(`
			UPDATE users
			SET wins = wins + 1
			WHERE username = ANY($1)`,
			pq.Array(winners))
		if err != nil {
			log.Printf("[SYNC] Error updating wins for room %s: %v", roomCode, err)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[SYNC] Error committing result for room %s: %v", roomCode, err)
		return
	}

	log.Printf("[SYNC] Recorded room %s: winner %s after %d turns", roomCode, winner, turns)
}
