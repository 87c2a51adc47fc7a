package enginehandlers

import "github.com/google/uuid"

// GameFinalizedTopicV1 carries final results from the score sync job.
const GameFinalizedTopicV1 = "survivor.game.finalized.v1"

// GameFinalizedPayloadV1 is one final game result.
type GameFinalizedPayloadV1 struct {
	GameID     uuid.UUID `json:"game_id"`
	WinnerID   uuid.UUID `json:"winner_id"`
	Team1Score *int      `json:"team1_score,omitempty"`
	Team2Score *int      `json:"team2_score,omitempty"`
}
