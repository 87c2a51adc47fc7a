package bracketservice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/operation"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"
)

// bracketNamespace derives stable ids from document keys, so loading the
// same document twice yields the same ids.
var bracketNamespace = uuid.MustParse("6f1c1d2e-6a55-4f0e-9d0a-3c8f2b7e5a10")

// BracketDocument is the pre-generated bracket as written by hand or by a
// generator: teams, rounds and games referenced by key.
type BracketDocument struct {
	Teams  []TeamSpec  `yaml:"teams"`
	Rounds []RoundSpec `yaml:"rounds"`
	Games  []GameSpec  `yaml:"games"`
}

type TeamSpec struct {
	Key    string `yaml:"key"`
	Name   string `yaml:"name"`
	Seed   int    `yaml:"seed"`
	Region string `yaml:"region"`
}

type RoundSpec struct {
	Code      string `yaml:"code"`
	Name      string `yaml:"name"`
	Date      string `yaml:"date"` // YYYY-MM-DD
	SortOrder int    `yaml:"sort_order"`
}

type GameSpec struct {
	Key       string    `yaml:"key"`
	Round     string    `yaml:"round"`
	Region    string    `yaml:"region"`
	Position  int       `yaml:"position"`
	Team1     string    `yaml:"team1,omitempty"`
	Team2     string    `yaml:"team2,omitempty"`
	StartTime time.Time `yaml:"start_time"`
	Next      string    `yaml:"next,omitempty"`
	Slot      int       `yaml:"slot,omitempty"`
}

// DecodeBracketDocument reads a YAML bracket document.
func DecodeBracketDocument(r io.Reader) (BracketDocument, error) {
	var doc BracketDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return BracketDocument{}, fmt.Errorf("failed to decode bracket document: %w", err)
	}
	return doc, nil
}

func keyID(kind, key string) uuid.UUID {
	return uuid.NewSHA1(bracketNamespace, []byte(kind+":"+key))
}

// Build resolves keys into domain records and validates the result: every
// reference resolves, the graph is a single valid forest, and first-round
// games have both teams.
func (doc BracketDocument) Build() ([]bracketdomain.Team, []bracketdomain.Round, []bracketdomain.Game, error) {
	teamIDs := make(map[string]uuid.UUID, len(doc.Teams))
	teams := make([]bracketdomain.Team, 0, len(doc.Teams))
	for _, t := range doc.Teams {
		if t.Key == "" {
			return nil, nil, nil, fmt.Errorf("%w: team without key", ErrInvalidBracket)
		}
		if _, dup := teamIDs[t.Key]; dup {
			return nil, nil, nil, fmt.Errorf("%w: duplicate team %q", ErrInvalidBracket, t.Key)
		}
		if t.Seed < 1 || t.Seed > 16 {
			return nil, nil, nil, fmt.Errorf("%w: team %q seed %d out of range", ErrInvalidBracket, t.Key, t.Seed)
		}
		id := keyID("team", t.Key)
		teamIDs[t.Key] = id
		teams = append(teams, bracketdomain.Team{ID: id, Name: t.Name, Seed: t.Seed, Region: t.Region})
	}

	roundIDs := make(map[string]uuid.UUID, len(doc.Rounds))
	rounds := make([]bracketdomain.Round, 0, len(doc.Rounds))
	for _, r := range doc.Rounds {
		if _, dup := roundIDs[r.Code]; dup {
			return nil, nil, nil, fmt.Errorf("%w: duplicate round %q", ErrInvalidBracket, r.Code)
		}
		date, err := time.Parse(time.DateOnly, r.Date)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: round %q date: %v", ErrInvalidBracket, r.Code, err)
		}
		id := keyID("round", r.Code)
		roundIDs[r.Code] = id
		rounds = append(rounds, bracketdomain.Round{ID: id, Code: r.Code, Name: r.Name, Date: date, SortOrder: r.SortOrder})
	}
	if len(rounds) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: no rounds", ErrInvalidBracket)
	}

	gameIDs := make(map[string]uuid.UUID, len(doc.Games))
	for _, g := range doc.Games {
		if _, dup := gameIDs[g.Key]; dup {
			return nil, nil, nil, fmt.Errorf("%w: duplicate game %q", ErrInvalidBracket, g.Key)
		}
		gameIDs[g.Key] = keyID("game", g.Key)
	}

	team := func(key string) (*uuid.UUID, error) {
		if key == "" {
			return nil, nil
		}
		id, ok := teamIDs[key]
		if !ok {
			return nil, fmt.Errorf("%w: unknown team %q", ErrInvalidBracket, key)
		}
		return &id, nil
	}

	games := make([]bracketdomain.Game, 0, len(doc.Games))
	for _, g := range doc.Games {
		roundID, ok := roundIDs[g.Round]
		if !ok {
			return nil, nil, nil, fmt.Errorf("%w: game %q in unknown round %q", ErrInvalidBracket, g.Key, g.Round)
		}
		t1, err := team(g.Team1)
		if err != nil {
			return nil, nil, nil, err
		}
		t2, err := team(g.Team2)
		if err != nil {
			return nil, nil, nil, err
		}
		game := bracketdomain.Game{
			ID:        gameIDs[g.Key],
			RoundID:   roundID,
			Team1ID:   t1,
			Team2ID:   t2,
			Status:    bracketdomain.GameScheduled,
			StartTime: g.StartTime.UTC(),
			Region:    g.Region,
			Position:  g.Position,
		}
		if g.Next != "" {
			next, ok := gameIDs[g.Next]
			if !ok {
				return nil, nil, nil, fmt.Errorf("%w: game %q feeds unknown game %q", ErrInvalidBracket, g.Key, g.Next)
			}
			game.Edge = &bracketdomain.Edge{Next: next, Slot: bracketdomain.Slot(g.Slot)}
		}
		games = append(games, game)
	}

	graph, err := bracketdomain.NewGraph(games)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrInvalidBracket, err)
	}

	ordered := append([]bracketdomain.Round(nil), rounds...)
	bracketdomain.SortRounds(ordered)
	first := ordered[0].ID
	for _, leaf := range graph.Leaves() {
		if leaf.RoundID != first {
			return nil, nil, nil, fmt.Errorf("%w: leaf game %s is not in round %s", ErrInvalidBracket, leaf.ID, ordered[0].Code)
		}
		if !leaf.Populated() {
			return nil, nil, nil, fmt.Errorf("%w: first-round game %s is missing a team", ErrInvalidBracket, leaf.ID)
		}
	}
	return teams, rounds, games, nil
}

// LoadBracket validates doc and inserts it in one transaction.
func (s *BracketService) LoadBracket(ctx context.Context, doc BracketDocument) (LoadSummary, error) {
	return operation.Run(ctx, s.telemetry(), "LoadBracket", fmt.Sprintf("%d games", len(doc.Games)), func(ctx context.Context) (LoadSummary, error) {
		teams, rounds, games, err := doc.Build()
		if err != nil {
			return LoadSummary{}, err
		}
		return operation.InTx(ctx, s.db, func(ctx context.Context, tx bun.IDB) (LoadSummary, error) {
			if err := s.repo.InsertBracket(ctx, tx, teams, rounds, games); err != nil {
				return LoadSummary{}, err
			}
			s.logger.InfoContext(ctx, "Bracket loaded",
				slog.Int("teams", len(teams)),
				slog.Int("rounds", len(rounds)),
				slog.Int("games", len(games)),
			)
			return LoadSummary{Teams: len(teams), Rounds: len(rounds), Games: len(games)}, nil
		})
	})
}

// NewBracketDocument renders domain records as a document. Keys are derived
// from region, seed and position, so Build on the result yields fresh ids.
func NewBracketDocument(teams []bracketdomain.Team, rounds []bracketdomain.Round, games []bracketdomain.Game) BracketDocument {
	var doc BracketDocument

	teamKeys := make(map[uuid.UUID]string, len(teams))
	for _, t := range teams {
		key := fmt.Sprintf("%s-%d", t.Region, t.Seed)
		teamKeys[t.ID] = key
		doc.Teams = append(doc.Teams, TeamSpec{Key: key, Name: t.Name, Seed: t.Seed, Region: t.Region})
	}

	roundCodes := make(map[uuid.UUID]string, len(rounds))
	for _, r := range rounds {
		roundCodes[r.ID] = r.Code
		doc.Rounds = append(doc.Rounds, RoundSpec{
			Code:      r.Code,
			Name:      r.Name,
			Date:      r.Date.Format(time.DateOnly),
			SortOrder: r.SortOrder,
		})
	}

	gameKeys := make(map[uuid.UUID]string, len(games))
	for _, g := range games {
		gameKeys[g.ID] = fmt.Sprintf("%s-%d", roundCodes[g.RoundID], g.Position)
	}
	key := func(id *uuid.UUID) string {
		if id == nil {
			return ""
		}
		return teamKeys[*id]
	}
	for _, g := range games {
		spec := GameSpec{
			Key:       gameKeys[g.ID],
			Round:     roundCodes[g.RoundID],
			Region:    g.Region,
			Position:  g.Position,
			Team1:     key(g.Team1ID),
			Team2:     key(g.Team2ID),
			StartTime: g.StartTime,
		}
		if g.Edge != nil {
			spec.Next = gameKeys[g.Edge.Next]
			spec.Slot = int(g.Edge.Slot)
		}
		doc.Games = append(doc.Games, spec)
	}
	return doc
}

// Encode writes the document as YAML.
func (doc BracketDocument) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode bracket document: %w", err)
	}
	return enc.Close()
}
