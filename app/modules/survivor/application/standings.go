package survivorservice

import (
	"context"
	"errors"
	"fmt"
	"io"

	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	survivordomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/domain"
	survivordb "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/infrastructure/repositories"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/operation"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	sheetPools   = "Pools"
	sheetEntries = "Entries"
)

// PoolStandings loads a pool with its entries, picks and champions.
func (s *SurvivorService) PoolStandings(ctx context.Context, poolID uuid.UUID) (PoolStandings, error) {
	return operation.Run(ctx, s.telemetry(), "PoolStandings", poolID.String(), func(ctx context.Context) (PoolStandings, error) {
		return s.poolStandings(ctx, poolID)
	})
}

func (s *SurvivorService) poolStandings(ctx context.Context, poolID uuid.UUID) (PoolStandings, error) {
	var out PoolStandings
	pool, err := s.repo.GetPool(ctx, nil, poolID)
	if err != nil {
		if errors.Is(err, survivordb.ErrNotFound) {
			return out, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
		}
		return out, err
	}
	out.Pool = *pool

	entries, err := s.repo.ListEntries(ctx, nil, poolID)
	if err != nil {
		return out, err
	}
	picks, err := s.repo.ListPicksByPool(ctx, nil, poolID)
	if err != nil {
		return out, err
	}
	out.Champions, err = s.repo.ListChampions(ctx, nil, poolID)
	if err != nil {
		return out, err
	}

	out.Counts = survivordomain.CountEntries(entries)
	index := make(map[uuid.UUID]int, len(entries))
	out.Standings = make([]survivordomain.Standing, len(entries))
	for i, e := range entries {
		index[e.ID] = i
		out.Standings[i] = survivordomain.Standing{Entry: e, Picks: map[uuid.UUID]survivordomain.Pick{}}
	}
	for _, p := range picks {
		if i, ok := index[p.EntryID]; ok {
			out.Standings[i].Picks[p.RoundID] = p
		}
	}
	return out, nil
}

// ExportStandings writes every pool's standings as an XLSX workbook: a
// Pools summary sheet and an Entries sheet with one pick column per round.
func (s *SurvivorService) ExportStandings(ctx context.Context, w io.Writer) error {
	_, err := operation.Run(ctx, s.telemetry(), "ExportStandings", "xlsx", func(ctx context.Context) (struct{}, error) {
		rounds, err := s.bracket.ListRounds(ctx, nil)
		if err != nil {
			return struct{}{}, err
		}
		bracketdomain.SortRounds(rounds)
		teams, err := s.bracket.ListTeams(ctx, nil)
		if err != nil {
			return struct{}{}, err
		}
		pools, err := s.repo.ListPools(ctx, nil)
		if err != nil {
			return struct{}{}, err
		}

		all := make([]PoolStandings, 0, len(pools))
		for _, p := range pools {
			st, err := s.poolStandings(ctx, p.ID)
			if err != nil {
				return struct{}{}, err
			}
			all = append(all, st)
		}

		f, err := buildWorkbook(all, rounds, teams)
		if err != nil {
			return struct{}{}, err
		}
		defer f.Close()
		if err := f.Write(w); err != nil {
			return struct{}{}, fmt.Errorf("write workbook: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}

func buildWorkbook(all []PoolStandings, rounds []bracketdomain.Round, teams []bracketdomain.Team) (*excelize.File, error) {
	teamNames := make(map[uuid.UUID]string, len(teams))
	for _, t := range teams {
		teamNames[t.ID] = t.Name
	}
	roundCodes := make(map[uuid.UUID]string, len(rounds))
	for _, r := range rounds {
		roundCodes[r.ID] = r.Code
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheetPools); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(sheetEntries); err != nil {
		f.Close()
		return nil, err
	}

	poolRows := [][]interface{}{
		{"Pool", "Status", "Entries", "Alive", "Eliminated", "Completed In", "Champions"},
	}
	entryHeader := []interface{}{"Pool", "Entry", "User", "Status", "Cause", "Eliminated In"}
	for _, r := range rounds {
		entryHeader = append(entryHeader, r.Code)
	}
	entryRows := [][]interface{}{entryHeader}

	for _, st := range all {
		completedIn := ""
		if st.Pool.CompletedRoundID != nil {
			completedIn = roundCodes[*st.Pool.CompletedRoundID]
		}
		champions := make(map[uuid.UUID]bool, len(st.Champions))
		for _, c := range st.Champions {
			champions[c.EntryID] = true
		}
		poolRows = append(poolRows, []interface{}{
			st.Pool.Name, string(st.Pool.Status), st.Counts.Total, st.Counts.Alive,
			st.Counts.Eliminated, completedIn, len(st.Champions),
		})

		for _, row := range st.Standings {
			e := row.Entry
			status, cause, elimIn := "alive", "", ""
			if champions[e.ID] {
				status = "champion"
			}
			if e.Eliminated {
				status = "eliminated"
				if e.Cause != nil {
					cause = string(*e.Cause)
				}
				if e.EliminationRoundID != nil {
					elimIn = roundCodes[*e.EliminationRoundID]
				}
			}
			line := []interface{}{st.Pool.Name, e.Name, e.UserID.String(), status, cause, elimIn}
			for _, r := range rounds {
				line = append(line, pickCell(row.Picks, r.ID, teamNames))
			}
			entryRows = append(entryRows, line)
		}
	}

	if err := writeRows(f, sheetPools, poolRows); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRows(f, sheetEntries, entryRows); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// pickCell renders a pick as the team name with W, L or nothing while
// ungraded.
func pickCell(picks map[uuid.UUID]survivordomain.Pick, roundID uuid.UUID, teamNames map[uuid.UUID]string) string {
	p, ok := picks[roundID]
	if !ok {
		return ""
	}
	name := teamNames[p.TeamID]
	if name == "" {
		name = p.TeamID.String()
	}
	switch {
	case p.IsCorrect == nil:
		return name
	case *p.IsCorrect:
		return name + " (W)"
	default:
		return name + " (L)"
	}
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for idx, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, idx+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return fmt.Errorf("sheet %q row %d: %w", sheet, idx+1, err)
		}
	}
	return nil
}
