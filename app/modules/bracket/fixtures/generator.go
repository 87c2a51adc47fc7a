// Package bracketfixtures generates complete, valid brackets for tests,
// local development and the generate-bracket command.
package bracketfixtures

import (
	"context"
	"fmt"
	"math/bits"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	bracketdomain "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/domain"
	bracketdb "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/infrastructure/repositories"
	"github.com/google/uuid"
)

// roundOffsets is each stage's distance in days from the first round.
var roundOffsets = map[string]int{
	bracketdomain.StageRoundOf64:    0,
	bracketdomain.StageRoundOf32:    2,
	bracketdomain.StageSweet16:      7,
	bracketdomain.StageElite8:       9,
	bracketdomain.StageFinalFour:    16,
	bracketdomain.StageChampionship: 18,
}

var regionNames = []string{"East", "West", "South", "Midwest"}

// Bracket is a generated tournament. Rounds and games are in play order;
// Games[i] holds round i's games by position.
type Bracket struct {
	Teams  []bracketdomain.Team
	Rounds []bracketdomain.Round
	Games  [][]bracketdomain.Game
}

// AllGames flattens the games, first round first.
func (b Bracket) AllGames() []bracketdomain.Game {
	var out []bracketdomain.Game
	for _, rg := range b.Games {
		out = append(out, rg...)
	}
	return out
}

// Round returns the round with code.
func (b Bracket) Round(code string) bracketdomain.Round {
	for _, r := range b.Rounds {
		if r.Code == code {
			return r
		}
	}
	panic(fmt.Sprintf("bracketfixtures: no round %q", code))
}

// Seed stores the bracket in an in-memory repository.
func (b Bracket) Seed(repo *bracketdb.FakeRepository) {
	_ = repo.InsertBracket(context.Background(), nil, b.Teams, b.Rounds, b.AllGames())
}

// Generator produces brackets from a deterministic seed.
type Generator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewGenerator creates a generator. Without a seed it uses the current time.
func NewGenerator(seed ...int64) *Generator {
	var s int64
	if len(seed) > 0 {
		s = seed[0]
	} else {
		s = time.Now().UnixNano()
	}
	return &Generator{faker: gofakeit.New(uint64(s)), seed: s}
}

// Seed returns the seed the generator was built with.
func (g *Generator) Seed() int64 { return g.seed }

// Tournament is the full 64-team, six-round bracket starting at start.
func (g *Generator) Tournament(start time.Time) Bracket {
	return g.Bracket(64, start)
}

// Bracket generates a single-elimination bracket of teams entrants, a power
// of two between 2 and 64. Smaller brackets use the last stages: four teams
// play F4 then NCG. Up to sixteen teams share a region; 64 teams split into
// the four regions of sixteen seeds each.
func (g *Generator) Bracket(teams int, start time.Time) Bracket {
	if teams < 2 || teams > 64 || bits.OnesCount(uint(teams)) != 1 {
		panic(fmt.Sprintf("bracketfixtures: unsupported bracket size %d", teams))
	}
	numRounds := bits.TrailingZeros(uint(teams))
	stages := bracketdomain.Stages[len(bracketdomain.Stages)-numRounds:]

	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	var b Bracket
	base := roundOffsets[stages[0]]
	for i, code := range stages {
		b.Rounds = append(b.Rounds, bracketdomain.Round{
			ID:        uuid.New(),
			Code:      code,
			Name:      stageName(code),
			Date:      start.AddDate(0, 0, roundOffsets[code]-base),
			SortOrder: i + 1,
		})
	}

	regionSize := min(teams, 16)
	numRegions := teams / regionSize
	order := seedOrder(regionSize)

	// First round: pair each region's seeds in bracket order.
	var first []bracketdomain.Game
	for r := 0; r < numRegions; r++ {
		region := regionNames[r%len(regionNames)]
		if numRegions == 1 {
			region = g.faker.RandomString(regionNames)
		}
		for i := 0; i < len(order); i += 2 {
			t1 := g.team(order[i], region)
			t2 := g.team(order[i+1], region)
			b.Teams = append(b.Teams, t1, t2)
			first = append(first, g.game(b.Rounds[0], region, len(first), &t1.ID, &t2.ID))
		}
	}
	b.Games = append(b.Games, first)

	// Each later game is fed by two adjacent games of the round before.
	prev := first
	for ri := 1; ri < len(b.Rounds); ri++ {
		cur := make([]bracketdomain.Game, len(prev)/2)
		for i := range cur {
			region := prev[2*i].Region
			if prev[2*i+1].Region != region {
				region = "National"
			}
			cur[i] = g.game(b.Rounds[ri], region, i, nil, nil)
			prev[2*i].Edge = &bracketdomain.Edge{Next: cur[i].ID, Slot: bracketdomain.Slot1}
			prev[2*i+1].Edge = &bracketdomain.Edge{Next: cur[i].ID, Slot: bracketdomain.Slot2}
		}
		b.Games = append(b.Games, cur)
		prev = cur
	}
	return b
}

func (g *Generator) team(seed int, region string) bracketdomain.Team {
	return bracketdomain.Team{
		ID:     uuid.New(),
		Name:   fmt.Sprintf("%s %s", g.faker.City(), g.faker.Animal()),
		Seed:   seed,
		Region: region,
	}
}

func (g *Generator) game(round bracketdomain.Round, region string, position int, t1, t2 *uuid.UUID) bracketdomain.Game {
	// Tip-offs spread from noon in two-hour blocks of four games.
	tip := round.Date.Add(12*time.Hour + time.Duration(position/4)*2*time.Hour)
	return bracketdomain.Game{
		ID:        uuid.New(),
		RoundID:   round.ID,
		Team1ID:   t1,
		Team2ID:   t2,
		Status:    bracketdomain.GameScheduled,
		StartTime: tip,
		Region:    region,
		Position:  position,
	}
}

// seedOrder lists seeds 1..n so that adjacent pairs are first-round
// matchups and the top seeds only meet late: 1,16,8,9,... for 16.
func seedOrder(n int) []int {
	order := []int{1}
	for size := 2; size <= n; size *= 2 {
		next := make([]int, 0, size)
		for _, s := range order {
			next = append(next, s, size+1-s)
		}
		order = next
	}
	return order
}

func stageName(code string) string {
	switch code {
	case bracketdomain.StageRoundOf64:
		return "Round of 64"
	case bracketdomain.StageRoundOf32:
		return "Round of 32"
	case bracketdomain.StageSweet16:
		return "Sweet 16"
	case bracketdomain.StageElite8:
		return "Elite 8"
	case bracketdomain.StageFinalFour:
		return "Final Four"
	case bracketdomain.StageChampionship:
		return "National Championship"
	}
	return code
}
