package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"nhl_wp/pipeline/internal/models"
)

// Game types carried by the schedule endpoint
const (
	GameTypeRegular = "R"
	GameTypePlayoff = "P"
)

// Client is the NHL stats API client
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter chan struct{} // Rate limiting semaphore
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a new NHL stats API client. The API is public and
// unauthenticated, but historical backfills hit it hard, so requests go
// through a concurrency semaphore with retry and backoff.
func NewClient(baseURL string, timeout time.Duration) *Client {
	// Max 10 concurrent requests
	rateLimiter := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		rateLimiter <- struct{}{}
	}

	return &Client{
		baseURL:     baseURL,
		rateLimiter: rateLimiter,
		maxRetries:  3,
		retryDelay:  1 * time.Second,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// get performs a GET request to the stats API with retry logic and rate limiting
func (c *Client) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		// Rate limiting: acquire semaphore
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.rateLimiter:
			defer func() { c.rateLimiter <- struct{}{} }()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "nhl-wp-pipeline/1.0")

		if len(params) > 0 {
			q := req.URL.Query()
			for key, value := range params {
				q.Add(key, value)
			}
			req.URL.RawQuery = q.Encode()
		}

		log.Debug().
			Str("url", url).
			Int("attempt", attempt+1).
			Msg("Making API request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("API request failed: %w", err)
			// Retry on network errors
			if attempt < c.maxRetries {
				continue
			}
			return nil, lastErr
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			if attempt < c.maxRetries {
				continue
			}
			return nil, lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK:
			log.Debug().
				Str("url", url).
				Int("status", resp.StatusCode).
				Int("size", len(body)).
				Msg("API request successful")
			return body, nil

		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			lastErr = fmt.Errorf("API returned retryable status %d: %s", resp.StatusCode, string(body))
			if attempt < c.maxRetries {
				log.Warn().
					Str("url", url).
					Int("status", resp.StatusCode).
					Int("attempt", attempt+1).
					Msg("Received retryable error, will retry")
				continue
			}
			return nil, lastErr

		default:
			// Other errors - don't retry
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
	}

	return nil, lastErr
}

// ScheduleGame is one game entry from the schedule endpoint
type ScheduleGame struct {
	GameID   string
	DateTime string
	State    string // Preview, Live or Final
	HomeTeam string
	AwayTeam string
}

// IsFinal reports whether the schedule marks the game complete
func (s *ScheduleGame) IsFinal() bool {
	return s.State == "Final"
}

// scheduleResponse mirrors the subset of the schedule payload we read
type scheduleResponse struct {
	Dates []struct {
		Date  string `json:"date"`
		Games []struct {
			GamePk   int64  `json:"gamePk"`
			GameDate string `json:"gameDate"`
			Status   struct {
				AbstractGameState string `json:"abstractGameState"`
			} `json:"status"`
			Teams struct {
				Home struct {
					Team struct {
						Name string `json:"name"`
					} `json:"team"`
				} `json:"home"`
				Away struct {
					Team struct {
						Name string `json:"name"`
					} `json:"team"`
				} `json:"away"`
			} `json:"teams"`
		} `json:"games"`
	} `json:"dates"`
}

// FetchSeasonSchedule fetches the schedule for one season and game type.
// Season is the start year; the API wants the "20192020" form.
func (c *Client) FetchSeasonSchedule(ctx context.Context, startYear int, gameType string) ([]ScheduleGame, error) {
	season := fmt.Sprintf("%d%d", startYear, startYear+1)
	return c.fetchSchedule(ctx, map[string]string{
		"season":   season,
		"gameType": gameType,
	})
}

// FetchScheduleByDate fetches the schedule for a single calendar date
func (c *Client) FetchScheduleByDate(ctx context.Context, date time.Time) ([]ScheduleGame, error) {
	return c.fetchSchedule(ctx, map[string]string{
		"date": date.Format("2006-01-02"),
	})
}

func (c *Client) fetchSchedule(ctx context.Context, params map[string]string) ([]ScheduleGame, error) {
	body, err := c.get(ctx, "schedule", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule: %w", err)
	}

	var sched scheduleResponse
	if err := json.Unmarshal(body, &sched); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schedule: %w", err)
	}

	var games []ScheduleGame
	for _, d := range sched.Dates {
		for _, g := range d.Games {
			games = append(games, ScheduleGame{
				GameID:   strconv.FormatInt(g.GamePk, 10),
				DateTime: g.GameDate,
				State:    g.Status.AbstractGameState,
				HomeTeam: g.Teams.Home.Team.Name,
				AwayTeam: g.Teams.Away.Team.Name,
			})
		}
	}

	sort.Slice(games, func(i, j int) bool {
		if games[i].DateTime != games[j].DateTime {
			return games[i].DateTime < games[j].DateTime
		}
		return games[i].GameID < games[j].GameID
	})

	return games, nil
}

// GameObservations is everything the live feed yields for one game: the game
// header plus the per-team and per-goalie observation inputs.
type GameObservations struct {
	Game    models.GameInput
	Teams   []models.TeamGameInput
	Goalies []models.GoalieGameInput
}

// liveFeed mirrors the subset of the live feed payload we read
type liveFeed struct {
	GameData struct {
		DateTime struct {
			DateTime string `json:"dateTime"`
		} `json:"datetime"`
		Status struct {
			AbstractGameState string `json:"abstractGameState"`
		} `json:"status"`
		Teams struct {
			Home struct {
				Name string `json:"name"`
			} `json:"home"`
			Away struct {
				Name string `json:"name"`
			} `json:"away"`
		} `json:"teams"`
	} `json:"gameData"`
	LiveData struct {
		Linescore struct {
			Teams struct {
				Home struct {
					Goals float64 `json:"goals"`
				} `json:"home"`
				Away struct {
					Goals float64 `json:"goals"`
				} `json:"away"`
			} `json:"teams"`
		} `json:"linescore"`
		Boxscore struct {
			Teams struct {
				Home feedTeam `json:"home"`
				Away feedTeam `json:"away"`
			} `json:"teams"`
		} `json:"boxscore"`
	} `json:"liveData"`
}

type feedTeam struct {
	Team struct {
		Name string `json:"name"`
	} `json:"team"`
	TeamStats struct {
		SkaterStats struct {
			Goals                  *float64 `json:"goals"`
			PIM                    *float64 `json:"pim"`
			Shots                  *float64 `json:"shots"`
			PowerPlayPercentage    string   `json:"powerPlayPercentage"`
			PowerPlayGoals         *float64 `json:"powerPlayGoals"`
			PowerPlayOpportunities *float64 `json:"powerPlayOpportunities"`
			FaceOffWinPercentage   string   `json:"faceOffWinPercentage"`
			Blocked                *float64 `json:"blocked"`
			Takeaways              *float64 `json:"takeaways"`
			Giveaways              *float64 `json:"giveaways"`
			Hits                   *float64 `json:"hits"`
		} `json:"teamSkaterStats"`
	} `json:"teamStats"`
	// Goalies lists player ids in feed order: relievers first, starter last
	Goalies []int64                    `json:"goalies"`
	Players map[string]json.RawMessage `json:"players"`
}

type feedPlayer struct {
	Person struct {
		FullName string `json:"fullName"`
	} `json:"person"`
	Stats struct {
		GoalieStats struct {
			TimeOnIce                  string   `json:"timeOnIce"`
			Shots                      *float64 `json:"shots"`
			Saves                      *float64 `json:"saves"`
			PowerPlaySaves             *float64 `json:"powerPlaySaves"`
			ShortHandedSaves           *float64 `json:"shortHandedSaves"`
			EvenSaves                  *float64 `json:"evenSaves"`
			ShortHandedShotsAgainst    *float64 `json:"shortHandedShotsAgainst"`
			EvenShotsAgainst           *float64 `json:"evenShotsAgainst"`
			PowerPlayShotsAgainst      *float64 `json:"powerPlayShotsAgainst"`
			SavePercentage             *float64 `json:"savePercentage"`
			EvenStrengthSavePercentage *float64 `json:"evenStrengthSavePercentage"`
			Decision                   string   `json:"decision"`
		} `json:"goalieStats"`
	} `json:"stats"`
}

// FetchGameObservations fetches one game's live feed and flattens it into
// provider-shaped observation inputs.
func (c *Client) FetchGameObservations(ctx context.Context, gameID string) (*GameObservations, error) {
	path := fmt.Sprintf("game/%s/feed/live", gameID)
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game feed for %s: %w", gameID, err)
	}

	var feed liveFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game feed for %s: %w", gameID, err)
	}

	obs := &GameObservations{
		Game: models.GameInput{
			GameID:   gameID,
			DateTime: feed.GameData.DateTime.DateTime,
			HomeTeam: feed.GameData.Teams.Home.Name,
			AwayTeam: feed.GameData.Teams.Away.Name,
		},
	}

	if feed.GameData.Status.AbstractGameState == "Final" {
		homeWin := feed.LiveData.Linescore.Teams.Home.Goals > feed.LiveData.Linescore.Teams.Away.Goals
		obs.Game.HomeWin = &homeWin
	}

	for _, side := range []struct {
		team   *feedTeam
		isHome bool
	}{
		{&feed.LiveData.Boxscore.Teams.Home, true},
		{&feed.LiveData.Boxscore.Teams.Away, false},
	} {
		ti := teamInput(obs.Game, side.team, side.isHome)
		gis, err := goalieInputs(obs.Game, side.team, side.isHome)
		if err != nil {
			return nil, fmt.Errorf("failed to parse goalies for game %s: %w", gameID, err)
		}

		// The feed-order starter is both the team's goalie column and the
		// game header's goalie slot.
		if n := len(gis); n > 0 {
			ti.StartingGoalieID = gis[n-1].GoalieID
			ti.StartingGoalieName = gis[n-1].GoalieName
		}
		if side.isHome {
			obs.Game.HomeGoalieID = ti.StartingGoalieID
			obs.Game.HomeGoalieName = ti.StartingGoalieName
		} else {
			obs.Game.AwayGoalieID = ti.StartingGoalieID
			obs.Game.AwayGoalieName = ti.StartingGoalieName
		}

		obs.Teams = append(obs.Teams, ti)
		obs.Goalies = append(obs.Goalies, gis...)
	}

	return obs, nil
}

func teamInput(game models.GameInput, ft *feedTeam, isHome bool) models.TeamGameInput {
	s := &ft.TeamStats.SkaterStats
	ti := models.TeamGameInput{
		GameID:   game.GameID,
		DateTime: game.DateTime,
		Team:     ft.Team.Name,
		IsHome:   isHome,
		HomeWin:  game.HomeWin,

		Goals:                  s.Goals,
		PIM:                    s.PIM,
		Shots:                  s.Shots,
		PowerPlayPercentage:    s.PowerPlayPercentage,
		PowerPlayGoals:         s.PowerPlayGoals,
		PowerPlayOpportunities: s.PowerPlayOpportunities,
		FaceOffWinPercentage:   s.FaceOffWinPercentage,
		Blocked:                s.Blocked,
		Takeaways:              s.Takeaways,
		Giveaways:              s.Giveaways,
		Hits:                   s.Hits,
	}
	if ti.Team == "" {
		if isHome {
			ti.Team = game.HomeTeam
		} else {
			ti.Team = game.AwayTeam
		}
	}
	return ti
}

func goalieInputs(game models.GameInput, ft *feedTeam, isHome bool) ([]models.GoalieGameInput, error) {
	var out []models.GoalieGameInput
	for _, id := range ft.Goalies {
		raw, ok := ft.Players[fmt.Sprintf("ID%d", id)]
		if !ok {
			continue
		}
		var p feedPlayer
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("player ID%d: %w", id, err)
		}

		gs := &p.Stats.GoalieStats
		out = append(out, models.GoalieGameInput{
			GameID:   game.GameID,
			DateTime: game.DateTime,
			Team:     ft.Team.Name,
			IsHome:   isHome,

			GoalieID:   strconv.FormatInt(id, 10),
			GoalieName: p.Person.FullName,

			TimeOnIce:                  gs.TimeOnIce,
			Shots:                      gs.Shots,
			Saves:                      gs.Saves,
			PowerPlaySaves:             gs.PowerPlaySaves,
			ShortHandedSaves:           gs.ShortHandedSaves,
			EvenSaves:                  gs.EvenSaves,
			ShortHandedShotsAgainst:    gs.ShortHandedShotsAgainst,
			EvenShotsAgainst:           gs.EvenShotsAgainst,
			PowerPlayShotsAgainst:      gs.PowerPlayShotsAgainst,
			SavePercentage:             gs.SavePercentage,
			EvenStrengthSavePercentage: gs.EvenStrengthSavePercentage,
			Decision:                   gs.Decision,
		})
	}
	return out, nil
}
