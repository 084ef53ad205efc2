package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/courtside/club-app/loadtest/client"
	"github.com/courtside/club-app/loadtest/stats"
)

// queueUpdate mirrors the gateway's queue_updated payload.
type queueUpdate struct {
	SessionID string `json:"session_id"`
	Games     []struct {
		GameID string    `json:"game_id"`
		Number int       `json:"number"`
		TeamA  [2]string `json:"team_a"`
		TeamB  [2]string `json:"team_b"`
	} `json:"games"`
}

// runRotation implements the club-night rotation flow load test. An organizer
// connection opens a session, N player connections register and check in, and
// the organizer then plays through the queue by starting games and recording
// random results for the test duration. The measured latency is the time from
// a check-in (or recorded result) to the resulting queue_updated broadcast.
func runRotation(args []string) {
	fs := flag.NewFlagSet("rotation", flag.ExitOnError)
	url := fs.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	metricsURL := fs.String("metrics", "http://localhost:8080/metrics", "Prometheus metrics URL (empty to disable scraping)")
	players := fs.Int("players", 12, "Number of players to check in")
	duration := fs.Duration("duration", 60*time.Second, "How long to play through the queue")
	costCents := fs.Int64("cost", 12000, "Court cost in cents billed at close")
	fs.Parse(args)

	fmt.Printf("Rotation test: %d players on %s for %s\n", *players, *url, *duration)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := stats.NewCollector()
	if *metricsURL != "" {
		scraper := stats.NewScraper(*metricsURL, 2*time.Second)
		scraper.Start(ctx)
		defer scraper.Stop()
		collector.SetScraper(scraper)
	}

	// -----------------------------------------------------------------------
	// Organizer: open the session and drive the queue.
	// -----------------------------------------------------------------------
	organizer, err := client.New(ctx, *url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "organizer connect: %v\n", err)
		os.Exit(1)
	}
	defer organizer.Close()
	if err := organizer.WaitForConn(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "organizer handshake: %v\n", err)
		os.Exit(1)
	}

	sessionCh := make(chan string, 1)
	organizer.On(client.TypeSessionOpened, func(raw json.RawMessage) {
		var msg struct {
			SessionID string `json:"session_id"`
		}
		if json.Unmarshal(raw, &msg) == nil && msg.SessionID != "" {
			sessionCh <- msg.SessionID
		}
	})

	// The organizer watches the queue and tracks the latest snapshot plus the
	// timestamp of the action that should have triggered it.
	var qmu sync.Mutex
	var latestQueue queueUpdate
	var pendingSince time.Time

	organizer.On(client.TypeQueueUpdated, func(raw json.RawMessage) {
		var upd queueUpdate
		if json.Unmarshal(raw, &upd) != nil {
			return
		}
		qmu.Lock()
		latestQueue = upd
		if !pendingSince.IsZero() {
			collector.AddQueueLatency(time.Since(pendingSince))
			pendingSince = time.Time{}
		}
		qmu.Unlock()
	})

	_ = organizer.Send(map[string]interface{}{
		"type":             client.TypeOpenSession,
		"title":            "loadtest night",
		"court_cost_cents": *costCents,
	})

	var sessionID string
	select {
	case sessionID = <-sessionCh:
	case <-time.After(10 * time.Second):
		fmt.Fprintln(os.Stderr, "timed out waiting for session_opened")
		os.Exit(1)
	case <-ctx.Done():
		return
	}
	fmt.Printf("Session opened: %s\n", sessionID)

	_ = organizer.Send(map[string]string{
		"type":       client.TypeWatchSession,
		"session_id": sessionID,
	})

	// -----------------------------------------------------------------------
	// Players: connect, register, check in.
	// -----------------------------------------------------------------------
	fmt.Println("\n--- Check-in phase ---")
	playerClients := make([]*client.Client, 0, *players)
	defer func() {
		for _, c := range playerClients {
			c.Close()
		}
	}()

	for i := 0; i < *players; i++ {
		c, err := client.New(ctx, *url)
		if err != nil {
			collector.AddError()
			continue
		}
		if err := c.WaitForConn(ctx); err != nil {
			collector.AddError()
			c.Close()
			continue
		}
		collector.AddConnect(c.GetMetrics().ConnectLatency)
		playerClients = append(playerClients, c)

		registeredCh := make(chan string, 1)
		c.On(client.TypeRegistered, func(raw json.RawMessage) {
			var msg struct {
				PlayerID string `json:"player_id"`
			}
			if json.Unmarshal(raw, &msg) == nil {
				registeredCh <- msg.PlayerID
			}
		})
		_ = c.Send(map[string]string{
			"type": client.TypeRegister,
			"name": fmt.Sprintf("loadtest-player-%d", i),
		})

		var playerID string
		select {
		case playerID = <-registeredCh:
		case <-time.After(10 * time.Second):
			collector.AddError()
			continue
		case <-ctx.Done():
			return
		}

		qmu.Lock()
		if pendingSince.IsZero() {
			pendingSince = time.Now()
		}
		qmu.Unlock()
		_ = c.Send(map[string]string{
			"type":       client.TypeCheckIn,
			"session_id": sessionID,
			"player_id":  playerID,
		})
	}
	fmt.Printf("Checked in %d players (%d errors)\n", len(playerClients), collector.ErrorCount())

	// -----------------------------------------------------------------------
	// Play phase: start the front of the queue and record random results.
	// -----------------------------------------------------------------------
	fmt.Println("\n--- Play phase ---")
	playTimer := time.NewTimer(*duration)
	playTicker := time.NewTicker(2 * time.Second)
	gamesPlayed := 0

playLoop:
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nInterrupted during play phase.")
			break playLoop
		case <-playTimer.C:
			fmt.Println("\nPlay period complete.")
			break playLoop
		case <-playTicker.C:
			qmu.Lock()
			var gameID string
			if len(latestQueue.Games) > 0 {
				gameID = latestQueue.Games[0].GameID
				latestQueue.Games = latestQueue.Games[1:]
			}
			qmu.Unlock()
			if gameID == "" {
				continue
			}

			_ = organizer.Send(map[string]string{
				"type":    client.TypeStartGame,
				"game_id": gameID,
			})
			winner := "A"
			if rand.Intn(2) == 1 {
				winner = "B"
			}
			qmu.Lock()
			pendingSince = time.Now()
			qmu.Unlock()
			_ = organizer.Send(map[string]string{
				"type":    client.TypeRecordResult,
				"game_id": gameID,
				"winner":  winner,
			})
			gamesPlayed++
		}
	}
	playTimer.Stop()
	playTicker.Stop()

	// -----------------------------------------------------------------------
	// Close the session and report.
	// -----------------------------------------------------------------------
	fmt.Println("\n--- Close phase ---")
	_ = organizer.Send(map[string]string{
		"type":       client.TypeCloseSession,
		"session_id": sessionID,
	})
	time.Sleep(2 * time.Second) // let the ledger worker react before reporting

	fmt.Printf("Games played: %d\n", gamesPlayed)
	collector.Report()
}
