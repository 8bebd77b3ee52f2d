package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sroberts03/pickup-sub000/internal/api"
	"github.com/Sroberts03/pickup-sub000/internal/connection"
	"github.com/Sroberts03/pickup-sub000/internal/models"
	"github.com/Sroberts03/pickup-sub000/internal/session"
	"github.com/Sroberts03/pickup-sub000/internal/store"
	"github.com/Sroberts03/pickup-sub000/internal/stream"
	"github.com/Sroberts03/pickup-sub000/internal/transport"
)

// pickupchat is a terminal harness for the chat sync core: it
// connects, joins the configured groups, and prints events as they
// arrive. The mobile app embeds the same packages behind its UI.
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using system environment variables")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	token := os.Getenv("PICKUP_TOKEN")
	if token == "" {
		log.Fatal().Msg("PICKUP_TOKEN is required")
	}

	apiURL := os.Getenv("PICKUP_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	wsURL := os.Getenv("PICKUP_WS_URL")
	if wsURL == "" {
		wsURL = "ws://localhost:8080/ws"
	}

	selfID, err := strconv.ParseUint(os.Getenv("PICKUP_USER_ID"), 10, 32)
	if err != nil {
		log.Fatal().Msg("PICKUP_USER_ID is required")
	}

	groupIDs := parseGroupIDs(os.Getenv("PICKUP_GROUPS"))
	if len(groupIDs) == 0 {
		log.Fatal().Msg("PICKUP_GROUPS is required (comma-separated group ids)")
	}

	// Local read-marker snapshot (best-effort; the server remains
	// the source of truth)
	markerPath := os.Getenv("PICKUP_MARKER_CACHE")
	if markerPath == "" {
		markerPath = ".pickup-markers"
	}
	markers := store.NewMarkerStore(markerPath, log.Logger)
	if err := markers.Load(); err != nil {
		log.Warn().Err(err).Msg("marker snapshot unavailable, starting fresh")
		markers = nil
	}

	apiClient := api.NewClient(apiURL, token, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	self := models.Profile{ID: uint(selfID)}
	if profile, err := apiClient.FetchUser(ctx, uint(selfID)); err != nil {
		log.Warn().Err(err).Msg("could not fetch own profile")
	} else if profile != nil {
		self = *profile
	}

	conn := connection.NewManager(wsURL, func() transport.Transport {
		return transport.NewWSTransport(log.Logger)
	}, log.Logger)

	sess := session.NewChatSession(conn, apiClient, self, markers, log.Logger)
	resolver := stream.NewResolver(apiClient, self, log.Logger)

	sess.SetEventListeners(&connection.EventListeners{
		OnConnected: func() {
			log.Info().Msg("connected, joining groups")
			for _, id := range groupIDs {
				sess.JoinGroup(id)
			}
		},
		OnDisconnected: func() {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Msg("disconnected, reconnecting")
			sess.Connect(token)
		},
		OnJoinedGroup: func(groupID uint) {
			msgs, lastRead, err := sess.OpenGroup(ctx, groupID)
			if err != nil {
				log.Error().Err(err).Uint("group_id", groupID).Msg("history fetch failed")
				return
			}
			log.Info().
				Uint("group_id", groupID).
				Int("messages", len(msgs)).
				Uint("last_read", lastRead).
				Msg("group open")
		},
		OnNewMessage: func(msg models.Message) {
			sender := resolver.Resolve(ctx, msg.SenderID)
			name := sender.DisplayName()
			if name == "" {
				name = "user " + strconv.FormatUint(uint64(msg.SenderID), 10)
			}
			log.Info().
				Uint("group_id", msg.GroupID).
				Uint("id", msg.ID).
				Str("from", name).
				Msg(msg.Content)
		},
		OnUserTyping: func(userID, groupID uint, isTyping bool) {
			if isTyping {
				log.Info().Uint("group_id", groupID).Uint("user_id", userID).Msg("typing...")
			}
		},
		OnError: func(code, message string) {
			log.Error().Str("code", code).Msg(message)
		},
	})

	sess.Connect(token)

	if sess.HasAnyUnread(ctx, groupIDs) {
		log.Info().Msg("you have unread messages")
	}

	<-ctx.Done()

	// Report read boundaries before going away
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, id := range groupIDs {
		sess.CloseGroup(shutdownCtx, id)
	}
	sess.Disconnect()
	log.Info().Msg("session closed")
}

func parseGroupIDs(raw string) []uint {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseUint(part, 10, 32); err == nil {
			ids = append(ids, uint(id))
		}
	}
	return ids
}
