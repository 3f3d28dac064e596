// Copyright 2025 The Parley Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/parley-ai/parley/pkg/auth"
	"github.com/parley-ai/parley/pkg/config"
	"github.com/parley-ai/parley/pkg/history"
	"github.com/parley-ai/parley/pkg/runtime"
)

// RunCmd executes one turn against the project's agents.
type RunCmd struct {
	Message      string `arg:"" help:"The user message."`
	Agent        string `help:"Agent to start on (defaults to the project's default agent)."`
	Conversation string `help:"Conversation id for history continuity (defaults to a fresh id)."`
	APIKey       string `name:"api-key" env:"PARLEY_API_KEY" help:"Model provider API key."`
	BaseURL      string `name:"base-url" env:"PARLEY_BASE_URL" default:"https://api.openai.com/v1" help:"OpenAI-compatible API base URL."`
	HistoryDB    string `name:"history-db" help:"SQLite file for conversation history (empty = in-memory)."`
	JSON         bool   `help:"Print the full generation result as JSON."`
}

func (c *RunCmd) Run(cli *CLI) error {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.APIKey == "" {
		return fmt.Errorf("an API key is required (--api-key, PARLEY_API_KEY, or OPENAI_API_KEY)")
	}

	project, err := config.Load(cli.Config)
	if err != nil {
		return err
	}

	store, err := openHistory(c.HistoryDB)
	if err != nil {
		return err
	}

	creds := auth.NewResolver()
	creds.Register("env", auth.EnvStore{})

	opts := []runtime.Option{
		runtime.WithHistory(store),
		runtime.WithCredentialResolver(creds),
	}
	if secret := os.Getenv("PARLEY_TEAM_SECRET"); secret != "" {
		minter, err := auth.NewHSMinter("parley", []byte(secret), 0)
		if err != nil {
			return err
		}
		opts = append(opts, runtime.WithTokenMinter(minter))
	}

	rt, err := runtime.New(project, newChatRunner(c.BaseURL, c.APIKey), opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	conversationID := c.Conversation
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := rt.Run(ctx, &runtime.TurnRequest{
		AgentID:        c.Agent,
		ConversationID: conversationID,
		Message:        c.Message,
		APIKey:         c.APIKey,
	})
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println(result.Text)
	if result.Object != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Object); err != nil {
			return err
		}
	}
	return nil
}

func openHistory(path string) (history.Store, error) {
	if path == "" {
		return history.NewMemoryStore(), nil
	}
	return history.NewSQLiteStore(path)
}
