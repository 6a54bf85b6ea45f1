package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/adventure"
	"github.com/jwebster45206/adventure-engine/pkg/plan"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// createAdventureRequest matches the API request structure
type createAdventureRequest struct {
	SettingID  string                `json:"setting_id"`
	PlanID     string                `json:"plan_id"`
	UserID     string                `json:"user_id"`
	Characters []characterDefinition `json:"characters"`
}

type characterDefinition struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Stats plan.Stats `json:"stats"`
}

// createAdventureResponse matches the API response structure
type createAdventureResponse struct {
	Adventure *adventure.Adventure `json:"adventure"`
	Turn      *turn.Turn           `json:"turn"`
}

// actionResult matches the API action response structure
type actionResult struct {
	RollRequired      *turn.RollRequirement `json:"roll_required,omitempty"`
	ActionImplausible bool                  `json:"action_implausible,omitempty"`
	Feedback          string                `json:"feedback,omitempty"`
	Turn              *turn.Turn            `json:"turn,omitempty"`
}

// advanceResult matches the API advance response structure
type advanceResult struct {
	Status string     `json:"status"`
	Turn   *turn.Turn `json:"turn,omitempty"`
}

func createAdventure(client *http.Client, cfg *ConsoleConfig, characterName string) (*createAdventureResponse, error) {
	req := createAdventureRequest{
		SettingID: cfg.SettingID,
		PlanID:    cfg.PlanID,
		UserID:    cfg.UserID,
		Characters: []characterDefinition{
			{
				ID:   "pc_console",
				Name: characterName,
				Stats: plan.Stats{
					Strength: 12, Dexterity: 14, Constitution: 12,
					Intelligence: 12, Wisdom: 12, Charisma: 12,
				},
			},
		},
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		cfg.APIBaseURL+"/v1/adventures",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to create adventure: %s", errorResp.Error)
	}

	var created createAdventureResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to parse adventure response: %w", err)
	}
	return &created, nil
}

func getTurn(client *http.Client, baseURL string, turnID uuid.UUID) (*turn.Turn, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/turns/%s", baseURL, turnID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to get turn: %s", errorResp.Error)
	}

	var t turn.Turn
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, fmt.Errorf("failed to parse turn response: %w", err)
	}
	return &t, nil
}

func submitAction(client *http.Client, cfg *ConsoleConfig, turnID uuid.UUID, characterID, action string) (*actionResult, error) {
	reqBody := map[string]string{
		"character_id": characterID,
		"user_id":      cfg.UserID,
		"action":       action,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/turns/%s/action", cfg.APIBaseURL, turnID),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// 422 carries an implausible-action verdict, which is a normal result.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnprocessableEntity {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("action failed: %s", errorResp.Error)
	}

	var result actionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse action response: %w", err)
	}
	return &result, nil
}

func resolveRoll(client *http.Client, cfg *ConsoleConfig, turnID uuid.UUID, characterID string, baseRoll int) (*turn.Turn, error) {
	reqBody := map[string]any{
		"character_id": characterID,
		"base_roll":    baseRoll,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/turns/%s/roll", cfg.APIBaseURL, turnID),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("roll failed: %s", errorResp.Error)
	}

	var t turn.Turn
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, fmt.Errorf("failed to parse turn response: %w", err)
	}
	return &t, nil
}

func advanceTurn(client *http.Client, cfg *ConsoleConfig, turnID uuid.UUID) (*advanceResult, error) {
	resp, err := client.Post(
		fmt.Sprintf("%s/v1/turns/%s/advance", cfg.APIBaseURL, turnID),
		"application/json",
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("advance failed: %s", errorResp.Error)
	}

	var result advanceResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse advance response: %w", err)
	}
	return &result, nil
}
